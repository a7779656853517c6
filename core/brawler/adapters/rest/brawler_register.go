// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rest

import (
	"net/http"

	"brawler/core/brawler/domain"
	"brawler/modules/api/serde"
	"brawler/modules/middleware/problem"
)

// Register creates a new brawler.
// Returns 201 with the brawler on success, 400 for an unreadable body, 500 for any store failure.
func (p *BrawlerAPI) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		problem.WriteFor(w, r, problem.BadRequest("invalid request body", problem.WithInvalidParam("body", err.Error())))
		return
	}

	created, err := p.app.Register(r.Context(), domain.RegisterRequest{
		Handle:      body.Handle,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		problem.WriteFor(w, r, ProblemFromUseCaseError(err))
		return
	}

	serde.WriteJSON(w, http.StatusCreated, mapBrawler(created))
}
