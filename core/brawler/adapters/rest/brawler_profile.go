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

	"brawler/modules/api/serde"
	"brawler/modules/etag"
	"brawler/modules/middleware/problem"
)

// UpdateProfile sets the caller's display name. The target brawler is always
// the verified identity; the body carries only the new name.
// Returns 200 with an empty body on success.
func (p *BrawlerAPI) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var body updateProfileRequest
	if err := serde.ParseJsonBody(r.Body, &body); err != nil {
		problem.WriteFor(w, r, problem.BadRequest("invalid request body", problem.WithInvalidParam("body", err.Error())))
		return
	}

	if err := p.app.UpdateProfile(r.Context(), id, body.DisplayName); err != nil {
		problem.WriteFor(w, r, ProblemFromUseCaseError(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetProfile returns the caller's brawler with its ETag, or 304 when the
// client's If-None-Match already names the current version.
func (p *BrawlerAPI) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	b, err := p.app.GetProfile(r.Context(), id)
	if err != nil {
		problem.WriteFor(w, r, ProblemFromUseCaseError(err))
		return
	}
	w.Header().Set("ETag", etag.ETag(b))
	if etag.Matches(r.Header.Get("If-None-Match"), b) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	serde.WriteJSON(w, http.StatusOK, mapBrawler(b))
}
