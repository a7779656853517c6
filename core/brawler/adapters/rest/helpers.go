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
	"errors"
	"net/http"
	"time"

	"brawler/core/brawler/domain"
	"brawler/modules/middleware/auth"
	"brawler/modules/middleware/problem"
)

type (
	registerRequest struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"display_name,omitempty"`
	}

	updateProfileRequest struct {
		DisplayName string `json:"display_name"`
	}

	brawlerResponse struct {
		ID          int64     `json:"id"`
		Handle      string    `json:"handle"`
		DisplayName string    `json:"display_name"`
		Avatar      *string   `json:"avatar,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	uploadedImageResponse struct {
		BrawlerID int64  `json:"brawler_id"`
		Base64    string `json:"base64_string"`
	}
)

// mapBrawler converts the domain model to its public representation.
func mapBrawler(b *domain.Brawler) brawlerResponse {
	return brawlerResponse{
		ID:          b.ID,
		Handle:      b.Handle,
		DisplayName: b.DisplayName,
		Avatar:      b.Avatar,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// errorCode names the repository failure subtype carried in the problem "code" field.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateBrawler):
		return "conflict"
	case errors.Is(err, domain.ErrBrawlerNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrInvalidData):
		return "invalid_data"
	default:
		return "unhandled"
	}
}

// ProblemFromUseCaseError maps an application error to a problem document.
// Invalid data is a 400; every repository failure collapses to 500 with the
// cause as detail and the subtype as code.
func ProblemFromUseCaseError(err error) *problem.Problem {
	code := problem.WithCode(errorCode(err))
	if errors.Is(err, domain.ErrInvalidData) {
		return problem.BadRequest(err.Error(), code)
	}
	return problem.Internal(err.Error(), code)
}

// identity returns the verified caller, writing a 401 when the route was
// mounted without the auth middleware.
func identity(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		problem.WriteFor(w, r, problem.Unauthorized("missing verified identity"))
		return 0, false
	}
	return id, true
}
