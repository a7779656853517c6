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

	"brawler/modules/middleware"
	"brawler/modules/middleware/problem"
)

// RecoverHTTPMiddleware turns a handler panic into a 500 problem document.
// The panic value is logged, never sent to the client.
func RecoverHTTPMiddleware() func(http.Handler) http.Handler {
	return middleware.Recovery(func(w http.ResponseWriter, r *http.Request, _ any) {
		problem.WriteFor(w, r, problem.Internal("internal server error", problem.WithCode("unhandled")))
	})
}
