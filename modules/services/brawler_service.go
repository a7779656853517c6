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

package services

import (
	"fmt"
	"io/fs"
	"net/http"

	brawler_http "brawler/core/brawler/adapters/rest"
	"brawler/modules/middleware"
	"brawler/modules/server"
)

var _ server.RegistrableService = (*BrawlerAPIService)(nil)

// BrawlerAPIService mounts the brawler routes and contributes request validation.
type BrawlerAPIService struct {
	api        *brawler_http.BrawlerAPI
	protect    func(http.Handler) http.Handler
	validation func(http.Handler) http.Handler
}

// NewBrawlerAPIService loads the OpenAPI document eagerly so a missing or invalid
// document fails at start-up rather than on the first request.
func NewBrawlerAPIService(api *brawler_http.BrawlerAPI, protect func(http.Handler) http.Handler, specFS fs.FS, specPath string) (*BrawlerAPIService, error) {
	if protect == nil {
		return nil, fmt.Errorf("brawler service: auth middleware is required")
	}
	validation, err := middleware.OpenAPIValidation(specFS, specPath)
	if err != nil {
		return nil, fmt.Errorf("brawler service: load %s: %w", specPath, err)
	}
	return &BrawlerAPIService{api: api, protect: protect, validation: validation}, nil
}

// Register mounts the brawler routes; /avatar and /profile sit behind the auth middleware.
func (s *BrawlerAPIService) Register(mux *http.ServeMux) {
	s.api.Mount(mux, s.protect)
}

// Middlewares returns global middlewares required by the brawler API, such as validation.
func (s *BrawlerAPIService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{s.validation}
}
