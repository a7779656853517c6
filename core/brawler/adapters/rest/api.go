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
)

const defaultMaxAvatarBytes int64 = 5 << 20

// BrawlerAPI implements the HTTP handlers for brawler profile operations.
// It acts as the REST adapter in the hexagonal architecture, translating
// HTTP requests into domain operations.
type BrawlerAPI struct {
	app            *domain.Application
	maxAvatarBytes int64
}

type Option func(*BrawlerAPI)

// WithMaxAvatarBytes caps the size of an avatar upload body. Values <= 0 keep the default.
func WithMaxAvatarBytes(n int64) Option {
	return func(p *BrawlerAPI) {
		if n > 0 {
			p.maxAvatarBytes = n
		}
	}
}

// NewBrawlerAPI creates a BrawlerAPI backed by a single, shared repository.
func NewBrawlerAPI(repo domain.BrawlerRepository, opts ...Option) *BrawlerAPI {
	p := &BrawlerAPI{
		app:            domain.NewApp(repo),
		maxAvatarBytes: defaultMaxAvatarBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Mount registers the brawler routes on mux. protect wraps the routes that
// act on the caller's own brawler and must inject a verified identity.
func (p *BrawlerAPI) Mount(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /healthz", p.Healthz)
	mux.HandleFunc("POST /register", p.Register)

	mux.Handle("POST /avatar", protect(http.HandlerFunc(p.UploadAvatar)))
	mux.Handle("POST /profile", protect(http.HandlerFunc(p.UpdateProfile)))
	mux.Handle("GET /profile", protect(http.HandlerFunc(p.GetProfile)))
}
