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

package domain

import "context"

// BrawlerRepository is the outbound port for brawler persistence.
//
// The application never depends on a concrete engine: Postgres, an in-memory map
// or a caching decorator over either can satisfy it. Implementations own their
// concurrency control; the application holds a single long-lived instance and
// shares it across all requests without extra locking.
//
// Errors returned by implementations must wrap one of the sentinel errors in
// errors.go so the application can classify them:
//   - ErrDuplicateBrawler when a uniqueness constraint is violated
//   - ErrBrawlerNotFound when the target brawler does not exist
//   - ErrUnavailable when the backing store cannot be reached
type BrawlerRepository interface {
	// Register creates a new brawler and returns it with its assigned ID.
	Register(ctx context.Context, req RegisterRequest) (*Brawler, error)

	// UpdateDisplayName replaces the display name of the brawler.
	UpdateDisplayName(ctx context.Context, id int64, name string) error

	// StoreAvatar replaces the avatar of the brawler with the encoded image.
	StoreAvatar(ctx context.Context, id int64, encoded string) (*UploadedImage, error)

	// GetBrawler fetches a single brawler by ID.
	GetBrawler(ctx context.Context, id int64) (*Brawler, error)
}
