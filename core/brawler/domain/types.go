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

import (
	"strconv"
	"time"
)

type (
	Application struct {
		repo BrawlerRepository
	}

	// Brawler is the account entity used by the application layer.
	Brawler struct {
		ID          int64
		Handle      string
		DisplayName string
		// Avatar holds the encoded image text, nil until the first upload.
		Avatar    *string
		CreatedAt time.Time
		UpdatedAt time.Time

		Version int64
	}

	// RegisterRequest carries the fields needed to create a Brawler.
	RegisterRequest struct {
		Handle      string
		DisplayName string
	}

	// UploadedImage is the stored, text-encoded avatar of a Brawler.
	UploadedImage struct {
		BrawlerID int64
		Base64    string
	}
)

func (b *Brawler) V() string {
	return strconv.FormatInt(b.Version, 10)
}
