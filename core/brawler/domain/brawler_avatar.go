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
	"context"
	"log/slog"

	"brawler/modules/imgcodec"
)

// UploadAvatar encodes raw and stores it as the avatar of the brawler identified by id.
// id must come from the caller's verified identity, never from the request payload.
func (app *Application) UploadAvatar(ctx context.Context, id int64, raw []byte) (*UploadedImage, error) {
	if id <= 0 {
		return nil, fail(ctx, "upload avatar", ErrInvalidData)
	}
	encoded := imgcodec.Encode(raw)

	img, err := app.repo.StoreAvatar(ctx, id, encoded)
	if err != nil {
		return nil, fail(ctx, "upload avatar", err)
	}
	slog.DebugContext(ctx, "stored avatar",
		slog.Int64("brawler_id", id),
		slog.Int("raw_bytes", len(raw)),
	)
	return img, nil
}
