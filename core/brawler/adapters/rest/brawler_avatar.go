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
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"brawler/modules/api/serde"
	"brawler/modules/middleware/problem"
)

const avatarField = "avatar"

var (
	ErrAvatarRequired = errors.New("avatar file is required")
)

// UploadAvatar stores the first multipart part named "avatar" as the caller's avatar.
// Parts are consumed lazily; scanning stops at the first match.
func (p *BrawlerAPI) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, p.maxAvatarBytes)
	raw, err := readAvatar(r)
	if err != nil {
		problem.WriteFor(w, r, problem.BadRequest(err.Error(), problem.WithInvalidParam(avatarField, err.Error())))
		return
	}

	img, err := p.app.UploadAvatar(r.Context(), id, raw)
	if err != nil {
		problem.WriteFor(w, r, ProblemFromUseCaseError(err))
		return
	}

	serde.WriteJSON(w, http.StatusOK, uploadedImageResponse{
		BrawlerID: img.BrawlerID,
		Base64:    img.Base64,
	})
}

// readAvatar returns the bytes of the first "avatar" part. Parts before it
// are skipped without being buffered.
func readAvatar(r *http.Request) ([]byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("read multipart: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, ErrAvatarRequired
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart: %w", err)
		}
		if part.FormName() != avatarField {
			_ = part.Close()
			continue
		}
		return readPart(part)
	}
}

func readPart(part *multipart.Part) ([]byte, error) {
	defer part.Close()
	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	return raw, nil
}
