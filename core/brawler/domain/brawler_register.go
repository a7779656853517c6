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
	"fmt"
	"log/slog"
)

// Register creates a brawler. An empty display name defaults to the handle.
func (app *Application) Register(ctx context.Context, req RegisterRequest) (*Brawler, error) {
	if len(req.Handle) == 0 {
		return nil, fail(ctx, "register", ErrInvalidData)
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Handle
	}

	created, err := app.repo.Register(ctx, req)
	if err != nil {
		return nil, fail(ctx, "register", err)
	}
	slog.DebugContext(ctx, "registered brawler", slog.Any("brawler", fmt.Sprintf("%+v", created)))
	return created, nil
}
