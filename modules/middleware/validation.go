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

package middleware

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"brawler/modules/middleware/problem"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
)

// specCache holds parsed OpenAPI documents keyed by file path.
var (
	specCacheMu sync.RWMutex
	specCache   = make(map[string]*specCacheEntry)
)

type specCacheEntry struct {
	doc *openapi3.T
	err error
}

func loadSpec(fsys fs.FS, specPath string) (*openapi3.T, error) {
	specCacheMu.RLock()
	if entry, ok := specCache[specPath]; ok {
		specCacheMu.RUnlock()
		return entry.doc, entry.err
	}
	specCacheMu.RUnlock()

	specCacheMu.Lock()
	defer specCacheMu.Unlock()

	if entry, ok := specCache[specPath]; ok {
		return entry.doc, entry.err
	}

	data, err := fs.ReadFile(fsys, specPath)
	if err != nil {
		specCache[specPath] = &specCacheEntry{err: err}
		return nil, err
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err == nil {
		err = doc.Validate(loader.Context)
	}

	specCache[specPath] = &specCacheEntry{doc: doc, err: err}
	return doc, err
}

// OpenAPIValidation validates requests against the OpenAPI document at specPath
// before they reach the handlers. Violations are written as problem documents:
// 422 for body schema violations, the validator's status (usually 400 or 404) otherwise.
//
// Security requirements are not checked here; protected routes carry their own
// authentication middleware.
func OpenAPIValidation(specFS fs.FS, specPath string) (func(http.Handler) http.Handler, error) {
	spec, err := loadSpec(specFS, specPath)
	if err != nil {
		return nil, err
	}

	opts := &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError:         true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		DoNotValidateServers:  true,
		SilenceServersWarning: true,
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, eopts nethttpmiddleware.ErrorHandlerOpts) {
			status := eopts.StatusCode
			if status == 0 {
				status = http.StatusBadRequest
			}
			if isBodyViolation(err) {
				status = http.StatusUnprocessableEntity
			}

			slog.DebugContext(ctx, "request validation failed",
				slog.String("url", r.URL.Path),
				slog.Int("status", status),
				slog.Any("error", err),
			)

			options := []problem.Option{
				problem.WithStatus(status),
				problem.WithTitle(http.StatusText(status)),
				problem.WithDetail("validation failed"),
			}
			for _, p := range invalidParams(err) {
				options = append(options, problem.WithInvalidParam(p.Name, p.Reason))
			}
			problem.WriteFor(w, r, problem.New(options...))
		},
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts), nil
}
