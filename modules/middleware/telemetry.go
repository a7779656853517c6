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
	"net/http"
	"time"

	"brawler/modules/telemetry"
)

// unmatchedRoute labels requests no route pattern claimed, keeping the label set bounded.
const unmatchedRoute = "unmatched"

// responseRecorder remembers the status and body size of whatever layer
// answered the request: validation, auth, recovery or a handler.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *responseRecorder) statusCode() int {
	if r.status == 0 {
		// nothing written: net/http answers 200
		return http.StatusOK
	}
	return r.status
}

// Telemetry records request count, latency and response size for every
// request. It must be the outermost middleware to see responses written by
// the others. A nil metrics disables it.
func Telemetry(metrics *telemetry.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// the mux fills r.Pattern on the way down when no middleware copied the request
			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			metrics.RecordRequest(r.Context(), r.Method, route, rec.statusCode(),
				float64(time.Since(start).Microseconds())/1000, rec.written)
		})
	}
}
