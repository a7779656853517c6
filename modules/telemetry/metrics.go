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

package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics records server-side request instruments on the global
// MeterProvider; with telemetry disabled they are no-ops.
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
}

func NewHTTPMetrics(serviceName string) (*HTTPMetrics, error) {
	meter := otel.Meter(serviceName)

	requests, errCount := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	duration, errDuration := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Time to serve an HTTP request"),
		metric.WithUnit("ms"),
	)
	size, errSize := meter.Int64Histogram("http.server.response.body.size",
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"),
	)
	if err := errors.Join(errCount, errDuration, errSize); err != nil {
		return nil, err
	}
	return &HTTPMetrics{requests: requests, duration: duration, size: size}, nil
}

// RecordRequest records a single HTTP request. route must be a low-cardinality
// value such as the ServeMux pattern, never the raw path.
func (m *HTTPMetrics) RecordRequest(ctx context.Context, method, route string, statusCode int, durationMs float64, responseSize int64) {
	attrs := metric.WithAttributeSet(attribute.NewSet(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", statusCode),
	))

	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, durationMs, attrs)
	if responseSize > 0 {
		m.size.Record(ctx, responseSize, attrs)
	}
}
