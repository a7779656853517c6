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

// Package problem writes RFC 7807 problem documents.
package problem

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

const ContentType = "application/problem+json"

// Problem is an RFC 7807 document. Code names the failure class for clients
// that branch on it; Extensions are merged into the top-level object.
type Problem struct {
	Code          *string         `json:"code,omitempty"`
	Detail        *string         `json:"detail,omitempty"`
	Instance      *string         `json:"instance,omitempty"`
	InvalidParams *[]InvalidParam `json:"invalidParams,omitempty"`
	Status        int             `json:"status"`
	Title         string          `json:"title"`
	TraceID       *string         `json:"traceId,omitempty"`
	Type          *string         `json:"type,omitempty"`

	Extensions map[string]any `json:"-"`
}

type InvalidParam struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Option func(*Problem)

// New builds a problem, 500 unless an option says otherwise. An empty title
// is filled from the status text.
func New(opts ...Option) *Problem {
	p := &Problem{
		Type:   strPtr("about:blank"),
		Status: http.StatusInternalServerError,
		Detail: strPtr("unhandled error"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.Type == nil {
		p.Type = strPtr("about:blank")
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Title == "" {
		p.Title = "Unknown Error"
	}
	return p
}

func Write(w http.ResponseWriter, p *Problem) {
	if p == nil {
		p = Internal("server error")
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteFor writes p stamped with the trace ID of r's active span, if any.
func WriteFor(w http.ResponseWriter, r *http.Request, p *Problem) {
	if p == nil {
		p = Internal("server error")
	}
	if p.TraceID == nil {
		WithTraceContext(r.Context())(p)
	}
	Write(w, p)
}

func WithStatus(status int) Option { return func(p *Problem) { p.Status = status } }
func WithTitle(title string) Option { return func(p *Problem) { p.Title = title } }
func WithDetail(detail string) Option { return func(p *Problem) { p.Detail = strPtr(detail) } }
func WithType(typ string) Option { return func(p *Problem) { p.Type = strPtr(typ) } }
func WithCode(code string) Option { return func(p *Problem) { p.Code = strPtr(code) } }
func WithTraceID(id string) Option { return func(p *Problem) { p.TraceID = strPtr(id) } }

// WithTraceContext records the trace ID of the span in ctx, if there is one.
func WithTraceContext(ctx context.Context) Option {
	return func(p *Problem) {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			p.TraceID = strPtr(sc.TraceID().String())
		}
	}
}

func WithInvalidParam(name, reason string) Option {
	return func(p *Problem) {
		var params []InvalidParam
		if p.InvalidParams != nil {
			params = *p.InvalidParams
		}
		params = append(params, InvalidParam{Name: name, Reason: reason})
		p.InvalidParams = &params
	}
}

func WithExtension(key string, value any) Option {
	return func(p *Problem) {
		if p.Extensions == nil {
			p.Extensions = map[string]any{}
		}
		p.Extensions[key] = value
	}
}

// withStatus is the shared shape of the named constructors below.
func withStatus(status int, detail string, opts []Option) *Problem {
	base := []Option{WithStatus(status), WithTitle(http.StatusText(status)), WithDetail(detail)}
	return New(append(base, opts...)...)
}

func BadRequest(detail string, opts ...Option) *Problem {
	return withStatus(http.StatusBadRequest, detail, opts)
}

func Unauthorized(detail string, opts ...Option) *Problem {
	return withStatus(http.StatusUnauthorized, detail, opts)
}

func TooManyRequests(detail string, opts ...Option) *Problem {
	return withStatus(http.StatusTooManyRequests, detail, opts)
}

func Internal(detail string, opts ...Option) *Problem {
	return withStatus(http.StatusInternalServerError, detail, opts)
}

func strPtr(s string) *string { return &s }

// MarshalJSON merges Extensions into the base object. Standard members win
// over extensions of the same name.
func (p Problem) MarshalJSON() ([]byte, error) {
	// alias drops the method set so json.Marshal does not recurse
	type alias Problem
	base, err := json.Marshal(alias(p))
	if err != nil || len(p.Extensions) == 0 {
		return base, err
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range p.Extensions {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
