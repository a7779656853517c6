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
	"errors"
	"strings"

	"brawler/modules/middleware/problem"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
)

// invalidParams flattens an OpenAPI validation error into problem params.
// Reasons never echo the rejected input back.
func invalidParams(err error) []problem.InvalidParam {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []problem.InvalidParam
		for _, item := range multi {
			out = append(out, invalidParams(item)...)
		}
		return out
	}
	return []problem.InvalidParam{invalidParam(err)}
}

func invalidParam(err error) problem.InvalidParam {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		var schemaErr *openapi3.SchemaError
		switch {
		case reqErr.Parameter != nil && errors.As(reqErr.Err, &schemaErr):
			return problem.InvalidParam{Name: reqErr.Parameter.Name, Reason: schemaErr.Reason}
		case errors.As(reqErr.Err, &schemaErr):
			return problem.InvalidParam{Name: fieldOf(schemaErr), Reason: schemaErr.Reason}
		case reqErr.Parameter != nil:
			return problem.InvalidParam{Name: reqErr.Parameter.Name, Reason: safeReason(reqErr.Reason)}
		case isBodyDecodeFailure(reqErr):
			return problem.InvalidParam{Name: "body", Reason: "malformed JSON"}
		default:
			return problem.InvalidParam{Name: "body", Reason: safeReason(reqErr.Reason)}
		}
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return problem.InvalidParam{Name: fieldOf(schemaErr), Reason: schemaErr.Reason}
	}
	return problem.InvalidParam{Name: "request", Reason: "invalid value"}
}

// fieldOf names the top-level body property a schema error points at.
func fieldOf(se *openapi3.SchemaError) string {
	ptr := se.JSONPointer()
	if len(ptr) == 0 || ptr[0] == "" || ptr[0] == "0" {
		return "body"
	}
	return ptr[0]
}

// failedBodyDecode is the reason kin-openapi gives when a body cannot be parsed.
const failedBodyDecode = "failed to decode request body"

// isBodyViolation reports a well-formed request whose body breaks the schema;
// those are answered with 422 rather than 400. A body that does not parse is
// not a violation.
func isBodyViolation(err error) bool {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, item := range multi {
			if isBodyViolation(item) {
				return true
			}
		}
		return false
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if isBodyDecodeFailure(reqErr) {
			return false
		}
		var schemaErr *openapi3.SchemaError
		return reqErr.RequestBody != nil || errors.As(reqErr.Err, &schemaErr)
	}
	var schemaErr *openapi3.SchemaError
	return errors.As(err, &schemaErr)
}

func isBodyDecodeFailure(reqErr *openapi3filter.RequestError) bool {
	var parseErr *openapi3filter.ParseError
	return reqErr.Reason == failedBodyDecode || errors.As(reqErr.Err, &parseErr)
}

func safeReason(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "doesn't match schema"):
		return "doesn't match schema"
	case strings.Contains(lower, "must be one of"):
		return reason
	case strings.Contains(lower, "value is required"):
		return "value is required"
	default:
		return "invalid value"
	}
}
