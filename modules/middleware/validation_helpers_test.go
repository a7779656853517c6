package middleware

import (
	"errors"
	"testing"

	"brawler/modules/middleware/problem"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/stretchr/testify/assert"
)

func TestInvalidParams_FlattensMultiError(t *testing.T) {
	err := openapi3.MultiError{
		&openapi3filter.RequestError{
			Parameter: &openapi3.Parameter{Name: "If-None-Match"},
			Reason:    "value is required but missing",
		},
		&openapi3filter.RequestError{
			RequestBody: &openapi3.RequestBody{},
			Err:         &openapi3.SchemaError{Reason: `property "handle" is missing`},
		},
		errors.New("something else"),
	}

	assert.Equal(t, []problem.InvalidParam{
		{Name: "If-None-Match", Reason: "value is required"},
		{Name: "body", Reason: `property "handle" is missing`},
		{Name: "request", Reason: "invalid value"},
	}, invalidParams(err))
}

func TestIsBodyViolation(t *testing.T) {
	assert.True(t, isBodyViolation(&openapi3filter.RequestError{RequestBody: &openapi3.RequestBody{}}))
	assert.True(t, isBodyViolation(openapi3.MultiError{&openapi3.SchemaError{}}))
	assert.False(t, isBodyViolation(&openapi3filter.RequestError{Parameter: &openapi3.Parameter{Name: "q"}}))
	assert.False(t, isBodyViolation(errors.New("route not found")))
}

func TestIsBodyViolation_MalformedBody(t *testing.T) {
	decodeErr := &openapi3filter.RequestError{
		RequestBody: &openapi3.RequestBody{},
		Reason:      "failed to decode request body",
		Err:         &openapi3filter.ParseError{Kind: openapi3filter.KindInvalidFormat, Cause: errors.New("unexpected EOF")},
	}

	assert.False(t, isBodyViolation(decodeErr))
	assert.False(t, isBodyViolation(openapi3.MultiError{decodeErr}))
	assert.Equal(t, []problem.InvalidParam{{Name: "body", Reason: "malformed JSON"}}, invalidParams(decodeErr))
}

func TestSafeReason_DoesNotEchoInput(t *testing.T) {
	assert.Equal(t, "invalid value", safeReason(`value "<script>" is bad`))
	assert.Equal(t, "doesn't match schema", safeReason("Value doesn't match schema: ..."))
	assert.Equal(t, "invalid value", safeReason(""))
}
