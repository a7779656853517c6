package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestWrite_MergesExtensions(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, BadRequest("bad", WithCode("invalid_data"), WithExtension("hint", "x"), WithExtension("status", 999)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "invalid_data", got["code"])
	assert.Equal(t, "x", got["hint"])
	// extensions never override standard members
	assert.EqualValues(t, 400, got["status"])
}

func TestWriteFor_StampsTraceID(t *testing.T) {
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	rec := httptest.NewRecorder()
	WriteFor(rec, req, Unauthorized("no token"))

	var got Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.NotNil(t, got.TraceID)
	assert.Equal(t, tid.String(), *got.TraceID)
	assert.Equal(t, http.StatusUnauthorized, got.Status)
}

func TestWriteFor_WithoutSpan(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFor(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	var got Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Nil(t, got.TraceID)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
}
