package services

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brawler/core/brawler/adapters/persistence/memory"
	brawler_http "brawler/core/brawler/adapters/rest"
	"brawler/modules/middleware/auth"
	"brawler/modules/server"
)

const specPath = "openapi-brawler.yaml"

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	verifier, err := auth.NewVerifier(auth.Config{JWTSecret: "svc-secret"})
	require.NoError(t, err)

	svc, err := NewBrawlerAPIService(
		brawler_http.NewBrawlerAPI(memory.New(nil)),
		verifier.Middleware(nil),
		os.DirFS("../oapi"),
		specPath,
	)
	require.NoError(t, err)

	s, err := server.New("127.0.0.1", 8080, server.WithServices(svc))
	require.NoError(t, err)
	return s.Handler()
}

func TestNewBrawlerAPIService_MissingDocument(t *testing.T) {
	verifier, err := auth.NewVerifier(auth.Config{JWTSecret: "svc-secret"})
	require.NoError(t, err)

	_, err = NewBrawlerAPIService(brawler_http.NewBrawlerAPI(memory.New(nil)), verifier.Middleware(nil), os.DirFS("../oapi"), "missing.yaml")
	assert.Error(t, err)
}

func TestNewBrawlerAPIService_RequiresAuth(t *testing.T) {
	_, err := NewBrawlerAPIService(brawler_http.NewBrawlerAPI(memory.New(nil)), nil, os.DirFS("../oapi"), specPath)
	assert.Error(t, err)
}

func TestBrawlerAPIService_Routes(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "healthz", method: http.MethodGet, path: "/healthz", want: http.StatusNoContent},
		{name: "register", method: http.MethodPost, path: "/register", body: `{"handle":"carol"}`, want: http.StatusCreated},
		{name: "register missing handle", method: http.MethodPost, path: "/register", body: `{"display_name":"x"}`, want: http.StatusUnprocessableEntity},
		{name: "register malformed body", method: http.MethodPost, path: "/register", body: `{handle`, want: http.StatusBadRequest},
		{name: "update malformed body", method: http.MethodPost, path: "/profile", body: `{display_name`, want: http.StatusBadRequest},
		{name: "register extra field", method: http.MethodPost, path: "/register", body: `{"handle":"dave","password":"x"}`, want: http.StatusUnprocessableEntity},
		{name: "profile without token", method: http.MethodGet, path: "/profile", want: http.StatusUnauthorized},
		{name: "update without token", method: http.MethodPost, path: "/profile", body: `{"display_name":"x"}`, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
