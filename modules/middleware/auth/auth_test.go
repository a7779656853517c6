package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, key string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func claimsFor(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func serve(t *testing.T, v *Verifier, authz string) (*httptest.ResponseRecorder, int64, bool) {
	t.Helper()
	var (
		gotID  int64
		called bool
	)
	h := v.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotID, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/profile", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, gotID, called
}

func TestMiddleware_InjectsSubjectAsIdentity(t *testing.T) {
	v, err := NewVerifier(Config{JWTSecret: secret})
	require.NoError(t, err)

	tok := sign(t, secret, jwt.SigningMethodHS256, claimsFor(strconv.Itoa(7)))
	rec, id, called := serve(t, v, "Bearer "+tok)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(7), id)
}

func TestMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	v, err := NewVerifier(Config{JWTSecret: secret})
	require.NoError(t, err)

	tok := sign(t, secret, jwt.SigningMethodHS256, claimsFor("7"))
	for _, scheme := range []string{"bearer", "BEARER", "BeArEr"} {
		rec, id, called := serve(t, v, scheme+" "+tok)
		assert.True(t, called, scheme)
		assert.Equal(t, http.StatusNoContent, rec.Code, scheme)
		assert.Equal(t, int64(7), id, scheme)
	}
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, header := range []string{"", "Bearer", "Bearer ", "Bearerabc", "Basic abc"} {
		_, ok := bearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	v, err := NewVerifier(Config{JWTSecret: secret, Issuer: "brawler"})
	require.NoError(t, err)

	issued := func(sub string) jwt.RegisteredClaims {
		c := claimsFor(sub)
		c.Issuer = "brawler"
		return c
	}
	expired := issued("7")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExp := issued("7")
	noExp.ExpiresAt = nil

	cases := map[string]string{
		"no header":        "",
		"not bearer":       "Basic abc",
		"empty bearer":     "Bearer ",
		"garbage":          "Bearer not.a.jwt",
		"wrong key":        "Bearer " + sign(t, "other", jwt.SigningMethodHS256, issued("7")),
		"wrong alg":        "Bearer " + sign(t, secret, jwt.SigningMethodHS512, issued("7")),
		"wrong issuer":     "Bearer " + sign(t, secret, jwt.SigningMethodHS256, claimsFor("7")),
		"expired":          "Bearer " + sign(t, secret, jwt.SigningMethodHS256, expired),
		"no expiry":        "Bearer " + sign(t, secret, jwt.SigningMethodHS256, noExp),
		"non numeric sub":  "Bearer " + sign(t, secret, jwt.SigningMethodHS256, issued("nova")),
		"non positive sub": "Bearer " + sign(t, secret, jwt.SigningMethodHS256, issued("0")),
	}

	for name, authz := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _, called := serve(t, v, authz)
			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)
}

func TestIdentityFrom_Absent(t *testing.T) {
	_, ok := IdentityFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
