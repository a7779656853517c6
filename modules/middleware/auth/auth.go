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

// Package auth verifies bearer tokens and places the caller's brawler ID in the
// request context. Issuing tokens is left to the identity provider.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"brawler/modules/middleware/problem"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	// Issuer is enforced on the "iss" claim when non-empty.
	Issuer string `env:"JWT_ISSUER"`
}

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrInvalidSubject = errors.New("token subject is not a brawler id")
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the verified brawler ID.
func WithIdentity(ctx context.Context, brawlerID int64) context.Context {
	return context.WithValue(ctx, identityKey{}, brawlerID)
}

// IdentityFrom returns the verified brawler ID stored by the middleware.
func IdentityFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(identityKey{}).(int64)
	return id, ok
}

// RejectHandler writes the response for a request that failed authentication.
type RejectHandler func(w http.ResponseWriter, r *http.Request, err error)

func defaultReject(w http.ResponseWriter, r *http.Request, err error) {
	problem.WriteFor(w, r, problem.Unauthorized(err.Error()))
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("auth: jwt secret must not be empty")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Verifier{secret: []byte(cfg.JWTSecret), parser: jwt.NewParser(opts...)}, nil
}

// Verify checks the token signature and claims and returns the brawler ID in "sub".
func (v *Verifier) Verify(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}
	return id, nil
}

// Middleware rejects requests without a valid bearer token before they reach
// the wrapped handler. A nil reject handler writes a 401 problem document.
func (v *Verifier) Middleware(reject RejectHandler) func(http.Handler) http.Handler {
	if reject == nil {
		reject = defaultReject
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, ErrMissingToken)
				return
			}

			id, err := v.Verify(token)
			if err != nil {
				slog.DebugContext(r.Context(), "rejected bearer token",
					slog.String("url", r.URL.Path),
					slog.Any("error", err),
				)
				reject(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken extracts the credentials of a Bearer Authorization header.
// The scheme name is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
