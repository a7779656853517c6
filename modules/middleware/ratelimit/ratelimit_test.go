package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brawler/modules/clock"
	rl "brawler/modules/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyStrategies = map[KeyStrategyId]KeyFunc{RemoteIpKeyStrategy: RemoteIpKeyFunc}

func newPolicy(t *testing.T, cfg *RestHTTPConfig) *RuntimePolicy {
	t.Helper()
	c := clock.NewManualClock(time.Unix(0, 0).Add(1000 * time.Minute))
	rtp, err := ParsePolicy(rl.SlidingWindowFactory(c, rl.NewMemoryCounter(c), "test"), cfg, StdlibRouteInfo, keyStrategies)
	require.NoError(t, err)
	return rtp
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_RouteRuleLimits(t *testing.T) {
	h := NewRateLimitMiddleware(newPolicy(t, &RestHTTPConfig{
		Routes: []Route{{
			Pattern: "/register",
			EndpointRules: []EndpointRule{
				{Method: "post", Limit: 1, Window: time.Minute, KeyStrategy: RemoteIpKeyStrategy},
			},
		}},
		AllowIfNoMatch: true,
	}))(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/register", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := send()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", second.Header().Get("Content-Type"))

	// unconfigured route passes through
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_DefaultPolicy(t *testing.T) {
	h := NewRateLimitMiddleware(newPolicy(t, &RestHTTPConfig{
		DefaultPolicy: DefaultRule{Limit: 2, Window: time.Minute, KeyStrategy: RemoteIpKeyStrategy},
	}))(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestParsePolicy_Errors(t *testing.T) {
	factory := rl.SlidingWindowFactory(clock.RealClockProvider(), rl.NewMemoryCounter(nil), "test")

	_, err := ParsePolicy(factory, &RestHTTPConfig{
		DefaultPolicy: DefaultRule{Limit: 1, Window: time.Minute, KeyStrategy: "api_key"},
	}, StdlibRouteInfo, keyStrategies)
	assert.Error(t, err)

	rule := EndpointRule{Method: "GET", Limit: 1, Window: time.Minute, KeyStrategy: RemoteIpKeyStrategy}
	_, err = ParsePolicy(factory, &RestHTTPConfig{
		Routes: []Route{{Pattern: "/profile", EndpointRules: []EndpointRule{rule, rule}}},
	}, StdlibRouteInfo, keyStrategies)
	assert.Error(t, err)
}

func TestRemoteIpKeyFunc(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       rl.Key
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded", remoteAddr: "10.0.0.1:1", xff: "203.0.113.9, 198.51.100.7", want: "198.51.100.7"},
		{name: "empty forwarded entry", remoteAddr: "192.0.2.1:1234", xff: "203.0.113.9, ", want: "192.0.2.1"},
		{name: "no port", remoteAddr: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, RemoteIpKeyFunc(req))
		})
	}
}
