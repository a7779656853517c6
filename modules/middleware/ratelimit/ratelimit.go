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

package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"brawler/modules/middleware/problem"
	rl "brawler/modules/ratelimit"
)

type (
	Pattern string

	// KeyFunc extracts the identity a limit applies to (remote IP, user ID, ...).
	// An empty key means the request could not be identified.
	KeyFunc func(*http.Request) rl.Key

	// RouteInfoFunc tells the middleware which route a request is headed for.
	RouteInfoFunc func(*http.Request) RouteInfo

	RouteInfo struct {
		ID     Pattern
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
	}

	// RuntimePolicy is the compiled form of RestHTTPConfig. Lookups go from
	// the most to the least specific rule: route and method, then the default
	// for the method, then the catch-all default.
	RuntimePolicy struct {
		routes           map[Pattern]map[string]Policy
		fallbackByMethod map[string]Policy
		fallback         *Policy

		// AllowIfNoMatch lets requests without any applicable policy through.
		AllowIfNoMatch bool
		// AllowIfNoIdentifier lets requests whose KeyFunc yields nothing through.
		AllowIfNoIdentifier bool

		RouteInfoFn RouteInfoFunc
	}
)

const (
	fromRoute    = "route"
	fromMethod   = "default_method"
	fromFallback = "default"
)

func (p *RuntimePolicy) lookup(ri RouteInfo) (Policy, string, bool) {
	m := strings.ToUpper(ri.Method)
	if px, ok := p.routes[ri.ID][m]; ok {
		return px, fromRoute, true
	}
	if px, ok := p.fallbackByMethod[m]; ok {
		return px, fromMethod, true
	}
	if p.fallback != nil {
		return *p.fallback, fromFallback, true
	}
	return Policy{}, "", false
}

// ParsePolicy compiles cfg. Route patterns must match what RouteInfoFn reports,
// i.e. the patterns the routes are registered with.
func ParsePolicy(
	factory rl.LimiterFactory,
	cfg *RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	strategy := func(id KeyStrategyId, where string) (KeyFunc, error) {
		fn, ok := keyStrategies[id]
		if !ok {
			return nil, fmt.Errorf("ratelimit: unknown key strategy %q for %s", id, where)
		}
		return fn, nil
	}

	rtp := &RuntimePolicy{
		routes:              make(map[Pattern]map[string]Policy, len(cfg.Routes)),
		AllowIfNoMatch:      cfg.AllowIfNoMatch,
		AllowIfNoIdentifier: cfg.AllowIfNoIdentifier,
		RouteInfoFn:         routeFn,
	}

	// the default only counts as configured when it can actually be enforced
	if d := cfg.DefaultPolicy; d.Window > 0 && d.KeyStrategy != "" {
		fn, err := strategy(d.KeyStrategy, "the default policy")
		if err != nil {
			return nil, err
		}
		px := Policy{Limiter: factory(d.Limit, d.Window), KeyFn: fn}
		if d.Method == "" {
			rtp.fallback = &px
		} else {
			rtp.fallbackByMethod = map[string]Policy{strings.ToUpper(d.Method): px}
		}
	}

	for _, route := range cfg.Routes {
		pat := Pattern(route.Pattern)
		byMethod := rtp.routes[pat]
		if byMethod == nil {
			byMethod = make(map[string]Policy, len(route.EndpointRules))
			rtp.routes[pat] = byMethod
		}
		for _, rule := range route.EndpointRules {
			m := strings.ToUpper(rule.Method)
			where := fmt.Sprintf("%s %s", m, pat)
			if _, dup := byMethod[m]; dup {
				return nil, fmt.Errorf("ratelimit: duplicate rule for %s", where)
			}
			fn, err := strategy(rule.KeyStrategy, where)
			if err != nil {
				return nil, err
			}
			byMethod[m] = Policy{Limiter: factory(rule.Limit, rule.Window), KeyFn: fn}
		}
	}
	return rtp, nil
}

func NewRateLimitMiddleware(p *RuntimePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			route := p.RouteInfoFn(r)
			log := slog.With(
				slog.String("middleware", "rate_limiter"),
				slog.String("route", string(route.ID)),
				slog.String("method", route.Method),
			)

			policy, source, found := p.lookup(route)
			if !found {
				if p.AllowIfNoMatch {
					next.ServeHTTP(w, r)
					return
				}
				log.WarnContext(ctx, "no rate limit policy for route")
				tooMany(w, r)
				return
			}
			if source != fromRoute {
				log.DebugContext(ctx, "using default rate limit policy", slog.String("policy_source", source))
			}

			var key rl.Key
			if policy.KeyFn != nil {
				key = policy.KeyFn(r)
			}
			if key == "" {
				if p.AllowIfNoIdentifier {
					next.ServeHTTP(w, r)
					return
				}
				log.WarnContext(ctx, "request carries no rate limit identifier")
				tooMany(w, r)
				return
			}

			result, err := policy.Limiter.Allow(ctx, key)
			if err != nil {
				// most likely the counter store is down
				log.ErrorContext(ctx, "rate limiter failed", slog.Any("error", err))
				problem.WriteFor(w, r, problem.Internal(http.StatusText(http.StatusInternalServerError)))
				return
			}

			lw := &limitHeaderWriter{ResponseWriter: w, result: result}
			if !result.Allowed {
				log.DebugContext(ctx, "rate limited", slog.String("key", string(key)))
				lw.Header().Set("Retry-After", retryAfterSeconds(result))
				tooMany(lw, r)
				return
			}
			next.ServeHTTP(lw, r)
		})
	}
}

func tooMany(w http.ResponseWriter, r *http.Request) {
	problem.WriteFor(w, r, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
}

// retryAfterSeconds rounds up so a client never retries too early.
func retryAfterSeconds(res rl.Result) string {
	secs := int64(math.Ceil(res.RetryAfter.Seconds()))
	return strconv.FormatInt(max(secs, 1), 10)
}

// limitHeaderWriter stamps the X-RateLimit-* headers right before the
// response is committed, so handlers cannot drop them by resetting headers.
type limitHeaderWriter struct {
	http.ResponseWriter
	result  rl.Result
	stamped bool
}

func (w *limitHeaderWriter) stamp() {
	if w.stamped {
		return
	}
	w.stamped = true
	h := w.ResponseWriter.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(w.result.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(w.result.Remaining, 10))
	h.Set("X-RateLimit-Window-Seconds", strconv.FormatInt(int64(w.result.Window.Seconds()), 10))
	h.Set("X-RateLimit-Reset-Seconds", strconv.FormatInt(int64(w.result.WindowResetIn.Seconds()), 10))
}

func (w *limitHeaderWriter) WriteHeader(statusCode int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *limitHeaderWriter) Write(p []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(p)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *limitHeaderWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RemoteIpKeyFunc keys on the last X-Forwarded-For hop (the one appended by our
// own proxy), falling back to the connection's remote host.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
			return rl.Key(last)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return rl.Key(r.RemoteAddr)
	}
	return rl.Key(host)
}

// StdlibRouteInfo identifies a request by its ServeMux pattern, or by its path
// when the mux has not matched it yet (global middlewares run before routing).
func StdlibRouteInfo(r *http.Request) RouteInfo {
	id := Pattern(r.Pattern)
	if id == "" {
		id = Pattern(r.URL.Path)
	}
	return RouteInfo{ID: id, Method: r.Method, Path: r.URL.Path}
}
