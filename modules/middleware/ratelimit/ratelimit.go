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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"showcase/modules/middleware/problem"
	rl "showcase/modules/ratelimit"
)

var (
	ErrUnknownKeyStrategy = errors.New("ratelimit parse policy: no such key strategy")
	ErrDuplicateRule      = errors.New("ratelimit parse policy: duplicate method config on same pattern")
)

type (
	Pattern string
	method  string

	// KeyFunc extracts the caller identifier from a request.
	KeyFunc func(*http.Request) rl.Key

	// RouteInfoFunc extracts the route information used for policy lookup.
	RouteInfoFunc func(*http.Request) RouteInfo

	RouteInfo struct {
		ID     Pattern
		Method string
		Path   string
	}

	Policy struct {
		Limiter rl.RateLimiter
		KeyFn   KeyFunc
		// keeps counters of different rules apart when they share a counter store
		scope string
	}

	// RuntimePolicy is the compiled form of RestHTTPConfig.
	RuntimePolicy struct {
		policyMap map[Pattern]map[method]Policy

		// A method-specific default takes precedence over the catch-all default.
		defaultPolicyByMethod map[method]Policy
		defaultPolicy         *Policy

		// Pass requests through when no policy covers the route.
		AllowIfNoMatch bool
		// Pass requests through when KeyFn yields no identifier.
		AllowIfNoIdentifier bool

		RouteInfoFn RouteInfoFunc
	}
)

type policySource string

const (
	policySourceExplicit      policySource = "explicit"
	policySourceDefaultMethod policySource = "default_method"
	policySourceDefaultAll    policySource = "default"
)

func normalizeMethod(m string) method {
	return method(strings.ToUpper(m))
}

func (p *RuntimePolicy) findPolicy(info RouteInfo) (Policy, policySource, bool) {
	if pm, ok := p.policyMap[info.ID]; ok {
		if px, ok := pm[normalizeMethod(info.Method)]; ok {
			return px, policySourceExplicit, true
		}
	}
	if px, ok := p.defaultPolicyByMethod[normalizeMethod(info.Method)]; ok {
		return px, policySourceDefaultMethod, true
	}
	if p.defaultPolicy != nil {
		return *p.defaultPolicy, policySourceDefaultAll, true
	}
	return Policy{}, "", false
}

// PathRouteInfo keys policies by request path. The middleware runs in front of the
// mux, so r.Pattern is only populated for nested handlers.
func PathRouteInfo(r *http.Request) RouteInfo {
	id := Pattern(r.Pattern)
	if id == "" {
		id = Pattern(r.URL.Path)
	}
	return RouteInfo{ID: id, Method: r.Method, Path: r.URL.Path}
}

// ParsePolicy compiles cfg into a RuntimePolicy. Route patterns must match the
// paths the server actually serves.
func ParsePolicy(
	factory rl.LimiterFactory,
	cfg *RestHTTPConfig,
	routeFn RouteInfoFunc,
	keyStrategies map[KeyStrategyId]KeyFunc,
) (*RuntimePolicy, error) {
	if routeFn == nil {
		routeFn = PathRouteInfo
	}
	rtp := &RuntimePolicy{
		policyMap:             make(map[Pattern]map[method]Policy),
		defaultPolicyByMethod: make(map[method]Policy),
		AllowIfNoIdentifier:   cfg.AllowIfNoIdentifier,
		AllowIfNoMatch:        cfg.AllowIfNoMatch,
		RouteInfoFn:           routeFn,
	}

	compile := func(scope string, rule EndpointRule) (Policy, error) {
		ks, ok := keyStrategies[rule.KeyStrategy]
		if !ok {
			return Policy{}, fmt.Errorf("%w: %q", ErrUnknownKeyStrategy, rule.KeyStrategy)
		}
		return Policy{Limiter: factory(rule.Limit, rule.Window), KeyFn: ks, scope: scope}, nil
	}

	// the default only counts when it can be enforced
	if def := cfg.DefaultPolicy; def.Window > 0 && def.Limit > 0 && def.KeyStrategy != "" {
		p, err := compile("default:"+string(normalizeMethod(def.Method)), def)
		if err != nil {
			return nil, err
		}
		if def.Method != "" {
			rtp.defaultPolicyByMethod[normalizeMethod(def.Method)] = p
		} else {
			rtp.defaultPolicy = &p
		}
	}

	for _, r := range cfg.Routes {
		pat := Pattern(r.Pattern)
		if _, ok := rtp.policyMap[pat]; !ok {
			rtp.policyMap[pat] = make(map[method]Policy)
		}
		for _, rule := range r.EndpointRules {
			m := normalizeMethod(rule.Method)
			if _, ok := rtp.policyMap[pat][m]; ok {
				return nil, fmt.Errorf("%w: %s %s", ErrDuplicateRule, m, pat)
			}
			p, err := compile(string(m)+" "+string(pat), rule)
			if err != nil {
				return nil, err
			}
			rtp.policyMap[pat][m] = p
		}
	}
	return rtp, nil
}

func NewRateLimitMiddleware(p *RuntimePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := p.RouteInfoFn(r)
			logAttrs := []any{
				slog.String("middleware", "rate_limiter"),
				slog.String("url", r.URL.Path),
				slog.Any("route_info", info),
			}

			px, src, ok := p.findPolicy(info)
			if !ok {
				if p.AllowIfNoMatch {
					next.ServeHTTP(w, r)
					return
				}
				slog.WarnContext(r.Context(), "no rate limit policy found", logAttrs...)
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}
			if src != policySourceExplicit {
				slog.DebugContext(r.Context(), "using default rate limit policy",
					append(logAttrs, slog.String("policy_source", string(src)))...)
			}

			var key rl.Key
			if px.KeyFn != nil {
				key = px.KeyFn(r)
			}
			if key == "" {
				if p.AllowIfNoIdentifier {
					next.ServeHTTP(w, r)
					return
				}
				slog.WarnContext(r.Context(), "no rate limit key", logAttrs...)
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			result, err := px.Limiter.Allow(r.Context(), rl.Key(px.scope+"|"+string(key)))
			if err != nil {
				// counter store may be down
				slog.ErrorContext(r.Context(), "rate limit error", append(logAttrs, slog.Any("error", err))...)
				problem.Write(w, problem.Internal(http.StatusText(http.StatusInternalServerError)))
				return
			}

			// headers must be set before any layer commits the response
			w = &rateLimitHeaderWriter{ResponseWriter: w, result: result}

			if !result.Allowed {
				slog.DebugContext(r.Context(), "rate limited", logAttrs...)
				w.Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds(), 10))
				problem.Write(w, problem.TooManyRequests(http.StatusText(http.StatusTooManyRequests)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitHeaders(w http.ResponseWriter, result rl.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	h.Set("X-RateLimit-Window-Seconds", strconv.FormatInt(int64(result.Window.Seconds()), 10))
	h.Set("X-RateLimit-Reset-Seconds", strconv.FormatInt(result.ResetSeconds(), 10))
}

type rateLimitHeaderWriter struct {
	http.ResponseWriter
	result  rl.Result
	ensured bool
}

func (w *rateLimitHeaderWriter) ensure() {
	if w.ensured {
		return
	}
	writeRateLimitHeaders(w.ResponseWriter, w.result)
	w.ensured = true
}

func (w *rateLimitHeaderWriter) WriteHeader(statusCode int) {
	w.ensure()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *rateLimitHeaderWriter) Write(p []byte) (int, error) {
	w.ensure()
	return w.ResponseWriter.Write(p)
}

func (w *rateLimitHeaderWriter) Flush() {
	w.ensure()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *rateLimitHeaderWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RemoteIpKeyFunc keys on the connection's remote address.
func RemoteIpKeyFunc(r *http.Request) rl.Key {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return rl.Key(r.RemoteAddr)
	}
	return rl.Key(host)
}

// ForwardedForKeyFunc keys on the last X-Forwarded-For hop, the one appended by
// our own proxy, falling back to the remote address.
func ForwardedForKeyFunc(r *http.Request) rl.Key {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
			return rl.Key(last)
		}
	}
	return RemoteIpKeyFunc(r)
}

// KeyStrategies returns the key functions selectable by KEY_STRATEGY. The
// remote_ip strategy reads X-Forwarded-For only when cfg trusts it.
func KeyStrategies(cfg *RestHTTPConfig) map[KeyStrategyId]KeyFunc {
	keyFn := RemoteIpKeyFunc
	if cfg.TrustForwardedFor {
		keyFn = ForwardedForKeyFunc
	}
	return map[KeyStrategyId]KeyFunc{RemoteIpKeyStrategy: keyFn}
}
