package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rochacaio/pokemon-backend/internal/api/respond"
)

// KeyFunc extracts the client identity from a request.
type KeyFunc func(r *http.Request) string

// ClientIP identifies clients by remote address. With trustForwarded the first
// X-Forwarded-For hop wins, for deployments behind a proxy.
func ClientIP(trustForwarded bool) KeyFunc {
	return func(r *http.Request) string {
		if trustForwarded {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
					return ip
				}
			}
		}
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// RouteKey returns the matched mux path template, so /pokemons/1 and
// /pokemons/2 share a quota. Unmatched requests fall back to the raw path.
func RouteKey(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// Middleware admits each request through l before calling next.
func Middleware(l Limiter, clientKey KeyFunc) mux.MiddlewareFunc {
	if clientKey == nil {
		clientKey = ClientIP(false)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := l.Admit(r.Context(), clientKey(r), RouteKey(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if err != nil {
				respond.WriteServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
