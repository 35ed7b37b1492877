package middleware

import (
	"net/http"
	"strings"
)

// originPolicy is a precomputed allowlist. A lone "*" entry admits every
// origin; the request origin is always echoed back rather than "*" so
// responses stay cacheable per origin.
type originPolicy struct {
	any   bool
	exact map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]struct{})}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.exact[o] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	_, ok := p.exact[origin]
	return ok
}

// CORS admits cross-origin browser calls from the configured origins. The
// booking widget is embedded on mentor sites, so the public endpoints must
// answer preflights for POST with a JSON body.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" && policy.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Max-Age", "600")
			}

			if isPreflight(r, origin) {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request, origin string) bool {
	return r.Method == http.MethodOptions &&
		origin != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}
