package router

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/workpulse/workpulse/internal/pkg/jwt"
)

// publicRoutes holds route patterns per method that skip authentication.
type publicRoutes map[string]map[string]struct{}

func newPublicRoutes(endpoints map[string][]string) publicRoutes {
	p := make(publicRoutes, len(endpoints))
	for method, routes := range endpoints {
		p.add(method, routes...)
	}
	return p
}

func (p publicRoutes) add(method string, routes ...string) {
	set, ok := p[method]
	if !ok {
		set = make(map[string]struct{}, len(routes))
		p[method] = set
	}
	for _, route := range lo.Compact(routes) {
		set[route] = struct{}{}
	}
}

func (p publicRoutes) allows(method, route string) bool {
	_, ok := p[method][route]
	return ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func middlewareAuthentication(verifier jwt.JWT, public publicRoutes) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.allows(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
