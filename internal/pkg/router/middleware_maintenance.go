package router

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/workpulse/workpulse/internal/pkg/config"
)

// middlewareMaintenance answers 503 for route patterns listed in app.maintenance.endpoints.
func middlewareMaintenance(cfg config.Config) Middleware {
	var blocked map[string]struct{}
	if cfg != nil {
		blocked = lo.SliceToMap(cfg.GetArray("app.maintenance.endpoints"), func(route string) (string, struct{}) {
			return route, struct{}{}
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := blocked[matchedRoutePath(r)]; ok {
				writeJSON(w, errorResponse{Message: "WorkPulse is under maintenance, please try again later"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
