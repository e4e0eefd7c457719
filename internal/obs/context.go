package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeOf resolves the route label for r. chi only knows the full pattern once
// routing finished, so callers should use it after calling the next handler.
func routeOf(r *http.Request, fallback string) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}
