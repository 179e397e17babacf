package router

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/wolfman30/clinic-growth-platform/internal/apierr"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok"}
		results := map[string]string{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			results[name] = "ok"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		apierr.WriteJSON(w, status, body)
	}
}
