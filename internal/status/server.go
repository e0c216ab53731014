// Package status serves the optional HTTP surface of a running migration:
// health probes, a progress snapshot, live SSE events, and Prometheus
// metrics.
package status

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/laguz/internal/metrics"
	"github.com/starford/laguz/internal/progress"
)

// NewRouter builds the status router around the run's progress tracker.
func NewRouter(prog *progress.Progress) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/progress", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, prog.Snapshot())
	})

	if b := prog.Broker(); b != nil {
		r.Get("/api/events", b.ServeHTTP)
	}

	r.Handle("/metrics", metrics.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}
