// internal/server/server.go
//
// Status server for `wpconfig serve`.
//
// Routes
// ------
//
//   • GET  /healthz  – 200 with a summary when the last load was valid,
//                      503 with the full issue list otherwise.
//   • POST /reload   – re-run the loader now; same body as /healthz.
//   • GET  /metrics  – Prometheus exposition.
//
// The http.Server carries the usual hardening timeouts so a slow client
// cannot pin a connection.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AdeptTravel/wpenv/internal/config"
	"github.com/AdeptTravel/wpenv/internal/middleware"
)

// Reloader is the slice of *config.Loader the handlers need.
type Reloader interface {
	Reload(ctx context.Context) error
	Last() *config.Result
}

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Router wires the status routes.
func Router(l Reloader) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Security)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeStatus(w, l.Last())
	})
	r.Post("/reload", func(w http.ResponseWriter, req *http.Request) {
		if err := l.Reload(req.Context()); err != nil {
			zap.S().Warnw("reload via http rejected", "err", err)
		}
		writeStatus(w, l.Last())
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func writeStatus(w http.ResponseWriter, res *config.Result) {
	var body config.Report
	code := http.StatusServiceUnavailable
	if res != nil {
		body = config.NewReport(*res, false, false)
		if body.Valid {
			code = http.StatusOK
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.S().Debugw("status write failed", "err", err)
	}
}
