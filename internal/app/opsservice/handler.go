package opsservice

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailops/ticketworker/internal/shared/httpx"
	"github.com/retailops/ticketworker/internal/shared/logger"
)

// Check reports whether one dependency is ready. A nil error means ready.
type Check func(ctx context.Context) error

// OpsHTTPHandler serves health, readiness and metrics for the worker.
type OpsHTTPHandler struct {
	logger   *logger.Logger
	checks   map[string]Check
	registry *prometheus.Registry
	timeout  time.Duration
}

// NewHandler wires the ops endpoints. registry may be nil, in which case /metrics is not mounted.
func NewHandler(logger *logger.Logger, registry *prometheus.Registry, checks map[string]Check) *OpsHTTPHandler {
	return &OpsHTTPHandler{logger: logger, checks: checks, registry: registry, timeout: 2 * time.Second}
}

// Router builds the chi router with every ops route mounted.
func (handler *OpsHTTPHandler) Router() *chi.Mux {
	r := httpx.NewRouter()
	r.Get("/readyz", handler.readyz)
	if handler.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(handler.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// readyz runs every check and returns 503 when any fails.
func (handler *OpsHTTPHandler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	ctx, cancel := context.WithTimeout(ctx, handler.timeout)
	defer cancel()

	names := make([]string, 0, len(handler.checks))
	for name := range handler.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	code := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := handler.checks[name](ctx); err != nil {
			code = http.StatusServiceUnavailable
			results[name] = err.Error()
			handler.logger.Debug(ctx, "readiness_check_failed", "readiness check failed", map[string]any{
				"check": name,
				"error": err.Error(),
			})
			continue
		}
		results[name] = "ok"
	}

	status := "ready"
	if code != http.StatusOK {
		status = "not_ready"
	}
	handler.writeJSON(w, code, map[string]any{"status": status, "checks": results})
}

// writeJSON writes the provided value as a JSON response with the given status code.
func (handler *OpsHTTPHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *OpsHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
