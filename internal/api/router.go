// SPDX-License-Identifier: MIT

// Package api serves the effective experiment and process metrics while
// xbench watches an experiment file.
package api

import (
	"net/http"

	"github.com/ManuGH/xbench/internal/api/middleware"
	"github.com/ManuGH/xbench/internal/config"
	"github.com/ManuGH/xbench/internal/health"
	"github.com/ManuGH/xbench/internal/system"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExperimentSource yields the experiment currently in effect.
type ExperimentSource interface {
	Get() config.Experiment
}

// Deps are the collaborators the router reads from.
type Deps struct {
	Source ExperimentSource
	Probe  system.Probe
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// ConfigLimiter defaults to middleware.ConfigRateLimit().
	ConfigLimiter func(http.Handler) http.Handler
	// Health backs /readyz; nil reports always ready.
	Health *health.Manager
	// TracingService names the HTTP server spans; empty disables tracing.
	TracingService string
}

// NewRouter wires the watch mode routes behind the ingress middleware stack.
func NewRouter(deps Deps) http.Handler {
	if deps.Probe == nil {
		deps.Probe = system.Default()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Health == nil {
		deps.Health = health.NewManager("")
	}
	if deps.ConfigLimiter == nil {
		deps.ConfigLimiter = middleware.ConfigRateLimit()
	}

	h := &handlers{source: deps.Source, probe: deps.Probe}

	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        deps.TracingService,
		EnableLogging:         true,
	})
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", deps.Health.ServeReady)
	r.With(deps.ConfigLimiter).Get("/config", h.config)
	r.Get("/openapi.yaml", serveOpenAPI)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeNotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	return r
}
