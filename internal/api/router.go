// Package api assembles the HTTP router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/florawatch/florawatch/internal/api/handler"
	"github.com/florawatch/florawatch/internal/api/middleware"
	"github.com/florawatch/florawatch/internal/chartview"
	"github.com/florawatch/florawatch/internal/dashboard"
	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/mapview"
	"github.com/florawatch/florawatch/internal/notify"
)

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Orchestrator  *dashboard.Orchestrator
	Map           *mapview.View
	Charts        *chartview.View
	Notifications *notify.Center
	Provider      flora.Provider
	Logger        zerolog.Logger

	// Registry backs the /metrics endpoint and HTTP instrumentation.
	// Optional; when nil the default registry is used.
	Registry *prometheus.Registry

	// RequestsPerMinute is the per-IP rate limit. Zero disables
	// limiting.
	RequestsPerMinute int
}

// NewRouter builds the chi router with the full middleware chain and
// all v1 routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	gatherer := prometheus.Gatherer(prometheus.DefaultGatherer)
	if cfg.Registry != nil {
		registerer = cfg.Registry
		gatherer = cfg.Registry
	}
	r.Use(middleware.NewHTTPMetrics(registerer).Middleware)

	if cfg.RequestsPerMinute > 0 {
		r.Use(middleware.RateLimitByIP(cfg.RequestsPerMinute))
	}

	ops := handler.NewOps(cfg.Provider)
	r.Get("/healthz", ops.Health)
	r.Get("/readyz", ops.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	dash := handler.NewDashboard(cfg.Orchestrator, cfg.Map, cfg.Charts, cfg.Notifications, cfg.Logger)

	r.Route("/v1/dashboard", func(r chi.Router) {
		r.Get("/state", dash.State)

		r.Put("/location", dash.SetLocation)
		r.Post("/location/search", dash.SearchLocation)
		r.Post("/location/current", dash.UseCurrentLocation)

		r.Put("/range", dash.SetDateRange)
		r.Put("/range/preset", dash.ApplyPreset)
		r.Put("/species", dash.SetSpecies)

		r.Post("/analysis", dash.RunAnalysis)
		r.Post("/predictions", dash.GeneratePredictions)
		r.Post("/alerts/refresh", dash.RefreshAlerts)

		r.Put("/auto-refresh", dash.SetAutoRefresh)
		r.Put("/section", dash.SwitchSection)
		r.Delete("/events", dash.ClearEvents)

		r.Post("/notifications/{id}/dismiss", dash.DismissNotification)
	})

	return r
}
