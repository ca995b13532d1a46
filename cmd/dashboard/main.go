// Package main provides the entrypoint for the FloraWatch dashboard
// service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/florawatch/florawatch/internal/api"
	"github.com/florawatch/florawatch/internal/chartview"
	"github.com/florawatch/florawatch/internal/config"
	"github.com/florawatch/florawatch/internal/dashboard"
	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/flora/backend"
	"github.com/florawatch/florawatch/internal/flora/simulated"
	"github.com/florawatch/florawatch/internal/geocode"
	"github.com/florawatch/florawatch/internal/mapview"
	"github.com/florawatch/florawatch/internal/notify"
	"github.com/florawatch/florawatch/internal/sched"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "florawatch-dashboard"

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("provider", cfg.Provider).
		Msg("starting FloraWatch dashboard")

	provider := selectProvider(cfg, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	scheduler := sched.NewReal()

	notifications := notify.NewCenter(notify.CenterConfig{
		Scheduler: scheduler,
		Logger:    log,
	})

	mapView := mapview.NewView(mapview.ViewConfig{
		Scheduler: scheduler,
		Logger:    log,
	})

	charts := chartview.NewView()

	var searcher geocode.Searcher
	if cfg.GeocodeBaseURL != "" {
		searcher = geocode.NewClient(geocode.ClientConfig{
			BaseURL: cfg.GeocodeBaseURL,
		})
	}

	// No real position source exists server-side; the configured
	// default coordinate backs the "use current location" control.
	defaultLoc, err := flora.NewLocation(cfg.DefaultLat, cfg.DefaultLon)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid default location")
	}
	locator := &geocode.StaticLocator{Location: defaultLoc}

	orch := dashboard.New(dashboard.Config{
		Provider:            provider,
		Map:                 mapView,
		Charts:              charts,
		Notifier:            notifications,
		Searcher:            searcher,
		Locator:             locator,
		Scheduler:           scheduler,
		Logger:              log,
		Metrics:             dashboard.NewMetrics(registry),
		AutoRefreshInterval: cfg.AutoRefreshInterval(),
		RadiusKM:            cfg.RadiusKM,
	})

	// Map clicks select the clicked coordinate.
	mapView.SetOnSelect(func(lat, lon float64) {
		if err := orch.SetLocation(lat, lon); err != nil {
			log.Debug().Err(err).Msg("map click rejected")
		}
	})

	// Preload catalogs and overview statistics; failures degrade to
	// empty state.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	orch.LoadMetadata(startupCtx)
	orch.LoadStatistics(startupCtx)
	cancelStartup()

	router := api.NewRouter(api.RouterConfig{
		Orchestrator:      orch,
		Map:               mapView,
		Charts:            charts,
		Notifications:     notifications,
		Provider:          provider,
		Logger:            log,
		Registry:          registry,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	orch.SetAutoRefresh(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// selectProvider picks the flowering data source. In auto mode the
// backend is probed once and the simulated generator takes over when
// the probe fails.
func selectProvider(cfg *config.Config, log zerolog.Logger) flora.Provider {
	backendClient := backend.NewClient(backend.ClientConfig{
		BaseURL:           cfg.BackendBaseURL,
		Timeout:           cfg.BackendTimeout(),
		RequestsPerSecond: cfg.BackendRequestsPerSecond,
	})

	switch cfg.Provider {
	case config.ProviderBackend:
		return backendClient
	case config.ProviderSimulated:
		return simulated.NewProvider(simulated.ProviderConfig{Seed: cfg.SimulationSeed})
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := backendClient.Health(probeCtx); err != nil {
		log.Warn().Err(err).Str("base_url", cfg.BackendBaseURL).
			Msg("backend unreachable, using simulated data")
		return simulated.NewProvider(simulated.ProviderConfig{Seed: cfg.SimulationSeed})
	}

	log.Info().Str("base_url", cfg.BackendBaseURL).Msg("backend provider selected")
	return backendClient
}
