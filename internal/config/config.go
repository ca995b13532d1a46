// Package config defines the dashboard service configuration and its
// layered loading: defaults, optional YAML file, then FLORA_ env vars.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Provider selection modes.
const (
	// ProviderAuto probes the backend and falls back to simulated
	// data when the probe fails.
	ProviderAuto = "auto"

	// ProviderBackend always uses the real detection backend.
	ProviderBackend = "backend"

	// ProviderSimulated always uses the simulated generator.
	ProviderSimulated = "simulated"
)

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Provider selects the data source: auto, backend or simulated.
	Provider string `koanf:"provider"`

	// BackendBaseURL is the detection backend address.
	BackendBaseURL string `koanf:"backend_base_url"`

	// BackendTimeoutSeconds bounds individual backend calls.
	BackendTimeoutSeconds int `koanf:"backend_timeout_seconds"`

	// BackendRequestsPerSecond throttles backend calls client-side.
	BackendRequestsPerSecond float64 `koanf:"backend_rps"`

	// GeocodeBaseURL is the geocoding service address. Empty disables
	// location search.
	GeocodeBaseURL string `koanf:"geocode_base_url"`

	// AutoRefreshSeconds is the auto-refresh period.
	AutoRefreshSeconds int `koanf:"auto_refresh_seconds"`

	// RadiusKM is the analysis search radius.
	RadiusKM float64 `koanf:"radius_km"`

	// DefaultLat and DefaultLon pin the fallback position reported by
	// the "use current location" control when no real position source
	// exists.
	DefaultLat float64 `koanf:"default_lat"`
	DefaultLon float64 `koanf:"default_lon"`

	// SimulationSeed seeds the simulated provider. Zero seeds from
	// the clock.
	SimulationSeed int64 `koanf:"simulation_seed"`

	// RequestsPerMinute caps inbound API requests per client IP.
	RequestsPerMinute int `koanf:"requests_per_minute"`
}

// New returns the configuration defaults.
func New() *Config {
	return &Config{
		Addr:                     ":8080",
		LogLevel:                 "info",
		Provider:                 ProviderAuto,
		BackendBaseURL:           "http://localhost:5000",
		BackendTimeoutSeconds:    10,
		BackendRequestsPerSecond: 5,
		GeocodeBaseURL:           "https://nominatim.openstreetmap.org",
		AutoRefreshSeconds:       300,
		RadiusKM:                 10,
		DefaultLat:               52.37,
		DefaultLon:               4.895,
		RequestsPerMinute:        100,
	}
}

// AutoRefreshInterval returns the refresh period as a duration.
func (c *Config) AutoRefreshInterval() time.Duration {
	return time.Duration(c.AutoRefreshSeconds) * time.Second
}

// BackendTimeout returns the backend call timeout as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	switch c.Provider {
	case ProviderAuto, ProviderBackend, ProviderSimulated:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.AutoRefreshSeconds <= 0 {
		return errors.New("auto_refresh_seconds must be positive")
	}
	if c.RadiusKM <= 0 {
		return errors.New("radius_km must be positive")
	}
	if c.DefaultLat < -90 || c.DefaultLat > 90 {
		return fmt.Errorf("default_lat %v out of range [-90, 90]", c.DefaultLat)
	}
	if c.DefaultLon < -180 || c.DefaultLon > 180 {
		return fmt.Errorf("default_lon %v out of range [-180, 180]", c.DefaultLon)
	}
	return nil
}
