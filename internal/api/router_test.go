package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florawatch/florawatch/internal/api"
	"github.com/florawatch/florawatch/internal/chartview"
	"github.com/florawatch/florawatch/internal/dashboard"
	"github.com/florawatch/florawatch/internal/flora/simulated"
	"github.com/florawatch/florawatch/internal/mapview"
	"github.com/florawatch/florawatch/internal/notify"
	"github.com/florawatch/florawatch/internal/sched"
)

func newTestRouter(t *testing.T, requestsPerMinute int) http.Handler {
	t.Helper()

	clock := sched.NewManual(time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC))
	provider := simulated.NewProvider(simulated.ProviderConfig{Seed: 42})
	notifications := notify.NewCenter(notify.CenterConfig{Scheduler: clock, Logger: zerolog.Nop()})
	mapView := mapview.NewView(mapview.ViewConfig{Scheduler: clock, Logger: zerolog.Nop()})
	charts := chartview.NewView()

	orch := dashboard.New(dashboard.Config{
		Provider:  provider,
		Map:       mapView,
		Charts:    charts,
		Notifier:  notifications,
		Scheduler: clock,
		Logger:    zerolog.Nop(),
	})

	return api.NewRouter(api.RouterConfig{
		Orchestrator:      orch,
		Map:               mapView,
		Charts:            charts,
		Notifications:     notifications,
		Provider:          provider,
		Logger:            zerolog.Nop(),
		Registry:          prometheus.NewRegistry(),
		RequestsPerMinute: requestsPerMinute,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "simulated", body["provider"])
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t, 0)

	// Complete one instrumented request so the counter vec has a child
	// to emit.
	doJSON(t, router, http.MethodGet, "/healthz", "")

	rec := doJSON(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "florawatch_http_requests_total")
}

func TestRouter_RequestID(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req_custom")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req_custom", rec.Header().Get("X-Request-Id"))
}

func TestRouter_State(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodGet, "/v1/dashboard/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		Dashboard struct {
			Section      string `json:"section"`
			LocationInfo string `json:"location_info"`
		} `json:"dashboard"`
		Map struct {
			Zoom int `json:"zoom"`
		} `json:"map"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "overview", state.Dashboard.Section)
	assert.Equal(t, "N/A", state.Dashboard.LocationInfo)
	assert.Equal(t, mapview.DefaultZoom, state.Map.Zoom)
}

func TestRouter_SetLocation(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodPut, "/v1/dashboard/location", `{"lat": 52.37, "lon": 4.895}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/dashboard/location", `{"lat": 91, "lon": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = doJSON(t, router, http.MethodPut, "/v1/dashboard/location", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RunAnalysis(t *testing.T) {
	router := newTestRouter(t, 0)

	// Without a location the analysis is a validation error.
	rec := doJSON(t, router, http.MethodPost, "/v1/dashboard/analysis", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/dashboard/location", `{"lat": 52.37, "lon": 4.895}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/dashboard/range", `{"start": "2026-03-01", "end": "2026-05-30"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/dashboard/analysis", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		EventsDetected int  `json:"events_detected"`
		Simulated      bool `json:"simulated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Simulated)
	assert.Greater(t, result.EventsDetected, 0)
}

func TestRouter_SetDateRange_Invalid(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodPut, "/v1/dashboard/range", `{"start": "March 1", "end": "2026-05-30"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/dashboard/range", `{"start": "2026-05-30", "end": "2026-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RefreshAlerts(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodPost, "/v1/dashboard/alerts/refresh", `{"severity": "high"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)

	rec = doJSON(t, router, http.MethodPost, "/v1/dashboard/alerts/refresh", `{"severity": "critical"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RefreshAlerts_AllSentinel(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodPost, "/v1/dashboard/alerts/refresh", `{"severity": "all"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Count)
}

func TestRouter_Predictions(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodPost, "/v1/dashboard/predictions", `{"region": "europe", "days_ahead": 7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Region      string `json:"region"`
		Predictions []any  `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "europe", body.Region)
	assert.Len(t, body.Predictions, 7)
}

func TestRouter_SwitchSection(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodPut, "/v1/dashboard/section", `{"section": "alerts"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/dashboard/section", `{"section": "settings"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AutoRefreshToggle(t *testing.T) {
	router := newTestRouter(t, 0)

	rec := doJSON(t, router, http.MethodPut, "/v1/dashboard/auto-refresh", `{"enabled": true}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/dashboard/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"auto_refresh":true`)
}

func TestRouter_DismissNotification(t *testing.T) {
	router := newTestRouter(t, 0)

	// Unknown IDs dismiss cleanly.
	rec := doJSON(t, router, http.MethodPost, "/v1/dashboard/notifications/nope/dismiss", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	router := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
