// Package handler implements the API's HTTP handlers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/florawatch/florawatch/internal/api/models"
	"github.com/florawatch/florawatch/internal/api/response"
	"github.com/florawatch/florawatch/internal/chartview"
	"github.com/florawatch/florawatch/internal/dashboard"
	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/mapview"
	"github.com/florawatch/florawatch/internal/notify"
)

const dateLayout = "2006-01-02"

// Dashboard exposes the orchestrator and its views over HTTP.
type Dashboard struct {
	orch          *dashboard.Orchestrator
	mapView       *mapview.View
	charts        *chartview.View
	notifications *notify.Center
	logger        zerolog.Logger
}

// NewDashboard creates the dashboard handler.
func NewDashboard(orch *dashboard.Orchestrator, mapView *mapview.View, charts *chartview.View, notifications *notify.Center, logger zerolog.Logger) *Dashboard {
	return &Dashboard{
		orch:          orch,
		mapView:       mapView,
		charts:        charts,
		notifications: notifications,
		logger:        logger,
	}
}

// State returns the full dashboard snapshot: orchestrator state plus
// the current map, chart and notification view models.
func (h *Dashboard) State(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, models.DashboardState{
		Dashboard:     h.orch.State(),
		Map:           h.mapView.Snapshot(),
		Charts:        h.charts.Snapshot(),
		Notifications: h.notifications.Active(),
	})
}

// SetLocation selects a coordinate.
func (h *Dashboard) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req models.SetLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.orch.SetLocation(req.Lat, req.Lon); err != nil {
		response.BadRequest(w, r, "latitude must be in [-90, 90] and longitude in [-180, 180]")
		return
	}
	response.NoContent(w)
}

// SearchLocation geocodes a free-text query and selects the best
// match. A query with no results still returns 204.
func (h *Dashboard) SearchLocation(w http.ResponseWriter, r *http.Request) {
	var req models.SearchLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if req.Query == "" {
		response.BadRequest(w, r, "query is required")
		return
	}

	if err := h.orch.SearchLocation(r.Context(), req.Query); err != nil {
		response.ServiceUnavailable(w, r, "location search is unavailable")
		return
	}
	response.NoContent(w)
}

// UseCurrentLocation selects the locator-reported position.
func (h *Dashboard) UseCurrentLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.UseCurrentLocation(r.Context()); err != nil {
		response.ServiceUnavailable(w, r, "current location could not be determined")
		return
	}
	response.NoContent(w)
}

// SetDateRange sets the analysis window from YYYY-MM-DD bounds.
func (h *Dashboard) SetDateRange(w http.ResponseWriter, r *http.Request) {
	var req models.DateRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		response.BadRequest(w, r, "start must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		response.BadRequest(w, r, "end must be a YYYY-MM-DD date")
		return
	}

	dr, err := flora.NewDateRange(start, end)
	if err != nil {
		response.BadRequest(w, r, "start must not be after end")
		return
	}

	h.orch.SetDateRange(dr)
	response.NoContent(w)
}

// ApplyPreset sets the window to the last N days.
func (h *Dashboard) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	var req models.PresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if req.Days < 1 {
		response.BadRequest(w, r, "days must be at least 1")
		return
	}

	h.orch.ApplyPreset(req.Days)
	response.NoContent(w)
}

// SetSpecies sets the species filter for subsequent analyses.
func (h *Dashboard) SetSpecies(w http.ResponseWriter, r *http.Request) {
	var req models.SpeciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	h.orch.SetSpecies(req.Species)
	response.NoContent(w)
}

// RunAnalysis runs one flowering analysis. A run started while another
// is pending is rejected with 409.
func (h *Dashboard) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.orch.RunAnalysis(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, dashboard.ErrMissingLocation):
			response.BadRequest(w, r, "select a location before running an analysis")
		case errors.Is(err, dashboard.ErrAnalysisPending):
			response.Conflict(w, r, "an analysis is already running")
		default:
			response.ServiceUnavailable(w, r, "flowering data could not be retrieved")
		}
		return
	}
	if result == nil {
		// Superseded by a newer run; nothing was applied.
		response.NoContent(w)
		return
	}

	state := h.orch.State()
	response.JSON(w, http.StatusOK, models.AnalysisResponse{
		EventsDetected: len(result.Events),
		Season:         state.Season,
		Simulated:      result.Metadata.Simulated,
	})
}

// GeneratePredictions fetches a flowering forecast.
func (h *Dashboard) GeneratePredictions(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	set, err := h.orch.GeneratePredictions(r.Context(), req.Region, req.DaysAhead, req.Species)
	if err != nil {
		response.ServiceUnavailable(w, r, "predictions could not be generated")
		return
	}
	if set == nil {
		response.NoContent(w)
		return
	}
	response.JSON(w, http.StatusOK, set)
}

// RefreshAlerts fetches active alerts filtered by severity.
func (h *Dashboard) RefreshAlerts(w http.ResponseWriter, r *http.Request) {
	var req models.AlertsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	severity := flora.Severity(req.Severity)
	if req.Severity != "" && severity != flora.SeverityAll && !severity.Valid() {
		response.BadRequest(w, r, "severity must be one of all, low, medium, high")
		return
	}

	alerts, err := h.orch.RefreshAlerts(r.Context(), severity)
	if err != nil {
		response.ServiceUnavailable(w, r, "alerts could not be refreshed")
		return
	}
	response.JSON(w, http.StatusOK, models.AlertsResponse{
		Count:  len(alerts),
		Alerts: alerts,
	})
}

// SetAutoRefresh toggles the periodic refresh schedule.
func (h *Dashboard) SetAutoRefresh(w http.ResponseWriter, r *http.Request) {
	var req models.AutoRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	h.orch.SetAutoRefresh(req.Enabled)
	response.NoContent(w)
}

// SwitchSection activates a dashboard section.
func (h *Dashboard) SwitchSection(w http.ResponseWriter, r *http.Request) {
	var req models.SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.orch.SwitchSection(r.Context(), dashboard.Section(req.Section)); err != nil {
		response.BadRequest(w, r, "unknown section: "+req.Section)
		return
	}
	response.NoContent(w)
}

// ClearEvents removes all event markers from the map.
func (h *Dashboard) ClearEvents(w http.ResponseWriter, r *http.Request) {
	h.orch.ClearEvents()
	response.NoContent(w)
}

// DismissNotification removes a notification before its auto-dismiss
// timer fires. Dismissing an unknown ID is a no-op.
func (h *Dashboard) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.notifications.Dismiss(chi.URLParam(r, "id"))
	response.NoContent(w)
}
