package models

import (
	"github.com/florawatch/florawatch/internal/chartview"
	"github.com/florawatch/florawatch/internal/dashboard"
	"github.com/florawatch/florawatch/internal/mapview"
	"github.com/florawatch/florawatch/internal/notify"
)

// SetLocationRequest selects a coordinate, from manual entry or a map
// click.
type SetLocationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SearchLocationRequest is a free-text location search.
type SearchLocationRequest struct {
	Query string `json:"query"`
}

// DateRangeRequest sets the analysis window. Dates are YYYY-MM-DD.
type DateRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PresetRequest sets the window to the last N days.
type PresetRequest struct {
	Days int `json:"days"`
}

// SpeciesRequest sets the species filter.
type SpeciesRequest struct {
	Species string `json:"species"`
}

// PredictionsRequest asks for a flowering forecast.
type PredictionsRequest struct {
	Region    string `json:"region"`
	DaysAhead int    `json:"days_ahead"`
	Species   string `json:"species,omitempty"`
}

// AlertsRequest refreshes alerts with a severity filter ("all",
// "low", "medium" or "high").
type AlertsRequest struct {
	Severity string `json:"severity"`
}

// AutoRefreshRequest toggles the auto-refresh schedule.
type AutoRefreshRequest struct {
	Enabled bool `json:"enabled"`
}

// SectionRequest activates a dashboard section.
type SectionRequest struct {
	Section string `json:"section"`
}

// AnalysisResponse summarizes a completed analysis run.
type AnalysisResponse struct {
	EventsDetected int                     `json:"events_detected"`
	Season         dashboard.SeasonDisplay `json:"season"`
	Simulated      bool                    `json:"simulated"`
}

// AlertsResponse carries the refreshed alert list.
type AlertsResponse struct {
	Count  int `json:"count"`
	Alerts any `json:"alerts"`
}

// DashboardState is the full state snapshot returned by GET /state:
// the orchestrator state plus the view models it last pushed.
type DashboardState struct {
	Dashboard     dashboard.State                           `json:"dashboard"`
	Map           mapview.State                             `json:"map"`
	Charts        map[chartview.Slot]chartview.Instance     `json:"charts"`
	Notifications []notify.Notification                     `json:"notifications"`
}
