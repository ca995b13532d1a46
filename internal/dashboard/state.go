package dashboard

import (
	"fmt"

	"github.com/florawatch/florawatch/internal/flora"
)

// NotAvailable is the display value for metrics that cannot be
// computed from the current result.
const NotAvailable = "N/A"

// AnalysisState names the orchestrator's analysis phase.
type AnalysisState string

const (
	AnalysisIdle    AnalysisState = "idle"
	AnalysisPending AnalysisState = "pending"
)

// SeasonDisplay is the season metrics panel, pre-formatted for
// display. Every field reads N/A when the current result has no
// events.
type SeasonDisplay struct {
	SeasonStart  string `json:"season_start"`
	SeasonPeak   string `json:"season_peak"`
	SeasonLength string `json:"season_length"`
	MaxIntensity string `json:"max_intensity"`
}

// State is a read-only snapshot of everything the orchestrator owns.
type State struct {
	Section        Section               `json:"section"`
	Location       *flora.Location       `json:"location,omitempty"`
	LocationInfo   string                `json:"location_info"`
	DateRange      flora.DateRange       `json:"date_range"`
	Species        string                `json:"species,omitempty"`
	RadiusKM       float64               `json:"radius_km"`
	AnalysisState  AnalysisState         `json:"analysis_state"`
	Result         *flora.AnalysisResult `json:"result,omitempty"`
	Season         SeasonDisplay         `json:"season"`
	Predictions    *flora.PredictionSet  `json:"predictions,omitempty"`
	Alerts         []flora.Alert         `json:"alerts"`
	AlertCount     int                   `json:"alert_count"`
	SeverityFilter flora.Severity        `json:"severity_filter"`
	Statistics     *flora.Statistics     `json:"statistics,omitempty"`
	SpeciesCatalog []flora.Species       `json:"species_catalog,omitempty"`
	RegionCatalog  []flora.Region        `json:"region_catalog,omitempty"`
	AutoRefresh    bool                  `json:"auto_refresh"`
	Provider       string                `json:"provider"`
}

// State returns a snapshot of the current dashboard state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := State{
		Section:        o.section,
		LocationInfo:   NotAvailable,
		DateRange:      o.dateRange,
		Species:        o.species,
		RadiusKM:       o.radiusKM,
		AnalysisState:  AnalysisIdle,
		Result:         o.result,
		Season:         seasonDisplay(o.result),
		Predictions:    o.predictions,
		Alerts:         append([]flora.Alert(nil), o.alerts...),
		AlertCount:     o.alertCount,
		SeverityFilter: o.severityFilter,
		Statistics:     o.statistics,
		SpeciesCatalog: o.speciesCatalog,
		RegionCatalog:  o.regionCatalog,
		AutoRefresh:    o.autoRefresh,
		Provider:       o.provider.Name(),
	}
	if o.analysisPending {
		state.AnalysisState = AnalysisPending
	}
	if o.location != nil {
		loc := *o.location
		state.Location = &loc
		state.LocationInfo = fmt.Sprintf("%.4f°, %.4f°", loc.Lat, loc.Lon)
	}
	return state
}

// seasonDisplay formats the derived season metrics.
func seasonDisplay(result *flora.AnalysisResult) SeasonDisplay {
	na := SeasonDisplay{
		SeasonStart:  NotAvailable,
		SeasonPeak:   NotAvailable,
		SeasonLength: NotAvailable,
		MaxIntensity: NotAvailable,
	}
	if result == nil {
		return na
	}

	season := result.Season()
	if !season.HasEvents {
		return na
	}

	return SeasonDisplay{
		SeasonStart:  season.Start.Format("2006-01-02"),
		SeasonPeak:   season.Peak.Format("2006-01-02"),
		SeasonLength: fmt.Sprintf("%d days", season.LengthDays),
		MaxIntensity: fmt.Sprintf("%.2f", season.MaxIntensity),
	}
}
