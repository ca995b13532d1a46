// Package dashboard implements the request-orchestration core of the
// FloraWatch dashboard: it owns the current location, date range and
// analysis result, coordinates single-flight analysis runs against a
// flowering data provider, and fans results out to the map and chart
// views. Views never fetch on their own; they re-render from the
// snapshots pushed to them.
package dashboard

import (
	"errors"

	"github.com/florawatch/florawatch/internal/flora"
)

// Orchestrator errors.
var (
	// ErrMissingLocation is returned when analysis is requested
	// before any location has been set.
	ErrMissingLocation = errors.New("no location selected")

	// ErrAnalysisPending is returned when an analysis is requested
	// while another one is still in flight. Requests are rejected,
	// not queued.
	ErrAnalysisPending = errors.New("analysis already in progress")

	// ErrUnknownSection is returned for an unrecognized section name.
	ErrUnknownSection = errors.New("unknown dashboard section")
)

// Section names a dashboard panel.
type Section string

const (
	SectionOverview    Section = "overview"
	SectionMap         Section = "map"
	SectionAnalytics   Section = "analytics"
	SectionPredictions Section = "predictions"
	SectionAlerts      Section = "alerts"
)

func validSection(s Section) bool {
	switch s {
	case SectionOverview, SectionMap, SectionAnalytics, SectionPredictions, SectionAlerts:
		return true
	}
	return false
}

// MapPort is the orchestrator's view of the map component.
type MapPort interface {
	// SetLocation re-centers the map and replaces the current
	// location marker.
	SetLocation(lat, lon float64)

	// ShowFloweringEvents replaces all event markers.
	ShowFloweringEvents(events []flora.FloweringEvent)

	// ClearFloweringEvents removes all event markers.
	ClearFloweringEvents()
}

// ChartPort is the orchestrator's view of the chart component.
type ChartPort interface {
	// Render redraws the analysis charts from a result snapshot.
	Render(result *flora.AnalysisResult)

	// RenderPredictions redraws the forecast chart.
	RenderPredictions(set *flora.PredictionSet)
}

// Notifier surfaces transient, non-blocking user notifications.
type Notifier interface {
	Success(message string)
	Error(message string)
	Warning(message string)
	Info(message string)
}
