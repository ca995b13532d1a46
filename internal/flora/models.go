// Package flora provides the domain model for flowering-event analysis.
package flora

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors.
var (
	ErrInvalidLocation     = errors.New("location out of range")
	ErrInvalidDateRange    = errors.New("date range start is after end")
	ErrProviderUnavailable = errors.New("flowering data provider unavailable")
)

// DefaultRangeDays is the length of the default analysis window.
const DefaultRangeDays = 90

// DefaultRadiusKM is the default search radius around the analysis location.
const DefaultRadiusKM float64 = 10

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewLocation validates lat/lon ranges and returns the location.
func NewLocation(lat, lon float64) (Location, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Location{}, fmt.Errorf("%w: (%f, %f)", ErrInvalidLocation, lat, lon)
	}
	return Location{Lat: lat, Lon: lon}, nil
}

// DateRange is an inclusive analysis period. Start is never after End
// when constructed through NewDateRange or PresetRange.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange validates ordering and returns the range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{Start: start, End: end}, nil
}

// PresetRange returns the window [now-days, now].
func PresetRange(now time.Time, days int) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -days), End: now}
}

// DefaultRange returns the default 90-day analysis window ending now.
func DefaultRange(now time.Time) DateRange {
	return PresetRange(now, DefaultRangeDays)
}

// Days returns the number of whole days the range spans.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// AnalysisRequest is an immutable snapshot of the parameters for one
// analysis run. Later edits to the dashboard state must not affect a
// request already in flight, so the request is taken by value.
type AnalysisRequest struct {
	Location Location  `json:"location"`
	Range    DateRange `json:"range"`
	Species  string    `json:"species,omitempty"`
	RadiusKM float64   `json:"radius_km"`
}

// EventType classifies a detected flowering event by its duration and
// intensity profile.
type EventType string

const (
	EventBriefFlowering    EventType = "brief_flowering"
	EventTypicalFlowering  EventType = "typical_flowering"
	EventExtendedFlowering EventType = "extended_flowering"
	EventVegetationPulse   EventType = "vegetation_pulse"
)

// FloweringEvent is a single detected flowering event. Events are
// produced by a Provider and are read-only to consumers.
type FloweringEvent struct {
	Start        time.Time `json:"start_date"`
	End          time.Time `json:"end_date"`
	Peak         time.Time `json:"peak_date"`
	DurationDays int       `json:"duration_days"`
	PeakValue    float64   `json:"peak_value"`
	Intensity    float64   `json:"intensity"`
	Confidence   float64   `json:"confidence"`
	Type         EventType `json:"event_type"`
	Location     *Location `json:"location,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// ConfidenceLevel buckets a confidence value into high, medium or low.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence > 0.8:
		return "high"
	case confidence > 0.6:
		return "medium"
	default:
		return "low"
	}
}

// TimeSeries is a vegetation-index series over the analysis period.
// Values are normalized to [0,1]. Dates and Values have equal length.
type TimeSeries struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// ResultMetadata describes how an analysis result was produced.
type ResultMetadata struct {
	DataSource  string    `json:"data_source"`
	Algorithm   string    `json:"algorithm"`
	ProcessedAt time.Time `json:"processed_at"`
	Simulated   bool      `json:"simulated"`
}

// AnalysisResult is the complete outcome of one analysis run. A result
// is replaced wholesale, never merged: consumers re-render from the
// new snapshot.
type AnalysisResult struct {
	Location Location         `json:"location"`
	Period   DateRange        `json:"period"`
	Events   []FloweringEvent `json:"events"`
	Series   TimeSeries       `json:"time_series"`
	Metadata ResultMetadata   `json:"metadata"`
}

// Prediction is one day of a flowering forecast.
type Prediction struct {
	Date                 time.Time `json:"date"`
	PredictedIndex       float64   `json:"predicted_index"`
	Confidence           float64   `json:"confidence"`
	FloweringProbability float64   `json:"flowering_probability"`
}

// PredictionSet is an ordered forecast for a region and species.
type PredictionSet struct {
	Region      string       `json:"region"`
	Species     string       `json:"species"`
	DaysAhead   int          `json:"prediction_period"`
	Predictions []Prediction `json:"predictions"`
	Confidence  string       `json:"confidence"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Severity grades an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"

	// SeverityAll is the filter sentinel matching every severity.
	SeverityAll Severity = "all"
)

// Valid reports whether s is one of the three alert grades.
func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Alert is an active flowering alert.
type Alert struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    Location  `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
	Species     string    `json:"species,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// FilterAlerts returns the alerts matching the severity filter. The
// SeverityAll sentinel keeps everything.
func FilterAlerts(alerts []Alert, severity Severity) []Alert {
	if severity == SeverityAll || severity == "" {
		return alerts
	}
	filtered := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Severity == severity {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// Statistics summarizes global detection activity.
type Statistics struct {
	TotalEventsDetected int       `json:"total_events_detected"`
	RegionsMonitored    int       `json:"regions_monitored"`
	SpeciesTracked      int       `json:"species_tracked"`
	ActiveAlerts        int       `json:"active_alerts"`
	LastUpdate          time.Time `json:"last_update"`
}

// Species is a monitorable plant species.
type Species struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	ScientificName string   `json:"scientific_name"`
	FloweringSeason string  `json:"flowering_season"`
	Regions        []string `json:"regions"`
}

// Region is a monitorable geographic region with a lon/lat bounding
// box in [west, south, east, north] order.
type Region struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	BBox        [4]float64 `json:"bbox"`
	Description string     `json:"description"`
}
