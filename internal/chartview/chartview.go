// Package chartview maintains the dashboard's chart view models. Each
// chart lives in a named slot; rendering a slot destroys the previous
// instance before creating the new one, so at most one live instance
// exists per slot.
package chartview

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/florawatch/florawatch/internal/flora"
)

// Slot names the chart positions on the dashboard.
type Slot string

const (
	SlotTimeSeries  Slot = "time_series"
	SlotEvents      Slot = "events"
	SlotPredictions Slot = "predictions"
)

// Intensity tier thresholds for event bar colors.
const (
	highIntensityThreshold   = 0.15
	mediumIntensityThreshold = 0.08
)

// Tier colors for the events bar chart.
const (
	colorHighIntensity   = "#c2185b"
	colorMediumIntensity = "#f57c00"
	colorLowIntensity    = "#7cb342"
)

// Point is one time-valued sample of a line series.
type Point struct {
	X time.Time `json:"x"`
	Y float64   `json:"y"`
}

// Series is one line on a chart.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Bar is one bar of a bar chart.
type Bar struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Color   string  `json:"color"`
	Tooltip string  `json:"tooltip"`
}

// Axis describes one chart axis.
type Axis struct {
	Type string   `json:"type"` // "time", "linear" or "category"
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// Spec is a renderable chart definition.
type Spec struct {
	Kind   string   `json:"kind"` // "line" or "bar"
	Title  string   `json:"title"`
	XAxis  Axis     `json:"x_axis"`
	YAxis  Axis     `json:"y_axis"`
	Series []Series `json:"series,omitempty"`
	Bars   []Bar    `json:"bars,omitempty"`
	Empty  bool     `json:"empty"`
}

// Instance is a live chart in a slot.
type Instance struct {
	ID   string `json:"id"`
	Slot Slot   `json:"slot"`
	Spec Spec   `json:"spec"`
}

// View holds the chart instances.
type View struct {
	mu        sync.Mutex
	instances map[Slot]*Instance
	destroyed int
}

// NewView creates an empty chart view.
func NewView() *View {
	return &View{instances: make(map[Slot]*Instance)}
}

// Render draws the time-series and events charts from an analysis
// result, replacing any prior instances in those slots.
func (v *View) Render(result *flora.AnalysisResult) {
	v.renderSlot(SlotTimeSeries, timeSeriesSpec(result))
	v.renderSlot(SlotEvents, eventsSpec(result.Events))
}

// RenderPredictions draws the forecast chart. An empty prediction set
// renders an explicit empty chart, not an error.
func (v *View) RenderPredictions(set *flora.PredictionSet) {
	v.renderSlot(SlotPredictions, predictionsSpec(set))
}

// Instance returns the live instance for a slot, or nil.
func (v *View) Instance(slot Slot) *Instance {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.instances[slot]
}

// LiveCount returns the number of live chart instances.
func (v *View) LiveCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.instances)
}

// DestroyedCount returns how many instances have been destroyed over
// the view's lifetime.
func (v *View) DestroyedCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

// Snapshot returns the live instances keyed by slot.
func (v *View) Snapshot() map[Slot]Instance {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[Slot]Instance, len(v.instances))
	for slot, inst := range v.instances {
		out[slot] = *inst
	}
	return out
}

// renderSlot replaces the slot's instance. The prior instance is
// destroyed first so no two instances ever coexist in one slot.
func (v *View) renderSlot(slot Slot, spec Spec) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.instances[slot]; ok {
		delete(v.instances, slot)
		v.destroyed++
	}

	v.instances[slot] = &Instance{
		ID:   uuid.New().String(),
		Slot: slot,
		Spec: spec,
	}
}

// timeSeriesSpec builds the vegetation-index line chart: time-scaled
// x-axis, y fixed to the [0,1] index domain, one series.
func timeSeriesSpec(result *flora.AnalysisResult) Spec {
	points := make([]Point, 0, len(result.Series.Dates))
	for i, d := range result.Series.Dates {
		if i >= len(result.Series.Values) {
			break
		}
		points = append(points, Point{X: d, Y: result.Series.Values[i]})
	}

	yMin, yMax := 0.0, 1.0
	return Spec{
		Kind:  "line",
		Title: "Vegetation index",
		XAxis: Axis{Type: "time"},
		YAxis: Axis{Type: "linear", Min: &yMin, Max: &yMax},
		Series: []Series{
			{Label: "Vegetation index", Points: points},
		},
		Empty: len(points) == 0,
	}
}

// eventsSpec builds the per-event bar chart: one bar per event in
// input order, colored by intensity tier.
func eventsSpec(events []flora.FloweringEvent) Spec {
	bars := make([]Bar, 0, len(events))
	for i, e := range events {
		bars = append(bars, Bar{
			Label: fmt.Sprintf("Event %d", i+1),
			Value: e.PeakValue,
			Color: intensityColor(e.Intensity),
			Tooltip: fmt.Sprintf("%s to %s · %d days · confidence %.0f%%",
				e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"),
				e.DurationDays, e.Confidence*100),
		})
	}

	return Spec{
		Kind:  "bar",
		Title: "Detected events",
		XAxis: Axis{Type: "category"},
		YAxis: Axis{Type: "linear"},
		Bars:  bars,
		Empty: len(bars) == 0,
	}
}

// predictionsSpec builds the forecast line chart.
func predictionsSpec(set *flora.PredictionSet) Spec {
	points := make([]Point, 0, len(set.Predictions))
	for _, p := range set.Predictions {
		points = append(points, Point{X: p.Date, Y: p.PredictedIndex})
	}

	yMin, yMax := 0.0, 1.0
	return Spec{
		Kind:  "line",
		Title: "Flowering forecast",
		XAxis: Axis{Type: "time"},
		YAxis: Axis{Type: "linear", Min: &yMin, Max: &yMax},
		Series: []Series{
			{Label: "Predicted index", Points: points},
		},
		Empty: len(points) == 0,
	}
}

// intensityColor buckets intensity into exactly three tiers.
func intensityColor(intensity float64) string {
	switch {
	case intensity >= highIntensityThreshold:
		return colorHighIntensity
	case intensity >= mediumIntensityThreshold:
		return colorMediumIntensity
	default:
		return colorLowIntensity
	}
}
