// Package mapview maintains the map's view model: center, zoom, the
// current-location marker, per-event markers and transient click
// markers. It renders state for a map front end to draw; it does not
// touch tiles or DOM.
package mapview

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/sched"
)

const (
	// DefaultCenterLat/Lon frame the initial world view.
	DefaultCenterLat = 20.0
	DefaultCenterLon = 0.0

	// DefaultZoom is the initial zoom level.
	DefaultZoom = 2

	// MinFocusZoom is the minimum zoom applied when centering on a
	// selected location.
	MinFocusZoom = 10

	// TransientMarkerTTL is how long a click marker stays visible.
	TransientMarkerTTL = 3 * time.Second
)

// Marker sizing: a base radius plus contributions from event
// intensity and confidence, clamped to a fixed range.
const (
	baseMarkerSize = 8.0
	minMarkerSize  = 6.0
	maxMarkerSize  = 30.0
)

// Timing buckets an event relative to now.
type Timing string

const (
	TimingActive Timing = "active"
	TimingFuture Timing = "future"
	TimingPast   Timing = "past"
)

// Marker colors by timing bucket.
var timingColors = map[Timing]string{
	TimingActive: "#d81b60",
	TimingFuture: "#fb8c00",
	TimingPast:   "#9e9e9e",
}

// EventMarker is one rendered flowering-event marker.
type EventMarker struct {
	Location flora.Location       `json:"location"`
	Timing   Timing               `json:"timing"`
	Color    string               `json:"color"`
	SizePX   float64              `json:"size_px"`
	Event    flora.FloweringEvent `json:"event"`
}

// TransientMarker is a short-lived marker dropped at a click position.
type TransientMarker struct {
	ID       string         `json:"id"`
	Location flora.Location `json:"location"`
}

// Bounds is a lat/lon bounding box fitted around the event markers.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// State is a snapshot of the full map view model.
type State struct {
	CenterLat        float64           `json:"center_lat"`
	CenterLon        float64           `json:"center_lon"`
	Zoom             int               `json:"zoom"`
	LocationMarker   *flora.Location   `json:"location_marker,omitempty"`
	EventMarkers     []EventMarker     `json:"event_markers"`
	TransientMarkers []TransientMarker `json:"transient_markers"`
	FitBounds        *Bounds           `json:"fit_bounds,omitempty"`
}

// ViewConfig holds configuration for the map view.
type ViewConfig struct {
	// Scheduler drives transient marker expiry and timing buckets.
	Scheduler sched.Scheduler

	// Logger for view events.
	Logger zerolog.Logger

	// OnSelect is invoked with the coordinate of each map click.
	OnSelect func(lat, lon float64)
}

// View is the map view model.
type View struct {
	scheduler sched.Scheduler
	logger    zerolog.Logger
	onSelect  func(lat, lon float64)

	mu             sync.Mutex
	centerLat      float64
	centerLon      float64
	zoom           int
	locationMarker *flora.Location
	eventMarkers   []EventMarker
	transient      []TransientMarker
	cancels        map[string]sched.CancelFunc
	fitBounds      *Bounds
}

// NewView creates a map view at the default world framing.
func NewView(cfg ViewConfig) *View {
	return &View{
		scheduler: cfg.Scheduler,
		logger:    cfg.Logger,
		onSelect:  cfg.OnSelect,
		centerLat: DefaultCenterLat,
		centerLon: DefaultCenterLon,
		zoom:      DefaultZoom,
		cancels:   make(map[string]sched.CancelFunc),
	}
}

// SetOnSelect wires the click callback after construction. The
// orchestrator uses this to break the construction cycle between
// itself and the view.
func (v *View) SetOnSelect(fn func(lat, lon float64)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onSelect = fn
}

// SetLocation re-centers the map on a location, raises the zoom to at
// least MinFocusZoom, and replaces the single current-location marker.
func (v *View) SetLocation(lat, lon float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.centerLat = lat
	v.centerLon = lon
	if v.zoom < MinFocusZoom {
		v.zoom = MinFocusZoom
	}
	v.locationMarker = &flora.Location{Lat: lat, Lon: lon}
}

// ShowFloweringEvents replaces all event markers with markers for the
// given events and fits the view bounds around them. Events without a
// location are skipped.
func (v *View) ShowFloweringEvents(events []flora.FloweringEvent) {
	now := v.scheduler.Now()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.eventMarkers = v.eventMarkers[:0]
	v.fitBounds = nil

	for _, e := range events {
		if e.Location == nil {
			continue
		}
		timing := eventTiming(e, now)
		v.eventMarkers = append(v.eventMarkers, EventMarker{
			Location: *e.Location,
			Timing:   timing,
			Color:    timingColors[timing],
			SizePX:   markerSize(e),
			Event:    e,
		})
	}

	if len(v.eventMarkers) > 0 {
		v.fitBounds = fitBounds(v.eventMarkers)
	}

	v.logger.Debug().Int("markers", len(v.eventMarkers)).Msg("event markers rendered")
}

// ClearFloweringEvents removes all event markers. Idempotent.
func (v *View) ClearFloweringEvents() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.eventMarkers = nil
	v.fitBounds = nil
}

// Click handles a user map click: it drops a transient marker that
// removes itself after TransientMarkerTTL and reports the coordinate
// through the OnSelect callback.
func (v *View) Click(lat, lon float64) {
	marker := TransientMarker{
		ID:       uuid.New().String(),
		Location: flora.Location{Lat: lat, Lon: lon},
	}

	v.mu.Lock()
	v.transient = append(v.transient, marker)
	v.cancels[marker.ID] = v.scheduler.After(TransientMarkerTTL, func() {
		v.removeTransient(marker.ID)
	})
	onSelect := v.onSelect
	v.mu.Unlock()

	if onSelect != nil {
		onSelect(lat, lon)
	}
}

// Snapshot returns a copy of the current view model.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := State{
		CenterLat:        v.centerLat,
		CenterLon:        v.centerLon,
		Zoom:             v.zoom,
		EventMarkers:     append([]EventMarker(nil), v.eventMarkers...),
		TransientMarkers: append([]TransientMarker(nil), v.transient...),
	}
	if v.locationMarker != nil {
		loc := *v.locationMarker
		state.LocationMarker = &loc
	}
	if v.fitBounds != nil {
		b := *v.fitBounds
		state.FitBounds = &b
	}
	return state
}

func (v *View) removeTransient(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if cancel, ok := v.cancels[id]; ok {
		cancel()
		delete(v.cancels, id)
	}
	for i, m := range v.transient {
		if m.ID == id {
			v.transient = append(v.transient[:i], v.transient[i+1:]...)
			break
		}
	}
}

// eventTiming buckets an event against now: active when now falls
// within [start, end], future when it has not started, past otherwise.
func eventTiming(e flora.FloweringEvent, now time.Time) Timing {
	switch {
	case !now.Before(e.Start) && !now.After(e.End):
		return TimingActive
	case now.Before(e.Start):
		return TimingFuture
	default:
		return TimingPast
	}
}

// markerSize scales the marker with intensity and confidence.
func markerSize(e flora.FloweringEvent) float64 {
	size := baseMarkerSize + e.Intensity*40 + e.Confidence*6
	if size < minMarkerSize {
		size = minMarkerSize
	}
	if size > maxMarkerSize {
		size = maxMarkerSize
	}
	return size
}

func fitBounds(markers []EventMarker) *Bounds {
	b := Bounds{
		MinLat: markers[0].Location.Lat,
		MaxLat: markers[0].Location.Lat,
		MinLon: markers[0].Location.Lon,
		MaxLon: markers[0].Location.Lon,
	}
	for _, m := range markers[1:] {
		if m.Location.Lat < b.MinLat {
			b.MinLat = m.Location.Lat
		}
		if m.Location.Lat > b.MaxLat {
			b.MaxLat = m.Location.Lat
		}
		if m.Location.Lon < b.MinLon {
			b.MinLon = m.Location.Lon
		}
		if m.Location.Lon > b.MaxLon {
			b.MaxLon = m.Location.Lon
		}
	}
	return &b
}
