package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/geocode"
	"github.com/florawatch/florawatch/internal/sched"
)

// DefaultAutoRefreshInterval is how often auto-refresh re-runs the
// analysis and alert fetch.
const DefaultAutoRefreshInterval = 5 * time.Minute

// autoRefreshTimeout bounds each background refresh operation.
const autoRefreshTimeout = 30 * time.Second

// Config holds the orchestrator's dependencies. Map, Charts and
// Notifier are injected explicitly; the orchestrator never reaches
// for globals.
type Config struct {
	// Provider supplies flowering data (real backend or simulated).
	Provider flora.Provider

	// Map is the map view port.
	Map MapPort

	// Charts is the chart view port.
	Charts ChartPort

	// Notifier surfaces user notifications.
	Notifier Notifier

	// Searcher resolves location searches. Optional.
	Searcher geocode.Searcher

	// Locator reports the user's current position. Optional.
	Locator geocode.Locator

	// Scheduler drives auto-refresh and the wall clock.
	Scheduler sched.Scheduler

	// Logger for orchestrator events.
	Logger zerolog.Logger

	// Metrics counts orchestrator activity. Optional.
	Metrics *Metrics

	// AutoRefreshInterval overrides the default refresh period.
	AutoRefreshInterval time.Duration

	// RadiusKM is the analysis search radius. Defaults to
	// flora.DefaultRadiusKM.
	RadiusKM float64
}

// Orchestrator coordinates user input, data fetches and view updates.
// It is the single owner of the current location, date range and
// analysis result; views are rendering functions of the snapshots it
// pushes.
type Orchestrator struct {
	provider  flora.Provider
	mapView   MapPort
	charts    ChartPort
	notifier  Notifier
	searcher  geocode.Searcher
	locator   geocode.Locator
	scheduler sched.Scheduler
	logger    zerolog.Logger
	metrics   *Metrics
	interval  time.Duration

	mu              sync.Mutex
	location        *flora.Location
	dateRange       flora.DateRange
	species         string
	radiusKM        float64
	section         Section
	severityFilter  flora.Severity
	analysisPending bool

	// Monotonic per-kind sequence numbers; a completed fetch is
	// dropped when a newer one has already been applied.
	analysisSeq        uint64
	analysisAppliedSeq uint64
	alertSeq           uint64
	alertAppliedSeq    uint64
	predictionSeq        uint64
	predictionAppliedSeq uint64

	result      *flora.AnalysisResult
	predictions *flora.PredictionSet
	alerts      []flora.Alert
	alertCount  int
	statistics  *flora.Statistics
	speciesCatalog []flora.Species
	regionCatalog  []flora.Region

	autoRefresh       bool
	autoRefreshCancel sched.CancelFunc
}

// New creates an orchestrator with the default date range (the 90
// days up to now) and the overview section active.
func New(cfg Config) *Orchestrator {
	interval := cfg.AutoRefreshInterval
	if interval == 0 {
		interval = DefaultAutoRefreshInterval
	}
	radius := cfg.RadiusKM
	if radius == 0 {
		radius = flora.DefaultRadiusKM
	}

	return &Orchestrator{
		provider:       cfg.Provider,
		mapView:        cfg.Map,
		charts:         cfg.Charts,
		notifier:       cfg.Notifier,
		searcher:       cfg.Searcher,
		locator:        cfg.Locator,
		scheduler:      cfg.Scheduler,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		interval:       interval,
		radiusKM:       radius,
		dateRange:      flora.DefaultRange(cfg.Scheduler.Now()),
		section:        SectionOverview,
		severityFilter: flora.SeverityAll,
	}
}

// SetLocation validates and stores the current location, re-centers
// the map and refreshes the location display. Out-of-range input is
// rejected without any state change.
func (o *Orchestrator) SetLocation(lat, lon float64) error {
	loc, err := flora.NewLocation(lat, lon)
	if err != nil {
		o.logger.Debug().Float64("lat", lat).Float64("lon", lon).Msg("rejected out-of-range location")
		return err
	}

	o.mu.Lock()
	o.location = &loc
	o.mu.Unlock()

	o.mapView.SetLocation(loc.Lat, loc.Lon)
	o.logger.Info().Float64("lat", loc.Lat).Float64("lon", loc.Lon).Msg("location set")
	return nil
}

// Location returns the current location, or nil when none is set.
func (o *Orchestrator) Location() *flora.Location {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.location == nil {
		return nil
	}
	loc := *o.location
	return &loc
}

// SetDateRange stores a new analysis window.
func (o *Orchestrator) SetDateRange(r flora.DateRange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dateRange = r
}

// ApplyPreset sets the window to the last N days ending now.
func (o *Orchestrator) ApplyPreset(days int) {
	o.SetDateRange(flora.PresetRange(o.scheduler.Now(), days))
}

// SetSpecies stores the species filter for subsequent analyses.
func (o *Orchestrator) SetSpecies(species string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.species = species
}

// RunAnalysis runs one flowering analysis for the current location
// and date range. The parameters are snapshotted up front, so edits
// made while the fetch is in flight do not affect it. A second call
// while one is pending is rejected. On failure the previous result is
// left in place.
func (o *Orchestrator) RunAnalysis(ctx context.Context) (*flora.AnalysisResult, error) {
	o.mu.Lock()
	if o.location == nil {
		o.mu.Unlock()
		o.notifier.Warning("Select a location before running an analysis")
		return nil, ErrMissingLocation
	}
	if o.analysisPending {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.AnalysesRejected.Inc()
		}
		o.logger.Debug().Msg("analysis rejected: already pending")
		return nil, ErrAnalysisPending
	}

	req := flora.AnalysisRequest{
		Location: *o.location,
		Range:    o.dateRange,
		Species:  o.species,
		RadiusKM: o.radiusKM,
	}
	o.analysisPending = true
	o.analysisSeq++
	seq := o.analysisSeq
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.AnalysesStarted.Inc()
	}
	o.logger.Info().
		Float64("lat", req.Location.Lat).
		Float64("lon", req.Location.Lon).
		Time("start", req.Range.Start).
		Time("end", req.Range.End).
		Uint64("seq", seq).
		Msg("analysis started")

	result, err := o.provider.FetchFloweringEvents(ctx, req)
	return o.completeAnalysis(seq, result, err)
}

// completeAnalysis applies a finished analysis: it leaves pending
// state, rejects stale completions, stores the result and pushes it
// to the views.
func (o *Orchestrator) completeAnalysis(seq uint64, result *flora.AnalysisResult, err error) (*flora.AnalysisResult, error) {
	o.mu.Lock()
	o.analysisPending = false

	if err != nil {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.AnalysesFailed.Inc()
		}
		o.logger.Error().Err(err).Uint64("seq", seq).Msg("analysis failed")
		o.notifier.Error("Analysis failed: flowering data could not be retrieved")
		return nil, err
	}

	if seq <= o.analysisAppliedSeq {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.StaleDropped.Inc()
		}
		o.logger.Warn().Uint64("seq", seq).Msg("stale analysis result dropped")
		return nil, nil
	}

	o.analysisAppliedSeq = seq
	o.result = result
	section := o.section
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.AnalysesSucceeded.Inc()
	}

	o.mapView.ShowFloweringEvents(result.Events)
	if section == SectionAnalytics {
		o.charts.Render(result)
	}

	o.logger.Info().Int("events", len(result.Events)).Uint64("seq", seq).Msg("analysis complete")
	o.notifier.Success(fmt.Sprintf("Analysis complete: %d flowering events detected", len(result.Events)))
	return result, nil
}

// GeneratePredictions fetches a flowering forecast and renders it
// into the predictions chart. It runs independently of the analysis
// gate. An empty forecast is an explicit empty state, not an error.
func (o *Orchestrator) GeneratePredictions(ctx context.Context, region string, daysAhead int, species string) (*flora.PredictionSet, error) {
	if region == "" {
		region = "global"
	}
	if daysAhead < 1 {
		daysAhead = 30
	}

	o.mu.Lock()
	o.predictionSeq++
	seq := o.predictionSeq
	o.mu.Unlock()

	set, err := o.provider.FetchPredictions(ctx, region, daysAhead, species)
	if err != nil {
		o.logger.Error().Err(err).Str("region", region).Msg("prediction fetch failed")
		o.notifier.Error("Predictions could not be generated")
		return nil, err
	}

	o.mu.Lock()
	if seq <= o.predictionAppliedSeq {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.StaleDropped.Inc()
		}
		return nil, nil
	}
	o.predictionAppliedSeq = seq
	o.predictions = set
	o.mu.Unlock()

	o.charts.RenderPredictions(set)

	if len(set.Predictions) == 0 {
		o.notifier.Info("No predictions available for this region")
	}
	return set, nil
}

// RefreshAlerts fetches active alerts filtered by severity. The
// SeverityAll sentinel keeps every alert. An empty result is the
// explicit no-active-alerts state.
func (o *Orchestrator) RefreshAlerts(ctx context.Context, severity flora.Severity) ([]flora.Alert, error) {
	if severity == "" {
		severity = flora.SeverityAll
	}

	o.mu.Lock()
	o.severityFilter = severity
	o.alertSeq++
	seq := o.alertSeq
	o.mu.Unlock()

	alerts, err := o.provider.FetchAlerts(ctx, severity)
	if err != nil {
		o.logger.Error().Err(err).Msg("alert fetch failed")
		o.notifier.Error("Alerts could not be refreshed")
		return nil, err
	}

	// Providers are expected to filter server-side; filter again so
	// the counter always matches what is displayed.
	alerts = flora.FilterAlerts(alerts, severity)

	o.mu.Lock()
	if seq <= o.alertAppliedSeq {
		o.mu.Unlock()
		if o.metrics != nil {
			o.metrics.StaleDropped.Inc()
		}
		return nil, nil
	}
	o.alertAppliedSeq = seq
	o.alerts = alerts
	o.alertCount = len(alerts)
	o.mu.Unlock()

	o.logger.Info().Int("alerts", len(alerts)).Str("severity", string(severity)).Msg("alerts refreshed")
	return alerts, nil
}

// SetAutoRefresh enables or disables periodic refresh of the analysis
// and alerts. Repeated enables do not stack intervals; disabling
// cancels the schedule before it can fire again.
func (o *Orchestrator) SetAutoRefresh(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if enabled == o.autoRefresh {
		return
	}

	if !enabled {
		if o.autoRefreshCancel != nil {
			o.autoRefreshCancel()
			o.autoRefreshCancel = nil
		}
		o.autoRefresh = false
		o.logger.Info().Msg("auto-refresh disabled")
		return
	}

	o.autoRefresh = true
	o.autoRefreshCancel = o.scheduler.Every(o.interval, o.autoRefreshTick)
	o.logger.Info().Dur("interval", o.interval).Msg("auto-refresh enabled")
}

// autoRefreshTick re-runs the analysis (when a location is set and no
// run is pending) and refreshes alerts.
func (o *Orchestrator) autoRefreshTick() {
	if o.metrics != nil {
		o.metrics.AutoRefreshTicks.Inc()
	}

	o.mu.Lock()
	hasLocation := o.location != nil
	pending := o.analysisPending
	severity := o.severityFilter
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autoRefreshTimeout)
	defer cancel()

	if hasLocation && !pending {
		if _, err := o.RunAnalysis(ctx); err != nil && !errors.Is(err, ErrAnalysisPending) {
			o.logger.Warn().Err(err).Msg("auto-refresh analysis failed")
		}
	}

	if _, err := o.RefreshAlerts(ctx, severity); err != nil {
		o.logger.Warn().Err(err).Msg("auto-refresh alerts failed")
	}
}

// SwitchSection activates a dashboard section and runs its refresh
// side effects: analytics re-renders charts from the current result
// without fetching, alerts triggers an alert refresh, and overview
// reloads statistics.
func (o *Orchestrator) SwitchSection(ctx context.Context, section Section) error {
	if !validSection(section) {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	o.mu.Lock()
	o.section = section
	result := o.result
	severity := o.severityFilter
	o.mu.Unlock()

	switch section {
	case SectionAnalytics:
		if result != nil {
			o.charts.Render(result)
		}
	case SectionAlerts:
		if _, err := o.RefreshAlerts(ctx, severity); err != nil {
			return nil // already notified; section switch itself succeeded
		}
	case SectionOverview:
		o.LoadStatistics(ctx)
	}
	return nil
}

// SearchLocation geocodes a query and selects the best match. A query
// with no results is a silent no-op.
func (o *Orchestrator) SearchLocation(ctx context.Context, query string) error {
	if o.searcher == nil {
		return nil
	}

	places, err := o.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResults) {
			o.logger.Debug().Str("query", query).Msg("geocode search returned no results")
			return nil
		}
		o.logger.Warn().Err(err).Str("query", query).Msg("geocode search failed")
		o.notifier.Warning("Location search is unavailable right now")
		return err
	}

	best := places[0]
	o.notifier.Info("Showing " + best.Name)
	return o.SetLocation(best.Location.Lat, best.Location.Lon)
}

// UseCurrentLocation selects the position reported by the locator.
// An unavailable or denied locator degrades to a warning.
func (o *Orchestrator) UseCurrentLocation(ctx context.Context) error {
	if o.locator == nil {
		o.notifier.Warning("Current location is not available")
		return geocode.ErrLocationUnavailable
	}

	loc, err := o.locator.Current(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("current location unavailable")
		o.notifier.Warning("Current location could not be determined")
		return err
	}
	return o.SetLocation(loc.Lat, loc.Lon)
}

// LoadStatistics refreshes the global statistics shown on the
// overview section. Failures degrade silently; statistics are
// decorative.
func (o *Orchestrator) LoadStatistics(ctx context.Context) {
	stats, err := o.provider.FetchStatistics(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("statistics fetch failed")
		return
	}
	o.mu.Lock()
	o.statistics = stats
	o.mu.Unlock()
}

// LoadMetadata loads the species and region catalogs that back the
// dashboard's selection controls. Failures degrade to empty catalogs.
func (o *Orchestrator) LoadMetadata(ctx context.Context) {
	if species, err := o.provider.FetchSpecies(ctx); err == nil {
		o.mu.Lock()
		o.speciesCatalog = species
		o.mu.Unlock()
	} else {
		o.logger.Warn().Err(err).Msg("species catalog fetch failed")
	}

	if regions, err := o.provider.FetchRegions(ctx); err == nil {
		o.mu.Lock()
		o.regionCatalog = regions
		o.mu.Unlock()
	} else {
		o.logger.Warn().Err(err).Msg("region catalog fetch failed")
	}
}

// ClearEvents removes all event markers from the map.
func (o *Orchestrator) ClearEvents() {
	o.mapView.ClearFloweringEvents()
}
