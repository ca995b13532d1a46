// Package simulated provides a self-contained flowering data provider
// that generates plausible seasonal data instead of calling the
// detection backend. It implements the same port as the real client
// and is selected by configuration or as a fallback when the backend
// health probe fails; simulated and real data are never mixed within
// one result.
package simulated

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/florawatch/florawatch/internal/flora"
)

// ProviderName identifies this provider.
const ProviderName = "simulated"

// Observation cadence of the generated series, matching the 16-day
// MODIS composite cycle.
const observationIntervalDays = 16

// ProviderConfig holds configuration for the simulated provider.
type ProviderConfig struct {
	// Seed makes the generated noise reproducible. Zero seeds from
	// the current time.
	Seed int64
}

// Provider generates simulated flowering data.
type Provider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewProvider creates a simulated provider.
func NewProvider(cfg ProviderConfig) *Provider {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Provider{rng: rand.New(rand.NewSource(seed))}
}

// Name identifies this provider.
func (p *Provider) Name() string { return ProviderName }

var _ flora.Provider = (*Provider)(nil)

// Health always succeeds; the generator has no external dependency.
func (p *Provider) Health(context.Context) error { return nil }

// FetchFloweringEvents generates a seasonal vegetation-index series
// for the request window and derives flowering events from its
// spring bloom window.
func (p *Provider) FetchFloweringEvents(_ context.Context, req flora.AnalysisRequest) (*flora.AnalysisResult, error) {
	series := p.generateSeries(req.Location, req.Range)
	events := p.generateEvents(req.Location, req.Range, series)

	return &flora.AnalysisResult{
		Location: req.Location,
		Period:   req.Range,
		Events:   events,
		Series:   series,
		Metadata: flora.ResultMetadata{
			DataSource:  "NASA MODIS/Landsat (simulated)",
			Algorithm:   "Spectral Index Analysis",
			ProcessedAt: time.Now().UTC(),
			Simulated:   true,
		},
	}, nil
}

// FetchPredictions projects the seasonal pattern forward from today.
func (p *Provider) FetchPredictions(_ context.Context, region string, daysAhead int, species string) (*flora.PredictionSet, error) {
	if daysAhead < 1 {
		daysAhead = 1
	}

	// Regions south of the equator bloom half a year later.
	lat := 45.0
	if region == "south_america" {
		lat = -20.0
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	predictions := make([]flora.Prediction, 0, daysAhead)

	p.mu.Lock()
	for i := 1; i <= daysAhead; i++ {
		date := now.AddDate(0, 0, i)
		value := clamp01(seasonalValue(lat, date) + p.rng.NormFloat64()*0.03)
		predictions = append(predictions, flora.Prediction{
			Date:                 date,
			PredictedIndex:       value,
			Confidence:           0.7,
			FloweringProbability: floweringProbability(lat, date, value),
		})
	}
	p.mu.Unlock()

	return &flora.PredictionSet{
		Region:      region,
		Species:     species,
		DaysAhead:   daysAhead,
		Predictions: predictions,
		Confidence:  "medium",
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// FetchAlerts returns the alert fixtures filtered by severity.
func (p *Provider) FetchAlerts(_ context.Context, severity flora.Severity) ([]flora.Alert, error) {
	now := time.Now().UTC()
	alerts := []flora.Alert{
		{
			ID:          "alert_001",
			Type:        "flowering_event",
			Severity:    flora.SeverityHigh,
			Title:       "Mass flowering detected in California",
			Description: "Unusually intense poppy bloom across the Central Valley",
			Location:    flora.Location{Lat: 36.7378, Lon: -119.7871},
			Timestamp:   now,
			Species:     "poppy",
			Confidence:  0.92,
		},
		{
			ID:          "alert_002",
			Type:        "early_flowering",
			Severity:    flora.SeverityMedium,
			Title:       "Early flowering in Europe",
			Description: "Cherry trees blooming two weeks ahead of the historical norm",
			Location:    flora.Location{Lat: 50.1109, Lon: 8.6821},
			Timestamp:   now.Add(-2 * time.Hour),
			Species:     "cherry_blossom",
			Confidence:  0.85,
		},
		{
			ID:          "alert_003",
			Type:        "vegetation_pulse",
			Severity:    flora.SeverityLow,
			Title:       "Vegetation pulse in the Pampas",
			Description: "Short greening pulse following regional rainfall",
			Location:    flora.Location{Lat: -34.6037, Lon: -58.3816},
			Timestamp:   now.Add(-6 * time.Hour),
			Species:     "",
			Confidence:  0.64,
		},
	}

	return flora.FilterAlerts(alerts, severity), nil
}

// FetchStatistics returns fixture statistics.
func (p *Provider) FetchStatistics(context.Context) (*flora.Statistics, error) {
	return &flora.Statistics{
		TotalEventsDetected: 15847,
		RegionsMonitored:    156,
		SpeciesTracked:      24,
		ActiveAlerts:        3,
		LastUpdate:          time.Now().UTC(),
	}, nil
}

// FetchSpecies returns the monitorable species catalog.
func (p *Provider) FetchSpecies(context.Context) ([]flora.Species, error) {
	return []flora.Species{
		{ID: "cherry_blossom", Name: "Cherry (Sakura)", ScientificName: "Prunus serrulata", FloweringSeason: "spring", Regions: []string{"asia", "north_america", "europe"}},
		{ID: "almond", Name: "Almond", ScientificName: "Prunus dulcis", FloweringSeason: "late_winter", Regions: []string{"europe", "north_america"}},
		{ID: "apple", Name: "Apple", ScientificName: "Malus domestica", FloweringSeason: "spring", Regions: []string{"global"}},
		{ID: "lavender", Name: "Lavender", ScientificName: "Lavandula angustifolia", FloweringSeason: "summer", Regions: []string{"europe", "north_america"}},
		{ID: "sunflower", Name: "Sunflower", ScientificName: "Helianthus annuus", FloweringSeason: "summer", Regions: []string{"global"}},
	}, nil
}

// FetchRegions returns the monitorable region catalog. BBox order is
// [west, south, east, north].
func (p *Provider) FetchRegions(context.Context) ([]flora.Region, error) {
	return []flora.Region{
		{ID: "global", Name: "Global", BBox: [4]float64{-180, -90, 180, 90}, Description: "Worldwide coverage"},
		{ID: "north_america", Name: "North America", BBox: [4]float64{-168, 7, -52, 83}, Description: "United States, Canada, Mexico"},
		{ID: "europe", Name: "Europe", BBox: [4]float64{-31, 27, 69, 81}, Description: "European continent"},
		{ID: "south_america", Name: "South America", BBox: [4]float64{-109, -56, -28, 16}, Description: "South American continent"},
		{ID: "asia", Name: "Asia", BBox: [4]float64{19, -12, 180, 82}, Description: "Asian continent"},
		{ID: "africa", Name: "Africa", BBox: [4]float64{-25, -47, 63, 38}, Description: "African continent"},
	}, nil
}

// generateSeries produces one observation every 16 days across the
// range: a hemisphere-shifted seasonal sine over a latitude-dependent
// base value, with noise and a spring bloom boost, clamped to [0,1].
func (p *Provider) generateSeries(loc flora.Location, period flora.DateRange) flora.TimeSeries {
	var series flora.TimeSeries

	p.mu.Lock()
	defer p.mu.Unlock()

	for d := period.Start; !d.After(period.End); d = d.AddDate(0, 0, observationIntervalDays) {
		value := clamp01(seasonalValue(loc.Lat, d) + p.rng.NormFloat64()*0.05)
		series.Dates = append(series.Dates, d)
		series.Values = append(series.Values, value)
	}
	return series
}

// generateEvents derives flowering events from the bloom windows that
// overlap the analysis period.
func (p *Provider) generateEvents(loc flora.Location, period flora.DateRange, series flora.TimeSeries) []flora.FloweringEvent {
	peakDay := bloomPeakDay(loc.Lat)

	p.mu.Lock()
	defer p.mu.Unlock()

	var events []flora.FloweringEvent
	for year := period.Start.Year(); year <= period.End.Year(); year++ {
		peak := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, peakDay-1)
		half := 8 + p.rng.Intn(8) // half-window, days
		start := peak.AddDate(0, 0, -half)
		end := peak.AddDate(0, 0, half)

		if end.Before(period.Start) || start.After(period.End) {
			continue
		}

		peakValue := clamp01(seasonalValue(loc.Lat, peak) + 0.1 + p.rng.Float64()*0.08)
		confidence := 0.6 + p.rng.Float64()*0.35
		duration := int(end.Sub(start).Hours() / 24)
		intensity := peakValue - seriesMean(series.Values)
		if intensity < 0 {
			intensity = 0
		}

		event := flora.FloweringEvent{
			Start:        start,
			End:          end,
			Peak:         peak,
			DurationDays: duration,
			PeakValue:    peakValue,
			Intensity:    intensity,
			Confidence:   confidence,
			Type:         classify(duration, intensity),
			Location:     &flora.Location{Lat: loc.Lat, Lon: loc.Lon},
		}
		event.Description = fmt.Sprintf("%s detected at %.2f°, %.2f° from %s to %s (confidence: %s)",
			event.Type, loc.Lat, loc.Lon,
			start.Format("2006-01-02"), end.Format("2006-01-02"),
			flora.ConfidenceLevel(confidence))
		events = append(events, event)
	}
	return events
}

// seasonalValue models the vegetation index for a latitude and date:
// a base level by climate band plus a seasonal sine shifted by
// hemisphere and a gaussian bloom boost around the spring peak.
func seasonalValue(lat float64, date time.Time) float64 {
	dayOfYear := float64(date.YearDay())

	var base float64
	switch {
	case math.Abs(lat) < 23.5:
		base = 0.7
	case math.Abs(lat) < 45:
		base = 0.5
	default:
		base = 0.3
	}

	shift := 80.0
	if lat < 0 {
		shift = 260.0
	}
	seasonal := 0.3 * math.Sin(2*math.Pi*(dayOfYear-shift)/365)

	peakDay := float64(bloomPeakDay(lat))
	boost := 0.15 * math.Exp(-math.Pow((dayOfYear-peakDay)/10, 2))

	return base + seasonal + boost
}

// bloomPeakDay returns the day of year of peak bloom for a hemisphere.
func bloomPeakDay(lat float64) int {
	if lat < 0 {
		return 285
	}
	return 105
}

// floweringProbability grows with how far the predicted value sits
// above the off-season baseline near the bloom window.
func floweringProbability(lat float64, date time.Time, value float64) float64 {
	peakDay := float64(bloomPeakDay(lat))
	proximity := math.Exp(-math.Pow((float64(date.YearDay())-peakDay)/15, 2))
	return clamp01(proximity * value)
}

// classify buckets an event by duration and intensity, matching the
// detection backend's vocabulary.
func classify(durationDays int, intensity float64) flora.EventType {
	switch {
	case durationDays < 10 && intensity > 0.1:
		return flora.EventBriefFlowering
	case durationDays < 10:
		return flora.EventVegetationPulse
	case durationDays < 25:
		return flora.EventTypicalFlowering
	default:
		return flora.EventExtendedFlowering
	}
}

func seriesMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
