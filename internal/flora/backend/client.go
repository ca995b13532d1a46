// Package backend provides the HTTP client for the FloraWatch
// detection backend.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the default backend address.
	DefaultBaseURL = "http://localhost:5000"

	// ProviderName identifies this provider.
	ProviderName = "backend"

	dateLayout = "2006-01-02"
)

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client with client-side rate
	// limiting is created.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 10s).
	Timeout time.Duration

	// RequestsPerSecond throttles the default client (default: 5).
	RequestsPerSecond float64
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a FloraWatch backend API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	transport  *resilience.Client
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	var transport *resilience.Client
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		rps := cfg.RequestsPerSecond
		if rps == 0 {
			rps = 5
		}
		transport = resilience.NewClient(resilience.ClientConfig{
			Name:              ProviderName,
			Timeout:           timeout,
			MaxRetries:        3,
			InitialInterval:   200 * time.Millisecond,
			MaxInterval:       5 * time.Second,
			RequestsPerSecond: rps,
			Burst:             2,
		})
		httpClient = transport
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		transport:  transport,
	}
}

// Name identifies this provider.
func (c *Client) Name() string { return ProviderName }

// TransportHealth reports the resilient transport's health snapshot.
// ok is false when a custom HTTP client was injected.
func (c *Client) TransportHealth() (resilience.Health, bool) {
	if c.transport == nil {
		return resilience.Health{}, false
	}
	return c.transport.Health(), true
}

var _ flora.Provider = (*Client)(nil)

// API response types (backend wire format).

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type coordinateData struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event locations come back keyed latitude/longitude, unlike the
// top-level lat/lon pair.
type eventLocationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type periodData struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type eventData struct {
	StartDate    string             `json:"start_date"`
	EndDate      string             `json:"end_date"`
	PeakDate     string             `json:"peak_date"`
	DurationDays int                `json:"duration_days"`
	PeakValue    float64            `json:"peak_value"`
	Intensity    float64            `json:"intensity"`
	Confidence   float64            `json:"confidence"`
	EventType    string             `json:"event_type"`
	Location     *eventLocationData `json:"location"`
	Description  string             `json:"description"`
}

type timeSeriesData struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

type metadataData struct {
	DataSource  string `json:"data_source"`
	Algorithm   string `json:"algorithm"`
	ProcessedAt string `json:"processed_at"`
}

type floweringEventsResponse struct {
	Location       coordinateData  `json:"location"`
	Period         periodData      `json:"period"`
	EventsDetected int             `json:"events_detected"`
	Events         []eventData     `json:"events"`
	TimeSeries     *timeSeriesData `json:"time_series"`
	Metadata       metadataData    `json:"metadata"`
}

type predictionData struct {
	Date                 string  `json:"date"`
	PredictedIndex       float64 `json:"predicted_ndvi"`
	Confidence           float64 `json:"confidence"`
	FloweringProbability float64 `json:"flowering_probability"`
}

type predictionsResponse struct {
	Region           string           `json:"region"`
	Species          string           `json:"species"`
	PredictionPeriod int              `json:"prediction_period"`
	Predictions      []predictionData `json:"predictions"`
	Confidence       string           `json:"confidence"`
	GeneratedAt      string           `json:"generated_at"`
}

type alertData struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    coordinateData `json:"location"`
	Timestamp   string         `json:"timestamp"`
	Species     string         `json:"species"`
	Confidence  float64        `json:"confidence"`
}

type alertsResponse struct {
	Alerts []alertData `json:"alerts"`
	Count  int         `json:"count"`
}

type statisticsResponse struct {
	TotalEventsDetected int    `json:"total_events_detected"`
	RegionsMonitored    int    `json:"regions_monitored"`
	SpeciesTracked      int    `json:"species_tracked"`
	ActiveAlerts        int    `json:"active_alerts"`
	LastUpdate          string `json:"last_update"`
}

type speciesData struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ScientificName  string   `json:"scientific_name"`
	FloweringSeason string   `json:"flowering_season"`
	Regions         []string `json:"regions"`
}

type speciesResponse struct {
	Species []speciesData `json:"species"`
}

type regionData struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	BBox        [4]float64 `json:"bbox"`
	Description string     `json:"description"`
}

type regionsResponse struct {
	Regions []regionData `json:"regions"`
}

// Health probes the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	var result healthResponse
	if err := c.getJSON(ctx, "/api/health", nil, &result); err != nil {
		return err
	}
	if result.Status != "healthy" {
		return fmt.Errorf("%w: backend reports status %q", flora.ErrProviderUnavailable, result.Status)
	}
	return nil
}

// FetchFloweringEvents runs a backend analysis for the request snapshot.
func (c *Client) FetchFloweringEvents(ctx context.Context, req flora.AnalysisRequest) (*flora.AnalysisResult, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(req.Location.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(req.Location.Lon, 'f', -1, 64))
	params.Set("start_date", req.Range.Start.Format(dateLayout))
	params.Set("end_date", req.Range.End.Format(dateLayout))
	params.Set("radius", strconv.FormatFloat(req.RadiusKM, 'f', -1, 64))
	if req.Species != "" {
		params.Set("species", req.Species)
	}

	var result floweringEventsResponse
	if err := c.getJSON(ctx, "/api/flowering-events", params, &result); err != nil {
		return nil, err
	}

	return c.toAnalysisResult(&result)
}

// FetchPredictions retrieves a flowering forecast.
func (c *Client) FetchPredictions(ctx context.Context, region string, daysAhead int, species string) (*flora.PredictionSet, error) {
	params := url.Values{}
	params.Set("region", region)
	params.Set("days_ahead", strconv.Itoa(daysAhead))
	if species != "" {
		params.Set("species", species)
	}

	var result predictionsResponse
	if err := c.getJSON(ctx, "/api/predictions", params, &result); err != nil {
		return nil, err
	}

	return c.toPredictionSet(&result), nil
}

// FetchAlerts retrieves active alerts filtered by severity.
func (c *Client) FetchAlerts(ctx context.Context, severity flora.Severity) ([]flora.Alert, error) {
	params := url.Values{}
	if severity == "" {
		severity = flora.SeverityAll
	}
	params.Set("severity", string(severity))

	var result alertsResponse
	if err := c.getJSON(ctx, "/api/alerts", params, &result); err != nil {
		return nil, err
	}

	alerts := make([]flora.Alert, 0, len(result.Alerts))
	for _, a := range result.Alerts {
		alerts = append(alerts, c.toAlert(&a))
	}
	return alerts, nil
}

// FetchStatistics retrieves global detection statistics.
func (c *Client) FetchStatistics(ctx context.Context) (*flora.Statistics, error) {
	var result statisticsResponse
	if err := c.getJSON(ctx, "/api/statistics", nil, &result); err != nil {
		return nil, err
	}

	lastUpdate, _ := time.Parse(time.RFC3339, result.LastUpdate)
	return &flora.Statistics{
		TotalEventsDetected: result.TotalEventsDetected,
		RegionsMonitored:    result.RegionsMonitored,
		SpeciesTracked:      result.SpeciesTracked,
		ActiveAlerts:        result.ActiveAlerts,
		LastUpdate:          lastUpdate,
	}, nil
}

// FetchSpecies lists the monitorable plant species.
func (c *Client) FetchSpecies(ctx context.Context) ([]flora.Species, error) {
	var result speciesResponse
	if err := c.getJSON(ctx, "/api/species", nil, &result); err != nil {
		return nil, err
	}

	species := make([]flora.Species, 0, len(result.Species))
	for _, s := range result.Species {
		species = append(species, flora.Species{
			ID:              s.ID,
			Name:            s.Name,
			ScientificName:  s.ScientificName,
			FloweringSeason: s.FloweringSeason,
			Regions:         s.Regions,
		})
	}
	return species, nil
}

// FetchRegions lists the monitorable regions.
func (c *Client) FetchRegions(ctx context.Context) ([]flora.Region, error) {
	var result regionsResponse
	if err := c.getJSON(ctx, "/api/regions", nil, &result); err != nil {
		return nil, err
	}

	regions := make([]flora.Region, 0, len(result.Regions))
	for _, r := range result.Regions {
		regions = append(regions, flora.Region{
			ID:          r.ID,
			Name:        r.Name,
			BBox:        r.BBox,
			Description: r.Description,
		})
	}
	return regions, nil
}

// getJSON issues a GET request and decodes the JSON response. Any
// non-2xx status is a hard failure for the call.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// toAnalysisResult converts the wire payload to the domain result.
func (c *Client) toAnalysisResult(r *floweringEventsResponse) (*flora.AnalysisResult, error) {
	start, err := time.Parse(dateLayout, r.Period.Start)
	if err != nil {
		return nil, fmt.Errorf("parse period start: %w", err)
	}
	end, err := time.Parse(dateLayout, r.Period.End)
	if err != nil {
		return nil, fmt.Errorf("parse period end: %w", err)
	}

	events := make([]flora.FloweringEvent, 0, len(r.Events))
	for i := range r.Events {
		event, convErr := c.toEvent(&r.Events[i])
		if convErr != nil {
			return nil, fmt.Errorf("event %d: %w", i, convErr)
		}
		events = append(events, event)
	}

	var series flora.TimeSeries
	if r.TimeSeries != nil {
		series.Dates = make([]time.Time, 0, len(r.TimeSeries.Dates))
		for _, d := range r.TimeSeries.Dates {
			date, parseErr := time.Parse(dateLayout, d)
			if parseErr != nil {
				return nil, fmt.Errorf("parse series date %q: %w", d, parseErr)
			}
			series.Dates = append(series.Dates, date)
		}
		series.Values = r.TimeSeries.Values
	}

	processedAt, _ := time.Parse(time.RFC3339, r.Metadata.ProcessedAt)

	return &flora.AnalysisResult{
		Location: flora.Location{Lat: r.Location.Lat, Lon: r.Location.Lon},
		Period:   flora.DateRange{Start: start, End: end},
		Events:   events,
		Series:   series,
		Metadata: flora.ResultMetadata{
			DataSource:  r.Metadata.DataSource,
			Algorithm:   r.Metadata.Algorithm,
			ProcessedAt: processedAt,
		},
	}, nil
}

func (c *Client) toEvent(e *eventData) (flora.FloweringEvent, error) {
	start, err := time.Parse(dateLayout, e.StartDate)
	if err != nil {
		return flora.FloweringEvent{}, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(dateLayout, e.EndDate)
	if err != nil {
		return flora.FloweringEvent{}, fmt.Errorf("parse end date: %w", err)
	}
	peak, err := time.Parse(dateLayout, e.PeakDate)
	if err != nil {
		return flora.FloweringEvent{}, fmt.Errorf("parse peak date: %w", err)
	}

	event := flora.FloweringEvent{
		Start:        start,
		End:          end,
		Peak:         peak,
		DurationDays: e.DurationDays,
		PeakValue:    e.PeakValue,
		Intensity:    e.Intensity,
		Confidence:   e.Confidence,
		Type:         flora.EventType(e.EventType),
		Description:  e.Description,
	}
	if e.Location != nil {
		event.Location = &flora.Location{Lat: e.Location.Latitude, Lon: e.Location.Longitude}
	}
	return event, nil
}

func (c *Client) toPredictionSet(r *predictionsResponse) *flora.PredictionSet {
	predictions := make([]flora.Prediction, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		date, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			continue // skip malformed rows rather than failing the forecast
		}
		predictions = append(predictions, flora.Prediction{
			Date:                 date,
			PredictedIndex:       p.PredictedIndex,
			Confidence:           p.Confidence,
			FloweringProbability: p.FloweringProbability,
		})
	}

	generatedAt, _ := time.Parse(time.RFC3339, r.GeneratedAt)

	return &flora.PredictionSet{
		Region:      r.Region,
		Species:     r.Species,
		DaysAhead:   r.PredictionPeriod,
		Predictions: predictions,
		Confidence:  r.Confidence,
		GeneratedAt: generatedAt,
	}
}

func (c *Client) toAlert(a *alertData) flora.Alert {
	timestamp, _ := time.Parse(time.RFC3339, a.Timestamp)
	return flora.Alert{
		ID:          a.ID,
		Type:        a.Type,
		Severity:    flora.Severity(a.Severity),
		Title:       a.Title,
		Description: a.Description,
		Location:    flora.Location{Lat: a.Location.Lat, Lon: a.Location.Lon},
		Timestamp:   timestamp,
		Species:     a.Species,
		Confidence:  a.Confidence,
	}
}
