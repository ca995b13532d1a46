package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/flora/backend"
)

func newTestClient(handler http.HandlerFunc) (*backend.Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := backend.NewClient(backend.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	return client, server
}

func TestClient_Health(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})
	defer server.Close()

	require.NoError(t, client.Health(context.Background()))
}

func TestClient_TransportHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer server.Close()

	// The default client carries the resilient transport.
	client := backend.NewClient(backend.ClientConfig{BaseURL: server.URL})
	require.NoError(t, client.Health(context.Background()))

	health, ok := client.TransportHealth()
	require.True(t, ok)
	assert.Equal(t, backend.ProviderName, health.Name)
	assert.True(t, health.Healthy())
	assert.NotNil(t, health.LastSuccess)

	// An injected HTTP client has no snapshot to report.
	injected := backend.NewClient(backend.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	_, ok = injected.TransportHealth()
	assert.False(t, ok)
}

func TestClient_Health_Degraded(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	})
	defer server.Close()

	err := client.Health(context.Background())
	assert.ErrorIs(t, err, flora.ErrProviderUnavailable)
}

func TestClient_FetchFloweringEvents(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/flowering-events", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "52.37", q.Get("lat"))
		assert.Equal(t, "4.895", q.Get("lon"))
		assert.Equal(t, "2026-03-01", q.Get("start_date"))
		assert.Equal(t, "2026-05-30", q.Get("end_date"))
		assert.Equal(t, "10", q.Get("radius"))
		assert.Equal(t, "cherry_blossom", q.Get("species"))

		w.Write([]byte(`{
			"location": {"lat": 52.37, "lon": 4.895},
			"period": {"start": "2026-03-01", "end": "2026-05-30"},
			"events_detected": 1,
			"events": [{
				"start_date": "2026-04-01",
				"end_date": "2026-04-18",
				"peak_date": "2026-04-10",
				"duration_days": 17,
				"peak_value": 0.82,
				"intensity": 0.12,
				"confidence": 0.91,
				"event_type": "typical_flowering",
				"location": {"latitude": 52.4, "longitude": 4.9},
				"description": "Typical flowering event"
			}],
			"time_series": {
				"dates": ["2026-03-01", "2026-03-17"],
				"values": [0.41, 0.45]
			},
			"metadata": {
				"data_source": "MODIS",
				"algorithm": "ndvi-peak-detection",
				"processed_at": "2026-05-30T12:00:00Z"
			}
		}`))
	})
	defer server.Close()

	result, err := client.FetchFloweringEvents(context.Background(), flora.AnalysisRequest{
		Location: flora.Location{Lat: 52.37, Lon: 4.895},
		Range: flora.DateRange{
			Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC),
		},
		Species:  "cherry_blossom",
		RadiusKM: 10,
	})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)

	event := result.Events[0]
	assert.Equal(t, flora.EventTypicalFlowering, event.Type)
	assert.Equal(t, 17, event.DurationDays)
	assert.InDelta(t, 0.82, event.PeakValue, 1e-9)
	require.NotNil(t, event.Location)
	assert.InDelta(t, 52.4, event.Location.Lat, 1e-9)
	assert.InDelta(t, 4.9, event.Location.Lon, 1e-9)

	assert.Len(t, result.Series.Dates, 2)
	assert.Equal(t, "MODIS", result.Metadata.DataSource)
	assert.False(t, result.Metadata.Simulated)
}

func TestClient_FetchFloweringEvents_NoTimeSeries(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"location": {"lat": 0, "lon": 0},
			"period": {"start": "2026-01-01", "end": "2026-02-01"},
			"events_detected": 0,
			"events": [],
			"metadata": {"data_source": "MODIS", "algorithm": "ndvi-peak-detection"}
		}`))
	})
	defer server.Close()

	result, err := client.FetchFloweringEvents(context.Background(), flora.AnalysisRequest{
		Range: flora.DateRange{
			Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		RadiusKM: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Series.Dates)
}

func TestClient_FetchFloweringEvents_ServerError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.FetchFloweringEvents(context.Background(), flora.AnalysisRequest{RadiusKM: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestClient_FetchPredictions(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/predictions", r.URL.Path)
		assert.Equal(t, "europe", r.URL.Query().Get("region"))
		assert.Equal(t, "30", r.URL.Query().Get("days_ahead"))

		w.Write([]byte(`{
			"region": "europe",
			"species": "lavender",
			"prediction_period": 30,
			"predictions": [
				{"date": "2026-09-01", "predicted_ndvi": 0.55, "confidence": 0.7, "flowering_probability": 0.31},
				{"date": "not-a-date", "predicted_ndvi": 0.6, "confidence": 0.7, "flowering_probability": 0.4}
			],
			"confidence": "medium",
			"generated_at": "2026-08-27T09:00:00Z"
		}`))
	})
	defer server.Close()

	set, err := client.FetchPredictions(context.Background(), "europe", 30, "lavender")
	require.NoError(t, err)
	assert.Equal(t, "europe", set.Region)
	assert.Equal(t, 30, set.DaysAhead)

	// The malformed row is skipped, not fatal.
	require.Len(t, set.Predictions, 1)
	assert.InDelta(t, 0.55, set.Predictions[0].PredictedIndex, 1e-9)
}

func TestClient_FetchAlerts(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/alerts", r.URL.Path)
		assert.Equal(t, "high", r.URL.Query().Get("severity"))

		w.Write([]byte(`{
			"alerts": [{
				"id": "alert_001",
				"type": "flowering_start",
				"severity": "high",
				"title": "Flowering onset detected",
				"description": "Strong NDVI rise",
				"location": {"lat": 36.77, "lon": -119.41},
				"timestamp": "2026-08-26T18:00:00Z",
				"species": "california_poppy",
				"confidence": 0.92
			}],
			"count": 1
		}`))
	})
	defer server.Close()

	alerts, err := client.FetchAlerts(context.Background(), flora.SeverityHigh)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "alert_001", alerts[0].ID)
	assert.Equal(t, flora.SeverityHigh, alerts[0].Severity)
	assert.InDelta(t, 36.77, alerts[0].Location.Lat, 1e-9)
}

func TestClient_FetchStatistics(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"total_events_detected": 15847,
			"regions_monitored": 156,
			"species_tracked": 24,
			"active_alerts": 3,
			"last_update": "2026-08-27T06:00:00Z"
		}`))
	})
	defer server.Close()

	stats, err := client.FetchStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15847, stats.TotalEventsDetected)
	assert.Equal(t, 3, stats.ActiveAlerts)
}

func TestClient_FetchSpeciesAndRegions(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/species":
			w.Write([]byte(`{"species": [{
				"id": "cherry_blossom",
				"name": "Cherry Blossom",
				"scientific_name": "Prunus serrulata",
				"flowering_season": "spring",
				"regions": ["asia", "north_america"]
			}]}`))
		case "/api/regions":
			w.Write([]byte(`{"regions": [{
				"id": "europe",
				"name": "Europe",
				"bbox": [-10.0, 35.0, 40.0, 70.0],
				"description": "European monitoring region"
			}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	species, err := client.FetchSpecies(context.Background())
	require.NoError(t, err)
	require.Len(t, species, 1)
	assert.Equal(t, "Prunus serrulata", species[0].ScientificName)

	regions, err := client.FetchRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, [4]float64{-10, 35, 40, 70}, regions[0].BBox)
}
