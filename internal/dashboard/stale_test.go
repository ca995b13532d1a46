package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florawatch/florawatch/internal/flora"
	"github.com/florawatch/florawatch/internal/sched"
)

type nopProvider struct{}

func (nopProvider) Name() string                 { return "nop" }
func (nopProvider) Health(context.Context) error { return nil }
func (nopProvider) FetchFloweringEvents(context.Context, flora.AnalysisRequest) (*flora.AnalysisResult, error) {
	return &flora.AnalysisResult{}, nil
}
func (nopProvider) FetchPredictions(context.Context, string, int, string) (*flora.PredictionSet, error) {
	return &flora.PredictionSet{}, nil
}
func (nopProvider) FetchAlerts(context.Context, flora.Severity) ([]flora.Alert, error) {
	return nil, nil
}
func (nopProvider) FetchStatistics(context.Context) (*flora.Statistics, error) {
	return &flora.Statistics{}, nil
}
func (nopProvider) FetchSpecies(context.Context) ([]flora.Species, error) { return nil, nil }
func (nopProvider) FetchRegions(context.Context) ([]flora.Region, error)  { return nil, nil }

type nopMap struct{}

func (nopMap) SetLocation(lat, lon float64)                      {}
func (nopMap) ShowFloweringEvents(events []flora.FloweringEvent) {}
func (nopMap) ClearFloweringEvents()                             {}

type nopCharts struct{}

func (nopCharts) Render(*flora.AnalysisResult)           {}
func (nopCharts) RenderPredictions(*flora.PredictionSet) {}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
func (nopNotifier) Warning(string) {}
func (nopNotifier) Info(string)    {}

// Completions are applied in sequence order: once a newer result has
// landed, an older in-flight completion is dropped on arrival.
func TestCompleteAnalysis_DropsStaleResult(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	o := New(Config{
		Provider:  nopProvider{},
		Map:       nopMap{},
		Charts:    nopCharts{},
		Notifier:  nopNotifier{},
		Scheduler: sched.NewManual(time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)),
		Logger:    zerolog.Nop(),
		Metrics:   metrics,
	})

	newer := &flora.AnalysisResult{Metadata: flora.ResultMetadata{Algorithm: "newer"}}
	older := &flora.AnalysisResult{Metadata: flora.ResultMetadata{Algorithm: "older"}}

	o.mu.Lock()
	o.analysisSeq = 2
	o.mu.Unlock()

	applied, err := o.completeAnalysis(2, newer, nil)
	require.NoError(t, err)
	assert.Same(t, newer, applied)

	dropped, err := o.completeAnalysis(1, older, nil)
	require.NoError(t, err)
	assert.Nil(t, dropped)

	o.mu.Lock()
	assert.Same(t, newer, o.result)
	o.mu.Unlock()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StaleDropped))
}

func TestCompleteAnalysis_StaleFailureStillNotifies(t *testing.T) {
	o := New(Config{
		Provider:  nopProvider{},
		Map:       nopMap{},
		Charts:    nopCharts{},
		Notifier:  nopNotifier{},
		Scheduler: sched.NewManual(time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)),
		Logger:    zerolog.Nop(),
	})

	kept := &flora.AnalysisResult{}
	o.mu.Lock()
	o.analysisSeq = 2
	o.mu.Unlock()

	_, err := o.completeAnalysis(2, kept, nil)
	require.NoError(t, err)

	// A failed stale completion reports the error but leaves the
	// applied result alone.
	_, err = o.completeAnalysis(1, nil, context.DeadlineExceeded)
	require.Error(t, err)

	o.mu.Lock()
	assert.Same(t, kept, o.result)
	o.mu.Unlock()
}
