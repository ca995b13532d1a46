package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts orchestrator activity.
type Metrics struct {
	AnalysesStarted   prometheus.Counter
	AnalysesSucceeded prometheus.Counter
	AnalysesFailed    prometheus.Counter
	AnalysesRejected  prometheus.Counter
	StaleDropped      prometheus.Counter
	AutoRefreshTicks  prometheus.Counter
}

// NewMetrics registers the orchestrator counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnalysesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "florawatch_analyses_started_total",
			Help: "Analysis runs started.",
		}),
		AnalysesSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "florawatch_analyses_succeeded_total",
			Help: "Analysis runs that completed and were applied.",
		}),
		AnalysesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "florawatch_analyses_failed_total",
			Help: "Analysis runs that failed.",
		}),
		AnalysesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "florawatch_analyses_rejected_total",
			Help: "Analysis requests rejected while another run was pending.",
		}),
		StaleDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "florawatch_stale_results_dropped_total",
			Help: "Completed results discarded because a newer result was already applied.",
		}),
		AutoRefreshTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "florawatch_auto_refresh_ticks_total",
			Help: "Auto-refresh interval firings.",
		}),
	}
}
