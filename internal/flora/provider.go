package flora

import "context"

// Provider defines the interface for flowering data providers. Both
// the real backend client and the simulated generator implement it;
// the two are never mixed within a single result.
type Provider interface {
	// Name identifies the provider in logs and result metadata.
	Name() string

	// Health probes provider liveness. A failing probe means the
	// dashboard should degrade to a fallback provider, not crash.
	Health(ctx context.Context) error

	// FetchFloweringEvents runs an analysis for the request snapshot.
	FetchFloweringEvents(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)

	// FetchPredictions forecasts flowering for a region and species.
	FetchPredictions(ctx context.Context, region string, daysAhead int, species string) (*PredictionSet, error)

	// FetchAlerts returns active alerts filtered by severity.
	// SeverityAll returns every alert.
	FetchAlerts(ctx context.Context, severity Severity) ([]Alert, error)

	// FetchStatistics returns global detection statistics.
	FetchStatistics(ctx context.Context) (*Statistics, error)

	// FetchSpecies lists the monitorable plant species.
	FetchSpecies(ctx context.Context) ([]Species, error)

	// FetchRegions lists the monitorable regions.
	FetchRegions(ctx context.Context) ([]Region, error)
}
