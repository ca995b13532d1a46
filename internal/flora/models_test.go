package flora_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florawatch/florawatch/internal/flora"
)

func TestNewLocation(t *testing.T) {
	loc, err := flora.NewLocation(52.37, 4.895)
	require.NoError(t, err)
	assert.Equal(t, 52.37, loc.Lat)
	assert.Equal(t, 4.895, loc.Lon)
}

func TestNewLocation_Bounds(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		ok   bool
	}{
		{"north pole", 90, 0, true},
		{"south pole", -90, 0, true},
		{"date line east", 0, 180, true},
		{"date line west", 0, -180, true},
		{"lat too high", 90.01, 0, false},
		{"lat too low", -90.01, 0, false},
		{"lon too high", 0, 180.01, false},
		{"lon too low", 0, -180.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flora.NewLocation(tt.lat, tt.lon)
			if tt.ok {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, flora.ErrInvalidLocation)
			}
		})
	}
}

func TestNewDateRange(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)

	r, err := flora.NewDateRange(start, end)
	require.NoError(t, err)
	assert.Equal(t, 90, r.Days())

	_, err = flora.NewDateRange(end, start)
	assert.ErrorIs(t, err, flora.ErrInvalidDateRange)

	// A single-day range is valid.
	_, err = flora.NewDateRange(start, start)
	require.NoError(t, err)
}

func TestPresetRange(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	r := flora.PresetRange(now, 30)
	assert.Equal(t, now, r.End)
	assert.Equal(t, now.AddDate(0, 0, -30), r.Start)

	assert.Equal(t, 90, flora.DefaultRange(now).Days())
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, "high", flora.ConfidenceLevel(0.9))
	assert.Equal(t, "high", flora.ConfidenceLevel(0.81))
	assert.Equal(t, "medium", flora.ConfidenceLevel(0.8))
	assert.Equal(t, "medium", flora.ConfidenceLevel(0.61))
	assert.Equal(t, "low", flora.ConfidenceLevel(0.6))
	assert.Equal(t, "low", flora.ConfidenceLevel(0.1))
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, flora.SeverityLow.Valid())
	assert.True(t, flora.SeverityMedium.Valid())
	assert.True(t, flora.SeverityHigh.Valid())
	assert.False(t, flora.SeverityAll.Valid())
	assert.False(t, flora.Severity("critical").Valid())
}

func TestFilterAlerts(t *testing.T) {
	alerts := []flora.Alert{
		{ID: "a1", Severity: flora.SeverityHigh},
		{ID: "a2", Severity: flora.SeverityMedium},
		{ID: "a3", Severity: flora.SeverityLow},
		{ID: "a4", Severity: flora.SeverityHigh},
	}

	high := flora.FilterAlerts(alerts, flora.SeverityHigh)
	require.Len(t, high, 2)
	assert.Equal(t, "a1", high[0].ID)
	assert.Equal(t, "a4", high[1].ID)

	assert.Len(t, flora.FilterAlerts(alerts, flora.SeverityAll), 4)
	assert.Len(t, flora.FilterAlerts(alerts, ""), 4)
	assert.Empty(t, flora.FilterAlerts(nil, flora.SeverityLow))
}
