package flora

import "time"

// SeasonSummary holds the metrics derived from the events of one
// analysis result. When HasEvents is false the other fields are
// meaningless and should render as N/A.
type SeasonSummary struct {
	HasEvents    bool      `json:"has_events"`
	Start        time.Time `json:"start,omitzero"`
	Peak         time.Time `json:"peak,omitzero"`
	LengthDays   int       `json:"length_days"`
	MaxIntensity float64   `json:"max_intensity"`
}

// Season derives the season metrics from the result's events:
// season start is the earliest event start, season peak is the peak
// date of the event with the highest peak value, season length is the
// span from earliest start to latest end, and max intensity is the
// highest peak value.
func (r *AnalysisResult) Season() SeasonSummary {
	if len(r.Events) == 0 {
		return SeasonSummary{}
	}

	earliest := r.Events[0].Start
	latest := r.Events[0].End
	best := r.Events[0]

	for _, e := range r.Events[1:] {
		if e.Start.Before(earliest) {
			earliest = e.Start
		}
		if e.End.After(latest) {
			latest = e.End
		}
		if e.PeakValue > best.PeakValue {
			best = e
		}
	}

	return SeasonSummary{
		HasEvents:    true,
		Start:        earliest,
		Peak:         best.Peak,
		LengthDays:   int(latest.Sub(earliest).Hours() / 24),
		MaxIntensity: best.PeakValue,
	}
}
