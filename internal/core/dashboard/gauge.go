package dashboard

import "github.com/rschio/riskdash/internal/core/customer"

// Band classifies a risk score for display.
type Band string

// Set of display bands.
const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

const mediumRiskThreshold = 40

// Gauge is the progress bar drawn for a risk score.
type Gauge struct {
	Percent int
	Band    Band
}

// NewGauge clamps score into 0..100 for the bar. The band uses the
// unclamped score.
func NewGauge(score int) Gauge {
	g := Gauge{Percent: min(max(score, 0), 100)}

	switch {
	case customer.IsHighRisk(score):
		g.Band = BandHigh
	case score > mediumRiskThreshold:
		g.Band = BandMedium
	default:
		g.Band = BandLow
	}

	return g
}
