package benchmark

import (
	"math"

	"finsight/pkg/models"
)

// amberReach is how far outside the band, as a fraction of its width, a value
// may fall and still be amber.
const amberReach = 0.20

// Matcher classifies client values against a Provider's bands.
type Matcher struct {
	provider Provider
}

func NewMatcher(p Provider) *Matcher {
	return &Matcher{provider: p}
}

// Compare returns the comparison for one metric value, or false when no band
// exists for the industry/metric pair.
func (m *Matcher) Compare(industry, metric string, value float64) (models.BenchmarkComparison, bool) {
	band, ok := m.provider.Lookup(industry, metric)
	if !ok {
		return models.BenchmarkComparison{}, false
	}
	resolved := industry
	if r, ok := m.provider.(interface{ Resolve(string) string }); ok {
		resolved = r.Resolve(industry)
	}
	return models.BenchmarkComparison{
		Metric:      metric,
		Industry:    resolved,
		ClientValue: value,
		Band:        band,
		Position:    Position(value, band),
		Status:      Status(value, band),
	}, true
}

// CompareAll compares the latest computable value of every metric that has a
// band, in metric order.
func (m *Matcher) CompareAll(industry string, metrics []models.Metric) []models.BenchmarkComparison {
	var out []models.BenchmarkComparison
	for _, mt := range metrics {
		v, ok := mt.Latest()
		if !ok || !v.Ratio.Computable {
			continue
		}
		if c, ok := m.Compare(industry, mt.Key, v.Ratio.Value); ok {
			out = append(out, c)
		}
	}
	return out
}

// Position places v relative to the band's low, typical and high marks.
func Position(v float64, b models.Band) models.BenchmarkPosition {
	switch {
	case v < b.Low:
		return models.PositionBelowLow
	case v < b.Typical:
		return models.PositionLowToTypical
	case v <= b.High:
		return models.PositionTypicalToHigh
	default:
		return models.PositionAboveHigh
	}
}

// Status is green inside the band or beyond it on the favourable side, amber
// within 20% of the band width on the unfavourable side and red past that.
func Status(v float64, b models.Band) models.Status {
	if v >= b.Low && v <= b.High {
		return models.StatusGreen
	}
	if b.HigherIsBetter && v > b.High {
		return models.StatusGreen
	}
	if !b.HigherIsBetter && v < b.Low {
		return models.StatusGreen
	}
	width := math.Max(b.High-b.Low, 1)
	var deviation float64
	if v < b.Low {
		deviation = (b.Low - v) / width
	} else {
		deviation = (v - b.High) / width
	}
	if deviation <= amberReach {
		return models.StatusAmber
	}
	return models.StatusRed
}
