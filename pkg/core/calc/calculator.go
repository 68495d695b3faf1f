// Package calc derives ratios from normalized statements and classifies them
// against fixed traffic-light bands.
package calc

import (
	"math"

	"finsight/pkg/models"
)

// flatWithin is the relative change below which a trend is flat.
const flatWithin = 0.01

// PeriodValues is one period's raw ratios keyed by metric.
type PeriodValues map[string]models.Ratio

// Calculator computes the metric catalogue. It is safe for concurrent use.
type Calculator struct {
	defs []Definition
}

func New() *Calculator {
	return &Calculator{defs: Definitions()}
}

// NewWithDefinitions builds a calculator over a custom catalogue.
func NewWithDefinitions(defs []Definition) *Calculator {
	return &Calculator{defs: defs}
}

func (c *Calculator) Definitions() []Definition {
	return c.defs
}

// Period computes every metric for cur. prior is the preceding period, or nil
// for the first one.
func (c *Calculator) Period(cur, prior *models.NormalizedStatement) PeriodValues {
	out := make(PeriodValues, len(c.defs))
	for _, d := range c.defs {
		if d.Growth && prior == nil {
			out[d.Key] = models.NotComputable("no prior period")
			continue
		}
		out[d.Key] = d.Compute(cur, prior)
	}
	return out
}

// Assemble turns per-period values (ordered oldest first) into metrics with
// status and trend.
func (c *Calculator) Assemble(periods []models.Period, values []PeriodValues) []models.Metric {
	metrics := make([]models.Metric, 0, len(c.defs))
	for _, d := range c.defs {
		m := models.Metric{
			Key:            d.Key,
			Name:           d.Name,
			Category:       d.Category,
			Format:         d.Format,
			HigherIsBetter: d.HigherIsBetter,
			Informational:  d.Informational,
			Values:         make([]models.MetricValue, len(values)),
		}
		for i, pv := range values {
			r := pv[d.Key]
			mv := models.MetricValue{Index: i, Ratio: r, Status: d.classify(r, pv), Trend: models.TrendNone}
			if i < len(periods) {
				mv.Period = periods[i].Label
			}
			if i > 0 {
				mv.Trend = trend(r, values[i-1][d.Key])
			}
			m.Values[i] = mv
		}
		metrics = append(metrics, m)
	}
	return metrics
}

// Compute runs Period over every statement in order and assembles the result.
func (c *Calculator) Compute(statements []models.NormalizedStatement) []models.Metric {
	values := make([]PeriodValues, len(statements))
	periods := make([]models.Period, len(statements))
	for i := range statements {
		var prior *models.NormalizedStatement
		if i > 0 {
			prior = &statements[i-1]
		}
		values[i] = c.Period(&statements[i], prior)
		periods[i] = statements[i].Period
	}
	return c.Assemble(periods, values)
}

// classify maps a ratio onto its traffic-light status.
func (d Definition) classify(r models.Ratio, peers PeriodValues) models.Status {
	if !r.Computable || d.Informational {
		return models.StatusGrey
	}
	if d.Status != nil {
		return d.Status(r.Value, peers)
	}
	return d.Bands.Classify(r.Value, d.HigherIsBetter)
}

// Classify applies the bands to v.
func (t Thresholds) Classify(v float64, higherIsBetter bool) models.Status {
	if higherIsBetter {
		switch {
		case v >= t.Green:
			return models.StatusGreen
		case v >= t.Amber:
			return models.StatusAmber
		default:
			return models.StatusRed
		}
	}
	switch {
	case v <= t.Green:
		return models.StatusGreen
	case v <= t.Amber:
		return models.StatusAmber
	default:
		return models.StatusRed
	}
}

// trend compares a value with the previous period's. Direction is the raw
// movement of the number, not whether it improved.
func trend(cur, prior models.Ratio) models.Trend {
	if !cur.Computable || !prior.Computable {
		return models.TrendNone
	}
	diff := cur.Value - prior.Value
	if math.Abs(diff) <= flatWithin*math.Abs(prior.Value) || math.Abs(diff) < 0.001 {
		return models.TrendFlat
	}
	if diff > 0 {
		return models.TrendUp
	}
	return models.TrendDown
}
