package models

import (
	"encoding/json"
)

// Ratio is a metric value that may be unavailable. A not-computable ratio
// never carries a numeric placeholder.
type Ratio struct {
	Value      float64 `json:"value"`
	Computable bool    `json:"computable"`
	Reason     string  `json:"reason,omitempty"`
}

func Computed(v float64) Ratio {
	return Ratio{Value: v, Computable: true}
}

func NotComputable(reason string) Ratio {
	return Ratio{Reason: reason}
}

// MarshalJSON writes a null value for not-computable ratios.
func (r Ratio) MarshalJSON() ([]byte, error) {
	out := struct {
		Value      *float64 `json:"value"`
		Computable bool     `json:"computable"`
		Reason     string   `json:"reason,omitempty"`
	}{Computable: r.Computable, Reason: r.Reason}
	if r.Computable {
		v := r.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

type Category string

const (
	CategoryLiquidity     Category = "liquidity"
	CategoryProfitability Category = "profitability"
	CategoryEfficiency    Category = "efficiency"
	CategoryLeverage      Category = "leverage"
	CategoryGrowth        Category = "growth"
)

// Categories in display order.
var Categories = []Category{
	CategoryLiquidity,
	CategoryProfitability,
	CategoryEfficiency,
	CategoryLeverage,
	CategoryGrowth,
}

// Status is a traffic-light classification. Grey marks values that are
// unavailable or carry no band.
type Status string

const (
	StatusGreen Status = "green"
	StatusAmber Status = "amber"
	StatusRed   Status = "red"
	StatusGrey  Status = "grey"
)

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
	TrendNone Trend = "none"
)

// ValueFormat tells renderers which unit a number is expressed in.
type ValueFormat string

const (
	FormatCurrency   ValueFormat = "currency"
	FormatPercentage ValueFormat = "percentage"
	FormatMultiplier ValueFormat = "multiplier"
	FormatDays       ValueFormat = "days"
)

// MetricValue is one period's reading of a metric.
type MetricValue struct {
	Period string `json:"period"`
	Index  int    `json:"index"`
	Ratio  Ratio  `json:"ratio"`
	Status Status `json:"status"`
	Trend  Trend  `json:"trend"`
}

// Metric is a named ratio across all periods, oldest first.
type Metric struct {
	Key            string        `json:"key"`
	Name           string        `json:"name"`
	Category       Category      `json:"category"`
	Format         ValueFormat   `json:"format"`
	HigherIsBetter bool          `json:"higher_is_better"`
	Informational  bool          `json:"informational,omitempty"`
	Values         []MetricValue `json:"values"`
}

// Latest returns the most recent period's value.
func (m Metric) Latest() (MetricValue, bool) {
	if len(m.Values) == 0 {
		return MetricValue{}, false
	}
	return m.Values[len(m.Values)-1], true
}

// RedFlag is a plain-language warning derived from the metrics.
type RedFlag struct {
	Key     string `json:"key"`
	Period  string `json:"period"`
	Message string `json:"message"`
}
