package models

// Band is an industry benchmark range for one metric.
type Band struct {
	Low            float64 `json:"low" yaml:"low"`
	Typical        float64 `json:"typical" yaml:"typical"`
	High           float64 `json:"high" yaml:"high"`
	HigherIsBetter bool    `json:"higher_is_better" yaml:"higher_is_better"`
	Source         string  `json:"source,omitempty" yaml:"source,omitempty"`
}

type BenchmarkPosition string

const (
	PositionBelowLow      BenchmarkPosition = "below_low"
	PositionLowToTypical  BenchmarkPosition = "low_to_typical"
	PositionTypicalToHigh BenchmarkPosition = "typical_to_high"
	PositionAboveHigh     BenchmarkPosition = "above_high"
)

// BenchmarkComparison places a client value inside an industry band.
type BenchmarkComparison struct {
	Metric      string            `json:"metric"`
	Industry    string            `json:"industry"`
	ClientValue float64           `json:"client_value"`
	Band        Band              `json:"band"`
	Position    BenchmarkPosition `json:"position"`
	Status      Status            `json:"status"`
}
