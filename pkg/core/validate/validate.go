// Package validate runs the integrity checks that gate an analysis result.
// The primitives here are pure functions over plain numbers; checker.go
// applies them to normalized statements.
package validate

import (
	"fmt"
	"math"
)

// =============================================================================
// TOLERANCES
// =============================================================================

// Tolerances configures how far figures may drift before a check warns or
// fails. Relative tolerances are fractions, RevenueSwingPct is a percentage.
type Tolerances struct {
	Absolute        float64 `yaml:"absolute" validate:"gte=0"`
	ProfitRelative  float64 `yaml:"profit_relative" validate:"gte=0"`
	BalanceRelative float64 `yaml:"balance_relative" validate:"gte=0"`
	EquityRelative  float64 `yaml:"equity_relative" validate:"gte=0"`
	RevenueSwingPct float64 `yaml:"revenue_swing_pct" validate:"gt=0"`
}

// DefaultTolerances returns the standard settings: $1 absolute, 0.1% of net
// profit, 0.5% of total assets, 2% of closing equity and a 50% revenue swing.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Absolute:        1.0,
		ProfitRelative:  0.001,
		BalanceRelative: 0.005,
		EquityRelative:  0.02,
		RevenueSwingPct: 50,
	}
}

// =============================================================================
// YEAR-OVER-YEAR (YoY) CALCULATIONS
// =============================================================================

// CalculateYoY returns the percentage change (current - prior) / |prior| * 100.
// ok is false when prior is zero.
func CalculateYoY(current, prior float64) (pct float64, ok bool) {
	if prior == 0 {
		return 0, false
	}
	return (current - prior) / math.Abs(prior) * 100, true
}

// =============================================================================
// EQUATION CHECKS
// =============================================================================

// BalanceCheck verifies Assets = Liabilities + Equity.
type BalanceCheck struct {
	TotalAssets      float64
	TotalLiabilities float64
	TotalEquity      float64
	ComputedAssets   float64 // L + E
	Difference       float64
	IsBalanced       bool
	Tolerance        float64
}

// CheckBalanceEquation validates A = L + E within tolerance.
func CheckBalanceEquation(assets, liabilities, equity, tolerance float64) *BalanceCheck {
	computed := liabilities + equity
	diff := assets - computed

	return &BalanceCheck{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       math.Abs(diff) <= tolerance,
		Tolerance:        tolerance,
	}
}

// ProfitCheck verifies Net Profit = Revenue - COGS - OpEx - Interest - Tax.
type ProfitCheck struct {
	Computed   float64
	Reported   float64
	Difference float64 // computed - reported
	IsBalanced bool
	Tolerance  float64
}

// CheckProfitEquation compares reported net profit with the figure rebuilt
// from its components. deductions are subtracted from revenue.
func CheckProfitEquation(revenue, reported, tolerance float64, deductions ...float64) *ProfitCheck {
	computed := revenue
	for _, d := range deductions {
		computed -= d
	}
	diff := computed - reported

	return &ProfitCheck{
		Computed:   computed,
		Reported:   reported,
		Difference: diff,
		IsBalanced: math.Abs(diff) <= tolerance,
		Tolerance:  tolerance,
	}
}

// =============================================================================
// OUTLIER DETECTION
// =============================================================================

// OutlierCheck identifies suspicious period-on-period movements.
type OutlierCheck struct {
	Item       string
	Value      float64
	PriorValue float64
	ChangePct  float64
	IsOutlier  bool
	Reason     string
	Threshold  float64
}

// CheckForOutlier flags a change whose magnitude exceeds thresholdPct, or a
// value that dropped to zero from a positive prior.
func CheckForOutlier(item string, current, prior, thresholdPct float64) *OutlierCheck {
	check := &OutlierCheck{
		Item:       item,
		Value:      current,
		PriorValue: prior,
		Threshold:  thresholdPct,
	}

	if current == 0 && prior > 0 {
		check.ChangePct = -100
		check.IsOutlier = true
		check.Reason = fmt.Sprintf("%s dropped to zero", item)
		return check
	}

	pct, ok := CalculateYoY(current, prior)
	if !ok {
		return check
	}
	check.ChangePct = pct
	if math.Abs(pct) > thresholdPct {
		check.IsOutlier = true
		check.Reason = fmt.Sprintf("%s changed by %.1f%%, more than %.0f%%", item, pct, thresholdPct)
	}
	return check
}
