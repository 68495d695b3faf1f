package validate

import (
	"math"
)

// =============================================================================
// EQUITY MOVEMENT LINKAGE
// =============================================================================

// EquityLink validates: Closing Equity ≈ Opening Equity + Net Profit + Capital Movements
type EquityLink struct {
	OpeningEquity   float64 `json:"opening_equity"`
	NetProfit       float64 `json:"net_profit"`
	CapitalMovement float64 `json:"capital_movement"` // contributions less drawings/dividends, as presented
	ExpectedEquity  float64 `json:"expected_equity"`
	ClosingEquity   float64 `json:"closing_equity"`
	Difference      float64 `json:"difference"` // closing - expected
	IsLinked        bool    `json:"is_linked"`
	Tolerance       float64 `json:"tolerance"`
}

// CheckEquityMovement links two adjacent balance sheets through the period's
// profit. The tolerance is the larger of absolute and relative * |closing|.
func CheckEquityMovement(opening, netProfit, capitalMovement, closing, absolute, relative float64) *EquityLink {
	expected := opening + netProfit + capitalMovement
	diff := closing - expected
	tol := math.Max(absolute, relative*math.Abs(closing))

	return &EquityLink{
		OpeningEquity:   opening,
		NetProfit:       netProfit,
		CapitalMovement: capitalMovement,
		ExpectedEquity:  expected,
		ClosingEquity:   closing,
		Difference:      diff,
		IsLinked:        math.Abs(diff) <= tol,
		Tolerance:       tol,
	}
}

// =============================================================================
// SUBTOTAL LINKAGE
// =============================================================================

// SubtotalLink validates that identified components do not exceed a stated total.
type SubtotalLink struct {
	Components float64 `json:"components"`
	Stated     float64 `json:"stated"`
	Excess     float64 `json:"excess"` // components - stated
	IsLinked   bool    `json:"is_linked"`
	Tolerance  float64 `json:"tolerance"`
}

// CheckSubtotal passes when components <= stated + tolerance. Components
// below the stated total are allowed; the gap is unidentified items.
func CheckSubtotal(components, stated, tolerance float64) *SubtotalLink {
	excess := components - stated
	return &SubtotalLink{
		Components: components,
		Stated:     stated,
		Excess:     excess,
		IsLinked:   excess <= tolerance,
		Tolerance:  tolerance,
	}
}
