package validate

import (
	"math"
	"testing"
)

// =============================================================================
// YoY TESTS
// =============================================================================

func TestCalculateYoY(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		prior    float64
		expected float64
		ok       bool
	}{
		{"Positive growth", 110, 100, 10.0, true},
		{"Negative growth", 90, 100, -10.0, true},
		{"Zero growth", 100, 100, 0.0, true},
		{"Recovery from loss", 50, -100, 150.0, true},
		{"Zero prior", 100, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := CalculateYoY(tt.current, tt.prior)
			if ok != tt.ok {
				t.Fatalf("CalculateYoY(%v, %v) ok = %v, want %v", tt.current, tt.prior, ok, tt.ok)
			}
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("CalculateYoY(%v, %v) = %v, want %v", tt.current, tt.prior, result, tt.expected)
			}
		})
	}
}

// =============================================================================
// EQUATION TESTS
// =============================================================================

func TestCheckBalanceEquation(t *testing.T) {
	bc := CheckBalanceEquation(500000, 200000, 300000, 1.0)
	if !bc.IsBalanced {
		t.Errorf("Expected balanced, difference %.2f", bc.Difference)
	}

	bc = CheckBalanceEquation(500000, 200000, 290000, 1.0)
	if bc.IsBalanced {
		t.Error("Expected imbalance")
	}
	if math.Abs(bc.Difference-10000) > 0.01 {
		t.Errorf("Difference = %.2f, want 10000", bc.Difference)
	}
}

func TestCheckProfitEquation(t *testing.T) {
	// Revenue 1,000,000 less COGS 400,000, OpEx 350,000, Interest 10,000, Tax 60,000
	pc := CheckProfitEquation(1000000, 180000, 1.0, 400000, 350000, 10000, 60000)
	if !pc.IsBalanced {
		t.Errorf("Expected balanced, computed %.2f", pc.Computed)
	}

	pc = CheckProfitEquation(1000000, 185000, 1.0, 400000, 350000, 10000, 60000)
	if pc.IsBalanced {
		t.Error("Expected imbalance")
	}
	if math.Abs(pc.Difference+5000) > 0.01 {
		t.Errorf("Difference = %.2f, want -5000", pc.Difference)
	}
}

func TestCheckForOutlier(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		prior   float64
		outlier bool
	}{
		{"Normal growth", 110, 100, false},
		{"Exactly at threshold", 150, 100, false},
		{"Above threshold", 151, 100, true},
		{"Large decline", 40, 100, true},
		{"Dropped to zero", 0, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oc := CheckForOutlier("revenue", tt.current, tt.prior, 50)
			if oc.IsOutlier != tt.outlier {
				t.Errorf("IsOutlier = %v, want %v (change %.1f%%)", oc.IsOutlier, tt.outlier, oc.ChangePct)
			}
			if oc.IsOutlier && oc.Reason == "" {
				t.Error("Expected a reason for an outlier")
			}
		})
	}
}

// =============================================================================
// LINKAGE TESTS
// =============================================================================

func TestCheckEquityMovement(t *testing.T) {
	// Opening 300,000 + profit 180,000 - drawings 80,000 = 400,000
	link := CheckEquityMovement(300000, 180000, -80000, 400000, 1, 0.02)
	if !link.IsLinked {
		t.Errorf("Expected linked, difference %.2f", link.Difference)
	}

	// 2% of 400,000 = 8,000 tolerance
	link = CheckEquityMovement(300000, 180000, -80000, 407000, 1, 0.02)
	if !link.IsLinked {
		t.Errorf("Expected within tolerance %.2f, difference %.2f", link.Tolerance, link.Difference)
	}

	link = CheckEquityMovement(300000, 180000, 0, 400000, 1, 0.02)
	if link.IsLinked {
		t.Error("Expected unexplained movement")
	}
	if math.Abs(link.Difference+80000) > 0.01 {
		t.Errorf("Difference = %.2f, want -80000", link.Difference)
	}
}

func TestCheckSubtotal(t *testing.T) {
	if link := CheckSubtotal(180000, 200000, 1); !link.IsLinked {
		t.Error("Components below the stated total should pass")
	}
	link := CheckSubtotal(220000, 200000, 1)
	if link.IsLinked {
		t.Error("Components above the stated total should fail")
	}
	if math.Abs(link.Excess-20000) > 0.01 {
		t.Errorf("Excess = %.2f, want 20000", link.Excess)
	}
}
