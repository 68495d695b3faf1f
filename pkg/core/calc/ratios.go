package calc

import (
	"math"

	"finsight/pkg/models"
)

// =============================================================================
// OPERANDS
// =============================================================================

// operand is a statement figure that may be missing.
type operand struct {
	name  string
	value float64
	ok    bool
}

func figure(st *models.NormalizedStatement, b models.Bucket, name string) operand {
	if st == nil {
		return operand{name: name}
	}
	v, ok := st.Value(b)
	return operand{name: name, value: v, ok: ok}
}

func (o operand) orZero() operand {
	if !o.ok {
		return operand{name: o.name, ok: true}
	}
	return o
}

func add(name string, ops ...operand) operand {
	out := operand{name: name, ok: true}
	for _, o := range ops {
		if !o.ok {
			return operand{name: o.name}
		}
		out.value += o.value
	}
	return out
}

func sub(name string, a, b operand) operand {
	if !a.ok {
		return operand{name: a.name}
	}
	if !b.ok {
		return operand{name: b.name}
	}
	return operand{name: name, value: a.value - b.value, ok: true}
}

// =============================================================================
// RATIO HELPERS
// =============================================================================

// safeDiv returns a not-computable ratio for a missing operand or a zero
// denominator. It never substitutes zero or infinity.
func safeDiv(numerator, denominator operand) models.Ratio {
	if !numerator.ok {
		return models.NotComputable(numerator.name + " not available")
	}
	if !denominator.ok {
		return models.NotComputable(denominator.name + " not available")
	}
	if denominator.value == 0 {
		return models.NotComputable(denominator.name + " is zero")
	}
	return models.Computed(numerator.value / denominator.value)
}

func scale(r models.Ratio, k float64) models.Ratio {
	if !r.Computable {
		return r
	}
	return models.Computed(r.Value * k)
}

func percent(numerator, denominator operand) models.Ratio {
	return scale(safeDiv(numerator, denominator), 100)
}

// days expresses a balance as days of an annual flow.
func days(balance, annual operand) models.Ratio {
	return scale(safeDiv(balance, annual), 365)
}

// GrowthRate is the percentage change from prior to current, measured
// against the magnitude of prior.
func GrowthRate(current, prior operand) models.Ratio {
	if !current.ok || !prior.ok {
		return models.NotComputable("prior period " + prior.name + " not available")
	}
	if prior.value == 0 {
		return models.NotComputable("prior period " + prior.name + " is zero")
	}
	return models.Computed((current.value - prior.value) / math.Abs(prior.value) * 100)
}

// =============================================================================
// DERIVED OPERANDS
// =============================================================================

// grossProfit uses the stated figure, else revenue less cost of sales.
func grossProfit(st *models.NormalizedStatement) operand {
	if gp := figure(st, models.BucketGrossProfit, "gross profit"); gp.ok {
		return gp
	}
	return sub("gross profit", figure(st, models.BucketRevenue, "revenue"), figure(st, models.BucketCOGS, "cost of sales"))
}

func borrowings(st *models.NormalizedStatement) operand {
	cur := figure(st, models.BucketCurrentBorrowings, "borrowings")
	nc := figure(st, models.BucketNonCurrentBorrowings, "borrowings")
	if !cur.ok && !nc.ok {
		return operand{name: "borrowings"}
	}
	return add("borrowings", cur.orZero(), nc.orZero())
}
