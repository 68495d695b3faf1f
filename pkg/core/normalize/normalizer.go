// Package normalize assembles classified rows into one canonical statement
// per period.
package normalize

import (
	"fmt"

	"finsight/pkg/models"
)

// rollup describes a bucket that, when not stated explicitly, is the sum of
// its own line items and its child buckets.
type rollup struct {
	bucket   models.Bucket
	children []models.Bucket
}

// Roll-ups in dependency order: a parent always comes after its children.
var rollups = []rollup{
	{models.BucketOperatingExpenses, []models.Bucket{models.BucketDepreciation}},
	{models.BucketCurrentAssets, []models.Bucket{models.BucketCash, models.BucketReceivables, models.BucketInventory}},
	{models.BucketCurrentLiabilities, []models.Bucket{models.BucketPayables, models.BucketCurrentBorrowings}},
	{models.BucketNonCurrentLiabilities, []models.Bucket{models.BucketNonCurrentBorrowings}},
	{models.BucketEquity, []models.Bucket{models.BucketCapitalMovement}},
	{models.BucketTotalAssets, []models.Bucket{models.BucketCurrentAssets, models.BucketNonCurrentAssets}},
	{models.BucketTotalLiabilities, []models.Bucket{models.BucketCurrentLiabilities, models.BucketNonCurrentLiabilities}},
}

// expenseBuckets are presented as positive amounts after normalization.
var expenseBuckets = []models.Bucket{
	models.BucketCOGS,
	models.BucketOperatingExpenses,
	models.BucketDepreciation,
	models.BucketInterest,
	models.BucketTax,
}

type rowValue struct {
	row        int
	value      float64
	subsection models.Subsection
}

type accumulator struct {
	explicit []rowValue
	items    []rowValue
}

// Normalizer builds NormalizedStatements. It holds no state between calls.
type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Normalize returns one statement per period, in period order.
func (n *Normalizer) Normalize(periods []models.Period, lines []models.ClassifiedLine) []models.NormalizedStatement {
	out := make([]models.NormalizedStatement, len(periods))
	for i, p := range periods {
		out[i] = n.Statement(p, lines)
	}
	return out
}

// Statement builds the statement for one period. A stated subtotal always
// wins over the sum of the line items beneath it; when a bucket has several
// stated subtotals the last one in the source is used.
func (n *Normalizer) Statement(p models.Period, lines []models.ClassifiedLine) models.NormalizedStatement {
	st := models.NormalizedStatement{Period: p, Figures: make(map[models.Bucket]models.Figure)}

	accs := make(map[models.Bucket]*accumulator)
	var order []models.Bucket // first appearance in the source
	for _, l := range lines {
		if l.Kind != models.KindExplicitSubtotal && l.Kind != models.KindLineItem {
			continue
		}
		v, ok := l.Value(p.Index)
		if !ok {
			continue
		}
		a := accs[l.Bucket]
		if a == nil {
			a = &accumulator{}
			accs[l.Bucket] = a
			order = append(order, l.Bucket)
		}
		rv := rowValue{row: l.Row, value: v, subsection: l.Subsection}
		if l.Kind == models.KindExplicitSubtotal {
			a.explicit = append(a.explicit, rv)
		} else {
			a.items = append(a.items, rv)
		}
	}

	isRollup := make(map[models.Bucket]bool)
	for _, r := range rollups {
		isRollup[r.bucket] = true
	}
	for _, b := range order {
		a := accs[b]
		if isRollup[b] {
			continue
		}
		if f, ok := resolve(a, nil, st); ok {
			st.Figures[b] = f
		}
		if len(a.explicit) > 1 {
			st.Notes = append(st.Notes, multipleSubtotalsNote(b, a.explicit))
		}
	}
	for _, r := range rollups {
		a := accs[r.bucket]
		if a == nil {
			a = &accumulator{}
		}
		if f, ok := resolve(a, r.children, st); ok {
			st.Figures[r.bucket] = f
			if f.Provenance == models.ProvenanceExplicit {
				if sum, ok := components(a, r.children, st); ok {
					if st.Components == nil {
						st.Components = make(map[models.Bucket]float64)
					}
					st.Components[r.bucket] = sum
				}
			}
		}
		if len(a.explicit) > 1 {
			st.Notes = append(st.Notes, multipleSubtotalsNote(r.bucket, a.explicit))
		}
	}

	markEmbedded(&st, accs)
	normalizeExpenseSigns(&st)
	deriveNetProfit(&st)
	computeEarnings(&st)
	return st
}

// resolve picks the explicit subtotal or sums items and child buckets.
func resolve(a *accumulator, children []models.Bucket, st models.NormalizedStatement) (models.Figure, bool) {
	if len(a.explicit) > 0 {
		last := a.explicit[len(a.explicit)-1]
		f := models.Figure{Value: last.value, Provenance: models.ProvenanceExplicit, Rows: []int{last.row}}
		for _, e := range a.explicit[:len(a.explicit)-1] {
			f.Overridden = append(f.Overridden, e.row)
		}
		for _, it := range a.items {
			f.Overridden = append(f.Overridden, it.row)
		}
		return f, true
	}

	f := models.Figure{Provenance: models.ProvenanceDerived}
	found := false
	for _, it := range a.items {
		f.Value += it.value
		f.Rows = append(f.Rows, it.row)
		found = true
	}
	for _, c := range children {
		if cf, ok := st.Figures[c]; ok {
			f.Value += cf.Value
			f.Rows = append(f.Rows, cf.Rows...)
			f.Includes = append(f.Includes, c)
			found = true
		}
	}
	return f, found
}

// components sums the line items and child buckets beneath a stated total.
func components(a *accumulator, children []models.Bucket, st models.NormalizedStatement) (float64, bool) {
	f, ok := resolve(&accumulator{items: a.items}, children, st)
	return f.Value, ok
}

func multipleSubtotalsNote(b models.Bucket, explicit []rowValue) string {
	last := explicit[len(explicit)-1]
	return fmt.Sprintf("%s has %d stated totals; row %d (%.2f) was used", b, len(explicit), last.row+1, last.value)
}

// markEmbedded records interest, tax and D&A lines listed above an explicit
// operating expense total, so they are not subtracted twice.
func markEmbedded(st *models.NormalizedStatement, accs map[models.Bucket]*accumulator) {
	opex, ok := st.Figures[models.BucketOperatingExpenses]
	if !ok || opex.Provenance != models.ProvenanceExplicit {
		return
	}
	totalRow := opex.Rows[0]
	for _, b := range []models.Bucket{models.BucketDepreciation, models.BucketInterest, models.BucketTax} {
		a := accs[b]
		if a == nil {
			continue
		}
		for _, it := range a.items {
			if it.subsection == models.SubsectionExpenses && it.row < totalRow {
				opex.Includes = append(opex.Includes, b)
				break
			}
		}
	}
	st.Figures[models.BucketOperatingExpenses] = opex
}

// normalizeExpenseSigns flips the period's expense buckets when the export
// shows expenses as negative numbers.
func normalizeExpenseSigns(st *models.NormalizedStatement) {
	ref, ok := st.Figures[models.BucketOperatingExpenses]
	if !ok {
		ref, ok = st.Figures[models.BucketCOGS]
	}
	if !ok || ref.Value >= 0 {
		return
	}
	for _, b := range expenseBuckets {
		if f, ok := st.Figures[b]; ok {
			f.Value = -f.Value
			f.SignFlipped = true
			st.Figures[b] = f
		}
	}
	st.Notes = append(st.Notes, "expenses were presented as negative amounts and have been shown as positive")
}

// deriveNetProfit fills Net Profit from profit before tax when the export
// stops at the pre-tax line.
func deriveNetProfit(st *models.NormalizedStatement) {
	if st.Has(models.BucketNetProfit) {
		return
	}
	pbt, ok := st.Figures[models.BucketProfitBeforeTax]
	if !ok {
		return
	}
	st.Figures[models.BucketNetProfit] = models.Figure{
		Value:      pbt.Value - st.Get(models.BucketTax),
		Provenance: models.ProvenanceComputed,
		Rows:       pbt.Rows,
		Includes:   []models.Bucket{models.BucketProfitBeforeTax, models.BucketTax},
	}
	st.Notes = append(st.Notes, "net profit computed as profit before tax less tax")
}

// computeEarnings sets EBIT = Net Profit + Tax + Interest and
// EBITDA = EBIT + D&A. Reported EBIT lines are ignored.
func computeEarnings(st *models.NormalizedStatement) {
	np, ok := st.Figures[models.BucketNetProfit]
	if !ok {
		return
	}
	ebit := np.Value + st.Get(models.BucketTax) + st.Get(models.BucketInterest)
	ebitda := ebit + st.Get(models.BucketDepreciation)

	st.Figures[models.BucketEBIT] = models.Figure{
		Value:      ebit,
		Provenance: models.ProvenanceComputed,
		Includes:   []models.Bucket{models.BucketNetProfit, models.BucketTax, models.BucketInterest},
	}
	st.Figures[models.BucketEBITDA] = models.Figure{
		Value:      ebitda,
		Provenance: models.ProvenanceComputed,
		Includes:   []models.Bucket{models.BucketNetProfit, models.BucketTax, models.BucketInterest, models.BucketDepreciation},
	}
	if rep, ok := st.Figures[models.BucketReportedEBIT]; ok && abs(rep.Value-ebit) > 1 {
		st.Notes = append(st.Notes, fmt.Sprintf("reported EBIT %.2f differs from computed %.2f; the computed figure is used", rep.Value, ebit))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
