package models

// Bucket is a canonical account a row can be assigned to.
type Bucket string

const (
	// Profit & Loss
	BucketRevenue           Bucket = "revenue"
	BucketCOGS              Bucket = "cogs"
	BucketGrossProfit       Bucket = "gross_profit"
	BucketOperatingExpenses Bucket = "operating_expenses"
	BucketDepreciation      Bucket = "depreciation_amortisation"
	BucketInterest          Bucket = "interest"
	BucketTax               Bucket = "tax"
	BucketNetProfit         Bucket = "net_profit"
	BucketProfitBeforeTax   Bucket = "profit_before_tax"
	BucketReportedEBIT      Bucket = "reported_ebit"
	BucketReportedEBITDA    Bucket = "reported_ebitda"

	// Balance Sheet
	BucketCash                  Bucket = "cash"
	BucketReceivables           Bucket = "receivables"
	BucketInventory             Bucket = "inventory"
	BucketCurrentAssets         Bucket = "current_assets"
	BucketNonCurrentAssets      Bucket = "non_current_assets"
	BucketTotalAssets           Bucket = "total_assets"
	BucketPayables              Bucket = "payables"
	BucketCurrentBorrowings     Bucket = "current_borrowings"
	BucketCurrentLiabilities    Bucket = "current_liabilities"
	BucketNonCurrentBorrowings  Bucket = "non_current_borrowings"
	BucketNonCurrentLiabilities Bucket = "non_current_liabilities"
	BucketTotalLiabilities      Bucket = "total_liabilities"
	BucketEquity                Bucket = "equity"
	BucketCapitalMovement       Bucket = "capital_movement"

	// Cash Flow
	BucketOperatingCashFlow Bucket = "operating_cash_flow"

	// Computed by the normalizer, never assigned to a row.
	BucketEBIT   Bucket = "ebit"
	BucketEBITDA Bucket = "ebitda"

	BucketUnclassified Bucket = "unclassified"
)

// Provenance says where a statement figure came from.
type Provenance string

const (
	ProvenanceExplicit Provenance = "explicit" // a stated subtotal/total row
	ProvenanceDerived  Provenance = "derived"  // summed from line items
	ProvenanceComputed Provenance = "computed" // formula over other figures
)

// Figure is one bucket value for one period.
type Figure struct {
	Value       float64    `json:"value"`
	Provenance  Provenance `json:"provenance"`
	Rows        []int      `json:"rows,omitempty"`       // contributing source rows
	Overridden  []int      `json:"overridden,omitempty"` // rows kept for audit only
	SignFlipped bool       `json:"sign_flipped,omitempty"`
	Includes    []Bucket   `json:"includes,omitempty"` // buckets already inside this total
}

// Contains reports whether the figure already includes bucket b.
func (f Figure) Contains(b Bucket) bool {
	for _, x := range f.Includes {
		if x == b {
			return true
		}
	}
	return false
}

// NormalizedStatement is the canonical P&L, Balance Sheet and cash flow view
// of a single period. It is built once and not modified afterwards.
type NormalizedStatement struct {
	Period  Period            `json:"period"`
	Figures map[Bucket]Figure `json:"figures"`
	// Components holds, for totals that were stated explicitly, the sum of
	// the identified parts beneath them.
	Components map[Bucket]float64 `json:"components,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
}

// Figure returns the bucket's figure if the period has one.
func (s NormalizedStatement) Figure(b Bucket) (Figure, bool) {
	f, ok := s.Figures[b]
	return f, ok
}

// Value returns the bucket's value if the period has one.
func (s NormalizedStatement) Value(b Bucket) (float64, bool) {
	f, ok := s.Figures[b]
	return f.Value, ok
}

// Get returns the bucket's value, or zero when absent.
func (s NormalizedStatement) Get(b Bucket) float64 {
	return s.Figures[b].Value
}

func (s NormalizedStatement) Has(b Bucket) bool {
	_, ok := s.Figures[b]
	return ok
}

// IsExplicit reports whether the bucket came from a stated subtotal row.
func (s NormalizedStatement) IsExplicit(b Bucket) bool {
	f, ok := s.Figures[b]
	return ok && f.Provenance == ProvenanceExplicit
}
