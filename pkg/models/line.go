package models

// Section is the statement a row belongs to.
type Section string

const (
	SectionUnknown       Section = ""
	SectionProfitAndLoss Section = "pl"
	SectionBalanceSheet  Section = "bs"
	SectionCashFlow      Section = "cf"
)

// Subsection narrows a row's position inside its statement.
type Subsection string

const (
	SubsectionNone                  Subsection = ""
	SubsectionRevenue               Subsection = "revenue"
	SubsectionCostOfSales           Subsection = "cost_of_sales"
	SubsectionExpenses              Subsection = "expenses"
	SubsectionCurrentAssets         Subsection = "current_assets"
	SubsectionNonCurrentAssets      Subsection = "non_current_assets"
	SubsectionCurrentLiabilities    Subsection = "current_liabilities"
	SubsectionNonCurrentLiabilities Subsection = "non_current_liabilities"
	SubsectionEquity                Subsection = "equity"
)

// SourceRow is one row as produced by an extraction adapter: the label text
// and the raw cell strings, aligned to the input's header columns.
type SourceRow struct {
	Label   string   `json:"label"`
	Cells   []string `json:"cells"`
	Section Section  `json:"section,omitempty"`
}

// Input is everything an analysis run consumes.
type Input struct {
	Headers []string    `json:"headers"`
	Rows    []SourceRow `json:"rows"`
	Source  string      `json:"source,omitempty"` // file name or adapter

	Warnings []Warning `json:"warnings,omitempty"`
}

// RawLine is a source row whose values have been parsed and aligned to the
// resolved periods. A nil entry means the cell was blank.
type RawLine struct {
	Row    int        `json:"row"`
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
	Hint   Section    `json:"hint,omitempty"`

	Percent bool `json:"percent,omitempty"` // a cell carried a % sign
}

// HasValues reports whether any period carries a number.
func (l RawLine) HasValues() bool {
	for _, v := range l.Values {
		if v != nil {
			return true
		}
	}
	return false
}

// Value returns the value for period index i.
func (l RawLine) Value(i int) (float64, bool) {
	if i < 0 || i >= len(l.Values) || l.Values[i] == nil {
		return 0, false
	}
	return *l.Values[i], true
}

// LineKind is the outcome of classifying one row.
type LineKind string

const (
	KindExplicitSubtotal LineKind = "explicit-subtotal"
	KindLineItem         LineKind = "line-item"
	KindHeader           LineKind = "header"
	KindUnclassified     LineKind = "unclassified"
	KindRatio            LineKind = "ratio" // a stated percentage, never summed
)

// ClassifiedLine is a RawLine with its bucket assignment.
type ClassifiedLine struct {
	RawLine
	Section    Section    `json:"section"`
	Subsection Subsection `json:"subsection,omitempty"`
	Bucket     Bucket     `json:"bucket"`
	Kind       LineKind   `json:"kind"`
	Rule       string     `json:"rule,omitempty"`
}

// Gap reports whether the row carried values but matched no rule.
func (c ClassifiedLine) Gap() bool {
	return c.Kind == KindUnclassified && c.HasValues()
}
