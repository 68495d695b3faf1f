package classify

import (
	"strings"

	"finsight/pkg/models"
)

// Matcher selects how a rule's keywords are compared with a label.
type Matcher int

const (
	// MatchPhrase finds the keyword anywhere in the label on word boundaries.
	MatchPhrase Matcher = iota
	// MatchPrefix requires the label to start with the keyword.
	MatchPrefix
	// MatchExact requires the whole label to equal the keyword.
	MatchExact
)

// Rule maps labels to a bucket. Empty Sections or Subsections mean any.
type Rule struct {
	Name        string
	Bucket      models.Bucket
	Match       Matcher
	Keywords    []string
	Exclude     []string
	Sections    []models.Section
	Subsections []models.Subsection
}

// Marker recognises a header row (a label with no values).
type Marker struct {
	Keywords   []string
	Match      Matcher
	Section    models.Section
	Subsection models.Subsection
	Exclude    []string

	// Loose markers match anywhere in a title row of any length.
	Loose bool
}

// RuleSet is the complete, ordered classification table. It is read-only
// once built; callers wanting different rules build a new one.
type RuleSet struct {
	Statements  []Marker
	Subsections []Marker
	Subtotals   []Rule
	LineItems   []Rule
	// Defaults assigns line items that matched no keyword but sit inside a
	// known subsection.
	Defaults map[models.Subsection]models.Bucket
}

var (
	anyPL  = []models.Section{models.SectionProfitAndLoss, models.SectionUnknown}
	anyBS  = []models.Section{models.SectionBalanceSheet, models.SectionUnknown}
	anyCF  = []models.Section{models.SectionCashFlow, models.SectionUnknown}
	onlyBS = []models.Section{models.SectionBalanceSheet}
)

func subs(s ...models.Subsection) []models.Subsection { return s }

// DefaultRules returns the keyword tables for Xero, MYOB and QuickBooks style
// SME exports.
func DefaultRules() RuleSet {
	return RuleSet{
		Statements: []Marker{
			{Keywords: []string{"profit and loss", "profit & loss", "income statement", "statement of profit or loss", "statement of financial performance", "trading statement"}, Section: models.SectionProfitAndLoss, Loose: true},
			{Keywords: []string{"balance sheet", "statement of financial position"}, Section: models.SectionBalanceSheet, Loose: true},
			{Keywords: []string{"cash flow", "cashflow", "statement of cash flows"}, Section: models.SectionCashFlow, Loose: true},
		},
		Subsections: []Marker{
			// Non-current before current so the substring never wins.
			{Keywords: []string{"non-current assets", "non current assets", "noncurrent assets", "fixed assets", "property plant and equipment"}, Section: models.SectionBalanceSheet, Subsection: models.SubsectionNonCurrentAssets},
			{Keywords: []string{"current assets"}, Section: models.SectionBalanceSheet, Subsection: models.SubsectionCurrentAssets},
			{Keywords: []string{"non-current liabilities", "non current liabilities", "noncurrent liabilities", "long-term liabilities", "long term liabilities"}, Section: models.SectionBalanceSheet, Subsection: models.SubsectionNonCurrentLiabilities},
			{Keywords: []string{"current liabilities"}, Section: models.SectionBalanceSheet, Subsection: models.SubsectionCurrentLiabilities},
			{Keywords: []string{"equity", "shareholders equity", "owners equity", "capital and reserves"}, Section: models.SectionBalanceSheet, Subsection: models.SubsectionEquity},
			{Keywords: []string{"cost of sales", "cost of goods sold", "cost of goods", "direct costs", "direct expenses", "cost of revenue"}, Section: models.SectionProfitAndLoss, Subsection: models.SubsectionCostOfSales},
			{Keywords: []string{"operating expenses", "expenses", "overheads", "administration expenses", "expenditure"}, Section: models.SectionProfitAndLoss, Subsection: models.SubsectionExpenses},
			{Keywords: []string{"trading income", "income", "revenue", "sales", "other income"}, Match: MatchExact, Section: models.SectionProfitAndLoss, Subsection: models.SubsectionRevenue},
		},
		Subtotals: []Rule{
			// Profit & Loss
			{Name: "profit before tax", Bucket: models.BucketProfitBeforeTax, Sections: anyPL,
				Keywords: []string{"profit before tax", "profit before income tax", "net profit before tax", "profit loss before tax", "loss before tax", "operating profit before tax"}},
			{Name: "net profit", Bucket: models.BucketNetProfit, Sections: anyPL,
				Keywords: []string{"net profit", "net loss", "net income", "profit after tax", "net profit after tax", "profit for the year", "loss for the year", "profit loss for the year", "net earnings", "net surplus", "net profit loss"},
				Exclude:  []string{"before", "margin", "%"}},
			{Name: "gross profit", Bucket: models.BucketGrossProfit, Sections: anyPL,
				Keywords: []string{"gross profit", "gross margin", "gross profit loss"},
				Exclude:  []string{"%", "percent", "ratio"}},
			{Name: "reported ebitda", Bucket: models.BucketReportedEBITDA, Sections: anyPL,
				Keywords: []string{"ebitda"}},
			{Name: "reported ebit", Bucket: models.BucketReportedEBIT, Sections: anyPL,
				Keywords: []string{"ebit", "operating profit", "profit from operations", "earnings before interest and tax"}},
			{Name: "total revenue", Bucket: models.BucketRevenue, Sections: anyPL,
				Keywords: []string{"total revenue", "total income", "total sales", "total trading income", "total fees", "total service income", "total turnover", "gross income", "total receipts", "total gross receipts", "net revenue", "net sales", "total operating revenue", "total revenue from operations"}},
			{Name: "total cost of sales", Bucket: models.BucketCOGS, Sections: anyPL,
				Keywords: []string{"total cost of sales", "total cost of goods sold", "total cost of goods", "total cogs", "total direct costs", "total direct expenses", "total purchases", "total cost of revenue"}},
			{Name: "cost of sales", Bucket: models.BucketCOGS, Sections: anyPL, Match: MatchExact,
				Keywords: []string{"cost of sales", "cost of goods sold", "direct costs", "cost of revenue", "cogs"}},
			{Name: "total depreciation", Bucket: models.BucketDepreciation, Sections: anyPL,
				Keywords: []string{"total depreciation", "total depreciation and amortisation", "total depreciation and amortization", "total amortisation"}},
			{Name: "total interest", Bucket: models.BucketInterest, Sections: anyPL,
				Keywords: []string{"total interest", "total interest expense", "total finance costs", "total borrowing costs"}},
			{Name: "total operating expenses", Bucket: models.BucketOperatingExpenses, Sections: anyPL,
				Keywords: []string{"total operating expenses", "total expenses", "total overheads", "total expenditure", "total administration expenses"}},

			// Balance Sheet. Component totals come before the section totals.
			{Name: "total cash", Bucket: models.BucketCash, Sections: anyBS,
				Keywords: []string{"total cash", "total cash and cash equivalents", "total bank", "total cash at bank"}},
			{Name: "total receivables", Bucket: models.BucketReceivables, Sections: anyBS,
				Keywords: []string{"total receivables", "total trade and other receivables", "total accounts receivable", "total debtors", "total trade receivables"}},
			{Name: "total inventory", Bucket: models.BucketInventory, Sections: onlyBS, Subsections: subs(models.SubsectionCurrentAssets),
				Keywords: []string{"total inventory", "total inventories", "total stock", "total stock on hand"}},
			{Name: "total current assets", Bucket: models.BucketCurrentAssets, Sections: anyBS,
				Keywords: []string{"total current assets"}},
			{Name: "total non-current assets", Bucket: models.BucketNonCurrentAssets, Sections: anyBS,
				Keywords: []string{"total non-current assets", "total non current assets", "total noncurrent assets", "total fixed assets", "total property plant and equipment"}},
			{Name: "total assets", Bucket: models.BucketTotalAssets, Sections: anyBS,
				Keywords: []string{"total assets"}},
			{Name: "total payables", Bucket: models.BucketPayables, Sections: anyBS,
				Keywords: []string{"total payables", "total trade and other payables", "total accounts payable", "total creditors", "total trade payables"}},
			{Name: "total current borrowings", Bucket: models.BucketCurrentBorrowings, Sections: anyBS, Subsections: subs(models.SubsectionCurrentLiabilities),
				Keywords: []string{"total borrowings", "total loans", "total interest-bearing liabilities", "total interest bearing liabilities"}},
			{Name: "total non-current borrowings", Bucket: models.BucketNonCurrentBorrowings, Sections: anyBS, Subsections: subs(models.SubsectionNonCurrentLiabilities, models.SubsectionNone),
				Keywords: []string{"total borrowings", "total loans", "total interest-bearing liabilities", "total interest bearing liabilities"}},
			{Name: "total current liabilities", Bucket: models.BucketCurrentLiabilities, Sections: anyBS,
				Keywords: []string{"total current liabilities"}},
			{Name: "total non-current liabilities", Bucket: models.BucketNonCurrentLiabilities, Sections: anyBS,
				Keywords: []string{"total non-current liabilities", "total non current liabilities", "total noncurrent liabilities", "total long-term liabilities", "total long term liabilities"}},
			{Name: "total liabilities", Bucket: models.BucketTotalLiabilities, Sections: anyBS,
				Keywords: []string{"total liabilities"}},
			{Name: "total equity", Bucket: models.BucketEquity, Sections: anyBS,
				Keywords: []string{"total equity", "net assets", "total shareholders equity", "total owners equity", "total capital and reserves"}},

			// Cash Flow
			{Name: "operating cash flow", Bucket: models.BucketOperatingCashFlow, Sections: anyCF,
				Keywords: []string{"net cash from operating activities", "net cash provided by operating activities", "net cash flows from operating activities", "net cash flow from operating activities", "net cash used in operating activities", "cash from operations", "operating cash flow", "net cash generated from operating activities", "cash generated from operations", "net cash from operating"}},
		},
		LineItems: []Rule{
			// Profit & Loss. Interest, tax and D&A precede the broad revenue and
			// expense words they would otherwise be swallowed by.
			{Name: "interest income", Bucket: models.BucketRevenue, Sections: anyPL,
				Keywords: []string{"interest income", "interest received", "interest revenue"}},
			{Name: "depreciation", Bucket: models.BucketDepreciation, Sections: anyPL,
				Keywords: []string{"depreciation", "amortisation", "amortization", "d&a", "right of use", "right-of-use"},
				Exclude:  []string{"accumulated", "less accumulated"}},
			{Name: "interest expense", Bucket: models.BucketInterest, Sections: anyPL,
				Keywords: []string{"interest expense", "interest", "finance charge", "finance charges", "bank charge", "bank charges", "loan interest", "interest on loan", "borrowing cost", "borrowing costs", "finance cost", "finance costs", "interest paid", "bank interest", "interest on overdraft", "hire purchase interest"},
				Exclude:  []string{"payable", "accrued"}},
			{Name: "income tax", Bucket: models.BucketTax, Sections: anyPL,
				Keywords: []string{"income tax", "income tax expense", "tax expense", "taxation", "company tax", "provision for tax", "provision for income tax", "corporate tax"},
				Exclude:  []string{"payable", "deferred tax asset"}},
			{Name: "cost of sales item", Bucket: models.BucketCOGS, Sections: anyPL, Subsections: subs(models.SubsectionCostOfSales, models.SubsectionNone),
				Keywords: []string{"cost of sales", "cost of goods", "cogs", "direct costs", "direct expenses", "purchases", "cost of revenue", "materials", "subcontractors", "subcontractor", "direct labour", "direct labor", "direct wages", "opening stock", "closing stock", "stock adjustment", "inventory adjustment", "freight in", "freight-in", "freight inwards"}},
			{Name: "revenue item", Bucket: models.BucketRevenue, Sections: anyPL, Subsections: subs(models.SubsectionRevenue, models.SubsectionNone),
				Keywords: []string{"revenue", "sales", "turnover", "fees", "fee income", "service income", "trading income", "gross receipts", "grant income", "government grants", "other income", "commission income", "rental income", "income"},
				Exclude:  []string{"expense", "expenses", "cost", "tax", "payable", "unearned", "received in advance"}},
			{Name: "operating expense item", Bucket: models.BucketOperatingExpenses, Sections: anyPL, Subsections: subs(models.SubsectionExpenses, models.SubsectionNone),
				Keywords: []string{"expense", "expenses", "wages", "salaries", "superannuation", "rent", "insurance", "advertising", "marketing", "utilities", "electricity", "telephone", "internet", "motor vehicle", "accounting", "legal", "consulting", "consultancy", "repairs", "maintenance", "subscriptions", "travel", "entertainment", "office", "cleaning", "bank fees", "general", "administration", "administrative", "printing", "postage", "stationery", "training", "licence", "licences", "workcover", "payroll tax", "staff", "contractors", "software", "it support", "it services", "overheads", "fuel", "freight", "bad debts", "donations", "fringe benefits tax", "fbt"}},

			// Balance Sheet. Borrowings come before cash so "bank loan" and
			// "bank overdraft" are never read as cash.
			{Name: "short-term borrowings", Bucket: models.BucketCurrentBorrowings, Sections: anyBS,
				Keywords: []string{"overdraft", "bank overdraft", "line of credit", "credit card", "credit cards", "trade finance", "debtor finance"}},
			{Name: "current borrowings", Bucket: models.BucketCurrentBorrowings, Sections: anyBS, Subsections: subs(models.SubsectionCurrentLiabilities),
				Keywords: []string{"loan", "loans", "borrowings", "bank loan", "term loan", "hire purchase", "chattel mortgage", "lease liability", "lease liabilities", "current portion", "director loan", "directors loan", "shareholder loan", "related party loan", "equipment finance", "insurance premium funding"}},
			{Name: "non-current borrowings", Bucket: models.BucketNonCurrentBorrowings, Sections: anyBS, Subsections: subs(models.SubsectionNonCurrentLiabilities, models.SubsectionNone),
				Keywords: []string{"loan", "loans", "borrowings", "bank loan", "term loan", "hire purchase", "chattel mortgage", "lease liability", "lease liabilities", "mortgage", "director loan", "directors loan", "shareholder loan", "related party loan", "equipment finance"},
				Exclude:  []string{"loan to", "loans to", "receivable"}},
			{Name: "cash", Bucket: models.BucketCash, Sections: anyBS, Subsections: subs(models.SubsectionCurrentAssets, models.SubsectionNone),
				Keywords: []string{"cash", "bank", "cash at bank", "cash on hand", "petty cash", "cheque account", "business account", "savings account", "cash and cash equivalents", "term deposit", "undeposited funds"},
				Exclude:  []string{"loan", "overdraft", "guarantee"}},
			{Name: "receivables", Bucket: models.BucketReceivables, Sections: anyBS, Subsections: subs(models.SubsectionCurrentAssets, models.SubsectionNone),
				Keywords: []string{"accounts receivable", "debtors", "trade receivables", "receivables", "trade debtors", "sundry debtors", "trade and other receivables"},
				Exclude:  []string{"provision", "allowance", "doubtful"}},
			// Inventory is only ever taken from Balance Sheet current assets.
			{Name: "inventory", Bucket: models.BucketInventory, Sections: onlyBS, Subsections: subs(models.SubsectionCurrentAssets),
				Keywords: []string{"inventory", "inventories", "stock on hand", "closing stock", "finished goods", "raw materials", "work in progress", "wip", "trading stock", "stock"}},
			{Name: "payables", Bucket: models.BucketPayables, Sections: anyBS, Subsections: subs(models.SubsectionCurrentLiabilities, models.SubsectionNone),
				Keywords: []string{"accounts payable", "creditors", "trade payables", "trade creditors", "sundry creditors", "trade and other payables"}},
			{Name: "capital movement", Bucket: models.BucketCapitalMovement, Sections: anyBS, Subsections: subs(models.SubsectionEquity, models.SubsectionNone),
				Keywords: []string{"dividends", "dividends paid", "dividend paid", "drawings", "owner drawings", "owners drawings", "capital contributed", "capital introduced", "funds introduced", "owner funds introduced", "share issue", "shares issued", "capital injection", "capital contribution", "share buy-back", "share buyback"}},
			{Name: "equity item", Bucket: models.BucketEquity, Sections: anyBS, Subsections: subs(models.SubsectionEquity, models.SubsectionNone),
				Keywords: []string{"share capital", "issued capital", "paid up capital", "ordinary shares", "retained earnings", "retained profits", "accumulated losses", "current year earnings", "reserves", "owners capital", "owner capital", "partners capital", "capital account"}},
			{Name: "non-current asset item", Bucket: models.BucketNonCurrentAssets, Sections: anyBS, Subsections: subs(models.SubsectionNonCurrentAssets, models.SubsectionNone),
				Keywords: []string{"plant and equipment", "property", "motor vehicles", "motor vehicle", "furniture", "fixtures", "fittings", "goodwill", "intangible", "intangibles", "accumulated depreciation", "accumulated amortisation", "land", "buildings", "leasehold", "leasehold improvements", "computer equipment", "office equipment", "right-of-use asset", "right of use asset", "investments", "deferred tax asset"}},
			{Name: "current liability item", Bucket: models.BucketCurrentLiabilities, Sections: anyBS, Subsections: subs(models.SubsectionCurrentLiabilities, models.SubsectionNone),
				Keywords: []string{"gst", "payg", "payable", "accrued", "accruals", "provision for", "unearned", "income in advance", "received in advance", "deferred revenue", "customer deposits"}},
			{Name: "current asset item", Bucket: models.BucketCurrentAssets, Sections: anyBS, Subsections: subs(models.SubsectionCurrentAssets, models.SubsectionNone),
				Keywords: []string{"prepayments", "prepaid", "other current assets", "accrued income", "deposits paid", "gst receivable"}},
		},
		Defaults: map[models.Subsection]models.Bucket{
			models.SubsectionRevenue:               models.BucketRevenue,
			models.SubsectionCostOfSales:           models.BucketCOGS,
			models.SubsectionExpenses:              models.BucketOperatingExpenses,
			models.SubsectionCurrentAssets:         models.BucketCurrentAssets,
			models.SubsectionNonCurrentAssets:      models.BucketNonCurrentAssets,
			models.SubsectionCurrentLiabilities:    models.BucketCurrentLiabilities,
			models.SubsectionNonCurrentLiabilities: models.BucketNonCurrentLiabilities,
			models.SubsectionEquity:                models.BucketEquity,
		},
	}
}

// NormalizeLabel lowercases a label and strips punctuation that varies
// between exports ("Less: Cost of Sales" and "cost of sales" compare equal).
func NormalizeLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.NewReplacer("’", "", "'", "", "(", " ", ")", " ", "/", " ", ":", " ", "–", "-", "—", "-").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	for _, p := range []string{"less ", "add ", "plus "} {
		s = strings.TrimPrefix(s, p)
	}
	return s
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// containsPhrase reports whether kw occurs in s on word boundaries.
func containsPhrase(s, kw string) bool {
	for from := 0; from <= len(s)-len(kw); {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(kw)
		before := i == 0 || !isWordByte(s[i-1]) || !isWordByte(kw[0])
		after := end == len(s) || !isWordByte(s[end]) || !isWordByte(kw[len(kw)-1])
		if before && after {
			return true
		}
		from = i + 1
	}
	return false
}

func matchKeyword(m Matcher, label, kw string) bool {
	switch m {
	case MatchExact:
		return label == kw
	case MatchPrefix:
		return strings.HasPrefix(label, kw) && (len(label) == len(kw) || !isWordByte(label[len(kw)]))
	default:
		return containsPhrase(label, kw)
	}
}

func matchAny(m Matcher, label string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if matchKeyword(m, label, kw) {
			return kw, true
		}
	}
	return "", false
}

func (r Rule) applies(label string, sec models.Section, sub models.Subsection) bool {
	if len(r.Sections) > 0 && !containsSection(r.Sections, sec) {
		return false
	}
	if len(r.Subsections) > 0 && !containsSubsection(r.Subsections, sub) {
		return false
	}
	for _, ex := range r.Exclude {
		if strings.Contains(label, ex) {
			return false
		}
	}
	_, ok := matchAny(r.Match, label, r.Keywords)
	return ok
}

func (m Marker) applies(label string) bool {
	for _, ex := range m.Exclude {
		if strings.Contains(label, ex) {
			return false
		}
	}
	if m.Match == MatchExact {
		_, ok := matchAny(MatchExact, label, m.Keywords)
		return ok
	}
	// Header rows are short; require the whole label to be the marker
	// phrase, optionally wrapped in a few extra words.
	kw, ok := matchAny(MatchPhrase, label, m.Keywords)
	if m.Loose {
		return ok
	}
	return ok && len(strings.Fields(label)) <= len(strings.Fields(kw))+2
}

func containsSection(list []models.Section, s models.Section) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsSubsection(list []models.Subsection, s models.Subsection) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
