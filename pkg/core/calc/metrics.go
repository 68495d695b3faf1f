package calc

import (
	"finsight/pkg/models"
)

// Thresholds are the literal traffic-light bands for one metric. For
// higher-is-better metrics a value at or above Green is green and at or above
// Amber is amber; for lower-is-better metrics the comparisons are at or below.
type Thresholds struct {
	Green float64
	Amber float64
}

// Definition describes how one metric is computed and classified.
type Definition struct {
	Key            string
	Name           string
	Category       models.Category
	Format         models.ValueFormat
	HigherIsBetter bool
	Informational  bool // no band, always grey
	Bands          Thresholds
	Growth         bool // needs the prior period
	Compute        func(cur, prior *models.NormalizedStatement) models.Ratio
	Status         func(v float64, peers map[string]models.Ratio) models.Status // overrides Bands when set
}

// Definitions returns the metric catalogue in display order.
func Definitions() []Definition {
	return []Definition{
		// Liquidity
		{
			Key: "current_ratio", Name: "Current Ratio", Category: models.CategoryLiquidity,
			Format: models.FormatMultiplier, HigherIsBetter: true, Bands: Thresholds{Green: 2.0, Amber: 1.0},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return safeDiv(figure(cur, models.BucketCurrentAssets, "current assets"), figure(cur, models.BucketCurrentLiabilities, "current liabilities"))
			},
		},
		{
			Key: "quick_ratio", Name: "Quick Ratio", Category: models.CategoryLiquidity,
			Format: models.FormatMultiplier, HigherIsBetter: true, Bands: Thresholds{Green: 1.0, Amber: 0.5},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				// Inventory comes from the balance sheet only; absent means zero here.
				quick := sub("current assets", figure(cur, models.BucketCurrentAssets, "current assets"), figure(cur, models.BucketInventory, "inventory").orZero())
				return safeDiv(quick, figure(cur, models.BucketCurrentLiabilities, "current liabilities"))
			},
		},
		{
			Key: "days_cash_on_hand", Name: "Days Cash on Hand", Category: models.CategoryLiquidity,
			Format: models.FormatDays, HigherIsBetter: true, Bands: Thresholds{Green: 30, Amber: 15},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return days(figure(cur, models.BucketCash, "cash"), figure(cur, models.BucketOperatingExpenses, "operating expenses"))
			},
		},

		// Profitability
		{
			Key: "gross_profit_margin", Name: "Gross Profit Margin", Category: models.CategoryProfitability,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 40, Amber: 20},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return percent(grossProfit(cur), figure(cur, models.BucketRevenue, "revenue"))
			},
		},
		{
			Key: "cost_of_sales_ratio", Name: "Cost of Sales Ratio", Category: models.CategoryProfitability,
			Format: models.FormatPercentage, Bands: Thresholds{Green: 60, Amber: 80},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return percent(figure(cur, models.BucketCOGS, "cost of sales"), figure(cur, models.BucketRevenue, "revenue"))
			},
		},
		{
			Key: "net_profit_margin", Name: "Net Profit Margin", Category: models.CategoryProfitability,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 10, Amber: 5},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return percent(figure(cur, models.BucketNetProfit, "net profit"), figure(cur, models.BucketRevenue, "revenue"))
			},
		},
		{
			Key: "ebit_margin", Name: "EBIT Margin", Category: models.CategoryProfitability,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 10, Amber: 3},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return percent(figure(cur, models.BucketEBIT, "EBIT"), figure(cur, models.BucketRevenue, "revenue"))
			},
		},
		{
			Key: "ebitda_margin", Name: "EBITDA Margin", Category: models.CategoryProfitability,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 15, Amber: 5},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return percent(figure(cur, models.BucketEBITDA, "EBITDA"), figure(cur, models.BucketRevenue, "revenue"))
			},
		},
		{
			Key: "return_on_assets", Name: "Return on Assets", Category: models.CategoryProfitability,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 10, Amber: 3},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return percent(figure(cur, models.BucketNetProfit, "net profit"), figure(cur, models.BucketTotalAssets, "total assets"))
			},
		},
		{
			Key: "return_on_equity", Name: "Return on Equity", Category: models.CategoryProfitability,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 15, Amber: 5},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				eq := figure(cur, models.BucketEquity, "equity")
				if eq.ok && eq.value < 0 {
					return models.NotComputable("equity is negative")
				}
				return percent(figure(cur, models.BucketNetProfit, "net profit"), eq)
			},
		},

		// Efficiency
		{
			Key: "debtor_days", Name: "Debtor Days", Category: models.CategoryEfficiency,
			Format: models.FormatDays, Bands: Thresholds{Green: 30, Amber: 60},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return debtorDays(cur)
			},
		},
		{
			Key: "inventory_days", Name: "Inventory Days", Category: models.CategoryEfficiency,
			Format: models.FormatDays, Bands: Thresholds{Green: 45, Amber: 90},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return inventoryDays(cur)
			},
		},
		{
			Key: "creditor_days", Name: "Creditor Days", Category: models.CategoryEfficiency,
			Format: models.FormatDays, Informational: true,
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return creditorDays(cur)
			},
		},
		{
			Key: "cash_conversion_cycle", Name: "Cash Conversion Cycle", Category: models.CategoryEfficiency,
			Format: models.FormatDays, Bands: Thresholds{Green: 30, Amber: 60},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				dd, cd := debtorDays(cur), creditorDays(cur)
				if !dd.Computable {
					return dd
				}
				if !cd.Computable {
					return cd
				}
				// A business without stock contributes zero inventory days.
				inv := inventoryDays(cur)
				if !inv.Computable {
					inv = models.Computed(0)
				}
				return models.Computed(dd.Value + inv.Value - cd.Value)
			},
		},

		// Leverage
		{
			Key: "debt_to_equity", Name: "Debt to Equity", Category: models.CategoryLeverage,
			Format: models.FormatMultiplier, Bands: Thresholds{Green: 1.0, Amber: 2.0},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				eq := figure(cur, models.BucketEquity, "equity")
				if eq.ok && eq.value < 0 {
					return models.NotComputable("equity is negative")
				}
				return safeDiv(figure(cur, models.BucketTotalLiabilities, "total liabilities"), eq)
			},
		},
		{
			Key: "interest_coverage", Name: "Interest Coverage", Category: models.CategoryLeverage,
			Format: models.FormatMultiplier, HigherIsBetter: true, Bands: Thresholds{Green: 3.0, Amber: 1.5},
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				return safeDiv(figure(cur, models.BucketEBIT, "EBIT"), figure(cur, models.BucketInterest, "interest expense"))
			},
		},
		{
			Key: "net_debt", Name: "Net Debt", Category: models.CategoryLeverage,
			Format: models.FormatCurrency, Informational: true,
			Compute: func(cur, _ *models.NormalizedStatement) models.Ratio {
				debt := borrowings(cur)
				if !debt.ok {
					debt = figure(cur, models.BucketTotalLiabilities, "total liabilities")
				}
				nd := sub("net debt", debt, figure(cur, models.BucketCash, "cash").orZero())
				if !nd.ok {
					return models.NotComputable(nd.name + " not available")
				}
				return models.Computed(nd.value)
			},
		},

		// Growth
		{
			Key: "revenue_growth", Name: "Revenue Growth", Category: models.CategoryGrowth,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 10, Amber: 0}, Growth: true,
			Compute: growthOf(func(st *models.NormalizedStatement) operand { return figure(st, models.BucketRevenue, "revenue") }),
		},
		{
			Key: "gross_profit_growth", Name: "Gross Profit Growth", Category: models.CategoryGrowth,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 10, Amber: 0}, Growth: true,
			Compute: growthOf(grossProfit),
		},
		{
			Key: "net_profit_growth", Name: "Net Profit Growth", Category: models.CategoryGrowth,
			Format: models.FormatPercentage, HigherIsBetter: true, Bands: Thresholds{Green: 10, Amber: 0}, Growth: true,
			Compute: growthOf(func(st *models.NormalizedStatement) operand { return figure(st, models.BucketNetProfit, "net profit") }),
		},
		{
			Key: "expense_growth", Name: "Expense Growth", Category: models.CategoryGrowth,
			Format: models.FormatPercentage, Growth: true,
			Compute: growthOf(func(st *models.NormalizedStatement) operand {
				return figure(st, models.BucketOperatingExpenses, "operating expenses")
			}),
			Status: expenseGrowthStatus,
		},
	}
}

func debtorDays(st *models.NormalizedStatement) models.Ratio {
	return days(figure(st, models.BucketReceivables, "receivables"), figure(st, models.BucketRevenue, "revenue"))
}

// inventoryDays is not computable when the balance sheet carries no inventory.
func inventoryDays(st *models.NormalizedStatement) models.Ratio {
	return days(figure(st, models.BucketInventory, "inventory"), figure(st, models.BucketCOGS, "cost of sales"))
}

func creditorDays(st *models.NormalizedStatement) models.Ratio {
	return days(figure(st, models.BucketPayables, "payables"), figure(st, models.BucketCOGS, "cost of sales"))
}

func growthOf(get func(*models.NormalizedStatement) operand) func(cur, prior *models.NormalizedStatement) models.Ratio {
	return func(cur, prior *models.NormalizedStatement) models.Ratio {
		if prior == nil {
			return models.NotComputable("no prior period")
		}
		return GrowthRate(get(cur), get(prior))
	}
}

// expenseGrowthStatus compares expense growth with revenue growth in the
// same period: red when expenses outpace revenue by more than two points.
func expenseGrowthStatus(v float64, peers map[string]models.Ratio) models.Status {
	rev, ok := peers["revenue_growth"]
	if !ok || !rev.Computable {
		return models.StatusGrey
	}
	switch {
	case v > rev.Value+2:
		return models.StatusRed
	case v <= rev.Value:
		return models.StatusGreen
	default:
		return models.StatusAmber
	}
}
