package calc

import (
	"fmt"
	"math"

	"finsight/pkg/models"
)

// RedFlags returns plain-language warnings for the most recent period.
func RedFlags(statements []models.NormalizedStatement, metrics []models.Metric) []models.RedFlag {
	if len(statements) == 0 {
		return nil
	}
	cur := &statements[len(statements)-1]
	var prior *models.NormalizedStatement
	if len(statements) > 1 {
		prior = &statements[len(statements)-2]
	}
	label := cur.Period.Label
	latest := func(key string) (float64, bool) {
		for _, m := range metrics {
			if m.Key != key {
				continue
			}
			if v, ok := m.Latest(); ok && v.Ratio.Computable {
				return v.Ratio.Value, true
			}
		}
		return 0, false
	}

	var flags []models.RedFlag
	flag := func(key, format string, args ...interface{}) {
		flags = append(flags, models.RedFlag{Key: key, Period: label, Message: fmt.Sprintf(format, args...)})
	}

	if v, ok := latest("current_ratio"); ok && v < 1.0 {
		flag("low_current_ratio", "Current ratio is %.2fx; below 1.0x signals potential liquidity pressure.", v)
	}
	if v, ok := latest("interest_coverage"); ok && v < 1.5 {
		flag("low_interest_coverage", "Interest coverage is %.2fx; below 1.5x earnings may not cover interest.", v)
	}
	if np, ok := cur.Value(models.BucketNetProfit); ok && np < 0 {
		flag("net_loss", "Net loss of $%.0f recorded in the current period.", math.Abs(np))
	}

	if prior != nil {
		if rg, ag, ok := outpaced(cur, prior, models.BucketReceivables, models.BucketRevenue); ok {
			flag("receivables_outpacing_revenue", "Receivables grew %.1f%% against revenue growth of %.1f%%; possible collection issues.", ag, rg)
		}
		if cg, ig, ok := outpaced(cur, prior, models.BucketInventory, models.BucketCOGS); ok {
			flag("inventory_outpacing_cogs", "Inventory grew %.1f%% against cost of sales growth of %.1f%%; possible slow-moving stock.", ig, cg)
		}
		rc, rcOK := cur.Value(models.BucketRevenue)
		rp, rpOK := prior.Value(models.BucketRevenue)
		oc, ocOK := cur.Value(models.BucketOperatingCashFlow)
		op, opOK := prior.Value(models.BucketOperatingCashFlow)
		if rcOK && rpOK && ocOK && opOK && rc > rp && oc < op {
			flag("cash_flow_declining", "Revenue is growing but operating cash flow fell from $%.0f to $%.0f; quality of earnings concern.", op, oc)
		}
	}

	eg, egOK := latest("expense_growth")
	rg, rgOK := latest("revenue_growth")
	if egOK && rgOK && eg > rg+2 {
		flag("expenses_outpacing_revenue", "Operating expenses grew %.1f%% against revenue growth of %.1f%%; margin pressure.", eg, rg)
	}
	return flags
}

// outpaced reports whether balance grew more than five points faster than
// driver (and by more than five percent). It returns both growth rates.
func outpaced(cur, prior *models.NormalizedStatement, balance, driver models.Bucket) (driverGrowth, balanceGrowth float64, ok bool) {
	dc, ok1 := cur.Value(driver)
	dp, ok2 := prior.Value(driver)
	bc, ok3 := cur.Value(balance)
	bp, ok4 := prior.Value(balance)
	if !ok1 || !ok2 || !ok3 || !ok4 || dp <= 0 || bp <= 0 {
		return 0, 0, false
	}
	driverGrowth = (dc - dp) / dp * 100
	balanceGrowth = (bc - bp) / bp * 100
	return driverGrowth, balanceGrowth, balanceGrowth > driverGrowth+5 && balanceGrowth > 5
}
