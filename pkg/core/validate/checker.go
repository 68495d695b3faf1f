package validate

import (
	"fmt"
	"math"

	"finsight/pkg/core/format"
	"finsight/pkg/models"
)

// Check is one integrity check over the full statement set.
type Check struct {
	Ordinal int
	ID      string
	Name    string
	run     func(statements []models.NormalizedStatement, tol Tolerances) []finding
}

// finding is one period's outcome. Inapplicable findings never affect severity.
type finding struct {
	models.CheckFinding
	applicable bool
}

// Checker runs the six integrity checks.
type Checker struct {
	tol    Tolerances
	checks []Check
}

func NewChecker(tol Tolerances) *Checker {
	return &Checker{
		tol: tol,
		checks: []Check{
			{Ordinal: 1, ID: "pl_balance", Name: "Profit & Loss Balance", run: checkProfitAndLoss},
			{Ordinal: 2, ID: "gross_profit", Name: "Gross Profit", run: checkGrossProfit},
			{Ordinal: 3, ID: "balance_sheet", Name: "Balance Sheet Equation", run: checkBalanceSheet},
			{Ordinal: 4, ID: "equity_movement", Name: "Equity Movement", run: checkEquityMovement},
			{Ordinal: 5, ID: "current_assets", Name: "Current Assets Subtotal", run: checkCurrentAssets},
			{Ordinal: 6, ID: "revenue_reasonableness", Name: "Revenue Reasonableness", run: checkRevenue},
		},
	}
}

// Checks lists the checks in ordinal order.
func (c *Checker) Checks() []Check {
	return c.checks
}

// RunCheck evaluates a single check. It is safe to call concurrently.
func (c *Checker) RunCheck(ch Check, statements []models.NormalizedStatement) models.CheckResult {
	return summarize(ch, ch.run(statements, c.tol))
}

// Run evaluates every check and returns exactly one result per check in
// ordinal order.
func (c *Checker) Run(statements []models.NormalizedStatement) []models.CheckResult {
	out := make([]models.CheckResult, len(c.checks))
	for i, ch := range c.checks {
		out[i] = c.RunCheck(ch, statements)
	}
	return out
}

// summarize folds per-period findings into one result carrying the worst
// severity. The earliest period wins a tie.
func summarize(ch Check, findings []finding) models.CheckResult {
	res := models.CheckResult{
		Ordinal:  ch.Ordinal,
		ID:       ch.ID,
		Name:     ch.Name,
		Severity: models.SeverityPass,
	}
	var worst *finding
	for i := range findings {
		f := &findings[i]
		res.Findings = append(res.Findings, f.CheckFinding)
		if !f.applicable {
			continue
		}
		res.Applicable = true
		if worst == nil || f.Severity.Worse(worst.Severity) != worst.Severity {
			worst = f
		}
	}

	switch {
	case worst == nil && len(findings) > 0:
		res.Explanation = "Not applicable: " + findings[0].Explanation
	case worst == nil:
		res.Explanation = "Not applicable: no periods"
	default:
		res.Severity = worst.Severity
		res.Discrepancy = worst.Discrepancy
		res.Explanation = worst.Explanation
		if worst.Period != "" {
			res.Explanation = worst.Period + ": " + res.Explanation
		}
	}
	return res
}

func pass(period, explanation string) finding {
	return finding{CheckFinding: models.CheckFinding{Period: period, Severity: models.SeverityPass, Explanation: explanation}, applicable: true}
}

func notApplicable(period, explanation string) finding {
	return finding{CheckFinding: models.CheckFinding{Period: period, Severity: models.SeverityPass, Explanation: explanation}}
}

func flagged(period string, sev models.Severity, explanation string, discrepancy float64) finding {
	d := discrepancy
	return finding{
		CheckFinding: models.CheckFinding{Period: period, Severity: sev, Explanation: explanation, Discrepancy: &d},
		applicable:   true,
	}
}

// =============================================================================
// CHECK 1: PROFIT & LOSS BALANCE
// =============================================================================

// checkProfitAndLoss rebuilds net profit from revenue less cost of sales,
// operating expenses, interest and tax. Components already contained in an
// explicit operating expense total are not subtracted again.
func checkProfitAndLoss(statements []models.NormalizedStatement, tol Tolerances) []finding {
	out := make([]finding, 0, len(statements))
	for _, st := range statements {
		label := st.Period.Label
		rev, revOK := st.Value(models.BucketRevenue)
		np, npOK := st.Value(models.BucketNetProfit)
		switch {
		case !revOK && !npOK:
			out = append(out, notApplicable(label, "no profit and loss figures"))
			continue
		case !revOK:
			out = append(out, finding{CheckFinding: models.CheckFinding{Period: label, Severity: models.SeverityWarn, Explanation: "revenue not identified; net profit cannot be verified"}, applicable: true})
			continue
		case !npOK:
			out = append(out, finding{CheckFinding: models.CheckFinding{Period: label, Severity: models.SeverityWarn, Explanation: "net profit not identified; profit and loss cannot be verified"}, applicable: true})
			continue
		}

		opex := st.Figures[models.BucketOperatingExpenses]
		deductions := []float64{st.Get(models.BucketCOGS), opex.Value}
		for _, b := range []models.Bucket{models.BucketDepreciation, models.BucketInterest, models.BucketTax} {
			if st.Has(b) && !opex.Contains(b) {
				deductions = append(deductions, st.Get(b))
			}
		}
		pc := CheckProfitEquation(rev, np, tol.Absolute, deductions...)

		warnTol := math.Max(tol.Absolute, tol.ProfitRelative*math.Abs(np))
		diff := math.Abs(pc.Difference)
		switch {
		case pc.IsBalanced:
			out = append(out, pass(label, fmt.Sprintf("net profit %s agrees with its components", format.Currency(np))))
		case diff <= warnTol:
			out = append(out, flagged(label, models.SeverityWarn,
				fmt.Sprintf("components give net profit of %s against %s stated (rounding difference %s)", format.Currency(pc.Computed), format.Currency(np), format.Currency(pc.Difference)), pc.Difference))
		default:
			out = append(out, flagged(label, models.SeverityFail,
				fmt.Sprintf("components give net profit of %s against %s stated, a difference of %s", format.Currency(pc.Computed), format.Currency(np), format.Currency(pc.Difference)), pc.Difference))
		}
	}
	return out
}

// =============================================================================
// CHECK 2: GROSS PROFIT
// =============================================================================

func checkGrossProfit(statements []models.NormalizedStatement, tol Tolerances) []finding {
	out := make([]finding, 0, len(statements))
	for _, st := range statements {
		label := st.Period.Label
		if !st.IsExplicit(models.BucketGrossProfit) {
			out = append(out, notApplicable(label, "gross profit not stated"))
			continue
		}
		rev, ok := st.Value(models.BucketRevenue)
		if !ok {
			out = append(out, notApplicable(label, "revenue not identified"))
			continue
		}
		gp := st.Get(models.BucketGrossProfit)
		computed := rev - st.Get(models.BucketCOGS)
		diff := gp - computed
		if math.Abs(diff) <= tol.Absolute {
			out = append(out, pass(label, fmt.Sprintf("gross profit %s equals revenue less cost of sales", format.Currency(gp))))
			continue
		}
		out = append(out, flagged(label, models.SeverityFail,
			fmt.Sprintf("stated gross profit %s differs from revenue less cost of sales %s by %s", format.Currency(gp), format.Currency(computed), format.Currency(diff)), diff))
	}
	return out
}

// =============================================================================
// CHECK 3: BALANCE SHEET EQUATION
// =============================================================================

func checkBalanceSheet(statements []models.NormalizedStatement, tol Tolerances) []finding {
	out := make([]finding, 0, len(statements))
	for _, st := range statements {
		label := st.Period.Label
		ta, taOK := st.Value(models.BucketTotalAssets)
		tl, tlOK := st.Value(models.BucketTotalLiabilities)
		eq, eqOK := st.Value(models.BucketEquity)
		if !taOK && !tlOK && !eqOK {
			out = append(out, notApplicable(label, "no balance sheet figures"))
			continue
		}
		if !taOK || !tlOK || !eqOK {
			out = append(out, finding{CheckFinding: models.CheckFinding{Period: label, Severity: models.SeverityWarn,
				Explanation: "total assets, total liabilities or equity not identified; the balance sheet cannot be verified"}, applicable: true})
			continue
		}

		bc := CheckBalanceEquation(ta, tl, eq, tol.Absolute)
		switch {
		case bc.IsBalanced:
			out = append(out, pass(label, fmt.Sprintf("assets %s equal liabilities plus equity", format.Currency(ta))))
		case math.Abs(bc.Difference) <= tol.BalanceRelative*math.Abs(ta):
			out = append(out, flagged(label, models.SeverityWarn,
				fmt.Sprintf("assets %s differ from liabilities plus equity %s by %s", format.Currency(ta), format.Currency(bc.ComputedAssets), format.Currency(bc.Difference)), bc.Difference))
		default:
			out = append(out, flagged(label, models.SeverityFail,
				fmt.Sprintf("assets %s do not equal liabilities plus equity %s; difference %s", format.Currency(ta), format.Currency(bc.ComputedAssets), format.Currency(bc.Difference)), bc.Difference))
		}
	}
	return out
}

// =============================================================================
// CHECK 4: EQUITY MOVEMENT
// =============================================================================

// checkEquityMovement never fails; an unexplained movement is a warning.
func checkEquityMovement(statements []models.NormalizedStatement, tol Tolerances) []finding {
	if len(statements) < 2 {
		label := ""
		if len(statements) == 1 {
			label = statements[0].Period.Label
		}
		return []finding{notApplicable(label, "requires two periods")}
	}
	out := make([]finding, 0, len(statements)-1)
	for i := 1; i < len(statements); i++ {
		prior, cur := statements[i-1], statements[i]
		label := cur.Period.Label
		opening, ok1 := prior.Value(models.BucketEquity)
		closing, ok2 := cur.Value(models.BucketEquity)
		np, ok3 := cur.Value(models.BucketNetProfit)
		if !ok1 || !ok2 || !ok3 {
			out = append(out, notApplicable(label, "equity or net profit not identified in both periods"))
			continue
		}
		link := CheckEquityMovement(opening, np, cur.Get(models.BucketCapitalMovement), closing, tol.Absolute, tol.EquityRelative)
		if link.IsLinked {
			out = append(out, pass(label, fmt.Sprintf("equity moved from %s to %s in line with profit and capital movements", format.Currency(opening), format.Currency(closing))))
			continue
		}
		out = append(out, flagged(label, models.SeverityWarn,
			fmt.Sprintf("closing equity %s differs from the expected %s by %s", format.Currency(closing), format.Currency(link.ExpectedEquity), format.Currency(link.Difference)), link.Difference))
	}
	return out
}

// =============================================================================
// CHECK 5: CURRENT ASSETS SUBTOTAL
// =============================================================================

func checkCurrentAssets(statements []models.NormalizedStatement, tol Tolerances) []finding {
	out := make([]finding, 0, len(statements))
	for _, st := range statements {
		label := st.Period.Label
		if !st.IsExplicit(models.BucketCurrentAssets) {
			out = append(out, notApplicable(label, "total current assets not stated"))
			continue
		}
		comp, ok := st.Components[models.BucketCurrentAssets]
		if !ok {
			out = append(out, notApplicable(label, "no current asset components identified"))
			continue
		}
		stated := st.Get(models.BucketCurrentAssets)
		link := CheckSubtotal(comp, stated, tol.Absolute)
		if link.IsLinked {
			out = append(out, pass(label, fmt.Sprintf("components %s are within stated total current assets %s", format.Currency(comp), format.Currency(stated))))
			continue
		}
		out = append(out, flagged(label, models.SeverityFail,
			fmt.Sprintf("current asset components %s exceed stated total %s by %s; possible double count or misclassification", format.Currency(comp), format.Currency(stated), format.Currency(link.Excess)), link.Excess))
	}
	return out
}

// =============================================================================
// CHECK 6: REVENUE REASONABLENESS
// =============================================================================

// checkRevenue warns on large swings between adjacent periods. It never fails.
func checkRevenue(statements []models.NormalizedStatement, tol Tolerances) []finding {
	if len(statements) < 2 {
		label := ""
		if len(statements) == 1 {
			label = statements[0].Period.Label
		}
		return []finding{notApplicable(label, "requires two periods")}
	}
	out := make([]finding, 0, len(statements)-1)
	for i := 1; i < len(statements); i++ {
		label := statements[i].Period.Label
		cur, ok1 := statements[i].Value(models.BucketRevenue)
		prior, ok2 := statements[i-1].Value(models.BucketRevenue)
		if !ok1 || !ok2 || prior == 0 {
			out = append(out, notApplicable(label, "revenue not available for both periods"))
			continue
		}
		oc := CheckForOutlier("revenue", cur, prior, tol.RevenueSwingPct)
		if !oc.IsOutlier {
			out = append(out, pass(label, fmt.Sprintf("revenue changed by %s", format.Percent(oc.ChangePct))))
			continue
		}
		out = append(out, flagged(label, models.SeverityWarn,
			fmt.Sprintf("revenue moved from %s to %s (%s); confirm the periods are comparable", format.Currency(prior), format.Currency(cur), format.Percent(oc.ChangePct)), cur-prior))
	}
	return out
}
