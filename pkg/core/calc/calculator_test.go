package calc

import (
	"math"
	"testing"

	"finsight/pkg/models"
)

func statement(label string, figures map[models.Bucket]float64) models.NormalizedStatement {
	st := models.NormalizedStatement{
		Period:  models.Period{Label: label},
		Figures: make(map[models.Bucket]models.Figure),
	}
	for b, v := range figures {
		st.Figures[b] = models.Figure{Value: v, Provenance: models.ProvenanceExplicit}
	}
	return st
}

func baseFigures() map[models.Bucket]float64 {
	return map[models.Bucket]float64{
		models.BucketRevenue:            1000000,
		models.BucketCOGS:               400000,
		models.BucketGrossProfit:        600000,
		models.BucketOperatingExpenses:  350000,
		models.BucketInterest:           10000,
		models.BucketTax:                60000,
		models.BucketNetProfit:          180000,
		models.BucketEBIT:               250000,
		models.BucketEBITDA:             250000,
		models.BucketCash:               100000,
		models.BucketReceivables:        80000,
		models.BucketPayables:           40000,
		models.BucketCurrentAssets:      200000,
		models.BucketCurrentLiabilities: 100000,
		models.BucketTotalAssets:        500000,
		models.BucketTotalLiabilities:   200000,
		models.BucketEquity:             300000,
	}
}

func metricByKey(t *testing.T, metrics []models.Metric, key string) models.Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Key == key {
			return m
		}
	}
	t.Fatalf("metric %s not found", key)
	return models.Metric{}
}

func TestCompute_SinglePeriod(t *testing.T) {
	metrics := New().Compute([]models.NormalizedStatement{statement("FY2024", baseFigures())})

	tests := []struct {
		key    string
		want   float64
		status models.Status
	}{
		{"current_ratio", 2.0, models.StatusGreen},
		{"quick_ratio", 2.0, models.StatusGreen},
		{"days_cash_on_hand", 100000 / (350000.0 / 365), models.StatusGreen},
		{"gross_profit_margin", 60, models.StatusGreen},
		{"cost_of_sales_ratio", 40, models.StatusGreen},
		{"net_profit_margin", 18, models.StatusGreen},
		{"ebit_margin", 25, models.StatusGreen},
		{"ebitda_margin", 25, models.StatusGreen},
		{"return_on_assets", 36, models.StatusGreen},
		{"return_on_equity", 60, models.StatusGreen},
		{"debtor_days", 29.2, models.StatusGreen},
		{"creditor_days", 36.5, models.StatusGrey},
		{"cash_conversion_cycle", -7.3, models.StatusGreen},
		{"debt_to_equity", 200000.0 / 300000.0, models.StatusGreen},
		{"interest_coverage", 25, models.StatusGreen},
		{"net_debt", 100000, models.StatusGrey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, _ := metricByKey(t, metrics, tt.key).Latest()
			if !v.Ratio.Computable {
				t.Fatalf("expected computable, got reason %q", v.Ratio.Reason)
			}
			if math.Abs(v.Ratio.Value-tt.want) > 0.0001 {
				t.Errorf("expected %f, got %f", tt.want, v.Ratio.Value)
			}
			if v.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, v.Status)
			}
			if v.Trend != models.TrendNone {
				t.Errorf("expected no trend for first period, got %s", v.Trend)
			}
		})
	}
}

func TestCompute_SinglePeriodGrowthNotComputable(t *testing.T) {
	metrics := New().Compute([]models.NormalizedStatement{statement("FY2024", baseFigures())})

	for _, m := range metrics {
		if m.Category != models.CategoryGrowth {
			continue
		}
		v, _ := m.Latest()
		if v.Ratio.Computable {
			t.Errorf("%s: expected not computable with one period", m.Key)
		}
		if v.Status != models.StatusGrey {
			t.Errorf("%s: expected grey, got %s", m.Key, v.Status)
		}
	}
}

func TestCompute_InventoryAbsent(t *testing.T) {
	metrics := New().Compute([]models.NormalizedStatement{statement("FY2024", baseFigures())})

	cr, _ := metricByKey(t, metrics, "current_ratio").Latest()
	qr, _ := metricByKey(t, metrics, "quick_ratio").Latest()
	if cr.Ratio.Value != qr.Ratio.Value {
		t.Errorf("quick ratio %f should equal current ratio %f without inventory", qr.Ratio.Value, cr.Ratio.Value)
	}
	inv, _ := metricByKey(t, metrics, "inventory_days").Latest()
	if inv.Ratio.Computable {
		t.Error("inventory days should not be computable without balance sheet inventory")
	}
}

func TestCompute_InventoryPresent(t *testing.T) {
	f := baseFigures()
	f[models.BucketInventory] = 50000
	metrics := New().Compute([]models.NormalizedStatement{statement("FY2024", f)})

	qr, _ := metricByKey(t, metrics, "quick_ratio").Latest()
	if math.Abs(qr.Ratio.Value-1.5) > 0.0001 {
		t.Errorf("expected quick ratio 1.5, got %f", qr.Ratio.Value)
	}
	inv, _ := metricByKey(t, metrics, "inventory_days").Latest()
	if math.Abs(inv.Ratio.Value-45.625) > 0.0001 {
		t.Errorf("expected inventory days 45.625, got %f", inv.Ratio.Value)
	}
	if inv.Status != models.StatusAmber {
		t.Errorf("expected amber, got %s", inv.Status)
	}
}

func TestCompute_CostOfSalesRatio(t *testing.T) {
	tests := []struct {
		name   string
		cogs   float64
		want   float64
		status models.Status
	}{
		{"lean", 400000, 40, models.StatusGreen},
		{"at green band", 600000, 60, models.StatusGreen},
		{"thin margin", 700000, 70, models.StatusAmber},
		{"selling at cost", 900000, 90, models.StatusRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := baseFigures()
			f[models.BucketCOGS] = tt.cogs
			metrics := New().Compute([]models.NormalizedStatement{statement("FY2024", f)})

			v, _ := metricByKey(t, metrics, "cost_of_sales_ratio").Latest()
			if math.Abs(v.Ratio.Value-tt.want) > 0.0001 {
				t.Errorf("expected %f, got %f", tt.want, v.Ratio.Value)
			}
			if v.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, v.Status)
			}
		})
	}

	f := baseFigures()
	delete(f, models.BucketCOGS)
	metrics := New().Compute([]models.NormalizedStatement{statement("FY2024", f)})
	v, _ := metricByKey(t, metrics, "cost_of_sales_ratio").Latest()
	if v.Ratio.Computable || v.Status != models.StatusGrey {
		t.Errorf("expected grey not-computable without cost of sales, got %+v %s", v.Ratio, v.Status)
	}
}

func TestCompute_DivisionByZeroNeverNumeric(t *testing.T) {
	f := baseFigures()
	f[models.BucketCurrentLiabilities] = 0
	delete(f, models.BucketInterest)
	metrics := New().Compute([]models.NormalizedStatement{statement("FY2024", f)})

	cr, _ := metricByKey(t, metrics, "current_ratio").Latest()
	if cr.Ratio.Computable || cr.Ratio.Value != 0 || cr.Ratio.Reason == "" {
		t.Errorf("expected not-computable sentinel, got %+v", cr.Ratio)
	}
	ic, _ := metricByKey(t, metrics, "interest_coverage").Latest()
	if ic.Ratio.Computable {
		t.Errorf("expected interest coverage not computable, got %+v", ic.Ratio)
	}
}

func TestCompute_TwoPeriodsGrowthAndTrend(t *testing.T) {
	prior := baseFigures()
	prior[models.BucketRevenue] = 800000
	prior[models.BucketGrossProfit] = 480000
	prior[models.BucketOperatingExpenses] = 300000
	prior[models.BucketCurrentAssets] = 150000

	metrics := New().Compute([]models.NormalizedStatement{
		statement("FY2023", prior),
		statement("FY2024", baseFigures()),
	})

	rg := metricByKey(t, metrics, "revenue_growth")
	if rg.Values[0].Ratio.Computable {
		t.Error("first period growth should not be computable")
	}
	if math.Abs(rg.Values[1].Ratio.Value-25) > 0.0001 {
		t.Errorf("expected revenue growth 25, got %f", rg.Values[1].Ratio.Value)
	}
	if rg.Values[1].Status != models.StatusGreen {
		t.Errorf("expected green, got %s", rg.Values[1].Status)
	}

	eg, _ := metricByKey(t, metrics, "expense_growth").Latest()
	if eg.Status != models.StatusGreen {
		t.Errorf("expense growth below revenue growth should be green, got %s", eg.Status)
	}

	cr := metricByKey(t, metrics, "current_ratio")
	if cr.Values[1].Trend != models.TrendUp {
		t.Errorf("expected current ratio trend up, got %s", cr.Values[1].Trend)
	}
	gm := metricByKey(t, metrics, "gross_profit_margin")
	if gm.Values[1].Trend != models.TrendFlat {
		t.Errorf("expected gross margin trend flat, got %s", gm.Values[1].Trend)
	}
	if gm.Values[1].Period != "FY2024" {
		t.Errorf("expected period label FY2024, got %s", gm.Values[1].Period)
	}
}

func TestThresholds_Classify(t *testing.T) {
	tests := []struct {
		name   string
		bands  Thresholds
		higher bool
		value  float64
		want   models.Status
	}{
		{"current ratio green at boundary", Thresholds{2.0, 1.0}, true, 2.0, models.StatusGreen},
		{"current ratio amber", Thresholds{2.0, 1.0}, true, 1.5, models.StatusAmber},
		{"current ratio red", Thresholds{2.0, 1.0}, true, 0.9, models.StatusRed},
		{"debtor days green", Thresholds{30, 60}, false, 30, models.StatusGreen},
		{"debtor days amber", Thresholds{30, 60}, false, 45, models.StatusAmber},
		{"debtor days red", Thresholds{30, 60}, false, 61, models.StatusRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bands.Classify(tt.value, tt.higher); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExpenseGrowthStatus(t *testing.T) {
	peers := PeriodValues{"revenue_growth": models.Computed(10)}
	if got := expenseGrowthStatus(13, peers); got != models.StatusRed {
		t.Errorf("expected red, got %s", got)
	}
	if got := expenseGrowthStatus(11, peers); got != models.StatusAmber {
		t.Errorf("expected amber, got %s", got)
	}
	if got := expenseGrowthStatus(9, peers); got != models.StatusGreen {
		t.Errorf("expected green, got %s", got)
	}
	if got := expenseGrowthStatus(9, PeriodValues{}); got != models.StatusGrey {
		t.Errorf("expected grey without revenue growth, got %s", got)
	}
}

func TestRedFlags(t *testing.T) {
	prior := baseFigures()
	prior[models.BucketOperatingCashFlow] = 120000
	cur := baseFigures()
	cur[models.BucketRevenue] = 1100000
	cur[models.BucketNetProfit] = -15000
	cur[models.BucketCurrentAssets] = 90000
	cur[models.BucketReceivables] = 120000
	cur[models.BucketOperatingCashFlow] = 60000

	statements := []models.NormalizedStatement{statement("FY2023", prior), statement("FY2024", cur)}
	flags := RedFlags(statements, New().Compute(statements))

	want := map[string]bool{
		"low_current_ratio":             false,
		"net_loss":                      false,
		"receivables_outpacing_revenue": false,
		"cash_flow_declining":           false,
	}
	for _, f := range flags {
		if _, ok := want[f.Key]; ok {
			want[f.Key] = true
		}
		if f.Period != "FY2024" {
			t.Errorf("flag %s: expected period FY2024, got %s", f.Key, f.Period)
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("expected red flag %s", key)
		}
	}
}

func TestRedFlags_HealthyBusiness(t *testing.T) {
	statements := []models.NormalizedStatement{statement("FY2024", baseFigures())}
	if flags := RedFlags(statements, New().Compute(statements)); len(flags) != 0 {
		t.Errorf("expected no red flags, got %+v", flags)
	}
}
