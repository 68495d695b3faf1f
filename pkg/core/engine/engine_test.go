package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/pkg/core/amount"
	"finsight/pkg/core/benchmark"
	"finsight/pkg/models"
)

func r(label string, cells ...string) models.SourceRow {
	return models.SourceRow{Label: label, Cells: cells}
}

// twoYearInput is a Xero style export with FY2024 in the first column.
func twoYearInput() models.Input {
	return models.Input{
		Source:  "acme.csv",
		Headers: []string{"FY2024", "FY2023"},
		Rows: []models.SourceRow{
			r("Profit and Loss"),
			r("Trading Income"),
			r("Sales", "1,000,000", "900,000"),
			r("Total Trading Income", "1,000,000", "900,000"),
			r("Cost of Sales"),
			r("Purchases", "400,000", "380,000"),
			r("Total Cost of Sales", "400,000", "380,000"),
			r("Gross Profit", "600,000", "520,000"),
			r("Operating Expenses"),
			r("Wages", "250,000", "230,000"),
			r("Rent", "100,000", "100,000"),
			r("Total Operating Expenses", "350,000", "330,000"),
			r("Interest Expense", "10,000", "12,000"),
			r("Income Tax Expense", "60,000", "50,000"),
			r("Net Profit", "180,000", "128,000"),
			r(""),
			r("Balance Sheet"),
			r("Current Assets"),
			r("Cash at Bank", "150,000", "100,000"),
			r("Accounts Receivable", "120,000", "110,000"),
			r("Total Current Assets", "270,000", "210,000"),
			r("Non-current Assets"),
			r("Plant and Equipment", "230,000", "250,000"),
			r("Total Non-current Assets", "230,000", "250,000"),
			r("Total Assets", "500,000", "460,000"),
			r("Current Liabilities"),
			r("Accounts Payable", "90,000", "80,000"),
			r("Total Current Liabilities", "90,000", "80,000"),
			r("Non-current Liabilities"),
			r("Bank Loan", "110,000", "130,000"),
			r("Total Non-current Liabilities", "110,000", "130,000"),
			r("Total Liabilities", "200,000", "210,000"),
			r("Equity"),
			r("Retained Earnings", "430,000", "250,000"),
			r("Dividends Paid", "(130,000)", ""),
			r("Total Equity", "300,000", "250,000"),
		},
	}
}

func analyze(t *testing.T, e *Engine, in models.Input, opts Options) *models.AnalysisResult {
	t.Helper()
	res, err := e.Analyze(context.Background(), in, opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func latest(t *testing.T, res *models.AnalysisResult, key string) models.Ratio {
	t.Helper()
	m, ok := res.Metric(key)
	require.True(t, ok, key)
	v, ok := m.Latest()
	require.True(t, ok, key)
	return v.Ratio
}

func TestAnalyze_TwoYearExport(t *testing.T) {
	e := New(nil)
	fixed := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	e.SetClock(func() time.Time { return fixed })

	res := analyze(t, e, twoYearInput(), DefaultOptions())

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, fixed, res.CreatedAt)
	assert.Equal(t, "acme.csv", res.Source)

	require.Len(t, res.Periods, 2)
	assert.Equal(t, "FY2022-23", res.Periods[0].Label)
	assert.Equal(t, 1, res.Periods[0].Column)
	assert.Equal(t, "FY2023-24", res.Periods[1].Label)
	assert.Equal(t, 0, res.Periods[1].Column)

	cur, ok := res.Current()
	require.True(t, ok)
	assert.InDelta(t, 1000000, cur.Get(models.BucketRevenue), 0.01)
	assert.InDelta(t, 180000, cur.Get(models.BucketNetProfit), 0.01)
	assert.InDelta(t, 250000, cur.Get(models.BucketEBIT), 0.01)
	assert.InDelta(t, 270000, cur.Get(models.BucketCurrentAssets), 0.01)
	assert.InDelta(t, -130000, cur.Get(models.BucketCapitalMovement), 0.01)

	prior := res.Statements[0]
	assert.InDelta(t, 900000, prior.Get(models.BucketRevenue), 0.01)
	assert.InDelta(t, 128000, prior.Get(models.BucketNetProfit), 0.01)

	require.Len(t, res.Checks, 6)
	for i, c := range res.Checks {
		assert.Equal(t, i+1, c.Ordinal)
		assert.Equal(t, models.SeverityPass, c.Severity, "%s: %s", c.Name, c.Explanation)
	}
	assert.Equal(t, models.GateClear, res.Gate.State)
	assert.True(t, res.Gate.Visible())

	assert.InDelta(t, 3.0, latest(t, res, "current_ratio").Value, 0.0001)
	assert.InDelta(t, 60.0, latest(t, res, "gross_profit_margin").Value, 0.0001)
	assert.InDelta(t, 18.0, latest(t, res, "net_profit_margin").Value, 0.0001)
	assert.InDelta(t, 11.1111, latest(t, res, "revenue_growth").Value, 0.001)
	assert.InDelta(t, 25.0, latest(t, res, "interest_coverage").Value, 0.0001)

	assert.Empty(t, res.Gaps())
	assert.Empty(t, res.Benchmarks, "no industry selected")
}

func TestAnalyze_SinglePeriodGrowthNotComputable(t *testing.T) {
	in := models.Input{
		Headers: []string{"FY2024"},
		Rows: []models.SourceRow{
			r("Sales", "500,000"),
			r("Cost of Sales", "200,000"),
			r("Gross Profit", "300,000"),
			r("Net Profit", "100,000"),
		},
	}
	res := analyze(t, New(nil), in, DefaultOptions())

	require.Len(t, res.Periods, 1)
	g := latest(t, res, "revenue_growth")
	assert.False(t, g.Computable)
	assert.InDelta(t, 60.0, latest(t, res, "gross_profit_margin").Value, 0.0001)

	for _, c := range res.Checks {
		if c.ID == "equity_movement" || c.ID == "revenue_reasonableness" {
			assert.False(t, c.Applicable, c.ID)
			assert.Equal(t, models.SeverityPass, c.Severity)
		}
	}
}

func TestAnalyze_MalformedInput(t *testing.T) {
	tests := []struct {
		name string
		in   models.Input
	}{
		{"no rows", models.Input{Headers: []string{"FY2024"}}},
		{"no numeric columns", models.Input{
			Headers: []string{"FY2024"},
			Rows:    []models.SourceRow{r("Sales", "n/a"), r("Rent", "-")},
		}},
		{"no columns at all", models.Input{Rows: []models.SourceRow{r("Sales")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(nil).Analyze(context.Background(), tt.in, DefaultOptions())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, models.ErrMalformedInput), err.Error())
		})
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Analyze(ctx, twoYearInput(), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_NoteColumnExcluded(t *testing.T) {
	in := models.Input{
		Headers: []string{"Note", "FY2024"},
		Rows: []models.SourceRow{
			r("Sales", "3", "500,000"),
			r("Cost of Sales", "4", "200,000"),
			r("Net Profit", "", "100,000"),
		},
	}
	res := analyze(t, New(nil), in, DefaultOptions())

	require.Len(t, res.ExcludedColumns, 1)
	assert.Equal(t, 0, res.ExcludedColumns[0].Column)
	require.Len(t, res.Periods, 1)
	assert.Equal(t, 1, res.Periods[0].Column)

	cur, _ := res.Current()
	assert.InDelta(t, 500000, cur.Get(models.BucketRevenue), 0.01)

	var kinds []models.WarningKind
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Contains(t, kinds, models.WarningNoteColumns)
}

func TestAnalyze_PositionalFallbackWarnsOnce(t *testing.T) {
	in := models.Input{
		Headers: []string{"Actual", "Budget"},
		Rows: []models.SourceRow{
			r("Sales", "500,000", "520,000"),
			r("Net Profit", "100,000", "90,000"),
		},
	}
	res := analyze(t, New(nil), in, DefaultOptions())

	require.Len(t, res.Periods, 2)
	n := 0
	for _, w := range res.Warnings {
		if w.Kind == models.WarningPositionalFallback {
			n++
		}
	}
	assert.Equal(t, 1, n)
	for _, p := range res.Periods {
		assert.Equal(t, models.SourcePositionalFallback, p.Source)
	}
}

func TestAnalyze_TextColumnExcluded(t *testing.T) {
	in := models.Input{
		Headers: []string{"FY2024", "Comment"},
		Rows: []models.SourceRow{
			r("Sales", "500,000", "up on last year"),
			r("Net Profit", "100,000", "steady"),
		},
	}
	res := analyze(t, New(nil), in, DefaultOptions())

	require.Len(t, res.Periods, 1)
	require.Len(t, res.ExcludedColumns, 1)
	assert.Equal(t, 1, res.ExcludedColumns[0].Column)
	assert.Equal(t, "no numeric values", res.ExcludedColumns[0].Reason)
}

func TestAnalyze_ScaleFromTitleRow(t *testing.T) {
	in := models.Input{
		Headers: []string{"FY2024"},
		Rows: []models.SourceRow{
			r("Amounts in $'000"),
			r("Sales", "1,200"),
			r("Net Profit", "150"),
		},
	}
	res := analyze(t, New(nil), in, DefaultOptions())
	cur, _ := res.Current()
	assert.InDelta(t, 1200000, cur.Get(models.BucketRevenue), 0.01)

	opts := DefaultOptions()
	opts.Scale = amount.ScaleUnits
	res = analyze(t, New(nil), in, opts)
	cur, _ = res.Current()
	assert.InDelta(t, 1200, cur.Get(models.BucketRevenue), 0.01)
}

func TestAnalyze_InventoryNeverFromProfitAndLoss(t *testing.T) {
	in := models.Input{
		Headers: []string{"FY2024"},
		Rows: []models.SourceRow{
			r("Profit and Loss"),
			r("Sales", "800,000"),
			r("Cost of Sales"),
			r("Opening Stock", "40,000"),
			r("Purchases", "300,000"),
			r("Closing Stock", "(40,000)"),
			r("Total Cost of Sales", "300,000"),
			r("Net Profit", "100,000"),
			r("Balance Sheet"),
			r("Current Assets"),
			r("Cash at Bank", "60,000"),
			r("Accounts Receivable", "40,000"),
			r("Total Current Assets", "100,000"),
			r("Current Liabilities"),
			r("Accounts Payable", "50,000"),
			r("Total Current Liabilities", "50,000"),
		},
	}
	res := analyze(t, New(nil), in, DefaultOptions())
	cur, _ := res.Current()
	assert.False(t, cur.Has(models.BucketInventory))
	assert.InDelta(t, latest(t, res, "current_ratio").Value, latest(t, res, "quick_ratio").Value, 0.0001)
}

func TestAnalyze_BlockedGate(t *testing.T) {
	in := twoYearInput()
	for i, row := range in.Rows {
		if row.Label == "Total Current Assets" {
			in.Rows[i].Cells = []string{"250,000", "210,000"}
		}
	}
	res := analyze(t, New(nil), in, DefaultOptions())

	assert.Equal(t, models.SeverityFail, res.Checks[4].Severity)
	require.NotNil(t, res.Checks[4].Discrepancy)
	assert.InDelta(t, 20000, *res.Checks[4].Discrepancy, 0.01)
	assert.Equal(t, models.GateBlocked, res.Gate.State)
	assert.False(t, res.Gate.Visible())
	assert.Nil(t, res.Redacted().Metrics)
}

func TestAnalyze_Benchmarks(t *testing.T) {
	ds, err := benchmark.Default()
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Industry = "Retail Trade"
	res := analyze(t, New(ds), twoYearInput(), opts)

	require.NotEmpty(t, res.Benchmarks)
	for _, b := range res.Benchmarks {
		assert.Equal(t, "Retail Trade", b.Industry)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	e := New(nil)
	a := analyze(t, e, twoYearInput(), DefaultOptions())
	b := analyze(t, e, twoYearInput(), DefaultOptions())

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Statements, b.Statements)
	assert.Equal(t, a.Metrics, b.Metrics)
	assert.Equal(t, a.Checks, b.Checks)
}

func TestAnalyze_GrossMarginRowsKeepGrossProfit(t *testing.T) {
	for _, cells := range [][]string{{"60.0%", "57.8%"}, {"60.0", "57.8"}} {
		in := twoYearInput()
		var rows []models.SourceRow
		for _, row := range in.Rows {
			rows = append(rows, row)
			if row.Label == "Gross Profit" {
				rows = append(rows, r("Gross Margin", cells...))
			}
		}
		in.Rows = rows

		res := analyze(t, New(nil), in, DefaultOptions())

		cur, ok := res.Current()
		require.True(t, ok)
		assert.InDelta(t, 600000.0, cur.Get(models.BucketGrossProfit), 0.0001, cells[0])
		for _, n := range cur.Notes {
			assert.NotContains(t, n, "gross_profit", cells[0])
		}
		assert.InDelta(t, 60.0, latest(t, res, "gross_profit_margin").Value, 0.0001, cells[0])
		assert.Empty(t, res.Gaps(), cells[0])
	}
}

func TestAnalyze_DeterministicWithRepeatedTotals(t *testing.T) {
	in := twoYearInput()
	var rows []models.SourceRow
	for _, row := range in.Rows {
		rows = append(rows, row)
		switch row.Label {
		case "Total Trading Income", "Gross Profit", "Net Profit", "Total Current Assets":
			rows = append(rows, row)
		}
	}
	in.Rows = rows

	e := New(nil)
	first := analyze(t, e, in, DefaultOptions())
	require.NotEmpty(t, first.Statements)
	assert.GreaterOrEqual(t, len(first.Statements[0].Notes), 4)

	for i := 0; i < 20; i++ {
		next := analyze(t, e, in, DefaultOptions())
		require.Equal(t, first.Statements, next.Statements, "run %d", i)
		require.Equal(t, first.Warnings, next.Warnings, "run %d", i)
		require.Equal(t, first.Checks, next.Checks, "run %d", i)
	}
}
