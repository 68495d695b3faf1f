package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"finsight/pkg/core/format"
	"finsight/pkg/models"
)

// statementRows are the buckets shown in the statement summary, in order.
var statementRows = []struct {
	bucket models.Bucket
	label  string
}{
	{models.BucketRevenue, "Revenue"},
	{models.BucketCOGS, "Cost of sales"},
	{models.BucketGrossProfit, "Gross profit"},
	{models.BucketOperatingExpenses, "Operating expenses"},
	{models.BucketEBITDA, "EBITDA"},
	{models.BucketEBIT, "EBIT"},
	{models.BucketNetProfit, "Net profit"},
	{models.BucketCash, "Cash"},
	{models.BucketReceivables, "Receivables"},
	{models.BucketInventory, "Inventory"},
	{models.BucketCurrentAssets, "Current assets"},
	{models.BucketTotalAssets, "Total assets"},
	{models.BucketCurrentLiabilities, "Current liabilities"},
	{models.BucketTotalLiabilities, "Total liabilities"},
	{models.BucketEquity, "Equity"},
	{models.BucketOperatingCashFlow, "Operating cash flow"},
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func periodHeader(first string, res *models.AnalysisResult, extra ...string) table.Row {
	row := table.Row{first}
	for _, p := range res.Periods {
		row = append(row, p.Label)
	}
	for _, e := range extra {
		row = append(row, e)
	}
	return row
}

func rightAlign(from, n int) []table.ColumnConfig {
	var cfg []table.ColumnConfig
	for i := from; i < from+n; i++ {
		cfg = append(cfg, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	return cfg
}

func renderResult(w io.Writer, res *models.AnalysisResult) {
	fmt.Fprintf(w, "Run %s  %s\n", res.ID, res.Source)
	if res.Industry != "" {
		fmt.Fprintf(w, "Industry: %s\n", res.Industry)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}
	for _, col := range res.ExcludedColumns {
		fmt.Fprintf(w, "excluded column %d %q: %s\n", col.Column, col.Header, col.Reason)
	}
	fmt.Fprintln(w)

	renderChecks(w, res)
	if res.Gate.Banner != "" {
		fmt.Fprintln(w, res.Gate.Banner)
	}
	if !res.Gate.Visible() {
		fmt.Fprintf(w, "Results withheld. Run `finsight ack %s` or re-run with --ack to view them.\n", res.ID)
		return
	}
	fmt.Fprintln(w)

	renderStatements(w, res)
	renderMetrics(w, res)
	renderRedFlags(w, res)
	renderBenchmarks(w, res)
	renderGaps(w, res)
}

func renderChecks(w io.Writer, res *models.AnalysisResult) {
	t := newTable(w)
	t.SetTitle("Integrity checks")
	t.AppendHeader(table.Row{"#", "Check", "Result", "Detail"})
	for _, c := range res.Checks {
		sev := string(c.Severity)
		if !c.Applicable {
			sev += " (n/a)"
		}
		t.AppendRow(table.Row{c.Ordinal, c.Name, sev, text.WrapSoft(c.Explanation, 70)})
	}
	t.Render()
}

func renderStatements(w io.Writer, res *models.AnalysisResult) {
	t := newTable(w)
	t.SetTitle("Normalized statements")
	t.AppendHeader(periodHeader("", res))
	for _, row := range statementRows {
		r := table.Row{row.label}
		found := false
		for _, st := range res.Statements {
			if v, ok := st.Value(row.bucket); ok {
				r = append(r, format.Currency(v))
				found = true
			} else {
				r = append(r, "")
			}
		}
		if found {
			t.AppendRow(r)
		}
	}
	t.SetColumnConfigs(rightAlign(2, len(res.Periods)))
	t.Render()
}

func renderMetrics(w io.Writer, res *models.AnalysisResult) {
	t := newTable(w)
	t.SetTitle("Metrics")
	t.AppendHeader(periodHeader("Metric", res, "Status", "Trend"))
	for _, cat := range models.Categories {
		first := true
		for _, m := range res.Metrics {
			if m.Category != cat {
				continue
			}
			if first {
				t.AppendSeparator()
				t.AppendRow(table.Row{strings.ToUpper(string(cat))})
				first = false
			}
			r := table.Row{m.Name}
			for _, v := range m.Values {
				r = append(r, format.Ratio(v.Ratio, m.Format))
			}
			if latest, ok := m.Latest(); ok {
				r = append(r, latest.Status, latest.Trend)
			}
			t.AppendRow(r)
		}
	}
	t.SetColumnConfigs(rightAlign(2, len(res.Periods)))
	t.Render()
}

func renderRedFlags(w io.Writer, res *models.AnalysisResult) {
	if len(res.RedFlags) == 0 {
		return
	}
	fmt.Fprintln(w, "Red flags:")
	for _, f := range res.RedFlags {
		fmt.Fprintf(w, "  - %s\n", f.Message)
	}
}

func renderBenchmarks(w io.Writer, res *models.AnalysisResult) {
	if len(res.Benchmarks) == 0 {
		return
	}
	t := newTable(w)
	t.SetTitle("Benchmarks: %s", res.Benchmarks[0].Industry)
	t.AppendHeader(table.Row{"Metric", "Client", "Low", "Typical", "High", "Position", "Status"})
	for _, b := range res.Benchmarks {
		name, f := b.Metric, models.ValueFormat("")
		if m, ok := res.Metric(b.Metric); ok {
			name, f = m.Name, m.Format
		}
		t.AppendRow(table.Row{
			name,
			format.Value(b.ClientValue, f),
			format.Value(b.Band.Low, f),
			format.Value(b.Band.Typical, f),
			format.Value(b.Band.High, f),
			b.Position,
			b.Status,
		})
	}
	t.SetColumnConfigs(rightAlign(2, 4))
	t.Render()
}

func renderGaps(w io.Writer, res *models.AnalysisResult) {
	gaps := res.Gaps()
	if len(gaps) == 0 {
		return
	}
	fmt.Fprintln(w, "Unclassified rows with values (not included in any total):")
	for _, g := range gaps {
		fmt.Fprintf(w, "  row %d: %s\n", g.Row, g.Label)
	}
}
