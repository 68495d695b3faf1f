package commentary

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"finsight/pkg/core/format"
	"finsight/pkg/models"
)

const systemPrompt = "You are an experienced small-business accountant. You explain financial " +
	"results in plain English, cite the figures you are given, and never alter them."

//go:embed prompt.tmpl
var promptText string

var promptTemplate = template.Must(template.New("commentary").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptText))

type namedValue struct {
	Name   string
	Value  string
	Status models.Status
	Trend  models.Trend
}

type promptData struct {
	Source     string
	Industry   string
	Periods    []string
	Latest     string
	Figures    []namedValue
	Metrics    []namedValue
	RedFlags   []string
	Checks     []string
	Benchmarks []string
}

var keyFigures = []struct {
	bucket models.Bucket
	name   string
}{
	{models.BucketRevenue, "Revenue"},
	{models.BucketGrossProfit, "Gross profit"},
	{models.BucketOperatingExpenses, "Operating expenses"},
	{models.BucketNetProfit, "Net profit"},
	{models.BucketEBITDA, "EBITDA"},
	{models.BucketCash, "Cash"},
	{models.BucketTotalAssets, "Total assets"},
	{models.BucketTotalLiabilities, "Total liabilities"},
	{models.BucketEquity, "Equity"},
	{models.BucketOperatingCashFlow, "Operating cash flow"},
}

// BuildPrompt renders the user prompt for res.
func BuildPrompt(res *models.AnalysisResult) (string, error) {
	data := promptData{Source: res.Source, Industry: res.Industry}
	if data.Source == "" {
		data.Source = "client"
	}
	for _, p := range res.Periods {
		data.Periods = append(data.Periods, p.Label)
	}

	if cur, ok := res.Current(); ok {
		data.Latest = cur.Period.Label
		for _, kf := range keyFigures {
			if v, ok := cur.Value(kf.bucket); ok {
				data.Figures = append(data.Figures, namedValue{Name: kf.name, Value: format.Currency(v)})
			}
		}
	}

	for _, m := range res.Metrics {
		v, ok := m.Latest()
		if !ok || !v.Ratio.Computable {
			continue
		}
		nv := namedValue{Name: m.Name, Value: format.Ratio(v.Ratio, m.Format), Status: v.Status}
		if v.Trend != models.TrendNone {
			nv.Trend = v.Trend
		}
		data.Metrics = append(data.Metrics, nv)
	}

	for _, f := range res.RedFlags {
		data.RedFlags = append(data.RedFlags, f.Message)
	}
	for _, c := range res.Checks {
		if c.Applicable && c.Severity != models.SeverityPass {
			data.Checks = append(data.Checks, fmt.Sprintf("%s (%s): %s", c.Name, c.Severity, c.Explanation))
		}
	}
	for _, b := range res.Benchmarks {
		name, f := b.Metric, models.FormatPercentage
		if m, ok := res.Metric(b.Metric); ok {
			name, f = m.Name, m.Format
		}
		data.Benchmarks = append(data.Benchmarks, fmt.Sprintf("%s: client %s against an industry range of %s to %s (%s)",
			name, format.Value(b.ClientValue, f), format.Value(b.Band.Low, f), format.Value(b.Band.High, f), b.Status))
	}

	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}
