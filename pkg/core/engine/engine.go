// Package engine runs one analysis: period resolution, classification,
// normalization, then metrics and integrity checks over the same statements.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"finsight/pkg/core/amount"
	"finsight/pkg/core/benchmark"
	"finsight/pkg/core/calc"
	"finsight/pkg/core/classify"
	"finsight/pkg/core/normalize"
	"finsight/pkg/core/period"
	"finsight/pkg/core/validate"
	"finsight/pkg/models"
)

// Options configures a single run.
type Options struct {
	Calendar   period.Calendar
	Industry   string
	Tolerances validate.Tolerances
	// Scale multiplies every figure; zero detects it from the headers and
	// title rows ("$'000").
	Scale amount.Scale
}

// DefaultOptions uses a 30 June year end and the standard tolerances.
func DefaultOptions() Options {
	return Options{
		Calendar:   period.DefaultCalendar(),
		Tolerances: validate.DefaultTolerances(),
	}
}

// Engine is stateless between runs and safe for concurrent use.
type Engine struct {
	classifier *classify.Classifier
	normalizer *normalize.Normalizer
	calculator *calc.Calculator
	matcher    *benchmark.Matcher
	now        func() time.Time
}

// New builds an engine. provider may be nil, in which case no benchmark
// comparisons are produced.
func New(provider benchmark.Provider) *Engine {
	e := &Engine{
		classifier: classify.NewDefault(),
		normalizer: normalize.New(),
		calculator: calc.New(),
		now:        time.Now,
	}
	if provider != nil {
		e.matcher = benchmark.NewMatcher(provider)
	}
	return e
}

// SetClock overrides the time source used for result timestamps.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Analyze runs the full pipeline. It either returns a complete result or a
// *models.MalformedInputError; no partial result is ever returned.
func (e *Engine) Analyze(ctx context.Context, in models.Input, opts Options) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Tolerances == (validate.Tolerances{}) {
		opts.Tolerances = validate.DefaultTolerances()
	}

	prep, err := e.prepare(in, opts)
	if err != nil {
		return nil, err
	}

	lines := e.classifier.ClassifyAll(prep.lines)
	statements := e.normalizer.Normalize(prep.periods, lines)

	metrics, checks, err := e.evaluate(ctx, statements, opts.Tolerances)
	if err != nil {
		return nil, err
	}

	res := &models.AnalysisResult{
		ID:              uuid.NewString(),
		CreatedAt:       e.now().UTC(),
		Source:          in.Source,
		Industry:        opts.Industry,
		Periods:         prep.periods,
		Warnings:        prep.warnings,
		ExcludedColumns: prep.excluded,
		Lines:           lines,
		Statements:      statements,
		Metrics:         metrics,
		RedFlags:        calc.RedFlags(statements, metrics),
		Checks:          checks,
		Gate:            models.NewGate(checks),
	}
	if e.matcher != nil && opts.Industry != "" {
		res.Benchmarks = e.matcher.CompareAll(opts.Industry, metrics)
	}

	log.Info().
		Str("run_id", res.ID).
		Str("source", in.Source).
		Int("periods", len(res.Periods)).
		Int("lines", len(lines)).
		Int("gaps", len(res.Gaps())).
		Int("warnings", len(res.Warnings)).
		Str("gate", string(res.Gate.State)).
		Msg("analysis complete")
	return res, nil
}

// evaluate runs the metric calculator per period and the six integrity
// checks concurrently. Results are written to fixed slots so ordering is
// period-ascending and check-ordinal regardless of scheduling.
func (e *Engine) evaluate(ctx context.Context, statements []models.NormalizedStatement, tol validate.Tolerances) ([]models.Metric, []models.CheckResult, error) {
	checker := validate.NewChecker(tol)
	checks := checker.Checks()

	values := make([]calc.PeriodValues, len(statements))
	results := make([]models.CheckResult, len(checks))
	periods := make([]models.Period, len(statements))

	var g errgroup.Group
	for i := range statements {
		i := i
		periods[i] = statements[i].Period
		g.Go(func() error {
			var prior *models.NormalizedStatement
			if i > 0 {
				prior = &statements[i-1]
			}
			values[i] = e.calculator.Period(&statements[i], prior)
			return nil
		})
	}
	for i, ch := range checks {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = checker.RunCheck(ch, statements)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return e.calculator.Assemble(periods, values), results, nil
}

// prepared is the input after column screening and period resolution.
type prepared struct {
	periods  []models.Period
	lines    []models.RawLine
	warnings []models.Warning
	excluded []models.ExcludedColumn
}

func (e *Engine) prepare(in models.Input, opts Options) (*prepared, error) {
	if len(in.Rows) == 0 {
		return nil, models.Malformed("no rows found")
	}

	width := len(in.Headers)
	for _, r := range in.Rows {
		if len(r.Cells) > width {
			width = len(r.Cells)
		}
	}
	if width == 0 {
		return nil, models.Malformed("no numeric columns found")
	}
	headers := make([]string, width)
	copy(headers, in.Headers)

	resolver := period.NewResolver(opts.Calendar)
	isPeriod := func(h string) bool {
		r, err := resolver.Resolve([]string{h})
		return err == nil && len(r.Periods) == 1 && r.Periods[0].Detected()
	}

	prep := &prepared{warnings: append([]models.Warning(nil), in.Warnings...)}
	prep.excluded = classify.DetectNoteColumns(headers, in.Rows, isPeriod)
	skip := make(map[int]bool)
	for _, x := range prep.excluded {
		skip[x.Column] = true
	}
	if len(prep.excluded) > 0 {
		prep.warnings = append(prep.warnings, models.Warning{
			Kind:    models.WarningNoteColumns,
			Message: fmt.Sprintf("%d note reference column(s) were excluded from the figures.", len(prep.excluded)),
		})
	}

	var dataCols []int
	for col := 0; col < width; col++ {
		if skip[col] {
			continue
		}
		if !numericColumn(in.Rows, col) {
			prep.excluded = append(prep.excluded, models.ExcludedColumn{Column: col, Header: headers[col], Reason: "no numeric values"})
			continue
		}
		dataCols = append(dataCols, col)
	}
	if len(dataCols) == 0 {
		return nil, models.Malformed("no numeric columns found")
	}

	dataHeaders := make([]string, len(dataCols))
	for i, col := range dataCols {
		dataHeaders[i] = headers[col]
	}
	pr, err := resolver.Resolve(dataHeaders)
	if err != nil {
		return nil, err
	}
	for i := range pr.Periods {
		pr.Periods[i].Column = dataCols[pr.Periods[i].Column]
	}
	prep.periods = pr.Periods
	prep.warnings = append(prep.warnings, pr.Warnings...)

	scale := opts.Scale
	if scale == 0 {
		scale = detectScale(headers, in.Rows)
	}

	for i, r := range in.Rows {
		line := models.RawLine{
			Row:    i,
			Label:  strings.TrimSpace(r.Label),
			Values: make([]*float64, len(prep.periods)),
			Hint:   r.Section,
		}
		for j, p := range prep.periods {
			if p.Column >= len(r.Cells) {
				continue
			}
			cell := r.Cells[p.Column]
			if v, ok := amount.Parse(cell); ok {
				if amount.IsPercent(cell) {
					line.Percent = true
				} else {
					v = scale.Apply(v)
				}
				line.Values[j] = &v
			}
		}
		if line.Label == "" && !line.HasValues() {
			continue
		}
		prep.lines = append(prep.lines, line)
	}
	return prep, nil
}

func numericColumn(rows []models.SourceRow, col int) bool {
	for _, r := range rows {
		if col < len(r.Cells) {
			if _, ok := amount.Parse(r.Cells[col]); ok {
				return true
			}
		}
	}
	return false
}

// detectScale looks for a unit caption in the headers and in title rows
// that carry no figures.
func detectScale(headers []string, rows []models.SourceRow) amount.Scale {
	if s := amount.DetectScale(strings.Join(headers, " ")); s != amount.ScaleUnits {
		return s
	}
	for _, r := range rows {
		blank := true
		for _, c := range r.Cells {
			if _, ok := amount.Parse(c); ok {
				blank = false
				break
			}
		}
		if !blank {
			break
		}
		if s := amount.DetectScale(r.Label); s != amount.ScaleUnits {
			return s
		}
	}
	return amount.ScaleUnits
}
