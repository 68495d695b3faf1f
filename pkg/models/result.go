package models

import (
	"time"
)

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	ID              string                `json:"id"`
	CreatedAt       time.Time             `json:"created_at"`
	Source          string                `json:"source,omitempty"`
	Industry        string                `json:"industry,omitempty"`
	Periods         []Period              `json:"periods"`
	Warnings        []Warning             `json:"warnings,omitempty"`
	ExcludedColumns []ExcludedColumn      `json:"excluded_columns,omitempty"`
	Lines           []ClassifiedLine      `json:"lines"`
	Statements      []NormalizedStatement `json:"statements"`
	Metrics         []Metric              `json:"metrics"`
	RedFlags        []RedFlag             `json:"red_flags,omitempty"`
	Checks          []CheckResult         `json:"checks"`
	Gate            Gate                  `json:"gate"`
	Benchmarks      []BenchmarkComparison `json:"benchmarks,omitempty"`
	Commentary      *Commentary           `json:"commentary,omitempty"`
}

// Current returns the most recent period's statement.
func (r *AnalysisResult) Current() (NormalizedStatement, bool) {
	if len(r.Statements) == 0 {
		return NormalizedStatement{}, false
	}
	return r.Statements[len(r.Statements)-1], true
}

// Metric looks a metric up by key.
func (r *AnalysisResult) Metric(key string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// Gaps returns the rows that carried values but could not be classified.
func (r *AnalysisResult) Gaps() []ClassifiedLine {
	var out []ClassifiedLine
	for _, l := range r.Lines {
		if l.Gap() {
			out = append(out, l)
		}
	}
	return out
}

// Redacted returns a copy safe to display while the gate is blocked: the
// checks and period diagnostics stay, derived figures are withheld.
func (r *AnalysisResult) Redacted() *AnalysisResult {
	if r.Gate.Visible() {
		return r
	}
	cp := *r
	cp.Metrics = nil
	cp.RedFlags = nil
	cp.Benchmarks = nil
	cp.Commentary = nil
	return &cp
}

// CommentarySection is one block of generated prose.
type CommentarySection struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

type Commentary struct {
	Provider      string              `json:"provider"`
	Model         string              `json:"model,omitempty"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Sections      []CommentarySection `json:"sections"`
	TalkingPoints []string            `json:"talking_points,omitempty"`
}
