// Package period turns column headers into an ordered fiscal period axis.
package period

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"finsight/pkg/models"
)

// Calendar carries the fiscal-year convention used to date headers that only
// name a year, and the reference date relative headers are anchored to.
type Calendar struct {
	YearEndMonth time.Month
	YearEndDay   int
	Reference    time.Time
}

// DefaultCalendar is the Australian 30 June year end.
func DefaultCalendar() Calendar {
	return Calendar{YearEndMonth: time.June, YearEndDay: 30}
}

// ParseYearEnd reads "06-30", "30/06" style month/day pairs.
func ParseYearEnd(s string) (Calendar, error) {
	c := DefaultCalendar()
	s = strings.TrimSpace(s)
	if s == "" {
		return c, nil
	}
	for _, layout := range []string{"01-02", "1-2", "02/01", "2/1", "2 January", "January 2", "2 Jan", "Jan 2"} {
		if t, err := time.Parse(layout, s); err == nil {
			c.YearEndMonth = t.Month()
			c.YearEndDay = t.Day()
			return c, nil
		}
	}
	return c, fmt.Errorf("unrecognised fiscal year end %q", s)
}

func (c Calendar) yearEnd(year int) time.Time {
	month, day := c.YearEndMonth, c.YearEndDay
	if month == 0 {
		month, day = time.June, 30
	}
	last := endOfMonth(year, month).Day()
	if day <= 0 || day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// currentFiscalYear is the latest fiscal year ending on or before the reference date.
func (c Calendar) currentFiscalYear() int {
	ref := c.Reference
	if ref.IsZero() {
		ref = time.Now()
	}
	year := ref.Year()
	if c.yearEnd(year).After(ref) {
		year--
	}
	return year
}

// Result is the resolved period axis plus the signals raised on the way.
type Result struct {
	Periods  []models.Period
	Warnings []models.Warning
}

// Fallback reports whether any period was placed by position only.
func (r Result) Fallback() bool {
	for _, p := range r.Periods {
		if !p.Detected() {
			return true
		}
	}
	return false
}

// Resolver applies an ordered pattern table to column headers.
type Resolver struct {
	patterns []Pattern
	cal      Calendar
}

func NewResolver(cal Calendar) *Resolver {
	return &Resolver{patterns: DefaultPatterns(), cal: cal}
}

// WithPatterns returns a resolver using a custom pattern table.
func (r *Resolver) WithPatterns(p []Pattern) *Resolver {
	return &Resolver{patterns: p, cal: r.cal}
}

type candidate struct {
	column  int
	header  string
	pattern string
	match   match
}

// Resolve dates each header and returns the periods oldest first. Headers no
// pattern recognises are kept as positional-fallback periods after the dated
// ones. It fails only when there are no columns at all.
func (r *Resolver) Resolve(headers []string) (Result, error) {
	if len(headers) == 0 {
		return Result{}, models.Malformed("no numeric columns found")
	}

	var detected, undetected []candidate
	for col, raw := range headers {
		h := strings.TrimSpace(raw)
		c := candidate{column: col, header: h}
		if h != "" {
			for _, p := range r.patterns {
				if m, ok := p.Resolve(h, r.cal); ok {
					c.pattern = p.Name
					c.match = m
					break
				}
			}
		}
		if c.pattern == "" {
			undetected = append(undetected, c)
		} else {
			detected = append(detected, c)
		}
	}

	var res Result
	if len(detected) == 0 {
		res.Periods = fallbackPeriods(undetected, 0)
		res.Warnings = append(res.Warnings, models.Warning{
			Kind: models.WarningPositionalFallback,
			Message: fmt.Sprintf("No period could be identified from the column headers; %d column(s) were assigned periods left to right, oldest first.",
				len(undetected)),
		})
		disambiguate(res.Periods)
		return res, nil
	}

	before := labelsOf(detected)
	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].match.end.Before(detected[j].match.end)
	})

	reordered := false
	for i := 1; i < len(detected); i++ {
		if detected[i].column < detected[i-1].column {
			reordered = true
			break
		}
	}
	if reordered {
		res.Warnings = append(res.Warnings, models.Warning{
			Kind:    models.WarningReordered,
			Message: fmt.Sprintf("Period columns were reordered chronologically: [%s] became [%s].", strings.Join(before, ", "), strings.Join(labelsOf(detected), ", ")),
		})
	}

	var dupes []string
	for i := 1; i < len(detected); i++ {
		if detected[i].match.end.Equal(detected[i-1].match.end) {
			dupes = append(dupes, detected[i].match.label)
		}
	}
	if len(dupes) > 0 {
		res.Warnings = append(res.Warnings, models.Warning{
			Kind:    models.WarningDuplicatePeriod,
			Message: fmt.Sprintf("More than one column resolves to the same period (%s); both are kept in column order.", strings.Join(dupes, ", ")),
		})
	}

	for i, c := range detected {
		res.Periods = append(res.Periods, models.Period{
			Index:       i,
			Column:      c.column,
			Header:      c.header,
			Label:       c.match.label,
			Start:       c.match.start,
			End:         c.match.end,
			Approximate: c.match.approximate,
			Pattern:     c.pattern,
			Source:      models.SourceDetected,
		})
	}

	if len(undetected) > 0 {
		res.Periods = append(res.Periods, fallbackPeriods(undetected, len(detected))...)
		res.Warnings = append(res.Warnings, models.Warning{
			Kind:    models.WarningPartialFallback,
			Message: fmt.Sprintf("%d column(s) had no recognisable period and were placed after the dated periods in column order.", len(undetected)),
		})
	}

	disambiguate(res.Periods)
	return res, nil
}

func fallbackPeriods(cands []candidate, offset int) []models.Period {
	out := make([]models.Period, 0, len(cands))
	for i, c := range cands {
		label := c.header
		if label == "" {
			label = fmt.Sprintf("Column %d", c.column+1)
		}
		out = append(out, models.Period{
			Index:  offset + i,
			Column: c.column,
			Header: c.header,
			Label:  label,
			Source: models.SourcePositionalFallback,
		})
	}
	return out
}

func labelsOf(cands []candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.match.label
	}
	return out
}

// disambiguate suffixes colliding labels with their source column.
func disambiguate(periods []models.Period) {
	counts := make(map[string]int)
	for _, p := range periods {
		counts[p.Label]++
	}
	for i := range periods {
		if counts[periods[i].Label] > 1 {
			periods[i].Label = fmt.Sprintf("%s (col %d)", periods[i].Label, periods[i].Column+1)
		}
	}
}
