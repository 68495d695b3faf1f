package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phuslu/log"

	"finsight/pkg/core/amount"
	"finsight/pkg/models"
)

var bareYear = regexp.MustCompile(`^(19|20)\d{2}$`)

// Table is one grid of cells read from a sheet, an HTML table or a block of
// text. The first column holds the row labels.
type Table struct {
	Title string
	Hint  models.Section
	Cells [][]string
}

// SectionFromTitle maps a sheet name, caption or heading to the statement it
// names.
func SectionFromTitle(title string) models.Section {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "balance sheet"), strings.Contains(t, "financial position"):
		return models.SectionBalanceSheet
	case strings.Contains(t, "cash flow"):
		return models.SectionCashFlow
	case strings.Contains(t, "profit"), strings.Contains(t, "loss"), strings.Contains(t, "income statement"),
		strings.Contains(t, "p&l"), strings.Contains(t, "financial performance"), strings.Contains(t, "trading"):
		return models.SectionProfitAndLoss
	}
	return models.SectionUnknown
}

// Split finds the column header row of a grid. Rows above the first figure
// are preamble; the last of them with text beyond the label column is the
// header row. Bare years ("2024") and slashed dates count as header text,
// not figures.
func (t Table) Split() (headers []string, rows []models.SourceRow) {
	data := -1
	header := -1
	for i, row := range t.Cells {
		if figures(row) {
			data = i
			break
		}
		if len(trimRow(row)) > 1 {
			header = i
		}
	}
	if header >= 0 {
		headers = trimRow(t.Cells[header])[1:]
	}

	for i, row := range t.Cells {
		if i == header {
			continue
		}
		cells := trimRow(row)
		if len(cells) == 0 {
			continue
		}
		if data >= 0 && i < data && i < header {
			// Title rows above the header: keep the text so statement titles
			// and unit captions still reach the classifier.
			rows = append(rows, models.SourceRow{Label: strings.Join(nonEmpty(cells), " "), Section: t.Hint})
			continue
		}
		rows = append(rows, models.SourceRow{Label: cells[0], Cells: cells[1:], Section: t.Hint})
	}
	return headers, rows
}

// Merge concatenates tables into one input. Headers come from the first
// table that has any. A later table whose headers name the same columns in a
// different order has its cells moved into the first table's order; one that
// cannot be matched is read by position and flagged.
func Merge(source string, tables []Table) models.Input {
	in := models.Input{Source: source}
	for _, t := range tables {
		headers, rows := t.Split()
		switch {
		case in.Headers == nil && len(headers) > 0:
			in.Headers = headers
		case len(headers) > 0 && !sameHeaders(headers, in.Headers):
			if perm, ok := alignHeaders(headers, in.Headers); ok {
				log.Debug().Str("source", source).Str("table", t.Title).
					Strs("headers", headers).Msg("table columns reordered to match first table")
				for i := range rows {
					rows[i].Cells = permute(rows[i].Cells, perm, len(in.Headers))
				}
				break
			}
			log.Warn().Str("source", source).Str("table", t.Title).
				Strs("headers", headers).Strs("expected", in.Headers).
				Msg("table headers differ; columns read by position")
			in.Warnings = append(in.Warnings, models.Warning{
				Kind: models.WarningColumnMismatch,
				Message: fmt.Sprintf("Columns of %q (%s) do not match %s; figures were read by position.",
					t.Title, strings.Join(headers, ", "), strings.Join(in.Headers, ", ")),
			})
		}
		in.Rows = append(in.Rows, rows...)
	}
	return in
}

func headerKey(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func sameHeaders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if headerKey(a[i]) != headerKey(b[i]) {
			return false
		}
	}
	return true
}

// alignHeaders maps each column of got onto the column of want with the same
// header text. Blank headers, duplicates and unknown names defeat the match.
func alignHeaders(got, want []string) ([]int, bool) {
	if len(got) != len(want) {
		return nil, false
	}
	pos := make(map[string]int, len(want))
	for i, h := range want {
		k := headerKey(h)
		if k == "" {
			return nil, false
		}
		if _, dup := pos[k]; dup {
			return nil, false
		}
		pos[k] = i
	}
	perm := make([]int, len(got))
	used := make(map[int]bool, len(got))
	for i, h := range got {
		j, ok := pos[headerKey(h)]
		if !ok || used[j] {
			return nil, false
		}
		perm[i] = j
		used[j] = true
	}
	return perm, true
}

// permute moves cells[i] to perm[i]. Cells past the header columns keep
// their relative order after them.
func permute(cells []string, perm []int, width int) []string {
	n := width
	if len(cells) > n {
		n = len(cells)
	}
	out := make([]string, n)
	for i, c := range cells {
		if i < len(perm) {
			out[perm[i]] = c
			continue
		}
		out[i] = c
	}
	return trimRow(out)
}

func figures(row []string) bool {
	for i, c := range row {
		if i == 0 {
			continue
		}
		c = strings.TrimSpace(c)
		if bareYear.MatchString(c) || strings.Contains(c, "/") {
			continue
		}
		if _, ok := amount.Parse(c); ok {
			return true
		}
	}
	return false
}

// trimRow trims every cell and drops trailing blanks.
func trimRow(row []string) []string {
	out := make([]string, len(row))
	last := -1
	for i, c := range row {
		out[i] = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}

func nonEmpty(cells []string) []string {
	var out []string
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
