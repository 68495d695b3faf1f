package classify

import (
	"strings"

	"finsight/pkg/core/amount"
	"finsight/pkg/models"
)

var noteHeaders = map[string]bool{
	"note": true, "notes": true, "ref": true, "reference": true, "note ref": true, "note no": true, "#": true,
}

// DetectNoteColumns finds note-reference columns directly after the label
// column: every non-blank cell is a small integer or a token such as "3a",
// and the header is blank, says "Note", or is not a period. isPeriod reports
// whether a header resolves to a period. The last data column is never
// excluded.
func DetectNoteColumns(headers []string, rows []models.SourceRow, isPeriod func(string) bool) []models.ExcludedColumn {
	width := len(headers)
	for _, r := range rows {
		if len(r.Cells) > width {
			width = len(r.Cells)
		}
	}

	var out []models.ExcludedColumn
	for col := 0; col < width-1; col++ {
		header := ""
		if col < len(headers) {
			header = strings.TrimSpace(headers[col])
		}
		if !noteHeader(header, isPeriod) || !noteCells(rows, col) {
			break
		}
		out = append(out, models.ExcludedColumn{
			Column: col,
			Header: header,
			Reason: "note reference column",
		})
	}
	return out
}

func noteHeader(header string, isPeriod func(string) bool) bool {
	h := NormalizeLabel(header)
	if h == "" || noteHeaders[h] {
		return true
	}
	return isPeriod != nil && !isPeriod(header)
}

func noteCells(rows []models.SourceRow, col int) bool {
	seen := 0
	for _, r := range rows {
		if col >= len(r.Cells) {
			continue
		}
		s := strings.TrimSpace(r.Cells[col])
		if strings.Trim(s, "-—– ") == "" {
			continue
		}
		if !amount.IsNoteReference(s) {
			return false
		}
		seen++
	}
	return seen > 0
}
