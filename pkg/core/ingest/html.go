package ingest

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"finsight/pkg/models"
)

// ReadHTML reads every innermost <table> in the document. The table's
// caption, or the nearest heading before it, names the statement.
func ReadHTML(source string, r io.Reader) (models.Input, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return models.Input{}, models.Malformed("invalid HTML: " + err.Error())
	}

	var tables []Table
	doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		if s.Find("table").Length() > 0 {
			return // layout wrapper
		}
		grid := tableGrid(s)
		if len(grid) == 0 {
			return
		}
		title := cleanText(s.Find("caption").First().Text())
		if title == "" {
			title = cleanText(s.PrevAllFiltered("h1, h2, h3, h4, h5, p").First().Text())
		}
		tables = append(tables, Table{Title: title, Hint: SectionFromTitle(title), Cells: grid})
	})
	return Merge(source, tables), nil
}

// tableGrid lays the rows out on a grid so colspan and rowspan cells keep
// later cells in their columns. Only the top-left slot of a span holds text.
func tableGrid(table *goquery.Selection) [][]string {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil
	}

	width := 0
	rows.Each(func(_ int, tr *goquery.Selection) {
		n := 0
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			n += span(cell, "colspan")
		})
		if n > width {
			width = n
		}
	})

	grid := make([][]string, rows.Length())
	taken := make([][]bool, rows.Length())
	for i := range grid {
		grid[i] = make([]string, width)
		taken[i] = make([]bool, width)
	}

	rows.Each(func(ri int, tr *goquery.Selection) {
		col := 0
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			for col < width && taken[ri][col] {
				col++
			}
			if col >= width {
				return
			}
			cs, rs := span(cell, "colspan"), span(cell, "rowspan")
			for dr := 0; dr < rs && ri+dr < len(grid); dr++ {
				for dc := 0; dc < cs && col+dc < width; dc++ {
					taken[ri+dr][col+dc] = true
				}
			}
			grid[ri][col] = cleanText(cell.Text())
			col += cs
		})
	})
	return grid
}

func span(cell *goquery.Selection, attr string) int {
	n, err := strconv.Atoi(cell.AttrOr(attr, "1"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
