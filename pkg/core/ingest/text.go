package ingest

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"finsight/pkg/core/amount"
	"finsight/pkg/models"
)

var columnGap = regexp.MustCompile(`\t+|\s{2,}`)

// ReadText reads layout-preserving text extracted from a PDF statement.
// Columns are separated by tabs or runs of two or more spaces; a line with a
// single space between its figures has its trailing amounts peeled off.
// Rows with fewer figures than the widest row are aligned to the right, since
// a missing note reference is the usual cause.
func ReadText(source string, r io.Reader) (models.Input, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var grid [][]string
	width := 0
	for sc.Scan() {
		cells := splitLine(sc.Text())
		if len(cells) > width {
			width = len(cells)
		}
		grid = append(grid, cells)
	}
	if err := sc.Err(); err != nil {
		return models.Input{}, err
	}

	for i, cells := range grid {
		if len(cells) > 1 && len(cells) < width {
			row := make([]string, width)
			row[0] = cells[0]
			copy(row[width-len(cells)+1:], cells[1:])
			grid[i] = row
		}
	}
	return Merge(source, []Table{{Title: source, Cells: grid}}), nil
}

func splitLine(line string) []string {
	line = strings.TrimRight(line, " \r")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	cells := columnGap.Split(line, -1)
	if len(cells) > 1 {
		cells[0] = strings.TrimSpace(cells[0])
		return cells
	}

	words := strings.Fields(line)
	end := len(words)
	for end > 0 && figure(words[end-1]) {
		end--
	}
	out := []string{strings.Join(words[:end], " ")}
	return append(out, words[end:]...)
}

func figure(w string) bool {
	if bareYear.MatchString(w) || w == "-" {
		return true
	}
	_, ok := amount.Parse(w)
	return ok
}
