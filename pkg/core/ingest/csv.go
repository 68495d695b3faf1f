package ingest

import (
	"encoding/csv"
	"io"

	"finsight/pkg/models"
)

// ReadCSV reads an accounting-package CSV export. Rows may have differing
// widths and title lines above the column headers.
func ReadCSV(source string, r io.Reader) (models.Input, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return models.Input{}, models.Malformed("invalid CSV: " + err.Error())
	}
	return Merge(source, []Table{{Title: source, Cells: records}}), nil
}
