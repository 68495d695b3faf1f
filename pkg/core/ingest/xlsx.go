package ingest

import (
	"io"

	"github.com/phuslu/log"
	"github.com/xuri/excelize/v2"

	"finsight/pkg/models"
)

// ReadXLSX reads every non-empty sheet of a workbook in tab order. A sheet
// named after a statement ("Balance Sheet") tags its rows with that section.
// Cells are read with their display formatting so date headers stay text.
func ReadXLSX(source string, r io.Reader) (models.Input, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Input{}, models.Malformed("invalid workbook: " + err.Error())
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("source", source).Msg("closing workbook")
		}
	}()

	var tables []Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return models.Input{}, err
		}
		if len(rows) == 0 {
			continue
		}
		tables = append(tables, Table{Title: sheet, Hint: SectionFromTitle(sheet), Cells: rows})
	}
	return Merge(source, tables), nil
}
