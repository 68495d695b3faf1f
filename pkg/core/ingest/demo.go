package ingest

import (
	"bytes"
	_ "embed"

	"finsight/pkg/models"
)

//go:embed demo.csv
var demoCSV []byte

// DemoSource names the bundled sample export.
const DemoSource = "bayside-hardware-demo.csv"

// DemoInput returns a two-year Xero style Profit and Loss and Balance Sheet for a
// small hardware retailer. Every integrity check passes on it.
func DemoInput() (models.Input, error) {
	return ReadCSV(DemoSource, bytes.NewReader(demoCSV))
}

// DemoCSV returns the raw sample export.
func DemoCSV() []byte {
	return bytes.Clone(demoCSV)
}
