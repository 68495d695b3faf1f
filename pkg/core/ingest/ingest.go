// Package ingest reads exported financial statements (CSV, Excel, HTML
// tables, PDF text, JSON) into the label-and-cells input the engine consumes.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"

	"finsight/pkg/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// DetectFormat picks a reader from the file extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt", ".text":
		return FormatText, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// ReadFile opens and reads path.
func ReadFile(path string) (models.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Input{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(path, f)
}

// Read parses r using the format implied by name. The returned input's
// Source is the base file name.
func Read(name string, r io.Reader) (models.Input, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return models.Input{}, err
	}
	return ReadFormat(filepath.Base(name), format, r)
}

func ReadFormat(source string, format Format, r io.Reader) (models.Input, error) {
	var (
		in  models.Input
		err error
	)
	switch format {
	case FormatCSV:
		in, err = ReadCSV(source, r)
	case FormatXLSX:
		in, err = ReadXLSX(source, r)
	case FormatHTML:
		in, err = ReadHTML(source, r)
	case FormatText:
		in, err = ReadText(source, r)
	case FormatJSON:
		in, err = ReadJSON(source, r)
	default:
		return models.Input{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return models.Input{}, fmt.Errorf("read %s: %w", source, err)
	}

	log.Debug().
		Str("source", source).
		Str("format", string(format)).
		Int("headers", len(in.Headers)).
		Int("rows", len(in.Rows)).
		Msg("statement read")
	return in, nil
}

// ReadJSON decodes an input that is already in tabular form.
func ReadJSON(source string, r io.Reader) (models.Input, error) {
	var in models.Input
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return models.Input{}, models.Malformed("invalid JSON input: " + err.Error())
	}
	if in.Source == "" {
		in.Source = source
	}
	return in, nil
}
