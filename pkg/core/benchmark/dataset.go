// Package benchmark compares client metrics with industry bands.
package benchmark

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"

	"finsight/pkg/models"
)

// FallbackIndustry is used when an industry key has no entry.
const FallbackIndustry = "Other"

//go:embed benchmarks.yaml
var defaultData []byte

// Provider answers lookup(industry, metric) -> band.
type Provider interface {
	Lookup(industry, metric string) (models.Band, bool)
	Industries() []string
}

// Metadata describes where a dataset came from.
type Metadata struct {
	Source string `json:"source" yaml:"source"`
	Year   string `json:"year" yaml:"year"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Dataset is an offline benchmark table. It is read-only after loading.
type Dataset struct {
	Metadata Metadata                          `json:"metadata" yaml:"metadata"`
	Bands    map[string]map[string]models.Band `json:"industries" yaml:"industries"`
}

// Default returns the bundled dataset.
func Default() (*Dataset, error) {
	return ParseYAML(defaultData)
}

// Load reads a dataset from a YAML or HJSON file, chosen by extension.
// An empty path returns the bundled dataset.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read benchmarks: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hjson", ".json":
		return ParseHJSON(data)
	default:
		return ParseYAML(data)
	}
}

func ParseYAML(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse benchmarks yaml: %w", err)
	}
	return ds.finish()
}

// ParseHJSON accepts HJSON, which includes plain JSON.
func ParseHJSON(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := hjson.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse benchmarks hjson: %w", err)
	}
	return ds.finish()
}

func (d *Dataset) finish() (*Dataset, error) {
	if len(d.Bands) == 0 {
		return nil, fmt.Errorf("benchmarks: no industries defined")
	}
	for ind, metrics := range d.Bands {
		for key, b := range metrics {
			if b.Low > b.High {
				return nil, fmt.Errorf("benchmarks: %s/%s has low %.2f above high %.2f", ind, key, b.Low, b.High)
			}
			if b.Source == "" {
				b.Source = d.Metadata.Source
				metrics[key] = b
			}
		}
	}
	return d, nil
}

// Industries returns the industry keys in sorted order.
func (d *Dataset) Industries() []string {
	out := make([]string, 0, len(d.Bands))
	for k := range d.Bands {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup finds the band for a metric, falling back to the "Other" industry
// when the industry is unknown. Industry keys match case-insensitively.
func (d *Dataset) Lookup(industry, metric string) (models.Band, bool) {
	metrics, ok := d.industry(industry)
	if !ok {
		metrics, ok = d.industry(FallbackIndustry)
		if !ok {
			return models.Band{}, false
		}
	}
	b, ok := metrics[metric]
	return b, ok
}

// Resolve returns the industry key actually used for a lookup.
func (d *Dataset) Resolve(industry string) string {
	for k := range d.Bands {
		if strings.EqualFold(k, strings.TrimSpace(industry)) {
			return k
		}
	}
	return FallbackIndustry
}

func (d *Dataset) industry(name string) (map[string]models.Band, bool) {
	if m, ok := d.Bands[name]; ok {
		return m, true
	}
	name = strings.TrimSpace(name)
	for k, m := range d.Bands {
		if strings.EqualFold(k, name) {
			return m, true
		}
	}
	return nil, false
}
