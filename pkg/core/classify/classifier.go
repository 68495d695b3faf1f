// Package classify assigns raw statement rows to canonical account buckets.
package classify

import (
	"math"
	"strings"

	"finsight/pkg/models"
)

// Classifier walks statement rows in source order, tracking which statement
// and subsection each row sits in.
type Classifier struct {
	rules RuleSet
}

func New(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

func NewDefault() *Classifier {
	return New(DefaultRules())
}

// closes lists the subsection an explicit total ends.
var closes = map[models.Bucket]models.Subsection{
	models.BucketRevenue:               models.SubsectionRevenue,
	models.BucketCOGS:                  models.SubsectionCostOfSales,
	models.BucketOperatingExpenses:     models.SubsectionExpenses,
	models.BucketCurrentAssets:         models.SubsectionCurrentAssets,
	models.BucketNonCurrentAssets:      models.SubsectionNonCurrentAssets,
	models.BucketCurrentLiabilities:    models.SubsectionCurrentLiabilities,
	models.BucketNonCurrentLiabilities: models.SubsectionNonCurrentLiabilities,
	models.BucketEquity:                models.SubsectionEquity,
}

// Classify assigns a single row. The row's hint is its section and sub is the
// subsection it appears under, if known.
func (c *Classifier) Classify(line models.RawLine, sub models.Subsection) models.ClassifiedLine {
	out := models.ClassifiedLine{
		RawLine:    line,
		Section:    line.Hint,
		Subsection: sub,
		Bucket:     models.BucketUnclassified,
		Kind:       models.KindUnclassified,
	}
	label := NormalizeLabel(line.Label)
	if !line.HasValues() {
		out.Kind = models.KindHeader
		return out
	}
	if label == "" {
		return out
	}
	if line.Percent {
		out.Kind, out.Rule = models.KindRatio, "percentage"
		return out
	}

	for _, r := range c.rules.Subtotals {
		if r.applies(label, line.Hint, sub) {
			out.Bucket, out.Kind, out.Rule = r.Bucket, models.KindExplicitSubtotal, r.Name
			return out
		}
	}
	// Totals nobody recognises are never summed as line items.
	if strings.HasPrefix(label, "total ") || strings.HasPrefix(label, "subtotal") || strings.HasPrefix(label, "sub-total") {
		out.Rule = "unrecognised total"
		return out
	}
	for _, r := range c.rules.LineItems {
		if r.applies(label, line.Hint, sub) {
			out.Bucket, out.Kind, out.Rule = r.Bucket, models.KindLineItem, r.Name
			return out
		}
	}
	if b, ok := c.rules.Defaults[sub]; ok && sub != models.SubsectionNone {
		out.Bucket, out.Kind, out.Rule = b, models.KindLineItem, "under "+string(sub)
	}
	return out
}

// ClassifyAll classifies rows in order. Rows without a section hint inherit
// the statement named by the most recent title row, and header rows with no
// values open subsections such as "Current Assets".
func (c *Classifier) ClassifyAll(lines []models.RawLine) []models.ClassifiedLine {
	out := make([]models.ClassifiedLine, 0, len(lines))
	section := models.SectionUnknown
	sub := models.SubsectionNone
	var revenue float64 // largest revenue figure seen so far

	for _, line := range lines {
		if line.Hint != models.SectionUnknown && line.Hint != section {
			section, sub = line.Hint, models.SubsectionNone
		}
		line.Hint = section
		label := NormalizeLabel(line.Label)

		if !line.HasValues() {
			if m, ok := c.marker(c.rules.Statements, label, section); ok {
				section, sub = m.Section, models.SubsectionNone
			} else if m, ok := c.marker(c.rules.Subsections, label, section); ok {
				if section == models.SectionUnknown {
					section = m.Section
				}
				sub = m.Subsection
			}
			line.Hint = section
			out = append(out, c.Classify(line, sub))
			continue
		}

		cl := c.Classify(line, sub)
		if cl.Bucket == models.BucketRevenue {
			revenue = math.Max(revenue, largest(line))
		}
		if cl.Bucket == models.BucketGrossProfit && strings.Contains(label, "margin") &&
			revenue > 100 && largest(line) <= 100 {
			// "Gross margin 42.5" beside six figure sales is a percentage.
			cl.Bucket, cl.Kind, cl.Rule = models.BucketUnclassified, models.KindRatio, "margin percentage"
		}
		if cl.Kind == models.KindExplicitSubtotal {
			if section == models.SectionUnknown {
				if r := c.subtotalRule(cl.Rule); len(r.Sections) > 0 {
					section = r.Sections[0]
					cl.Section = section
				}
			}
			if closes[cl.Bucket] == sub {
				sub = models.SubsectionNone
			}
		} else if cl.Rule == "unrecognised total" {
			sub = models.SubsectionNone
		}
		out = append(out, cl)
	}
	return out
}

func largest(line models.RawLine) float64 {
	var m float64
	for _, v := range line.Values {
		if v != nil {
			m = math.Max(m, math.Abs(*v))
		}
	}
	return m
}

func (c *Classifier) marker(markers []Marker, label string, section models.Section) (Marker, bool) {
	for _, m := range markers {
		if m.Subsection != models.SubsectionNone && section != models.SectionUnknown && m.Section != section {
			continue
		}
		if m.applies(label) {
			return m, true
		}
	}
	return Marker{}, false
}

func (c *Classifier) subtotalRule(name string) Rule {
	for _, r := range c.rules.Subtotals {
		if r.Name == name {
			return r
		}
	}
	return Rule{}
}
