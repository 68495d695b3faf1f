// Package format renders engine numbers for people: currency with thousands
// separators, percentages, multiples and day counts.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"finsight/pkg/models"
)

// NA is shown for not-computable values.
const NA = "N/A"

var printer = message.NewPrinter(language.English)

// Currency renders whole dollars with separators: "$1,234,567", "-$12,000".
func Currency(v float64) string {
	r := math.Round(v)
	if r == 0 {
		return "$0"
	}
	if r < 0 {
		return "-$" + printer.Sprintf("%.0f", -r)
	}
	return "$" + printer.Sprintf("%.0f", r)
}

// Compact renders large amounts briefly: "$1.2M", "$350K", "$950".
func Compact(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return sign + "$" + trimZero(fmt.Sprintf("%.1f", v/1e9)) + "B"
	case v >= 1e6:
		return sign + "$" + trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return sign + "$" + fmt.Sprintf("%.0f", v/1e3) + "K"
	default:
		return sign + "$" + fmt.Sprintf("%.0f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// Percent renders one decimal place: "42.3%".
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Multiple renders two decimal places: "1.85x".
func Multiple(v float64) string {
	return fmt.Sprintf("%.2fx", v)
}

// Days renders a whole number of days: "47 days".
func Days(v float64) string {
	d := math.Round(v)
	if d == 1 || d == -1 {
		return fmt.Sprintf("%.0f day", d)
	}
	return fmt.Sprintf("%.0f days", d)
}

// Value renders v in the given format.
func Value(v float64, f models.ValueFormat) string {
	switch f {
	case models.FormatCurrency:
		return Currency(v)
	case models.FormatPercentage:
		return Percent(v)
	case models.FormatMultiplier:
		return Multiple(v)
	case models.FormatDays:
		return Days(v)
	default:
		return printer.Sprintf("%.2f", v)
	}
}

// Ratio renders a possibly not-computable metric value.
func Ratio(r models.Ratio, f models.ValueFormat) string {
	if !r.Computable {
		return NA
	}
	return Value(r.Value, f)
}

// Signed prefixes positive values with "+", for growth and variance columns.
func Signed(v float64, f models.ValueFormat) string {
	s := Value(v, f)
	if v > 0 {
		return "+" + s
	}
	return s
}
