// Package amount parses the numeric cells found in exported financial
// statements: thousands separators, currency symbols, bracketed negatives,
// dash placeholders and scale captions such as "$'000".
package amount

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the unit a column's figures are expressed in.
type Scale int

const (
	ScaleUnits     Scale = 1
	ScaleThousands Scale = 1000
	ScaleMillions  Scale = 1000000
)

var (
	cleanPattern   = regexp.MustCompile(`[^0-9.\-]`)
	noteRefPattern = regexp.MustCompile(`^(?i)\d{1,2}[a-z]?$`)
	// "$", "A$", "AUD " and similar in front of the figure, as Excel
	// currency and accounting formats render them.
	currencyPrefix = regexp.MustCompile(`^(?i)(?:(?:aud|nzd|usd|gbp|nz|us|a)?\s*[$£€]|(?:aud|nzd|usd|gbp)\b)\s*`)
	blankMarkers   = map[string]bool{
		"": true, "-": true, "—": true, "–": true, "n/a": true, "na": true, "nil": true, "--": true,
	}
)

// Parse converts a raw cell to a number. ok is false for blanks and text.
func Parse(raw string) (float64, bool) {
	d, ok := ParseDecimal(raw)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// IsPercent reports whether raw is a figure written with a trailing % sign.
func IsPercent(raw string) bool {
	s := strings.TrimSpace(raw)
	if !strings.HasSuffix(s, "%") {
		return false
	}
	_, ok := Parse(s)
	return ok
}

// ParseDecimal is Parse without the float conversion.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if blankMarkers[strings.ToLower(s)] {
		return decimal.Zero, false
	}

	s = currencyPrefix.ReplaceAllString(s, "")
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	// Trailing minus ("1,200-") and credit suffix ("1,200 CR") both mean negative.
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "CR") {
		negative = !negative
		s = strings.TrimSpace(s[:len(s)-2])
	} else if strings.HasSuffix(s, "-") && len(s) > 1 {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") && !currencyOnlyLetters(s) {
		return decimal.Zero, false
	}

	cleaned := cleanPattern.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "." || cleaned == "-" {
		return decimal.Zero, false
	}
	// A leading minus is kept by the decimal parser; any other dash is noise.
	if strings.LastIndex(cleaned, "-") > 0 {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// currencyOnlyLetters allows currency codes like "AUD 1,200" or "A$1,200".
func currencyOnlyLetters(s string) bool {
	letters := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, s)
	switch strings.ToUpper(letters) {
	case "A", "AUD", "NZD", "NZ", "USD", "US", "GBP":
		return true
	}
	return false
}

// IsNoteReference reports whether a cell looks like a note index: an integer
// between 1 and 50, or a short token such as "3a".
func IsNoteReference(raw string) bool {
	s := strings.TrimSpace(raw)
	if !noteRefPattern.MatchString(s) {
		return false
	}
	digits := strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	n, err := decimal.NewFromString(digits)
	if err != nil {
		return false
	}
	return n.GreaterThanOrEqual(decimal.NewFromInt(1)) && n.LessThanOrEqual(decimal.NewFromInt(50))
}

// DetectScale reads a header or caption for a unit hint.
func DetectScale(text string) Scale {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "million"), strings.Contains(lower, "$m"), strings.Contains(lower, "'m"):
		return ScaleMillions
	case strings.Contains(lower, "thousand"), strings.Contains(lower, "'000"), strings.Contains(lower, "000s"), strings.Contains(lower, "$k"):
		return ScaleThousands
	}
	return ScaleUnits
}

// Apply multiplies v by the scale without float rounding drift.
func (s Scale) Apply(v float64) float64 {
	if s == ScaleUnits || s == 0 {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Mul(decimal.NewFromInt(int64(s))).Float64()
	return f
}
