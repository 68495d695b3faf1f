package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finsight/pkg/models"
)

func TestCurrency(t *testing.T) {
	tests := map[float64]string{
		1234567:   "$1,234,567",
		-12000:    "-$12,000",
		0:         "$0",
		999.6:     "$1,000",
		-0.4:      "$0",
		180000.49: "$180,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, Currency(in), "Currency(%v)", in)
	}
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "$1.2M", Compact(1234567))
	assert.Equal(t, "$350K", Compact(350000))
	assert.Equal(t, "$2M", Compact(2000000))
	assert.Equal(t, "-$45K", Compact(-45000))
	assert.Equal(t, "$950", Compact(950))
	assert.Equal(t, "$3.5B", Compact(3.5e9))
}

func TestValueFormats(t *testing.T) {
	assert.Equal(t, "42.3%", Value(42.26, models.FormatPercentage))
	assert.Equal(t, "1.85x", Value(1.849, models.FormatMultiplier))
	assert.Equal(t, "47 days", Value(46.7, models.FormatDays))
	assert.Equal(t, "1 day", Days(1.2))
	assert.Equal(t, "$1,000", Value(1000, models.FormatCurrency))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, NA, Ratio(models.NotComputable("no inventory"), models.FormatDays))
	assert.Equal(t, "2.00x", Ratio(models.Computed(2), models.FormatMultiplier))
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "+25.0%", Signed(25, models.FormatPercentage))
	assert.Equal(t, "-3.0%", Signed(-3, models.FormatPercentage))
}
