package parser

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{".75", "0.75"},
		{"14.", "14.00"},
		{"6,250.00", "6250.00"},
		{"12", "12.00"},
		{"0.5", "0.50"},
		{"$1,347.42", "1347.42"},
		{"007.10", "7.10"},
		{"1,000,000.01", "1000000.01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAmountRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "abc", "1.234", "1.2.3", "-5.00"} {
		t.Run(input, func(t *testing.T) {
			_, err := NormalizeAmount(input)
			assert.Error(t, err)
		})
	}
}

func TestAmountPatternMatchesNormalise(t *testing.T) {
	twoDecimals := regexp.MustCompile(`^\d+\.\d{2}$`)
	text := "38.87 .75 14. 6,250.00 1234.56 0.01 999,999.99"

	matches := PNCCatalog().Amount.FindAllString(text, -1)
	require.Len(t, matches, 7)
	for _, m := range matches {
		n, err := NormalizeAmount(m)
		require.NoError(t, err, m)
		assert.Regexp(t, twoDecimals, n)

		d, err := ParseAmount(m)
		require.NoError(t, err)
		assert.False(t, d.IsNegative(), m)
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("6,250.00")
	require.NoError(t, err)
	assert.Equal(t, "6250", d.String())
	assert.Equal(t, "6250.00", d.StringFixed(2))

	_, err = ParseAmount("n/a")
	assert.Error(t, err)
}
