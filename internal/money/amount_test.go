package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Amount
	}{
		{"whole euros", "10", 1000},
		{"one decimal place", "10.5", 1050},
		{"two decimal places", "10.50", 1050},
		{"comma separator", "10,50", 1050},
		{"zero", "0", 0},
		{"cents only", ".50", 50},
		{"negative", "-3.25", -325},
		{"surrounding spaces", " 25.00 ", 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmountRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces only", "   "},
		{"three decimal places", "10.005"},
		{"letters", "ten"},
		{"two separators", "1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAmount(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "10.50", Amount(1050).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "0.00", Amount(0).String())
	assert.Equal(t, "-3.25", Amount(-325).String())
	assert.Equal(t, "1234.00", Amount(123400).String())
}

func TestAmountSumsExactly(t *testing.T) {
	// 0.10 + 0.20 must equal 0.30 exactly; this is the reason amounts are
	// integer cents.
	sum := MustParseAmount("0.10") + MustParseAmount("0.20")
	assert.Equal(t, MustParseAmount("0.30"), sum)
}

func TestIsPositive(t *testing.T) {
	assert.True(t, Amount(1).IsPositive())
	assert.False(t, Amount(0).IsPositive())
	assert.False(t, Amount(-1).IsPositive())
}
