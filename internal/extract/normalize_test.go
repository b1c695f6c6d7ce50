package extract_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"despesify/internal/extract"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"12,34", "12.34", true},
		{"12.34", "12.34", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"7,5", "7.50", true},
		{"0.00", "", false},
		{"0,01", "", false},
		{"999999.99", "", false},
		{"1.234.567,89", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := extract.NormalizeAmount(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.StringFixed(2))
			}
		})
	}
}

func TestNormalizeVATRate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"23", "23", true},
		{"23%", "23", true},
		{"22,8", "23", true},
		{"13.0", "13", true},
		{"6", "6", true},
		{"8", "8", true},
		{"150", "", false},
		{"100", "", false},
		{"0", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := extract.NormalizeVATRate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		parts [3]string
		want  string
		ok    bool
	}{
		{"dmy", [3]string{"15", "03", "2024"}, "2024-03-15", true},
		{"ymd unpadded", [3]string{"2024", "3", "5"}, "2024-03-05", true},
		{"two digit year", [3]string{"12", "06", "24"}, "2024-06-12", true},
		{"leap day", [3]string{"29", "02", "2024"}, "2024-02-29", true},
		{"impossible day", [3]string{"31", "02", "2024"}, "", false},
		{"month out of range", [3]string{"01", "13", "2024"}, "", false},
		{"day zero", [3]string{"0", "01", "2024"}, "", false},
		{"three digit year", [3]string{"01", "01", "202"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extract.NormalizeDate(tt.parts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandardVATRate(t *testing.T) {
	assert.Equal(t, "23", extract.StandardVATRate(decimal.RequireFromString("22.97")).String())
	assert.Equal(t, "13", extract.StandardVATRate(decimal.RequireFromString("13.04")).String())
	assert.Equal(t, "6", extract.StandardVATRate(decimal.RequireFromString("5.9")).String())
	assert.True(t, extract.StandardVATRate(decimal.Zero).IsZero())
}

func TestParseLocaleNumber_ThousandsOnly(t *testing.T) {
	got, ok := extract.ParseLocaleNumber("1.234.567")
	assert.True(t, ok)
	assert.Equal(t, "1234567", got.String())
}
