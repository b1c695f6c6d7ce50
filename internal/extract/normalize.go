package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	minAmount    = decimal.RequireFromString("0.01")
	maxAmount    = decimal.NewFromInt(100000)
	maxVATRate   = decimal.NewFromInt(100)
	snapDistance = decimal.RequireFromString("0.5")

	// StandardVATRates are the Portuguese mainland VAT brackets.
	StandardVATRates = []decimal.Decimal{
		decimal.NewFromInt(6),
		decimal.NewFromInt(13),
		decimal.NewFromInt(23),
	}
)

// ParseLocaleNumber parses a number written with comma or dot decimals.
// When both separators are present the rightmost one is the decimal mark;
// a separator repeated more than once is treated as a thousands mark.
func ParseLocaleNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	default:
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NormalizeAmount parses a monetary figure and keeps it only when it lies
// strictly between 0.01 and 100000. The result has two decimal places.
func NormalizeAmount(raw string) (decimal.Decimal, bool) {
	d, ok := ParseLocaleNumber(raw)
	if !ok {
		return decimal.Zero, false
	}
	d = d.Round(2)
	if !d.GreaterThan(minAmount) || !d.LessThan(maxAmount) {
		return decimal.Zero, false
	}
	return d, true
}

// NormalizeVATRate parses a percentage and keeps it only inside (0, 100).
// Values within half a point of a standard rate are snapped to it.
func NormalizeVATRate(raw string) (decimal.Decimal, bool) {
	d, ok := ParseLocaleNumber(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if !ok {
		return decimal.Zero, false
	}
	if !d.IsPositive() || !d.LessThan(maxVATRate) {
		return decimal.Zero, false
	}
	for _, std := range StandardVATRates {
		if d.Sub(std).Abs().LessThanOrEqual(snapDistance) {
			return std, true
		}
	}
	return d, true
}

// StandardVATRate maps a derived percentage onto the bracket it most likely
// belongs to. Non-positive input maps to zero.
func StandardVATRate(pct decimal.Decimal) decimal.Decimal {
	switch {
	case pct.GreaterThan(decimal.NewFromInt(20)):
		return StandardVATRates[2]
	case pct.GreaterThan(decimal.NewFromInt(10)):
		return StandardVATRates[1]
	case pct.IsPositive():
		return StandardVATRates[0]
	default:
		return decimal.Zero
	}
}

// NormalizeDate assembles an ISO date from three captured groups. The order
// is YMD when the first group has four digits and DMY otherwise; a two digit
// year in DMY order is read as 20YY. Impossible calendar dates are rejected.
func NormalizeDate(parts [3]string) (string, bool) {
	var y, m, d string
	if len(parts[0]) == 4 {
		y, m, d = parts[0], parts[1], parts[2]
	} else {
		d, m, y = parts[0], parts[1], parts[2]
	}
	if len(y) == 2 {
		y = "20" + y
	}
	if len(y) != 4 {
		return "", false
	}

	year, err := strconv.Atoi(y)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day, err := strconv.Atoi(d)
	if err != nil || day < 1 {
		return "", false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
