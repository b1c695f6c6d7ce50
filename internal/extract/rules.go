package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// num captures a figure with one or two decimals, optionally grouped in
// thousands ("1.234,56", "1,234.56", "12,34").
const num = `(\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{1,2})\b`

var (
	reAmountLabeled  = regexp.MustCompile(`(?i)\b(?:total(?:\s+a\s+pagar)?|montante|amount|valor\s+total|a\s+pagar)[:\s=]*(?:€|eur\b)?\s?` + num)
	reAmountEURPre   = regexp.MustCompile(`€\s?` + num)
	reAmountEURPost  = regexp.MustCompile(num + `\s?(?:€|(?i:eur)\b)`)
	reAmountUSDPre   = regexp.MustCompile(`\$\s?` + num)
	reAmountUSDPost  = regexp.MustCompile(num + `\s?\$`)
	reAmountSubtotal = regexp.MustCompile(`(?i)\bsub-?total[^\d\n]*` + num)
	reAmountNearby   = regexp.MustCompile(`(?i)(\d+[.,]\d{2})\b[^\d]{0,40}?(?:€|\$|\btotal\b|\bamount\b|\bvalor\b)`)

	reVATLabelBefore = regexp.MustCompile(`(?i)\b(?:IVA|TVA|VAT|TAXA?)\b[:\s=(]*(\d+(?:[.,]\d{1,2})?)\s?%`)
	reVATLabelAfter  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d{1,2})?)\s?%\s*(?:de\s+)?(?:IVA|TVA|VAT|TAX)\b`)
	reVATStandard    = regexp.MustCompile(`\b(6|13|23)(?:[.,]0{1,2})?\s?%`)

	reDateDMY      = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})\b`)
	reDateYMD      = regexp.MustCompile(`\b(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})\b`)
	reDateMonth    = regexp.MustCompile(`\b(\d{1,2})\s*(?:de\s+)?(janeiro|fevereiro|marco|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro|jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez)\.?\s*(?:de\s+)?(\d{4})\b`)
	reDateLabelled = regexp.MustCompile(`(?i)\b(?:data|date)\b[^:\n\d]{0,20}:?\s*(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})\b`)

	reMerchantLabel = regexp.MustCompile(`(?i)\b(?:merchant|store|shop|empresa|loja)\b`)
)

// ptMonths maps folded Portuguese month names and abbreviations to their number.
var ptMonths = map[string]int{
	"janeiro": 1, "fevereiro": 2, "marco": 3, "abril": 4, "maio": 5, "junho": 6,
	"julho": 7, "agosto": 8, "setembro": 9, "outubro": 10, "novembro": 11, "dezembro": 12,
	"jan": 1, "fev": 2, "mar": 3, "abr": 4, "mai": 5, "jun": 6,
	"jul": 7, "ago": 8, "set": 9, "out": 10, "nov": 11, "dez": 12,
}

func acceptAmount(m []string) (decimal.Decimal, bool) {
	return NormalizeAmount(m[1])
}

func acceptVAT(m []string) (decimal.Decimal, bool) {
	return NormalizeVATRate(m[1])
}

func acceptDate(m []string) (string, bool) {
	return NormalizeDate([3]string{m[1], m[2], m[3]})
}

func acceptLine(m []string) (string, bool) {
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

// AmountCascade finds the invoice total.
var AmountCascade = Cascade[decimal.Decimal]{
	{Name: "labeled-total", Match: Pattern(reAmountLabeled), Accept: acceptAmount},
	{Name: "euro-prefix", Match: Pattern(reAmountEURPre), Accept: acceptAmount},
	{Name: "euro-suffix", Match: Pattern(reAmountEURPost), Accept: acceptAmount},
	{Name: "dollar-prefix", Match: Pattern(reAmountUSDPre), Accept: acceptAmount},
	{Name: "dollar-suffix", Match: Pattern(reAmountUSDPost), Accept: acceptAmount},
	{Name: "subtotal", Match: Pattern(reAmountSubtotal), Accept: acceptAmount},
	{Name: "keyword-nearby", Match: Pattern(reAmountNearby), Accept: acceptAmount},
}

// VATCascade finds the VAT percentage.
var VATCascade = Cascade[decimal.Decimal]{
	{Name: "label-before", Match: Pattern(reVATLabelBefore), Accept: acceptVAT},
	{Name: "label-after", Match: Pattern(reVATLabelAfter), Accept: acceptVAT},
	{Name: "standard-rate", Match: Pattern(reVATStandard), Accept: acceptVAT},
}

// DateCascade finds the issue date as YYYY-MM-DD.
var DateCascade = Cascade[string]{
	{Name: "dmy", Match: Pattern(reDateDMY), Accept: acceptDate},
	{Name: "ymd", Match: Pattern(reDateYMD), Accept: acceptDate},
	{Name: "month-name", Match: matchMonthName, Accept: acceptDate},
	{Name: "labeled-dmy", Match: Pattern(reDateLabelled), Accept: acceptDate},
}

// MerchantCascade finds the store or company name.
var MerchantCascade = Cascade[string]{
	{Name: "label", Match: matchMerchantLabel, Accept: acceptLine},
	{Name: "uppercase", Match: matchUppercaseLine, Accept: acceptLine},
	{Name: "first-line", Match: matchFirstLine, Accept: acceptLine},
}

// DescriptionCascade picks the first meaningful line.
var DescriptionCascade = Cascade[string]{
	{Name: "first-line", Match: matchFirstLine, Accept: acceptLine},
}

// matchMonthName matches "15 de março de 2024" style dates against the
// accent-folded text and rewrites the month name as its number.
func matchMonthName(text string) []string {
	m := reDateMonth.FindStringSubmatch(Fold(text))
	if m == nil {
		return nil
	}
	m[2] = strconv.Itoa(ptMonths[m[2]])
	return m
}

// merchantLines are the lines long enough to name a merchant.
func merchantLines(text string) []string {
	var out []string
	for _, l := range Lines(text) {
		if utf8.RuneCountInString(l) > 3 {
			out = append(out, l)
		}
	}
	return out
}

// matchMerchantLabel takes the value after a merchant label, else the line
// below it, else the label line itself when it is the last one.
func matchMerchantLabel(text string) []string {
	lines := merchantLines(text)
	for i, line := range lines {
		loc := reMerchantLabel.FindStringIndex(line)
		if loc == nil {
			continue
		}
		rest := strings.TrimSpace(line[loc[1]:])
		if after, ok := strings.CutPrefix(rest, ":"); ok && strings.TrimSpace(after) != "" {
			return []string{line, strings.TrimSpace(after)}
		}
		if i+1 < len(lines) {
			return []string{line, lines[i+1]}
		}
		return []string{line, line}
	}
	return nil
}

func matchUppercaseLine(text string) []string {
	for _, line := range merchantLines(text) {
		n := utf8.RuneCountInString(line)
		if n < 4 || n >= 80 {
			continue
		}
		if ratio, letters := upperRatio(line); letters > 0 && ratio >= 0.7 {
			return []string{line, line}
		}
	}
	return nil
}

func matchFirstLine(text string) []string {
	lines := Lines(text)
	if len(lines) == 0 {
		return nil
	}
	return []string{lines[0], lines[0]}
}
