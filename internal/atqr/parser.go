// Package atqr decodes and encodes the asterisk-delimited payload printed as
// a QR code on Portuguese (AT) invoices.
package atqr

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"despesify/internal/domain"
	"despesify/internal/extract"
)

var (
	reTagShape = regexp.MustCompile(`^[A-Z][0-9]{0,2}$`)
	reNumeric  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// rateByCode is the percentage carried by each AT rate code.
var rateByCode = map[domain.VATRateCode]decimal.Decimal{
	domain.VATRateNormal:       decimal.NewFromInt(23),
	domain.VATRateIntermediate: decimal.NewFromInt(13),
	domain.VATRateReduced:      decimal.NewFromInt(6),
	domain.VATRateExempt:       decimal.Zero,
	domain.VATRateOther:        decimal.Zero,
}

var regionByLetter = map[byte]domain.TaxRegion{
	'I': domain.TaxRegionMainland,
	'J': domain.TaxRegionAzores,
	'K': domain.TaxRegionMadeira,
}

// taxGroup collects the sub-fields of one I/J/K tag run.
type taxGroup struct {
	letter byte
	fields map[int]string
	last   int
}

// Parse decodes an AT invoice QR payload. Issuer NIF (A), document type (D)
// and issue date (F) are mandatory; every numeric field must be a
// non-negative decimal. Totals are recomputed from the tax lines.
func Parse(payload string) (*domain.QRInvoiceRecord, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, malformed("", "empty payload")
	}

	rec := &domain.QRInvoiceRecord{}
	var groups []*taxGroup
	var cur *taxGroup

	for _, seg := range strings.Split(payload, "*") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		tag, value, ok := strings.Cut(seg, ":")
		if !ok {
			return nil, malformed(seg, "missing ':' separator")
		}
		tag = strings.ToUpper(strings.TrimSpace(tag))
		value = strings.TrimSpace(value)
		if !reTagShape.MatchString(tag) {
			return nil, malformed(tag, "unrecognised tag")
		}

		if _, isTax := regionByLetter[tag[0]]; isTax && len(tag) > 1 {
			sub := int(tag[1] - '0')
			if len(tag) != 2 || sub < 1 || sub > 8 {
				return nil, malformed(tag, "tax sub-field out of range")
			}
			if cur == nil || cur.letter != tag[0] || sub == 1 || sub <= cur.last {
				cur = &taxGroup{letter: tag[0], fields: map[int]string{}}
				groups = append(groups, cur)
			}
			cur.fields[sub] = value
			cur.last = sub
			continue
		}

		if err := assign(rec, tag, value); err != nil {
			return nil, err
		}
	}

	switch {
	case rec.IssuerNIF == "":
		return nil, malformed("A", "issuer NIF is required")
	case rec.DocumentType == "":
		return nil, malformed("D", "document type is required")
	case rec.IssueDate == "":
		return nil, malformed("F", "issue date is required")
	}

	lines, err := buildTaxLines(groups)
	if err != nil {
		return nil, err
	}
	rec.TaxLines = lines
	computeTotals(rec)
	return rec, nil
}

func assign(rec *domain.QRInvoiceRecord, tag, value string) error {
	var err error
	switch tag {
	case "A":
		rec.IssuerNIF = value
	case "B":
		rec.AcquirerNIF = value
	case "C":
		rec.AcquirerCountry = value
	case "D":
		rec.DocumentType = strings.ToUpper(value)
	case "E":
		rec.DocumentStatus = value
	case "F":
		if value == "" {
			return nil
		}
		t, perr := time.Parse("20060102", value)
		if perr != nil {
			return malformed(tag, "issue date must be a valid YYYYMMDD date")
		}
		rec.IssueDate = t.Format(extract.DateLayout)
	case "G":
		rec.DocumentNumber = value
	case "H":
		rec.ATCUD = value
	case "L":
		rec.NonTaxable, err = optionalAmount(tag, value)
	case "M":
		rec.StampDuty, err = optionalAmount(tag, value)
	case "N":
		rec.DeclaredTaxTotal, err = optionalAmount(tag, value)
	case "O":
		rec.DeclaredGrossTotal, err = optionalAmount(tag, value)
	case "P":
		rec.WithholdingVAT, err = optionalAmount(tag, value)
	case "Q":
		rec.Hash = value
	case "R":
		rec.CertificateNumber = value
	case "S":
		rec.OtherInfo = value
	}
	return err
}

func amount(tag, value string) (decimal.Decimal, error) {
	if !reNumeric.MatchString(value) {
		return decimal.Zero, malformed(tag, "not a non-negative decimal: "+value)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, malformed(tag, "not a non-negative decimal: "+value)
	}
	return d, nil
}

func optionalAmount(tag, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := amount(tag, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// groupAmount reads sub-field i of a group; a missing sub-field is zero.
func (g *taxGroup) amount(i int) (decimal.Decimal, bool, error) {
	v, ok := g.fields[i]
	if !ok || v == "" {
		return decimal.Zero, false, nil
	}
	d, err := amount(string([]byte{g.letter, byte('0' + i)}), v)
	return d, true, err
}

// official reports whether the group uses the AT bracket layout
// (2 exempt base, 3/4 reduced, 5/6 intermediate, 7/8 normal) rather than
// the compact one (2 base, 3 VAT, 4 rate code).
func (g *taxGroup) official() bool {
	for i := 5; i <= 8; i++ {
		if _, ok := g.fields[i]; ok {
			return true
		}
	}
	v, ok := g.fields[4]
	return ok && reNumeric.MatchString(v)
}

func buildTaxLines(groups []*taxGroup) ([]domain.TaxLine, error) {
	lines := make([]domain.TaxLine, 0, len(groups))
	for _, g := range groups {
		var (
			out []domain.TaxLine
			err error
		)
		if g.official() {
			out, err = officialLines(g)
		} else {
			out, err = compactLines(g)
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, out...)
	}
	return lines, nil
}

func compactLines(g *taxGroup) ([]domain.TaxLine, error) {
	base, _, err := g.amount(2)
	if err != nil {
		return nil, err
	}
	vat, _, err := g.amount(3)
	if err != nil {
		return nil, err
	}
	line := domain.TaxLine{
		Region:      regionByLetter[g.letter],
		Country:     g.fields[1],
		TaxableBase: base,
		VATAmount:   vat,
		VATRateCode: domain.VATRateCode(strings.ToUpper(g.fields[4])),
	}
	if pct, ok := rateByCode[line.VATRateCode]; ok {
		line.VATRatePercentage = pct
	} else if base.IsPositive() {
		line.VATRatePercentage = extract.StandardVATRate(vat.Div(base).Mul(decimal.NewFromInt(100)))
		if line.VATRateCode == "" {
			line.VATRateCode = codeForRate(line.VATRatePercentage)
		}
	}
	return []domain.TaxLine{line}, nil
}

func officialLines(g *taxGroup) ([]domain.TaxLine, error) {
	brackets := []struct {
		code     domain.VATRateCode
		base     int
		vat      int
		hasValue bool
	}{
		{domain.VATRateExempt, 2, 0, false},
		{domain.VATRateReduced, 3, 4, true},
		{domain.VATRateIntermediate, 5, 6, true},
		{domain.VATRateNormal, 7, 8, true},
	}

	var out []domain.TaxLine
	for _, b := range brackets {
		base, present, err := g.amount(b.base)
		if err != nil {
			return nil, err
		}
		vat := decimal.Zero
		if b.hasValue {
			v, vatPresent, verr := g.amount(b.vat)
			if verr != nil {
				return nil, verr
			}
			vat = v
			present = present || vatPresent
		}
		if !present {
			continue
		}
		out = append(out, domain.TaxLine{
			Region:            regionByLetter[g.letter],
			Country:           g.fields[1],
			TaxableBase:       base,
			VATAmount:         vat,
			VATRateCode:       b.code,
			VATRatePercentage: rateByCode[b.code],
		})
	}
	return out, nil
}

func codeForRate(pct decimal.Decimal) domain.VATRateCode {
	for _, code := range []domain.VATRateCode{domain.VATRateNormal, domain.VATRateIntermediate, domain.VATRateReduced} {
		if rateByCode[code].Equal(pct) {
			return code
		}
	}
	return ""
}

func computeTotals(rec *domain.QRInvoiceRecord) {
	base, vat := decimal.Zero, decimal.Zero
	for _, l := range rec.TaxLines {
		base = base.Add(l.TaxableBase)
		vat = vat.Add(l.VATAmount)
	}
	rec.TaxableBaseTotal = base
	rec.VATAmountTotal = vat
	rec.GrandTotal = base.Add(vat)
}

// DeclaredTotalWarnings compares the optional declared totals (N, O) with
// the recomputed ones and describes any mismatch.
func DeclaredTotalWarnings(rec *domain.QRInvoiceRecord) []string {
	var warnings []string
	if rec.DeclaredTaxTotal != nil && !rec.DeclaredTaxTotal.Equal(rec.VATAmountTotal) {
		warnings = append(warnings, "declared tax total "+rec.DeclaredTaxTotal.StringFixed(2)+
			" differs from computed "+rec.VATAmountTotal.StringFixed(2))
	}
	if rec.DeclaredGrossTotal != nil && !rec.DeclaredGrossTotal.Equal(rec.GrandTotal) {
		warnings = append(warnings, "declared gross total "+rec.DeclaredGrossTotal.StringFixed(2)+
			" differs from computed "+rec.GrandTotal.StringFixed(2))
	}
	return warnings
}

// documentTypeLabels names the common AT document types.
var documentTypeLabels = map[string]string{
	"FT": "Fatura",
	"FS": "Fatura simplificada",
	"FR": "Fatura-recibo",
	"NC": "Nota de crédito",
	"ND": "Nota de débito",
	"RC": "Recibo",
}

// DocumentTypeLabel returns a human label for a document type code,
// defaulting to "Fatura".
func DocumentTypeLabel(code string) string {
	if l, ok := documentTypeLabels[strings.ToUpper(code)]; ok {
		return l
	}
	return "Fatura"
}
