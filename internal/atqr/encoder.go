package atqr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"despesify/internal/domain"
)

// DefaultPNGSize is the side, in pixels, of rendered QR images.
const DefaultPNGSize = 300

var letterByRegion = map[domain.TaxRegion]string{
	domain.TaxRegionMainland: "I",
	domain.TaxRegionAzores:   "J",
	domain.TaxRegionMadeira:  "K",
}

// Encode writes rec back as a payload using the compact tax-line layout
// (country, base, VAT, rate code per line). N and O carry the computed totals.
func Encode(rec *domain.QRInvoiceRecord) string {
	var fields []string
	add := func(tag, value string) {
		if value != "" {
			fields = append(fields, tag+":"+value)
		}
	}
	addAmount := func(tag string, d *decimal.Decimal) {
		if d != nil {
			add(tag, d.StringFixed(2))
		}
	}

	add("A", rec.IssuerNIF)
	add("B", rec.AcquirerNIF)
	add("C", rec.AcquirerCountry)
	add("D", rec.DocumentType)
	add("E", rec.DocumentStatus)
	add("F", strings.ReplaceAll(rec.IssueDate, "-", ""))
	add("G", rec.DocumentNumber)
	add("H", rec.ATCUD)
	for _, l := range rec.TaxLines {
		letter, ok := letterByRegion[l.Region]
		if !ok {
			letter = "I"
		}
		country := l.Country
		if country == "" {
			country = string(l.Region)
		}
		add(letter+"1", country)
		add(letter+"2", l.TaxableBase.StringFixed(2))
		add(letter+"3", l.VATAmount.StringFixed(2))
		add(letter+"4", string(l.VATRateCode))
	}
	addAmount("L", rec.NonTaxable)
	addAmount("M", rec.StampDuty)
	if len(rec.TaxLines) > 0 {
		add("N", rec.VATAmountTotal.StringFixed(2))
		add("O", rec.GrandTotal.StringFixed(2))
	}
	addAmount("P", rec.WithholdingVAT)
	add("Q", rec.Hash)
	add("R", rec.CertificateNumber)
	add("S", rec.OtherInfo)
	return strings.Join(fields, "*")
}

// RenderPNG draws payload as a QR code PNG with medium error correction.
func RenderPNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultPNGSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("atqr.RenderPNG: %w", err)
	}
	return png, nil
}
