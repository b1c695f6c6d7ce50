// Package extract recovers typed invoice fields from free OCR text using
// ordered pattern cascades.
package extract

import (
	"time"

	"despesify/internal/domain"
)

// DateLayout is the ISO calendar date layout used across the extractor.
const DateLayout = "2006-01-02"

// FromText runs every field cascade over text. Missing fields are left
// empty; when no date is found the date of now is used and DateDefaulted
// is set.
func FromText(text string, now time.Time) domain.ExtractedInvoiceFields {
	clean := NormalizeText(text)
	out := domain.ExtractedInvoiceFields{RawText: clean}

	if clean != "" {
		if v, _, ok := AmountCascade.Run(clean); ok {
			out.Amount = &v
		}
		if v, _, ok := VATCascade.Run(clean); ok {
			out.VATRate = &v
		}
		if v, _, ok := DateCascade.Run(clean); ok {
			out.Date = v
		}
		out.Merchant, _, _ = MerchantCascade.Run(clean)
		out.Description, _, _ = DescriptionCascade.Run(clean)
	}

	if out.Date == "" {
		out.Date = now.Format(DateLayout)
		out.DateDefaulted = true
	}
	return out
}
