package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractedInvoiceFields is the typed result of running the field cascades
// over OCR text. Numeric fields are nil or inside their validated range.
type ExtractedInvoiceFields struct {
	Amount        *decimal.Decimal
	Date          string
	DateDefaulted bool
	VATRate       *decimal.Decimal
	Description   string
	Merchant      string
	RawText       string
}

// OCRData is the caller-facing rendering of ExtractedInvoiceFields.
// Absent values are empty strings.
type OCRData struct {
	RawText       string `json:"raw_text"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	VAT           string `json:"vat"`
	Merchant      string `json:"merchant"`
	DateDefaulted bool   `json:"date_defaulted"`
}

// Response renders the fields for the API layer.
func (f ExtractedInvoiceFields) Response() OCRData {
	out := OCRData{
		RawText:       f.RawText,
		Description:   f.Description,
		Date:          f.Date,
		Merchant:      f.Merchant,
		DateDefaulted: f.DateDefaulted,
	}
	if f.Amount != nil {
		out.Amount = f.Amount.StringFixed(2)
	}
	if f.VATRate != nil {
		out.VAT = f.VATRate.String()
	}
	return out
}

// TaxLine is one VAT bracket of an AT invoice QR payload.
type TaxLine struct {
	Region            TaxRegion       `json:"region"`
	Country           string          `json:"country"`
	TaxableBase       decimal.Decimal `json:"taxable_base"`
	VATAmount         decimal.Decimal `json:"vat_amount"`
	VATRateCode       VATRateCode     `json:"vat_rate_code"`
	VATRatePercentage decimal.Decimal `json:"vat_rate_percentage"`
}

// QRInvoiceRecord is the structured decode of an AT invoice QR payload.
// Totals are always recomputed from TaxLines; the declared N and O figures
// are kept only for comparison.
type QRInvoiceRecord struct {
	IssuerNIF          string           `json:"issuer_nif"`
	AcquirerNIF        string           `json:"acquirer_nif"`
	AcquirerCountry    string           `json:"acquirer_country"`
	DocumentType       string           `json:"document_type"`
	DocumentStatus     string           `json:"document_status"`
	IssueDate          string           `json:"issue_date"`
	DocumentNumber     string           `json:"document_number"`
	ATCUD              string           `json:"atcud"`
	TaxLines           []TaxLine        `json:"tax_lines"`
	NonTaxable         *decimal.Decimal `json:"non_taxable,omitempty"`
	StampDuty          *decimal.Decimal `json:"stamp_duty,omitempty"`
	DeclaredTaxTotal   *decimal.Decimal `json:"declared_tax_total,omitempty"`
	DeclaredGrossTotal *decimal.Decimal `json:"declared_gross_total,omitempty"`
	WithholdingVAT     *decimal.Decimal `json:"withholding_vat,omitempty"`
	Hash               string           `json:"hash,omitempty"`
	CertificateNumber  string           `json:"certificate_number,omitempty"`
	OtherInfo          string           `json:"other_info,omitempty"`
	TaxableBaseTotal   decimal.Decimal  `json:"taxable_base_total"`
	VATAmountTotal     decimal.Decimal  `json:"vat_amount_total"`
	GrandTotal         decimal.Decimal  `json:"grand_total"`
}

// NIFCacheEntry is a persisted NIF → company name association.
// CompanyName is always stored cleaned.
type NIFCacheEntry struct {
	NIF         string    `db:"nif" json:"nif"`
	CompanyName string    `db:"company_name" json:"company_name"`
	CategoryID  *int64    `db:"category_id" json:"category_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NIFResolution is the outcome of resolving a NIF to a company.
type NIFResolution struct {
	NIF         string `json:"nif"`
	CompanyName string `json:"company_name"`
	CategoryID  *int64 `json:"category_id"`
	Source      string `json:"source"`
}

// ExpenseDraft is the form-shaped expense handed to the CRUD layer.
type ExpenseDraft struct {
	Description      string           `json:"description"`
	Merchant         string           `json:"merchant"`
	Amount           *decimal.Decimal `json:"amount"`
	TaxableBase      *decimal.Decimal `json:"taxable_base,omitempty"`
	VATAmount        *decimal.Decimal `json:"vat_amount,omitempty"`
	VATPercentage    *decimal.Decimal `json:"vat_percentage"`
	Date             string           `json:"date"`
	CategoryID       *int64           `json:"category_id"`
	IssuerNIF        string           `json:"issuer_nif,omitempty"`
	AcquirerNIF      string           `json:"acquirer_nif,omitempty"`
	DocumentNumber   string           `json:"document_number,omitempty"`
	ATCUD            string           `json:"atcud,omitempty"`
	EnrichmentSource string           `json:"enrichment_source,omitempty"`
}
