package domain

// FileType represents the file types accepted for OCR and QR decoding.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps detected MIME content types to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// IsImage reports whether the file type is a raster image.
func (f FileType) IsImage() bool {
	return f == FileTypeJPG || f == FileTypePNG
}

// AmountPolicy selects which QR figure becomes the expense amount.
type AmountPolicy string

const (
	// AmountPolicyGross uses taxable base plus VAT.
	AmountPolicyGross AmountPolicy = "gross"
	// AmountPolicyNet uses the taxable base only.
	AmountPolicyNet AmountPolicy = "net"
)

// Valid reports whether p is a known policy.
func (p AmountPolicy) Valid() bool {
	return p == AmountPolicyGross || p == AmountPolicyNet
}

// SourceCache marks a NIF resolution served from the local cache.
const SourceCache = "cache"

// VATRateCode is the AT rate bracket code carried on a QR tax line.
type VATRateCode string

const (
	VATRateExempt       VATRateCode = "ISE"
	VATRateReduced      VATRateCode = "RED"
	VATRateIntermediate VATRateCode = "INT"
	VATRateNormal       VATRateCode = "NOR"
	VATRateOther        VATRateCode = "OUT"
)

// TaxRegion is the fiscal region of a QR tax-line group.
type TaxRegion string

const (
	TaxRegionMainland TaxRegion = "PT"
	TaxRegionAzores   TaxRegion = "PT-AC"
	TaxRegionMadeira  TaxRegion = "PT-MA"
)
