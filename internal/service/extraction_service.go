package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"despesify/internal/atqr"
	"despesify/internal/domain"
	"despesify/internal/extract"
	"despesify/internal/logger"
	"despesify/internal/port"
)

// ExtractionConfig holds the orchestrator's policy knobs.
type ExtractionConfig struct {
	AmountPolicy     domain.AmountPolicy
	MaxFileSizeBytes int64
}

// FileExtraction is the result of running OCR and the field cascades over a file.
type FileExtraction struct {
	Fields domain.ExtractedInvoiceFields
	Engine string
	Pages  int
}

// QRExtraction is the result of decoding and mapping an invoice QR code.
type QRExtraction struct {
	Payload  string                  `json:"payload"`
	Record   *domain.QRInvoiceRecord `json:"record"`
	Draft    *domain.ExpenseDraft    `json:"qr_data"`
	Warnings []string                `json:"warnings"`
}

// ExtractionService turns OCR text, QR payloads and uploaded files into
// expense drafts.
type ExtractionService interface {
	ExtractFromOCRText(text string) domain.ExtractedInvoiceFields
	ExtractFromQRText(text string) (*domain.QRInvoiceRecord, error)
	EnrichWithTaxID(ctx context.Context, draft *domain.ExpenseDraft, nif string) (*domain.ExpenseDraft, error)
	BuildQRDraft(ctx context.Context, record *domain.QRInvoiceRecord) (*domain.ExpenseDraft, []string)
	ExtractFromFile(ctx context.Context, in port.FileInput) (*FileExtraction, error)
	ExtractFromQRImage(ctx context.Context, in port.FileInput) (*QRExtraction, error)
}

type extractionService struct {
	nif        NIFService
	recognizer port.TextRecognizer
	decoder    port.QRDecoder
	cfg        ExtractionConfig
	now        func() time.Time
	log        zerolog.Logger
}

// NewExtractionService creates a new ExtractionService implementation. Any
// collaborator may be nil; operations that need it then fail or skip
// enrichment.
func NewExtractionService(
	nif NIFService,
	recognizer port.TextRecognizer,
	decoder port.QRDecoder,
	cfg ExtractionConfig,
) ExtractionService {
	if !cfg.AmountPolicy.Valid() {
		cfg.AmountPolicy = domain.AmountPolicyGross
	}
	return &extractionService{
		nif:        nif,
		recognizer: recognizer,
		decoder:    decoder,
		cfg:        cfg,
		now:        time.Now,
		log:        logger.WithComponent("service.extraction"),
	}
}

func (s *extractionService) ExtractFromOCRText(text string) domain.ExtractedInvoiceFields {
	return extract.FromText(text, s.now())
}

func (s *extractionService) ExtractFromQRText(text string) (*domain.QRInvoiceRecord, error) {
	return atqr.Parse(text)
}

// EnrichWithTaxID fills empty description, merchant and category from the
// company behind nif. The input draft is never modified.
func (s *extractionService) EnrichWithTaxID(ctx context.Context, draft *domain.ExpenseDraft, nif string) (*domain.ExpenseDraft, error) {
	if s.nif == nil || strings.TrimSpace(nif) == "" {
		return draft, nil
	}

	res, err := s.nif.Lookup(ctx, nif)
	if err != nil {
		if errors.Is(err, domain.ErrNIFNotFound) {
			return draft, nil
		}
		return draft, err
	}

	out := *draft
	if out.Description == "" {
		out.Description = res.CompanyName
	}
	if out.Merchant == "" {
		out.Merchant = res.CompanyName
	}
	if out.CategoryID == nil {
		out.CategoryID = res.CategoryID
	}
	out.EnrichmentSource = res.Source
	return &out, nil
}

// BuildQRDraft maps a decoded QR record to an expense draft and enriches it
// with the issuer's company. Problems that do not invalidate the draft are
// returned as warnings.
func (s *extractionService) BuildQRDraft(ctx context.Context, rec *domain.QRInvoiceRecord) (*domain.ExpenseDraft, []string) {
	draft := &domain.ExpenseDraft{
		Date:           rec.IssueDate,
		IssuerNIF:      rec.IssuerNIF,
		AcquirerNIF:    rec.AcquirerNIF,
		DocumentNumber: rec.DocumentNumber,
		ATCUD:          rec.ATCUD,
	}

	if len(rec.TaxLines) > 0 {
		base, vat := rec.TaxableBaseTotal, rec.VATAmountTotal
		amount := rec.GrandTotal
		if s.cfg.AmountPolicy == domain.AmountPolicyNet {
			amount = rec.TaxableBaseTotal
		}
		draft.Amount = &amount
		draft.TaxableBase = &base
		draft.VATAmount = &vat
		draft.VATPercentage = highestRate(rec.TaxLines)
	}

	warnings := atqr.DeclaredTotalWarnings(rec)

	enriched, err := s.EnrichWithTaxID(ctx, draft, rec.IssuerNIF)
	if err != nil {
		s.log.Warn().Err(err).Str("nif", rec.IssuerNIF).Msg("issuer enrichment failed")
		warnings = append(warnings, "issuer NIF lookup failed: "+err.Error())
	}
	draft = enriched

	if draft.Description == "" {
		draft.Description = strings.TrimSpace(atqr.DocumentTypeLabel(rec.DocumentType) + " " + rec.DocumentNumber)
	}
	return draft, warnings
}

func highestRate(lines []domain.TaxLine) *decimal.Decimal {
	best := lines[0].VATRatePercentage
	for _, l := range lines[1:] {
		if l.VATRatePercentage.GreaterThan(best) {
			best = l.VATRatePercentage
		}
	}
	return &best
}

func (s *extractionService) ExtractFromFile(ctx context.Context, in port.FileInput) (*FileExtraction, error) {
	if err := s.checkUpload(in); err != nil {
		return nil, err
	}
	if s.recognizer == nil {
		return nil, fmt.Errorf("%w: no text recognizer configured", domain.ErrOCRFailed)
	}

	start := s.now()
	res, err := s.recognizer.Recognize(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("file", in.Filename).Str("engine", res.Engine).Int("pages", res.Pages).
		Int("chars", len(res.Text)).Dur("duration", s.now().Sub(start)).Msg("recognized file")

	return &FileExtraction{
		Fields: s.ExtractFromOCRText(res.Text),
		Engine: res.Engine,
		Pages:  res.Pages,
	}, nil
}

func (s *extractionService) ExtractFromQRImage(ctx context.Context, in port.FileInput) (*QRExtraction, error) {
	if err := s.checkUpload(in); err != nil {
		return nil, err
	}
	if !in.FileType.IsImage() {
		return nil, domain.ErrUnsupportedFileType
	}
	if s.decoder == nil {
		return nil, fmt.Errorf("%w: no QR decoder configured", domain.ErrOCRFailed)
	}

	payload, err := s.decoder.Decode(ctx, in)
	if err != nil {
		return nil, err
	}
	rec, err := s.ExtractFromQRText(payload)
	if err != nil {
		return nil, err
	}
	draft, warnings := s.BuildQRDraft(ctx, rec)
	return &QRExtraction{Payload: payload, Record: rec, Draft: draft, Warnings: warnings}, nil
}

func (s *extractionService) checkUpload(in port.FileInput) error {
	if s.cfg.MaxFileSizeBytes > 0 && in.Size > s.cfg.MaxFileSizeBytes {
		return domain.ErrFileTooLarge
	}
	switch in.FileType {
	case domain.FileTypePDF, domain.FileTypeJPG, domain.FileTypePNG:
		return nil
	default:
		return domain.ErrUnsupportedFileType
	}
}

// SniffUpload validates an upload's extension and magic bytes and returns a
// FileInput whose reader still yields the whole file.
func SniffUpload(filename string, size int64, r io.Reader) (port.FileInput, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return port.FileInput{}, domain.ErrUnsupportedFileType
	}

	// Read first 512 bytes for magic-byte content type detection
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return port.FileInput{}, fmt.Errorf("reading file header: %w", err)
	}
	detected := http.DetectContentType(buf[:n])
	fileType, ok := domain.AllowedContentTypes[detected]
	if !ok {
		return port.FileInput{}, domain.ErrUnsupportedFileType
	}

	return port.FileInput{
		Filename:    filepath.Base(filename),
		ContentType: detected,
		FileType:    fileType,
		Size:        size,
		Reader:      io.MultiReader(bytes.NewReader(buf[:n]), r),
	}, nil
}
