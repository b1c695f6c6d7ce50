package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/logger"
	"despesify/internal/port"
)

// EnginePDFText names results read from a PDF's embedded text layer.
const EnginePDFText = "pdf-text"

const (
	maxTextBytes     = 100 * 1024
	scannedThreshold = 50 // chars per page below which a PDF is treated as scanned
	rasterDPI        = 150
)

// PDFRecognizer reads the PDF text layer and falls back to rasterizing the
// first page with pdftoppm and running the image recognizer on it.
type PDFRecognizer struct {
	images   port.TextRecognizer
	runner   Runner
	pdftoppm string
	timeout  time.Duration
}

// NewPDFRecognizer creates a PDFRecognizer. images may be nil, in which case
// scanned PDFs fail.
func NewPDFRecognizer(cfg *config.OCRConfig, images port.TextRecognizer, runner Runner) *PDFRecognizer {
	if runner == nil {
		runner = ExecRunner{}
	}
	p := &PDFRecognizer{images: images, runner: runner, pdftoppm: cfg.PdftoppmPath, timeout: cfg.Timeout}
	if p.pdftoppm == "" {
		p.pdftoppm = "pdftoppm"
	}
	if p.timeout <= 0 {
		p.timeout = 30 * time.Second
	}
	return p
}

// Recognize implements port.TextRecognizer for PDF input.
func (p *PDFRecognizer) Recognize(ctx context.Context, in port.FileInput) (*port.OCRResult, error) {
	if in.FileType != domain.FileTypePDF {
		return nil, domain.ErrUnsupportedFileType
	}
	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return nil, NewOCRError("pdf", err, "reading upload")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, NewOCRError("pdf", errors.New("missing PDF header"), in.Filename)
	}

	text, pages, err := textLayer(data)
	if err == nil && !isLikelyScanned(text, pages) {
		return &port.OCRResult{Text: text, Engine: EnginePDFText, Pages: pages}, nil
	}
	l := logger.WithComponent("ocr.pdf")
	l.Debug().Err(err).Int("pages", pages).
		Str("file", in.Filename).Msg("no usable text layer, rasterizing first page")

	if p.images == nil {
		return nil, NewOCRError("pdf", errors.New("no text layer and no image recognizer configured"), in.Filename)
	}

	png, err := p.rasterizeFirstPage(ctx, data)
	if err != nil {
		return nil, err
	}
	res, err := p.images.Recognize(ctx, port.FileInput{
		Filename:    strings.TrimSuffix(in.Filename, filepath.Ext(in.Filename)) + "-1.png",
		ContentType: "image/png",
		FileType:    domain.FileTypePNG,
		Size:        int64(len(png)),
		Reader:      bytes.NewReader(png),
	})
	if err != nil {
		return nil, WrapOCRError("pdf", err, "recognizing rasterized page")
	}
	if pages > 0 {
		res.Pages = pages
	}
	res.Engine = "pdftoppm+" + res.Engine
	return res, nil
}

// rasterizeFirstPage runs `pdftoppm -r 150 -f 1 -l 1 -png` and returns the PNG bytes.
func (p *PDFRecognizer) rasterizeFirstPage(ctx context.Context, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "despesify-pdf-*")
	if err != nil {
		return nil, NewOCRError("pdftoppm", err, "creating work dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, NewOCRError("pdftoppm", err, "staging pdf")
	}
	prefix := filepath.Join(dir, "page")

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, errb, err := p.runner.Run(ctx, p.pdftoppm,
		"-r", strconv.Itoa(rasterDPI), "-f", "1", "-l", "1", "-png", input, prefix)
	if err != nil {
		return nil, NewOCRError("pdftoppm", err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	// pdftoppm zero-pads the page suffix depending on the page count.
	matches, _ := filepath.Glob(prefix + "*.png")
	if len(matches) == 0 {
		return nil, NewOCRError("pdftoppm", errors.New("no image produced"), "")
	}
	png, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, NewOCRError("pdftoppm", err, "reading image")
	}
	return png, nil
}

// textLayer extracts the embedded text of a PDF. The pdf package panics on
// some malformed inputs, so panics are converted to errors.
func textLayer(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reading PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open PDF reader: %w", err)
	}
	pages = reader.NumPage()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", pages, fmt.Errorf("extract plain text: %w", err)
	}
	b, err := io.ReadAll(io.LimitReader(plain, maxTextBytes))
	if err != nil {
		return "", pages, fmt.Errorf("read plain text: %w", err)
	}
	return string(b), pages, nil
}

func isLikelyScanned(text string, pages int) bool {
	if pages < 1 {
		pages = 1
	}
	return len(strings.TrimSpace(text))/pages < scannedThreshold
}
