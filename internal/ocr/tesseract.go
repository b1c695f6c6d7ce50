package ocr

import (
	"context"
	"strings"
	"time"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/port"
)

// EngineTesseract names results produced by tesseract.
const EngineTesseract = "tesseract"

// TesseractRecognizer runs the tesseract CLI over images.
type TesseractRecognizer struct {
	runner    Runner
	binary    string
	languages string
	timeout   time.Duration
}

// NewTesseractRecognizer creates a recognizer from the OCR config. A nil
// runner uses ExecRunner.
func NewTesseractRecognizer(cfg *config.OCRConfig, runner Runner) *TesseractRecognizer {
	if runner == nil {
		runner = ExecRunner{}
	}
	t := &TesseractRecognizer{
		runner:    runner,
		binary:    cfg.TesseractPath,
		languages: cfg.Languages,
		timeout:   cfg.Timeout,
	}
	if t.binary == "" {
		t.binary = "tesseract"
	}
	if t.languages == "" {
		t.languages = "por+eng"
	}
	if t.timeout <= 0 {
		t.timeout = 30 * time.Second
	}
	return t
}

// Recognize implements port.TextRecognizer for JPEG and PNG input.
func (t *TesseractRecognizer) Recognize(ctx context.Context, in port.FileInput) (*port.OCRResult, error) {
	if !in.FileType.IsImage() {
		return nil, domain.ErrUnsupportedFileType
	}
	path, cleanup, err := writeTemp(in.Reader, string(in.FileType))
	if err != nil {
		return nil, NewOCRError(EngineTesseract, err, "staging image")
	}
	defer cleanup()

	text, err := t.RecognizeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return &port.OCRResult{Text: text, Engine: EngineTesseract, Pages: 1}, nil
}

// RecognizeFile runs `tesseract <path> stdout -l <languages>`.
func (t *TesseractRecognizer) RecognizeFile(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, errb, err := t.runner.Run(ctx, t.binary, path, "stdout", "-l", t.languages)
	if err != nil {
		return "", NewOCRError(EngineTesseract, err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return string(out), nil
}
