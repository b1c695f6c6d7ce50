// Package ocr produces plain text from receipt images and PDFs, and decodes
// QR codes from images, by driving external engines.
package ocr

import (
	"errors"
	"fmt"

	"despesify/internal/domain"
)

// OCRError wraps errors with additional context about the OCR processing failure.
// It always matches domain.ErrOCRFailed.
type OCRError struct {
	// Op is the operation that failed (e.g., "tesseract", "pdftoppm").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

func (e *OCRError) Is(target error) bool {
	return target == domain.ErrOCRFailed
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{Op: op, Err: err, Details: details}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}
	return NewOCRError(op, err, details)
}
