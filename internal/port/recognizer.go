package port

import (
	"context"
	"io"

	"despesify/internal/domain"
)

// FileInput carries an uploaded document for OCR or QR decoding.
type FileInput struct {
	Filename    string
	ContentType string
	FileType    domain.FileType
	Size        int64
	Reader      io.Reader
}

// OCRResult is the text produced by a recognizer.
type OCRResult struct {
	Text   string
	Engine string
	Pages  int
}

// TextRecognizer turns an image or PDF into plain text.
type TextRecognizer interface {
	Recognize(ctx context.Context, in FileInput) (*OCRResult, error)
}

// QRDecoder extracts the raw payload of the first QR code in an image.
type QRDecoder interface {
	Decode(ctx context.Context, in FileInput) (string, error)
}
