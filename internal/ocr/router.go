package ocr

import (
	"context"
	"io"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/port"
)

// Router dispatches to the image or PDF recognizer by file type.
type Router struct {
	images port.TextRecognizer
	pdfs   port.TextRecognizer
}

// NewRouter creates a Router.
func NewRouter(images, pdfs port.TextRecognizer) *Router {
	return &Router{images: images, pdfs: pdfs}
}

// NewRouterFromConfig wires the configured image engine and a PDF recognizer
// that falls back to it.
func NewRouterFromConfig(ctx context.Context, cfg *config.OCRConfig, runner Runner) (*Router, error) {
	var images port.TextRecognizer
	if cfg.Engine == "vision" {
		v, err := NewVisionRecognizer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		images = v
	} else {
		images = NewTesseractRecognizer(cfg, runner)
	}
	return NewRouter(images, NewPDFRecognizer(cfg, images, runner)), nil
}

// Recognize implements port.TextRecognizer.
func (r *Router) Recognize(ctx context.Context, in port.FileInput) (*port.OCRResult, error) {
	switch {
	case in.FileType == domain.FileTypePDF:
		return r.pdfs.Recognize(ctx, in)
	case in.FileType.IsImage():
		return r.images.Recognize(ctx, in)
	default:
		return nil, domain.ErrUnsupportedFileType
	}
}

// Close releases engines that hold resources.
func (r *Router) Close() error {
	if c, ok := r.images.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
