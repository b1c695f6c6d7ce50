package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/port"
)

// EngineVision names results produced by Google Cloud Vision.
const EngineVision = "google-vision"

// VisionRecognizer runs DOCUMENT_TEXT_DETECTION on images.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
	hints  []string
}

// NewVisionRecognizer creates a client from cfg.VisionCredentials, which may
// hold inline JSON or a file path. Empty uses application default credentials.
func NewVisionRecognizer(ctx context.Context, cfg *config.OCRConfig) (*VisionRecognizer, error) {
	const op = "NewVisionRecognizer"

	var opts []option.ClientOption
	creds := strings.TrimSpace(cfg.VisionCredentials)
	switch {
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	case creds != "":
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, WrapOCRError(op, err, "creating Vision client")
	}
	return NewVisionRecognizerWithClient(client, cfg.Languages), nil
}

// NewVisionRecognizerWithClient wraps an existing client. languages uses
// tesseract notation ("por+eng") and becomes Vision language hints.
func NewVisionRecognizerWithClient(client *vision.ImageAnnotatorClient, languages string) *VisionRecognizer {
	return &VisionRecognizer{client: client, hints: LanguageHints(languages)}
}

// Recognize implements port.TextRecognizer for JPEG and PNG input.
func (v *VisionRecognizer) Recognize(ctx context.Context, in port.FileInput) (*port.OCRResult, error) {
	const op = "vision"
	if !in.FileType.IsImage() {
		return nil, domain.ErrUnsupportedFileType
	}
	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return nil, NewOCRError(op, err, "reading upload")
	}

	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:        &visionpb.Image{Content: data},
			Features:     []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			ImageContext: &visionpb.ImageContext{LanguageHints: v.hints},
		}},
	})
	if err != nil {
		return nil, NewOCRError(op, err, "Vision API call failed")
	}
	if len(resp.GetResponses()) == 0 {
		return nil, NewOCRError(op, fmt.Errorf("empty response"), "")
	}
	r := resp.GetResponses()[0]
	if r.GetError() != nil {
		return nil, NewOCRError(op, fmt.Errorf("%s", r.GetError().GetMessage()), "Vision API error")
	}

	return &port.OCRResult{
		Text:   r.GetFullTextAnnotation().GetText(),
		Engine: EngineVision,
		Pages:  1,
	}, nil
}

// Close releases the underlying client.
func (v *VisionRecognizer) Close() error {
	return v.client.Close()
}

var tesseractToISO = map[string]string{
	"por": "pt",
	"eng": "en",
	"spa": "es",
	"fra": "fr",
}

// LanguageHints maps tesseract language codes to ISO 639-1 hints, dropping
// codes it does not know.
func LanguageHints(languages string) []string {
	var hints []string
	for _, code := range strings.Split(languages, "+") {
		if iso, ok := tesseractToISO[strings.TrimSpace(code)]; ok {
			hints = append(hints, iso)
		}
	}
	return hints
}
