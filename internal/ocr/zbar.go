package ocr

import (
	"context"
	"errors"
	"strings"
	"time"

	"despesify/internal/config"
	"despesify/internal/domain"
	"despesify/internal/port"
)

// zbarimg exits with status 4 when the image holds no symbol.
const zbarNoSymbolExit = 4

type exitCoder interface {
	ExitCode() int
}

// ZbarDecoder reads QR payloads with the zbarimg CLI.
type ZbarDecoder struct {
	runner  Runner
	binary  string
	timeout time.Duration
}

// NewZbarDecoder creates a decoder from the QR config. A nil runner uses ExecRunner.
func NewZbarDecoder(cfg *config.QRConfig, runner Runner) *ZbarDecoder {
	if runner == nil {
		runner = ExecRunner{}
	}
	z := &ZbarDecoder{runner: runner, binary: cfg.ZbarPath, timeout: cfg.Timeout}
	if z.binary == "" {
		z.binary = "zbarimg"
	}
	if z.timeout <= 0 {
		z.timeout = 10 * time.Second
	}
	return z
}

// Decode implements port.QRDecoder. It returns the first symbol's payload.
func (z *ZbarDecoder) Decode(ctx context.Context, in port.FileInput) (string, error) {
	if !in.FileType.IsImage() {
		return "", domain.ErrUnsupportedFileType
	}
	path, cleanup, err := writeTemp(in.Reader, string(in.FileType))
	if err != nil {
		return "", NewOCRError("zbarimg", err, "staging image")
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, z.timeout)
	defer cancel()

	out, errb, err := z.runner.Run(ctx, z.binary, "--raw", "-q", path)
	if err != nil {
		var ec exitCoder
		if errors.As(err, &ec) && ec.ExitCode() == zbarNoSymbolExit {
			return "", domain.ErrQRCodeNotFound
		}
		return "", NewOCRError("zbarimg", err, truncate(strings.TrimSpace(string(errb)), 512))
	}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "QR-Code:"))
		if line != "" {
			return line, nil
		}
	}
	return "", domain.ErrQRCodeNotFound
}
