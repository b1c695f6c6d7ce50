package ocr

import (
	"fmt"
	"io"
	"os"
)

// writeTemp copies r into a new temp file with the given extension and
// returns its path and a cleanup func.
func writeTemp(r io.Reader, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "despesify-*."+ext)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
