package atqr

import (
	"fmt"

	"despesify/internal/domain"
)

// PayloadError reports why a QR payload was rejected. It always matches
// domain.ErrMalformedPayload with errors.Is.
type PayloadError struct {
	Tag    string
	Reason string
}

func (e *PayloadError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("%v: %s", domain.ErrMalformedPayload, e.Reason)
	}
	return fmt.Sprintf("%v: field %s: %s", domain.ErrMalformedPayload, e.Tag, e.Reason)
}

func (e *PayloadError) Unwrap() error {
	return domain.ErrMalformedPayload
}

func malformed(tag, reason string) *PayloadError {
	return &PayloadError{Tag: tag, Reason: reason}
}
