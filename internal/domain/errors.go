package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidNIF          = errors.New("NIF must have exactly 9 digits")
	ErrMalformedPayload    = errors.New("malformed QR payload")
	ErrNIFNotFound         = errors.New("NIF not found")
	ErrLookupConfiguration = errors.New("NIF lookup is misconfigured or unavailable")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrOCRFailed           = errors.New("could not process file")
	ErrQRCodeNotFound      = errors.New("no QR code found in image")
)
