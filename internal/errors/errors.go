package errors

import "errors"

// Common application errors for type-safe error handling.
// These errors can be checked using errors.Is() instead of string comparison.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNoGPS          = errors.New("no GPS metadata")
	ErrExtractor      = errors.New("extraction service unavailable")
	ErrStorageWrite   = errors.New("storage write failed")
	ErrMetadataWrite  = errors.New("metadata write failed")
	ErrMetadataRead   = errors.New("metadata read failed")
	ErrMetadataDelete = errors.New("metadata delete failed")
)

// NoGPSError carries the extraction service's human-readable message so the
// handler can return it to the client. Matches ErrNoGPS via errors.Is.
type NoGPSError struct {
	Message string
}

func (e *NoGPSError) Error() string {
	if e.Message == "" {
		return ErrNoGPS.Error()
	}
	return e.Message
}

func (e *NoGPSError) Unwrap() error {
	return ErrNoGPS
}
