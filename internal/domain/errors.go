package domain

import "errors"

// Sentinel errors for storage and backend operations
var (
	// ErrStorageUnavailable indicates the durable store could not be opened
	ErrStorageUnavailable = errors.New("storage is unavailable")

	// ErrQuotaExceeded indicates a write failed for lack of space, even
	// after an eviction sweep retry
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrRecordNotFound indicates the requested record does not exist
	ErrRecordNotFound = errors.New("record not found")

	// ErrMalformedPayload indicates a stored entry could not be decoded
	ErrMalformedPayload = errors.New("malformed cache payload")

	// ErrSheetNotFound indicates the backend has no chord sheet for the song
	ErrSheetNotFound = errors.New("chord sheet not found")

	// ErrBackendUnreachable indicates the scraping backend is unreachable
	ErrBackendUnreachable = errors.New("chord backend is unreachable")
)
