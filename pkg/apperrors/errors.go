package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrEmptyInput          = errors.New("empty input")
	ErrMalformedFragment   = errors.New("malformed schema fragment")
	ErrIncompleteExemplar  = errors.New("exemplar requires both question and sql")
	ErrNoUsableField       = errors.New("no usable training field provided")
	ErrTrainingFailed      = errors.New("all provided training fields failed")
	ErrBackendDisabled     = errors.New("retrieval backend disabled")
	ErrImplausibleSQL      = errors.New("generated text is not a plausible read-only SQL statement")
	ErrDatabaseUnavailable = errors.New("database unavailable")
)
