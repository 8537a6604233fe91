package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration indicates a programmer or config error.
	// It is fatal at startup.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Ingestion Errors.

	// ErrUnsupportedFormat indicates the bytes do not match a recognised format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates the document parsed but yielded no text.
	// Scanned pages without a text layer end up here and need OCR.
	ErrExtraction = errors.New("no extractable text")

	// ErrDocumentTooLarge indicates the upload exceeds the size limit.
	ErrDocumentTooLarge = fmt.Errorf("%w: document too large", ErrInvalidInput)

	// ErrIncompleteVersion indicates a staged document version lost records
	// before activation, for example to a concurrent removal.
	ErrIncompleteVersion = errors.New("incomplete document version")

	// ErrDimensionMismatch indicates a vector does not match the store dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// External Service Errors.

	// ErrEmbeddingUnavailable indicates the embedding service failed after retries
	// or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the language model failed after retry.
	// The stored data is unaffected and the same question can be asked again.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrTransient indicates a retryable provider failure (timeout, 5xx).
	ErrTransient = errors.New("transient service error")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedInput indicates the provider rejected the request.
	// It is permanent and never retried.
	ErrMalformedInput = errors.New("malformed input")

	// ErrContentFiltered indicates the provider blocked the prompt or response.
	ErrContentFiltered = errors.New("content filtered")
)

// IsRetryable reports whether err is a provider failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}
