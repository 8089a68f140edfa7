package apperror

import "errors"

// Error kinds shared by the RAG components and the HTTP layer.
// Wrap with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	// ErrValidation marks input rejected before any external call is made
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingFailed indicates the embedding service could not produce a vector
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrGenerationFailed indicates the generation service returned an error
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidChunkConfig indicates a chunking configuration that cannot be processed
	ErrInvalidChunkConfig = errors.New("invalid chunk config")

	// ErrDimensionMismatch indicates a vector with the wrong number of dimensions
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Kind returns a short machine-readable name for the error kind, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidChunkConfig):
		return "invalid_chunk_config"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrEmbeddingFailed):
		return "embedding_failed"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	default:
		return "internal"
	}
}
