package embedding

import (
	"context"
	"fmt"
	"net/http"
)

// Dimensions is the fixed vector width stored for chunks and curated questions.
const Dimensions = 1536

// Task hints. Providers that do not distinguish document and query embeddings ignore them.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// Embedder is what the rest of the system consumes: text in, vector out.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// StatusError is returned when an embedding endpoint answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s embedding error, code %d, body %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether repeating the same request could succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
