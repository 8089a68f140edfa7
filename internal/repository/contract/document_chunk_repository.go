package contract

import (
	"context"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps DocumentChunk with its normalized similarity score
type ScoredChunk struct {
	Chunk *entity.DocumentChunk
	Score float64 // 0.0 to 1.0 (1.0 = identical)
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	// DeleteByDocumentId soft-deletes, used for document deletion.
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	// PurgeByDocumentId hard-deletes, used when re-chunking replaces the old set.
	PurgeByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar runs an approximate nearest-neighbour search, oversampling numCandidates, best first.
	SearchSimilar(ctx context.Context, embedding []float32, numCandidates, limit int) ([]*ScoredChunk, error)
	// FindRecent returns the most recently created chunks regardless of relevance.
	FindRecent(ctx context.Context, limit int) ([]*entity.DocumentChunk, error)
}
