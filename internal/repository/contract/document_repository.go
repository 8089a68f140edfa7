package contract

import (
	"context"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	// FindByIDs returns live (not soft-deleted) documents keyed by id. Missing ids are absent from the map.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, lastError string) error
	UpdateChunkStats(ctx context.Context, id uuid.UUID, chunkCount int, lastUpdated time.Time) error
}
