package implementation

import (
	"context"
	"fmt"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/mapper"
	"ai-qa-rag-be/internal/model"
	"ai-qa-rag-be/internal/repository/contract"
	"ai-qa-rag-be/internal/repository/specification"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if len(c.Embedding) != embedding.Dimensions {
			return fmt.Errorf("%w: chunk %d has %d values, want %d",
				apperror.ErrDimensionMismatch, c.Metadata.Sequence, len(c.Embedding), embedding.Dimensions)
		}
	}

	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) PurgeByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.DocumentChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilar orders by cosine distance (<=>) so the HNSW index is used.
// numCandidates widens the HNSW candidate list for this transaction only.
func (r *DocumentChunkRepositoryImpl) SearchSimilar(ctx context.Context, queryEmbedding []float32, numCandidates, limit int) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.DocumentChunk
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(queryEmbedding)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if numCandidates > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", numCandidates)).Error; err != nil {
				return err
			}
		}
		return tx.
			Table("document_chunks").
			Select("document_chunks.*, embedding <=> ? AS distance", queryVector).
			Where("document_chunks.deleted_at IS NULL").
			Order(gorm.Expr("embedding <=> ?", queryVector)).
			Limit(limit).
			Scan(&results).Error
	})
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk: r.mapper.ToEntity(&results[i].DocumentChunk),
			Score: embedding.ScoreFromCosineDistance(results[i].Distance),
		}
	}
	return scored, nil
}

func (r *DocumentChunkRepositoryImpl) FindRecent(ctx context.Context, limit int) ([]*entity.DocumentChunk, error) {
	if limit <= 0 {
		limit = 5
	}
	var models []*model.DocumentChunk
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("sequence ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
