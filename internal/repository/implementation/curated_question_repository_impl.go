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

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CuratedQuestionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CuratedQuestionMapper
}

func NewCuratedQuestionRepository(db *gorm.DB) contract.CuratedQuestionRepository {
	return &CuratedQuestionRepositoryImpl{
		db:     db,
		mapper: mapper.NewCuratedQuestionMapper(),
	}
}

func (r *CuratedQuestionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CuratedQuestionRepositoryImpl) Create(ctx context.Context, q *entity.CuratedQuestion) error {
	if len(q.QuestionEmbedding) != embedding.Dimensions {
		return fmt.Errorf("%w: question embedding has %d values, want %d",
			apperror.ErrDimensionMismatch, len(q.QuestionEmbedding), embedding.Dimensions)
	}
	m := r.mapper.ToModel(q)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*q = *r.mapper.ToEntity(m)
	return nil
}

func (r *CuratedQuestionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CuratedQuestion, error) {
	var models []*model.CuratedQuestion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CuratedQuestion, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *CuratedQuestionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.CuratedQuestion{}).Count(&count).Error
	return count, err
}

func (r *CuratedQuestionRepositoryImpl) SearchSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]*contract.ScoredCuratedQuestion, error) {
	if limit <= 0 {
		limit = 3
	}

	type result struct {
		model.CuratedQuestion
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(queryEmbedding)

	err := r.db.WithContext(ctx).
		Table("curated_questions").
		Select("curated_questions.*, question_embedding <=> ? AS distance", queryVector).
		Where("curated_questions.deleted_at IS NULL").
		Order(gorm.Expr("question_embedding <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredCuratedQuestion, len(results))
	for i := range results {
		scored[i] = &contract.ScoredCuratedQuestion{
			Question: r.mapper.ToEntity(&results[i].CuratedQuestion),
			Score:    embedding.ScoreFromCosineDistance(results[i].Distance),
		}
	}
	return scored, nil
}
