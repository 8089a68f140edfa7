package contract

import (
	"context"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/repository/specification"
)

type ScoredCuratedQuestion struct {
	Question *entity.CuratedQuestion
	Score    float64
}

type CuratedQuestionRepository interface {
	Create(ctx context.Context, q *entity.CuratedQuestion) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CuratedQuestion, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar returns the closest curated questions, best first.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredCuratedQuestion, error)
}
