package contract

import (
	"context"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UsageRepository interface {
	CreateRetrievalQuery(ctx context.Context, q *entity.RetrievalQuery) error
	CreateUsageMetrics(ctx context.Context, metrics []*entity.UsageMetric) error
	FindMetricsByQueryId(ctx context.Context, queryId uuid.UUID) ([]*entity.UsageMetric, error)
	CountRetrievalQueries(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type UnansweredQuestionRepository interface {
	Create(ctx context.Context, q *entity.UnansweredQuestion) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UnansweredQuestion, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
