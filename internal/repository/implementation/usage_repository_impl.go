package implementation

import (
	"context"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/mapper"
	"ai-qa-rag-be/internal/model"
	"ai-qa-rag-be/internal/repository/contract"
	"ai-qa-rag-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UsageMapper
}

func NewUsageRepository(db *gorm.DB) contract.UsageRepository {
	return &UsageRepositoryImpl{
		db:     db,
		mapper: mapper.NewUsageMapper(),
	}
}

func (r *UsageRepositoryImpl) CreateRetrievalQuery(ctx context.Context, q *entity.RetrievalQuery) error {
	if q.Id == uuid.Nil {
		q.Id = uuid.New()
	}
	m := r.mapper.RetrievalQueryToModel(q)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	q.CreatedAt = m.CreatedAt
	return nil
}

func (r *UsageRepositoryImpl) CreateUsageMetrics(ctx context.Context, metrics []*entity.UsageMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	models := make([]*model.UsageMetric, len(metrics))
	for i, u := range metrics {
		models[i] = r.mapper.UsageMetricToModel(u)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		metrics[i].Id = m.Id
	}
	return nil
}

func (r *UsageRepositoryImpl) FindMetricsByQueryId(ctx context.Context, queryId uuid.UUID) ([]*entity.UsageMetric, error) {
	var models []*model.UsageMetric
	if err := r.db.WithContext(ctx).Where("query_id = ?", queryId).Order("relevance_score DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.UsageMetric, len(models))
	for i, m := range models {
		out[i] = r.mapper.UsageMetricToEntity(m)
	}
	return out, nil
}

func (r *UsageRepositoryImpl) CountRetrievalQueries(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	err := query.Model(&model.RetrievalQuery{}).Count(&count).Error
	return count, err
}

type UnansweredQuestionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UsageMapper
}

func NewUnansweredQuestionRepository(db *gorm.DB) contract.UnansweredQuestionRepository {
	return &UnansweredQuestionRepositoryImpl{
		db:     db,
		mapper: mapper.NewUsageMapper(),
	}
}

func (r *UnansweredQuestionRepositoryImpl) Create(ctx context.Context, q *entity.UnansweredQuestion) error {
	m := r.mapper.UnansweredToModel(q)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*q = *r.mapper.UnansweredToEntity(m)
	return nil
}

func (r *UnansweredQuestionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UnansweredQuestion, error) {
	var models []*model.UnansweredQuestion
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.UnansweredQuestion, len(models))
	for i, m := range models {
		out[i] = r.mapper.UnansweredToEntity(m)
	}
	return out, nil
}

func (r *UnansweredQuestionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	err := query.Model(&model.UnansweredQuestion{}).Count(&count).Error
	return count, err
}

func (r *UnansweredQuestionRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.UnansweredQuestion{}).
		Where("id = ?", id).
		Update("status", status).Error
}
