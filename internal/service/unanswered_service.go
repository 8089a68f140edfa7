package service

import (
	"context"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/specification"
	"ai-qa-rag-be/internal/repository/unitofwork"
	"ai-qa-rag-be/pkg/events"
)

type IUnansweredService interface {
	// Record stores a generated answer for review and notifies reviewers.
	Record(ctx context.Context, q *entity.UnansweredQuestion) error
	List(ctx context.Context, status string, limit, offset int) ([]*dto.UnansweredQuestionResponse, error)
}

type unansweredService struct {
	uowFactory unitofwork.RepositoryFactory
	events     events.Publisher
	logger     logger.ILogger
}

func NewUnansweredService(uowFactory unitofwork.RepositoryFactory, eventPublisher events.Publisher, log logger.ILogger) IUnansweredService {
	return &unansweredService{
		uowFactory: uowFactory,
		events:     eventPublisher,
		logger:     log,
	}
}

func (s *unansweredService) Record(ctx context.Context, q *entity.UnansweredQuestion) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UnansweredQuestionRepository().Create(ctx, q); err != nil {
		return err
	}

	if err := s.events.Publish(ctx, events.UnansweredQuestionRecorded(q.Id.String(), q.Question, q.UsedRag)); err != nil {
		s.logger.Warn("UNANSWERED", "Failed to publish unanswered question event", map[string]interface{}{
			"id":    q.Id.String(),
			"error": err.Error(),
		})
	}
	return nil
}

func (s *unansweredService) List(ctx context.Context, status string, limit, offset int) ([]*dto.UnansweredQuestionResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	}
	if status != "" {
		specs = append(specs, specification.ByStatus(status))
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.UnansweredQuestionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.UnansweredQuestionResponse, 0, len(rows))
	for _, r := range rows {
		res = append(res, &dto.UnansweredQuestionResponse{
			Id:        r.Id,
			Question:  r.Question,
			Answer:    r.Answer,
			UsedRag:   r.UsedRag,
			TopScore:  r.TopScore,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return res, nil
}
