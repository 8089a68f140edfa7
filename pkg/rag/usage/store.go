package usage

import (
	"context"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/repository/unitofwork"
)

// UnitOfWorkStore writes the trail in a single transaction.
type UnitOfWorkStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUnitOfWorkStore(uowFactory unitofwork.RepositoryFactory) *UnitOfWorkStore {
	return &UnitOfWorkStore{uowFactory: uowFactory}
}

func (s *UnitOfWorkStore) SaveTrail(ctx context.Context, query *entity.RetrievalQuery, metrics []*entity.UsageMetric) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.UsageRepository().CreateRetrievalQuery(ctx, query); err != nil {
		return err
	}
	for _, m := range metrics {
		m.QueryId = query.Id
	}
	if err := uow.UsageRepository().CreateUsageMetrics(ctx, metrics); err != nil {
		return err
	}
	return uow.Commit()
}
