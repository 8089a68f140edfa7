package unitofwork

import (
	"context"

	"ai-qa-rag-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
	CuratedQuestionRepository() contract.CuratedQuestionRepository
	UnansweredQuestionRepository() contract.UnansweredQuestionRepository
	UsageRepository() contract.UsageRepository
	AiConfigRepository() contract.IAiConfigRepository
}
