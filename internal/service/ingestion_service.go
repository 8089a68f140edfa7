package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/specification"
	"ai-qa-rag-be/internal/repository/unitofwork"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/chunker"
	"ai-qa-rag-be/pkg/events"
	"ai-qa-rag-be/pkg/rag/ingest"
	"ai-qa-rag-be/pkg/rag/settings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IIngestionService interface {
	// Enqueue schedules asynchronous (re)ingestion of a document.
	Enqueue(ctx context.Context, documentId uuid.UUID) error
	// Consume starts the background worker reading ingestion jobs.
	Consume(ctx context.Context) error
	// IngestDocument chunks, embeds and stores a document synchronously.
	IngestDocument(ctx context.Context, documentId uuid.UUID) (int, error)
}

type ChunkProcessor interface {
	Process(ctx context.Context, doc ingest.Document, cfg chunker.Config) ([]*entity.DocumentChunk, error)
}

type SettingsSource interface {
	Snapshot(ctx context.Context) settings.Snapshot
}

type ingestionService struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	pipeline   ChunkProcessor
	settings   SettingsSource
	events     events.Publisher
	logger     logger.ILogger
}

func NewIngestionService(
	publisher message.Publisher,
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	pipeline ChunkProcessor,
	settings SettingsSource,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		publisher:  publisher,
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		pipeline:   pipeline,
		settings:   settings,
		events:     eventPublisher,
		logger:     log,
	}
}

func (s *ingestionService) Enqueue(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.IngestJob{DocumentId: documentId})
	if err != nil {
		return err
	}
	return s.publisher.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), payload))
}

func (s *ingestionService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestionService) processMessage(ctx context.Context, msg *message.Message) {
	var job dto.IngestJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		s.logger.Error("INGEST", "Failed to unmarshal ingest job", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads are never retried
		return
	}

	// failures are recorded on the document itself, so the job is acked either way
	if _, err := s.IngestDocument(ctx, job.DocumentId); err != nil {
		s.logger.Error("INGEST", "Ingestion failed", map[string]interface{}{
			"document_id": job.DocumentId.String(),
			"error":       err.Error(),
			"kind":        apperror.Kind(err),
		})
	}
	msg.Ack()
}

func (s *ingestionService) IngestDocument(ctx context.Context, documentId uuid.UUID) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, fmt.Errorf("%w: document %s", apperror.ErrNotFound, documentId)
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusProcessing, ""); err != nil {
		return 0, err
	}

	snapshot := s.settings.Snapshot(ctx)
	chunks, err := s.pipeline.Process(ctx, ingest.Document{Id: doc.Id, Title: doc.Title, Content: doc.Content}, snapshot.Chunking)
	if err != nil {
		s.markFailed(ctx, doc.Id, err)
		return 0, err
	}

	if err := s.replaceChunks(ctx, doc.Id, chunks); err != nil {
		s.markFailed(ctx, doc.Id, err)
		return 0, err
	}

	s.logger.Info("INGEST", "Document ingested", map[string]interface{}{
		"document_id": doc.Id.String(),
		"chunks":      len(chunks),
	})

	if err := s.events.Publish(ctx, events.DocumentIngested(doc.Id.String(), doc.Title, len(chunks))); err != nil {
		s.logger.Warn("INGEST", "Failed to publish ingestion event", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}
	return len(chunks), nil
}

// replaceChunks swaps the document's chunk set and stats in one transaction.
func (s *ingestionService) replaceChunks(ctx context.Context, documentId uuid.UUID, chunks []*entity.DocumentChunk) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().PurgeByDocumentId(ctx, documentId); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return err
	}
	if err := uow.DocumentRepository().UpdateChunkStats(ctx, documentId, len(chunks), time.Now()); err != nil {
		return err
	}
	if err := uow.DocumentRepository().UpdateStatus(ctx, documentId, entity.DocumentStatusReady, ""); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *ingestionService) markFailed(ctx context.Context, documentId uuid.UUID, cause error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(context.WithoutCancel(ctx), documentId, entity.DocumentStatusFailed, cause.Error()); err != nil {
		s.logger.Error("INGEST", "Failed to mark document as failed", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
	}
}
