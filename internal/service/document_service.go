package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/specification"
	"ai-qa-rag-be/internal/repository/unitofwork"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/rag/ingest"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Update(ctx context.Context, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error)
	ListChunks(ctx context.Context, id uuid.UUID) ([]*dto.DocumentChunkResponse, error)
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	ingestion  IIngestionService
	logger     logger.ILogger
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory, ingestion IIngestionService, log logger.ILogger) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		ingestion:  ingestion,
		logger:     log,
	}
}

func (s *documentService) Create(ctx context.Context, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	if err := ingest.Validate(ingest.Document{Title: req.Title, Content: req.Content}); err != nil {
		return nil, err
	}

	doc := &entity.Document{
		Id:      uuid.New(),
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		Metadata: entity.DocumentMetadata{
			Category: strings.TrimSpace(req.Category),
			Tags:     cleanTags(req.Tags),
			Author:   req.Author,
		},
		Status: entity.DocumentStatusPending,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	s.enqueue(ctx, doc.Id)
	return &dto.CreateDocumentResponse{Id: doc.Id, Status: doc.Status}, nil
}

func (s *documentService) Update(ctx context.Context, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error) {
	if err := ingest.Validate(ingest.Document{Title: req.Title, Content: req.Content}); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", apperror.ErrNotFound, req.Id)
	}

	now := time.Now()
	doc.Title = strings.TrimSpace(req.Title)
	doc.Content = req.Content
	doc.Metadata.Category = strings.TrimSpace(req.Category)
	doc.Metadata.Tags = cleanTags(req.Tags)
	doc.Metadata.Author = req.Author
	doc.Status = entity.DocumentStatusPending
	doc.LastError = ""
	doc.UpdatedAt = &now

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	s.enqueue(ctx, doc.Id)
	return &dto.UpdateDocumentResponse{Id: doc.Id, Status: doc.Status}, nil
}

// Delete removes the document and its chunks together.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: document %s", apperror.ErrNotFound, id)
	}

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("DOCUMENT", "Document deleted", map[string]interface{}{
		"document_id": id.String(),
	})
	return nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", apperror.ErrNotFound, id)
	}

	return &dto.ShowDocumentResponse{
		Id:          doc.Id,
		Title:       doc.Title,
		Content:     doc.Content,
		Category:    doc.Metadata.Category,
		Tags:        doc.Metadata.Tags,
		Author:      doc.Metadata.Author,
		ChunkCount:  doc.Metadata.ChunkCount,
		LastUpdated: doc.Metadata.LastUpdated,
		Status:      doc.Status,
		LastError:   doc.LastError,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

const defaultListLimit = 20

func (s *documentService) List(ctx context.Context, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error) {
	var filters []specification.Specification
	if q := strings.TrimSpace(req.Query); q != "" {
		filters = append(filters, specification.DocumentSearchQuery{Query: q})
	}
	if c := strings.TrimSpace(req.Category); c != "" {
		filters = append(filters, specification.ByCategory(c))
	}
	if t := strings.TrimSpace(req.Tag); t != "" {
		filters = append(filters, specification.HasTag{Tag: t})
	}
	if req.Status != "" {
		filters = append(filters, specification.ByStatus(req.Status))
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.DocumentRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	page := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	docs, err := uow.DocumentRepository().FindAll(ctx, page...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.DocumentSummaryResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, &dto.DocumentSummaryResponse{
			Id:          d.Id,
			Title:       d.Title,
			Category:    d.Metadata.Category,
			Tags:        d.Metadata.Tags,
			ChunkCount:  d.Metadata.ChunkCount,
			LastUpdated: d.Metadata.LastUpdated,
			Status:      d.Status,
			CreatedAt:   d.CreatedAt,
		})
	}
	return &dto.ListDocumentsResponse{Items: items, Total: total}, nil
}

func (s *documentService) ListChunks(ctx context.Context, id uuid.UUID) ([]*dto.DocumentChunkResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.DocumentChunkRepository().FindAll(ctx, specification.ByDocumentID{DocumentID: id}, specification.BySequence{})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.DocumentChunkResponse, 0, len(chunks))
	for _, c := range chunks {
		res = append(res, &dto.DocumentChunkResponse{
			Id:         c.Id,
			Sequence:   c.Metadata.Sequence,
			Section:    c.Metadata.Section,
			StartIndex: c.Metadata.StartIndex,
			EndIndex:   c.Metadata.EndIndex,
			Content:    c.Content,
		})
	}
	return res, nil
}

// enqueue is best effort: a document left pending can be re-ingested with ragctl.
func (s *documentService) enqueue(ctx context.Context, id uuid.UUID) {
	if err := s.ingestion.Enqueue(ctx, id); err != nil {
		s.logger.Error("DOCUMENT", "Failed to enqueue ingestion", map[string]interface{}{
			"document_id": id.String(),
			"error":       err.Error(),
		})
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
