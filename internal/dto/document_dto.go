package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title    string   `json:"title" validate:"required,max=500"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"max=100"`
	Tags     []string `json:"tags"`
	Author   string   `json:"author"`
}

type CreateDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type UpdateDocumentRequest struct {
	Id       uuid.UUID
	Title    string   `json:"title" validate:"required,max=500"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"max=100"`
	Tags     []string `json:"tags"`
	Author   string   `json:"author"`
}

type UpdateDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type ShowDocumentResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	Author      string     `json:"author"`
	ChunkCount  int        `json:"chunk_count"`
	LastUpdated *time.Time `json:"last_updated"`
	Status      string     `json:"status"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type DocumentChunkResponse struct {
	Id         uuid.UUID `json:"id"`
	Sequence   int       `json:"sequence"`
	Section    string    `json:"section"`
	StartIndex int       `json:"start_index"`
	EndIndex   int       `json:"end_index"`
	Content    string    `json:"content"`
}

// IngestJob is the payload published to the ingestion topic.
type IngestJob struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type ListDocumentsRequest struct {
	Query    string `query:"q" validate:"max=200"`
	Category string `query:"category"`
	Tag      string `query:"tag"`
	Status   string `query:"status" validate:"omitempty,oneof=pending processing ready failed"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

type DocumentSummaryResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	ChunkCount  int        `json:"chunk_count"`
	LastUpdated *time.Time `json:"last_updated"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ListDocumentsResponse struct {
	Items []*DocumentSummaryResponse `json:"items"`
	Total int64                      `json:"total"`
}
