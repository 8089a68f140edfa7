package entity

import (
	"time"

	"github.com/google/uuid"
)

type RetrievedChunkRef struct {
	DocumentId     uuid.UUID `json:"document_id"`
	ChunkId        uuid.UUID `json:"chunk_id"`
	ChunkIndex     int       `json:"chunk_index"`
	RelevanceScore float64   `json:"relevance_score"`
}

// RetrievalQuery records one generation event and the chunks it used.
type RetrievalQuery struct {
	Id                uuid.UUID
	Question          string
	QuestionEmbedding []float32
	RetrievedChunks   []RetrievedChunkRef
	Response          string
	UserId            string
	SessionId         string
	CreatedAt         time.Time
}

type UsageMetric struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	ChunkId        uuid.UUID
	QueryId        uuid.UUID
	UserId         string
	SessionId      string
	RelevanceScore float64
	Timestamp      time.Time
}
