package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChunkMetadata struct {
	StartIndex int
	EndIndex   int
	Section    string
	Sequence   int
}

type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	Content    string
	Embedding  []float32
	Metadata   ChunkMetadata
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
