package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	Content    string          `gorm:"type:text;not null"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536)"` // text-embedding-3-small width
	StartIndex int             `gorm:"not null"`
	EndIndex   int             `gorm:"not null"`
	Section    string          `gorm:"type:varchar(255)"`
	Sequence   int             `gorm:"not null;default:0"` // 0-based, gap-free per document
	CreatedAt  time.Time       `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt  `gorm:"index"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
