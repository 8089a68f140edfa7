package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type RetrievalQuery struct {
	Id                uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Question          string           `gorm:"type:text;not null"`
	QuestionEmbedding *pgvector.Vector `gorm:"type:vector(1536)"`
	RetrievedChunks   datatypes.JSON   `gorm:"type:jsonb"`
	Response          string           `gorm:"type:text"`
	UserId            string           `gorm:"type:varchar(100);index"`
	SessionId         string           `gorm:"type:varchar(100)"`
	CreatedAt         time.Time        `gorm:"autoCreateTime;index"`
}

func (RetrievalQuery) TableName() string {
	return "retrieval_queries"
}

type UsageMetric struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId     uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkId        uuid.UUID `gorm:"type:uuid;not null;index"`
	QueryId        uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId         string    `gorm:"type:varchar(100)"`
	SessionId      string    `gorm:"type:varchar(100)"`
	RelevanceScore float64   `gorm:"not null;default:0.5"`
	Timestamp      time.Time `gorm:"not null;index"`
}

func (UsageMetric) TableName() string {
	return "usage_metrics"
}
