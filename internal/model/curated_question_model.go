package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CuratedQuestion struct {
	Id                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Question          string          `gorm:"type:text;not null"`
	QuestionEmbedding pgvector.Vector `gorm:"type:vector(1536)"`
	Answer            string          `gorm:"type:text;not null"`
	Title             string          `gorm:"type:varchar(255)"`
	Summary           string          `gorm:"type:text"`
	References        datatypes.JSON  `gorm:"type:jsonb"`
	Module            string          `gorm:"type:varchar(100);index"`
	CreatedAt         time.Time       `gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime"`
	DeletedAt         gorm.DeletedAt  `gorm:"index"`
}

func (CuratedQuestion) TableName() string {
	return "curated_questions"
}
