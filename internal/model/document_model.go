package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string         `gorm:"type:varchar(255);not null"`
	Content     string         `gorm:"type:text;not null"`
	Category    string         `gorm:"type:varchar(100);index"`
	Tags        datatypes.JSON `gorm:"type:jsonb"`
	Author      string         `gorm:"type:varchar(255)"`
	ChunkCount  int            `gorm:"default:0"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	LastError   string         `gorm:"type:text"`
	LastUpdated *time.Time
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
