package model

import (
	"time"

	"github.com/google/uuid"
)

type UnansweredQuestion struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Question  string    `gorm:"type:text;not null"`
	Answer    string    `gorm:"type:text"`
	UsedRag   bool      `gorm:"default:false"`
	TopScore  *float64
	UserId    string    `gorm:"type:varchar(100);index"`
	SessionId string    `gorm:"type:varchar(100)"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UnansweredQuestion) TableName() string {
	return "unanswered_questions"
}
