package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	UnansweredStatusPending  = "pending"
	UnansweredStatusReviewed = "reviewed"
)

// UnansweredQuestion holds a generated answer waiting for human review. Never promoted automatically.
type UnansweredQuestion struct {
	Id        uuid.UUID
	Question  string
	Answer    string
	UsedRag   bool
	TopScore  *float64
	UserId    string
	SessionId string
	Status    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
