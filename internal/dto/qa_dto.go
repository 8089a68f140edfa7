package dto

import (
	"time"

	"ai-qa-rag-be/pkg/rag/answer"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

type AskRequest struct {
	Question       string        `json:"question" validate:"required,max=4000"`
	RecentMessages []ChatMessage `json:"recent_messages" validate:"max=50,dive"`
	Debug          bool          `json:"debug"`
	SessionId      string        `json:"session_id"`
	Category       string        `json:"category"`
	Tags           []string      `json:"tags"`
	// UserId comes from the bearer token, never from the body.
	UserId string `json:"-"`
}

type AskResponse struct {
	Answer     string             `json:"answer"`
	Title      string             `json:"title"`
	Summary    string             `json:"summary"`
	References []answer.Reference `json:"references"`
	Source     answer.Source      `json:"source"`
	DebugInfo  *answer.DebugInfo  `json:"debug_info,omitempty"`
}

type UnansweredQuestionResponse struct {
	Id        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	UsedRag   bool      `json:"used_rag"`
	TopScore  *float64  `json:"top_score,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
