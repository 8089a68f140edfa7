package entity

import (
	"time"

	"github.com/google/uuid"
)

// CuratedReference points a curated answer at its supporting material.
type CuratedReference struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// CuratedQuestion is a reviewed question/answer pair. The answer is reused verbatim on a near-duplicate match.
type CuratedQuestion struct {
	Id                uuid.UUID
	Question          string
	QuestionEmbedding []float32
	Answer            string
	Title             string
	Summary           string
	References        []CuratedReference
	Module            string
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}
