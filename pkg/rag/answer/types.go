package answer

import (
	"context"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/repository/contract"
	"ai-qa-rag-be/pkg/llm"
	"ai-qa-rag-be/pkg/rag/retrieval"
	"ai-qa-rag-be/pkg/rag/settings"
	"ai-qa-rag-be/pkg/rag/usage"

	"github.com/google/uuid"
)

const (
	SourceDatabase = "database"
	SourceRAG      = "rag_llm"
	SourceLLM      = "llm"
)

const confidenceUnknown = "N/A"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type CuratedSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredCuratedQuestion, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, queryEmbedding []float32, opts retrieval.Options) (*retrieval.Result, error)
}

type SettingsProvider interface {
	Snapshot(ctx context.Context) settings.Snapshot
}

// UnansweredRecorder stores generated answers for human review.
type UnansweredRecorder interface {
	Record(ctx context.Context, q *entity.UnansweredQuestion) error
}

type UsageTracker interface {
	Track(ctx context.Context, req usage.TrackRequest)
}

// Question is one user question plus the caller-supplied conversation window.
type Question struct {
	Text           string
	RecentMessages []llm.Message
	Debug          bool
	UserId         string
	SessionId      string
	Category       string
	Tags           []string
}

type Source struct {
	Type            string `json:"type"`
	Label           string `json:"label"`
	Description     string `json:"description"`
	Confidence      string `json:"confidence"`
	MatchedQuestion string `json:"matched_question,omitempty"`
}

type Reference struct {
	Title      string     `json:"title"`
	URL        string     `json:"url,omitempty"`
	DocumentId *uuid.UUID `json:"document_id,omitempty"`
	Section    string     `json:"section,omitempty"`
	Score      *float64   `json:"score,omitempty"`
}

type Answer struct {
	Answer     string      `json:"answer"`
	Title      string      `json:"title"`
	Summary    string      `json:"summary"`
	References []Reference `json:"references"`
	Source     Source      `json:"source"`
	Debug      *DebugInfo  `json:"debug_info,omitempty"`
}

type DebugChunk struct {
	DocumentId uuid.UUID `json:"document_id"`
	ChunkId    uuid.UUID `json:"chunk_id"`
	Title      string    `json:"title"`
	Section    string    `json:"section"`
	Sequence   int       `json:"sequence"`
	Score      float64   `json:"score"`
}

type DebugInfo struct {
	CuratedBestScore   *float64         `json:"curated_best_score,omitempty"`
	CuratedQuestionId  *uuid.UUID       `json:"curated_question_id,omitempty"`
	DuplicateThreshold float64          `json:"duplicate_threshold"`
	RelevanceThreshold float64          `json:"relevance_threshold"`
	RetrievedChunks    []DebugChunk     `json:"retrieved_chunks"`
	Candidates         int              `json:"candidates"`
	Fallback           bool             `json:"fallback"`
	FallbackReason     string           `json:"fallback_reason,omitempty"`
	RetrievalError     string           `json:"retrieval_error,omitempty"`
	CuratedError       string           `json:"curated_error,omitempty"`
	HistoryTurns       int              `json:"history_turns"`
	TimingsMs          map[string]int64 `json:"timings_ms"`
}
