package entity

import (
	"time"

	"github.com/google/uuid"
)

// AiConfiguration stores AI behavior settings (key-value pairs)
type AiConfiguration struct {
	Id          uuid.UUID
	Key         string // e.g., "rag_similarity_threshold"
	Value       string
	ValueType   string // "string", "number", "boolean"
	Description string
	Category    string // "rag", "llm", "chunking", "feature"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category constants for AiConfiguration
const (
	AiConfigCategoryRAG      = "rag"
	AiConfigCategoryLLM      = "llm"
	AiConfigCategoryChunking = "chunking"
	AiConfigCategoryFeature  = "feature"
	AiConfigCategoryGeneral  = "general"
)

// ValueType constants for AiConfiguration
const (
	AiConfigValueTypeString  = "string"
	AiConfigValueTypeNumber  = "number"
	AiConfigValueTypeBoolean = "boolean"
)

// Configuration keys read by the settings snapshot
const (
	AiConfigKeyDuplicateThreshold     = "qa_duplicate_threshold"
	AiConfigKeyRAGSimilarityThreshold = "rag_similarity_threshold"
	AiConfigKeyRAGMaxResults          = "rag_max_results"
	AiConfigKeyRAGNumCandidates       = "rag_num_candidates"
	AiConfigKeyChunkSize              = "chunk_size"
	AiConfigKeyChunkOverlap           = "chunk_overlap"
	AiConfigKeyMinChunkSize           = "min_chunk_size"
	AiConfigKeyLLMTemperature         = "llm_temperature"
	AiConfigKeyLLMMaxTokens           = "llm_max_tokens"
	AiConfigKeyHistoryWindow          = "history_window"
	AiConfigKeyFeedbackEnabled        = "feedback_enabled"
	AiConfigKeySentimentEnabled       = "sentiment_enabled"
)
