package settings

import (
	"strconv"

	"ai-qa-rag-be/internal/entity"
)

// SeedEntries renders a snapshot as ai_configurations rows, used to initialise an empty table.
func SeedEntries(s Snapshot) []*entity.AiConfiguration {
	num := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

	return []*entity.AiConfiguration{
		{
			Key:         entity.AiConfigKeyDuplicateThreshold,
			Value:       num(s.DuplicateThreshold),
			ValueType:   entity.AiConfigValueTypeNumber,
			Category:    entity.AiConfigCategoryRAG,
			Description: "Minimum score for reusing a curated answer verbatim",
		},
		{
			Key:         entity.AiConfigKeyRAGSimilarityThreshold,
			Value:       num(s.RelevanceThreshold),
			ValueType:   entity.AiConfigValueTypeNumber,
			Category:    entity.AiConfigCategoryRAG,
			Description: "Minimum score for a chunk to be used as context",
		},
		{
			Key:       entity.AiConfigKeyRAGMaxResults,
			Value:     strconv.Itoa(s.MaxChunks),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryRAG,
		},
		{
			Key:       entity.AiConfigKeyRAGNumCandidates,
			Value:     strconv.Itoa(s.NumCandidates),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryRAG,
		},
		{
			Key:       entity.AiConfigKeyChunkSize,
			Value:     strconv.Itoa(s.Chunking.ChunkSize),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryChunking,
		},
		{
			Key:       entity.AiConfigKeyChunkOverlap,
			Value:     strconv.Itoa(s.Chunking.Overlap),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryChunking,
		},
		{
			Key:       entity.AiConfigKeyMinChunkSize,
			Value:     strconv.Itoa(s.Chunking.MinChunkSize),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryChunking,
		},
		{
			Key:       entity.AiConfigKeyLLMTemperature,
			Value:     num(s.Temperature),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryLLM,
		},
		{
			Key:       entity.AiConfigKeyLLMMaxTokens,
			Value:     strconv.Itoa(s.MaxTokens),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryLLM,
		},
		{
			Key:       entity.AiConfigKeyHistoryWindow,
			Value:     strconv.Itoa(s.HistoryWindow),
			ValueType: entity.AiConfigValueTypeNumber,
			Category:  entity.AiConfigCategoryLLM,
		},
		{
			Key:       entity.AiConfigKeyFeedbackEnabled,
			Value:     strconv.FormatBool(s.FeedbackEnabled),
			ValueType: entity.AiConfigValueTypeBoolean,
			Category:  entity.AiConfigCategoryFeature,
		},
		{
			Key:       entity.AiConfigKeySentimentEnabled,
			Value:     strconv.FormatBool(s.SentimentEnabled),
			ValueType: entity.AiConfigValueTypeBoolean,
			Category:  entity.AiConfigCategoryFeature,
		},
	}
}
