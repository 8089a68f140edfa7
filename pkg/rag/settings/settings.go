package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/specification"
	"ai-qa-rag-be/pkg/chunker"

	"github.com/patrickmn/go-cache"
)

const snapshotKey = "snapshot"

// Snapshot is the read-only set of tunables used for one question or one ingestion run.
type Snapshot struct {
	DuplicateThreshold float64
	RelevanceThreshold float64
	MaxChunks          int
	NumCandidates      int
	Chunking           chunker.Config
	Temperature        float64
	MaxTokens          int
	HistoryWindow      int
	FeedbackEnabled    bool
	SentimentEnabled   bool
}

// Defaults returns the documented fallback values.
func Defaults() Snapshot {
	return Snapshot{
		DuplicateThreshold: 0.98,
		RelevanceThreshold: 0.7,
		MaxChunks:          5,
		NumCandidates:      100,
		Chunking:           chunker.DefaultConfig(),
		Temperature:        0.7,
		MaxTokens:          1000,
		HistoryWindow:      6,
	}
}

// Source is the settings store, the ai_configurations table in production.
type Source interface {
	FindAllConfigurations(ctx context.Context, specs ...specification.Specification) ([]*entity.AiConfiguration, error)
}

// Provider reads settings from Source, overlays them on defaults and caches the result briefly.
// A failing or partial Source never fails the caller: missing or invalid keys keep their defaults.
type Provider struct {
	source   Source
	defaults Snapshot
	cache    *cache.Cache
	logger   logger.ILogger
}

func NewProvider(source Source, defaults Snapshot, ttl time.Duration, log logger.ILogger) *Provider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Provider{
		source:   source,
		defaults: defaults,
		cache:    cache.New(ttl, 2*ttl),
		logger:   log,
	}
}

func (p *Provider) Snapshot(ctx context.Context) Snapshot {
	if cached, found := p.cache.Get(snapshotKey); found {
		return cached.(Snapshot)
	}

	if p.source == nil {
		return p.defaults
	}

	rows, err := p.source.FindAllConfigurations(ctx)
	if err != nil {
		p.logger.Warn("SETTINGS", "Failed to load settings, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return p.defaults
	}

	snap := p.overlay(rows)
	p.cache.SetDefault(snapshotKey, snap)
	return snap
}

// Invalidate drops the cached snapshot so the next call reloads.
func (p *Provider) Invalidate() {
	p.cache.Delete(snapshotKey)
}

func (p *Provider) overlay(rows []*entity.AiConfiguration) Snapshot {
	snap := p.defaults

	for _, row := range rows {
		if row == nil {
			continue
		}
		value := strings.TrimSpace(row.Value)
		var ok bool

		switch row.Key {
		case entity.AiConfigKeyDuplicateThreshold:
			ok = parseUnit(value, &snap.DuplicateThreshold)
		case entity.AiConfigKeyRAGSimilarityThreshold:
			ok = parseUnit(value, &snap.RelevanceThreshold)
		case entity.AiConfigKeyRAGMaxResults:
			ok = parsePositive(value, &snap.MaxChunks)
		case entity.AiConfigKeyRAGNumCandidates:
			ok = parsePositive(value, &snap.NumCandidates)
		case entity.AiConfigKeyChunkSize:
			ok = parsePositive(value, &snap.Chunking.ChunkSize)
		case entity.AiConfigKeyChunkOverlap:
			ok = parseNonNegative(value, &snap.Chunking.Overlap)
		case entity.AiConfigKeyMinChunkSize:
			ok = parseNonNegative(value, &snap.Chunking.MinChunkSize)
		case entity.AiConfigKeyLLMTemperature:
			ok = parseFloatRange(value, 0, 2, &snap.Temperature)
		case entity.AiConfigKeyLLMMaxTokens:
			ok = parsePositive(value, &snap.MaxTokens)
		case entity.AiConfigKeyHistoryWindow:
			ok = parseNonNegative(value, &snap.HistoryWindow)
		case entity.AiConfigKeyFeedbackEnabled:
			ok = parseBool(value, &snap.FeedbackEnabled)
		case entity.AiConfigKeySentimentEnabled:
			ok = parseBool(value, &snap.SentimentEnabled)
		default:
			continue
		}

		if !ok {
			p.logger.Warn("SETTINGS", "Ignoring invalid setting", map[string]interface{}{
				"key":   row.Key,
				"value": row.Value,
			})
		}
	}

	if err := snap.Chunking.Validate(); err != nil {
		p.logger.Warn("SETTINGS", "Chunking settings rejected, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		snap.Chunking = p.defaults.Chunking
	}

	return snap
}

func parseUnit(value string, dst *float64) bool {
	return parseFloatRange(value, 0, 1, dst)
}

func parseFloatRange(value string, min, max float64, dst *float64) bool {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < min || f > max {
		return false
	}
	*dst = f
	return true
}

func parsePositive(value string, dst *int) bool {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return false
	}
	*dst = n
	return true
}

func parseNonNegative(value string, dst *int) bool {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return false
	}
	*dst = n
	return true
}

func parseBool(value string, dst *bool) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	*dst = b
	return true
}
