package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/pkg/apperror"

	"golang.org/x/sync/singleflight"
)

// CachedProvider puts the LRU (and optionally a shared tier) in front of an EmbeddingProvider.
// Misses for the same text arriving concurrently share a single upstream call.
// Upstream failures are returned as ErrEmbeddingFailed and are not retried here.
type CachedProvider struct {
	provider   EmbeddingProvider
	cache      *Cache
	shared     SharedCache
	logger     logger.ILogger
	group      singleflight.Group
	taskType   string
	dimensions int
	timeout    time.Duration
}

type CachedOption func(*CachedProvider)

func WithSharedCache(shared SharedCache) CachedOption {
	return func(p *CachedProvider) {
		p.shared = shared
	}
}

// WithDimensions sets the expected vector width. Zero disables the check.
func WithDimensions(n int) CachedOption {
	return func(p *CachedProvider) {
		p.dimensions = n
	}
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) CachedOption {
	return func(p *CachedProvider) {
		p.timeout = d
	}
}

func WithTaskType(taskType string) CachedOption {
	return func(p *CachedProvider) {
		p.taskType = taskType
	}
}

func NewCachedProvider(provider EmbeddingProvider, cache *Cache, log logger.ILogger, opts ...CachedOption) *CachedProvider {
	p := &CachedProvider{
		provider:   provider,
		cache:      cache,
		logger:     log,
		taskType:   TaskRetrievalQuery,
		dimensions: Dimensions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache exposes the local tier, mainly so tests and operators can Clear it.
func (p *CachedProvider) Cache() *Cache {
	return p.cache
}

func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text to embed is empty", apperror.ErrValidation)
	}

	if vec, ok := p.cache.Get(text); ok {
		return vec, nil
	}

	// The shared call outlives any one caller; each waiter still honours its own ctx.
	ch := p.group.DoChan(text, func() (interface{}, error) {
		return p.load(context.WithoutCancel(ctx), text)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", apperror.ErrEmbeddingFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneVector(res.Val.([]float32)), nil
	}
}

func (p *CachedProvider) load(ctx context.Context, text string) ([]float32, error) {
	// another caller may have filled the cache while we waited on the group
	if vec, ok := p.cache.Get(text); ok {
		return vec, nil
	}

	if p.shared != nil {
		vec, ok, err := p.shared.Get(ctx, text)
		if err != nil {
			p.logger.Warn("EMBEDDING", "Shared cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else if ok && p.validWidth(vec) {
			p.cache.Set(text, vec)
			return vec, nil
		}
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.provider.Generate(callCtx, text, p.taskType)
	if err != nil {
		p.logger.Error("EMBEDDING", "Embedding generation failed", map[string]interface{}{
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		return nil, fmt.Errorf("%w: %v", apperror.ErrEmbeddingFailed, err)
	}

	vec := resp.Embedding.Values
	if !p.validWidth(vec) {
		return nil, fmt.Errorf("%w: got %d, want %d", apperror.ErrDimensionMismatch, len(vec), p.dimensions)
	}

	p.cache.Set(text, vec)
	if p.shared != nil {
		if err := p.shared.Set(ctx, text, vec); err != nil {
			p.logger.Warn("EMBEDDING", "Shared cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return vec, nil
}

func (p *CachedProvider) validWidth(vec []float32) bool {
	if len(vec) == 0 {
		return false
	}
	return p.dimensions == 0 || len(vec) == p.dimensions
}
