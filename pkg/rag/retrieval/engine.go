package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/contract"

	"github.com/google/uuid"
)

// FallbackScore is assigned to every recency-fallback result to signal degraded confidence.
const FallbackScore = 0.5

// ChunkSearcher is the slice of the chunk store the engine needs.
type ChunkSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, numCandidates, limit int) ([]*contract.ScoredChunk, error)
	FindRecent(ctx context.Context, limit int) ([]*entity.DocumentChunk, error)
}

// DocumentLookup resolves parent documents for retrieved chunks.
type DocumentLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Document, error)
}

type Options struct {
	MaxChunks           int
	SimilarityThreshold float64
	NumCandidates       int
	Category            string
	Tags                []string
}

type RetrievedChunk struct {
	DocumentId       uuid.UUID
	Title            string
	Chunk            *entity.DocumentChunk
	Score            float64
	DocumentMetadata entity.DocumentMetadata
}

type Result struct {
	Chunks         []RetrievedChunk
	Fallback       bool
	FallbackReason string
	// Candidates is how many rows the store returned before filtering.
	Candidates int
}

type Engine struct {
	chunks        ChunkSearcher
	documents     DocumentLookup
	logger        logger.ILogger
	searchTimeout time.Duration
}

// NewEngine builds an engine. A positive searchTimeout bounds the vector search; hitting it triggers the fallback.
func NewEngine(chunks ChunkSearcher, documents DocumentLookup, log logger.ILogger, searchTimeout time.Duration) *Engine {
	return &Engine{
		chunks:        chunks,
		documents:     documents,
		logger:        log,
		searchTimeout: searchTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxChunks <= 0 {
		o.MaxChunks = 5
	}
	if o.NumCandidates <= 0 {
		o.NumCandidates = 100
	}
	if o.NumCandidates < o.MaxChunks*2 {
		o.NumCandidates = o.MaxChunks * 2
	}
	return o
}

// Retrieve runs the vector search and falls back to the most recent chunks when the search itself fails.
func (e *Engine) Retrieve(ctx context.Context, queryEmbedding []float32, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	result, err := e.primary(ctx, queryEmbedding, opts)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	e.logger.Warn("RETRIEVAL", "Vector search failed, falling back to recent chunks", map[string]interface{}{
		"error": err.Error(),
	})
	return e.fallback(ctx, opts, err)
}

func (e *Engine) primary(ctx context.Context, queryEmbedding []float32, opts Options) (*Result, error) {
	searchCtx := ctx
	if e.searchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, e.searchTimeout)
		defer cancel()
	}

	scored, err := e.chunks.SearchSimilar(searchCtx, queryEmbedding, opts.NumCandidates, opts.MaxChunks*2)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("vector search: %w", context.DeadlineExceeded)
	}

	kept := make([]*contract.ScoredChunk, 0, len(scored))
	for _, s := range scored {
		if s == nil || s.Chunk == nil {
			continue
		}
		if s.Score >= opts.SimilarityThreshold {
			kept = append(kept, s)
		}
	}

	chunks, err := e.join(ctx, kept, opts)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("RETRIEVAL", "Vector search completed", map[string]interface{}{
		"candidates": len(scored),
		"above":      len(kept),
		"returned":   len(chunks),
		"threshold":  opts.SimilarityThreshold,
	})

	return &Result{
		Chunks:     chunks,
		Candidates: len(scored),
	}, nil
}

func (e *Engine) fallback(ctx context.Context, opts Options, cause error) (*Result, error) {
	recent, err := e.chunks.FindRecent(ctx, opts.MaxChunks*2)
	if err != nil {
		e.logger.Error("RETRIEVAL", "Recency fallback failed", map[string]interface{}{
			"error": err.Error(),
			"cause": cause.Error(),
		})
		return nil, fmt.Errorf("retrieval fallback failed after %v: %w", cause, err)
	}

	scored := make([]*contract.ScoredChunk, 0, len(recent))
	for _, c := range recent {
		if c == nil {
			continue
		}
		scored = append(scored, &contract.ScoredChunk{Chunk: c, Score: FallbackScore})
	}

	chunks, err := e.join(ctx, scored, opts)
	if err != nil {
		e.logger.Error("RETRIEVAL", "Recency fallback join failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("retrieval fallback failed after %v: %w", cause, err)
	}

	return &Result{
		Chunks:         chunks,
		Fallback:       true,
		FallbackReason: cause.Error(),
		Candidates:     len(recent),
	}, nil
}

// join attaches parent documents, drops orphans, applies metadata filters, sorts and truncates.
func (e *Engine) join(ctx context.Context, scored []*contract.ScoredChunk, opts Options) ([]RetrievedChunk, error) {
	if len(scored) == 0 {
		return []RetrievedChunk{}, nil
	}

	ids := make([]uuid.UUID, 0, len(scored))
	seen := make(map[uuid.UUID]bool, len(scored))
	for _, s := range scored {
		if !seen[s.Chunk.DocumentId] {
			seen[s.Chunk.DocumentId] = true
			ids = append(ids, s.Chunk.DocumentId)
		}
	}

	docs, err := e.documents.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load parent documents: %w", err)
	}

	out := make([]RetrievedChunk, 0, len(scored))
	for _, s := range scored {
		doc, ok := docs[s.Chunk.DocumentId]
		if !ok || doc == nil {
			continue
		}
		if !matchesFilters(doc, opts) {
			continue
		}
		out = append(out, RetrievedChunk{
			DocumentId:       doc.Id,
			Title:            doc.Title,
			Chunk:            s.Chunk,
			Score:            s.Score,
			DocumentMetadata: doc.Metadata,
		})
	}

	// stable: equal scores keep store order (distance or recency)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if len(out) > opts.MaxChunks {
		out = out[:opts.MaxChunks]
	}
	return out, nil
}

// matchesFilters applies the optional category (exact, case-insensitive) and tag (any of) filters.
func matchesFilters(doc *entity.Document, opts Options) bool {
	if opts.Category != "" && !strings.EqualFold(doc.Metadata.Category, opts.Category) {
		return false
	}
	if len(opts.Tags) == 0 {
		return true
	}
	for _, tag := range opts.Tags {
		if doc.HasTag(tag) {
			return true
		}
	}
	return false
}
