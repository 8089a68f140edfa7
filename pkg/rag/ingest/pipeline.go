package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/chunker"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Config struct {
	// Workers bounds concurrent embedding calls for one document.
	Workers int
	// RatePerSecond caps embedding calls across every document the pipeline processes. Zero disables it.
	RatePerSecond float64
	Burst         int
}

func DefaultConfig() Config {
	return Config{Workers: 4, RatePerSecond: 10, Burst: 4}
}

type Document struct {
	Id      uuid.UUID
	Title   string
	Content string
}

// Pipeline turns a document into embedded chunks ready to store.
type Pipeline struct {
	embedder Embedder
	matchers []chunker.SectionMatcher
	workers  int
	limiter  *rate.Limiter
	logger   logger.ILogger
}

func NewPipeline(embedder Embedder, cfg Config, log logger.ILogger, matchers ...chunker.SectionMatcher) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if len(matchers) == 0 {
		matchers = chunker.DefaultSectionMatchers()
	}
	return &Pipeline{
		embedder: embedder,
		matchers: matchers,
		workers:  cfg.Workers,
		limiter:  limiter,
		logger:   log,
	}
}

// Validate rejects documents that would waste embedding calls.
func Validate(doc Document) error {
	if strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("%w: document title is required", apperror.ErrValidation)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: document content is required", apperror.ErrValidation)
	}
	return nil
}

// Process chunks doc and embeds every chunk. Output order follows chunk sequence.
// Any embedding failure fails the whole document.
func (p *Pipeline) Process(ctx context.Context, doc Document, cfg chunker.Config) ([]*entity.DocumentChunk, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	c, err := chunker.New(cfg, p.matchers...)
	if err != nil {
		return nil, err
	}
	pieces, err := c.Split(doc.Content)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	out := make([]*entity.DocumentChunk, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, piece := range pieces {
		g.Go(func() error {
			if err := p.limiter.Wait(gctx); err != nil {
				return err
			}
			vector, err := p.embedder.Embed(gctx, piece.Content)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", piece.Sequence, err)
			}
			out[i] = &entity.DocumentChunk{
				Id:         uuid.New(),
				DocumentId: doc.Id,
				Content:    piece.Content,
				Embedding:  vector,
				Metadata: entity.ChunkMetadata{
					StartIndex: piece.StartIndex,
					EndIndex:   piece.EndIndex,
					Section:    piece.Section,
					Sequence:   piece.Sequence,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Info("INGEST", "Document embedded", map[string]interface{}{
		"document_id": doc.Id.String(),
		"chunks":      len(out),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return out, nil
}
