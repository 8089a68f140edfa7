package answer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/llm"
	"ai-qa-rag-be/pkg/rag/history"
	"ai-qa-rag-be/pkg/rag/prompt"
	"ai-qa-rag-be/pkg/rag/retrieval"
	"ai-qa-rag-be/pkg/rag/usage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	titleMaxRunes   = 100
	summaryMaxRunes = 200
)

type Config struct {
	// CuratedCandidates is how many curated questions are compared per question.
	CuratedCandidates int
	GenerationTimeout time.Duration
	RecordTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		CuratedCandidates: 3,
		GenerationTimeout: 60 * time.Second,
		RecordTimeout:     10 * time.Second,
	}
}

type Dependencies struct {
	Embedder   Embedder
	Curated    CuratedSearcher
	Retriever  Retriever
	Generator  llm.LLMProvider
	Settings   SettingsProvider
	Unanswered UnansweredRecorder
	Usage      UsageTracker
	Logger     logger.ILogger
}

// Selector decides between a curated answer, a generated answer grounded on retrieved chunks,
// and a plain generated answer.
type Selector struct {
	deps   Dependencies
	cfg    Config
	tracer trace.Tracer
}

func NewSelector(deps Dependencies, cfg Config) *Selector {
	defaults := DefaultConfig()
	if cfg.CuratedCandidates <= 0 {
		cfg.CuratedCandidates = defaults.CuratedCandidates
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaults.GenerationTimeout
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaults.RecordTimeout
	}
	return &Selector{
		deps:   deps,
		cfg:    cfg,
		tracer: otel.Tracer("ai-qa-rag-be/pkg/rag/answer"),
	}
}

func (s *Selector) Select(ctx context.Context, q Question) (*Answer, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: question must not be empty", apperror.ErrValidation)
	}

	ctx, span := s.tracer.Start(ctx, "answer.Select")
	defer span.End()

	started := time.Now()
	snapshot := s.deps.Settings.Snapshot(ctx)
	debug := &DebugInfo{
		DuplicateThreshold: snapshot.DuplicateThreshold,
		RelevanceThreshold: snapshot.RelevanceThreshold,
		RetrievedChunks:    []DebugChunk{},
		TimingsMs:          map[string]int64{},
	}

	step := time.Now()
	embedding, err := s.deps.Embedder.Embed(ctx, text)
	debug.TimingsMs["embed"] = time.Since(step).Milliseconds()
	if err != nil {
		if !errors.Is(err, apperror.ErrEmbeddingFailed) {
			err = fmt.Errorf("%w: %v", apperror.ErrEmbeddingFailed, err)
		}
		s.fail(span, err)
		return nil, err
	}

	step = time.Now()
	match := s.bestCuratedMatch(ctx, embedding, debug)
	debug.TimingsMs["curated_search"] = time.Since(step).Milliseconds()

	if match != nil && match.Score >= snapshot.DuplicateThreshold {
		span.SetAttributes(attribute.String("answer.source", SourceDatabase), attribute.Float64("answer.score", match.Score))
		s.deps.Logger.Info("SELECTOR", "Answered from curated knowledge base", map[string]interface{}{
			"curated_question_id": match.Question.Id.String(),
			"score":               match.Score,
		})
		answer := curatedAnswer(match.Question, match.Score)
		debug.TimingsMs["total"] = time.Since(started).Milliseconds()
		if q.Debug {
			answer.Debug = debug
		}
		return answer, nil
	}

	step = time.Now()
	chunks := s.retrieve(ctx, embedding, q, snapshot.MaxChunks, snapshot.RelevanceThreshold, snapshot.NumCandidates, debug)
	debug.TimingsMs["retrieval"] = time.Since(step).Milliseconds()

	turns := history.Window(q.RecentMessages, snapshot.HistoryWindow)
	debug.HistoryTurns = len(turns)

	systemPrompt := prompt.PlainSystemPrompt()
	if len(chunks) > 0 {
		systemPrompt = prompt.NewContextBuilder(passages(chunks)).Build()
	}

	step = time.Now()
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	generated, err := llm.Complete(genCtx, s.deps.Generator, systemPrompt, text, turns, snapshot.Temperature, snapshot.MaxTokens)
	cancel()
	debug.TimingsMs["generation"] = time.Since(step).Milliseconds()
	if err != nil {
		err = fmt.Errorf("%w: %v", apperror.ErrGenerationFailed, err)
		s.fail(span, err)
		return nil, err
	}

	var answer *Answer
	var topScore *float64
	if len(chunks) > 0 {
		top := chunks[0].Score
		topScore = &top
		answer = &Answer{
			Answer:     generated,
			Title:      truncateRunes(text, titleMaxRunes),
			Summary:    truncateRunes(generated, summaryMaxRunes),
			References: chunkReferences(chunks),
			Source: Source{
				Type:        SourceRAG,
				Label:       "AI + Documents",
				Description: "Generated from the most relevant documentation",
				Confidence:  confidence(top),
			},
		}
		if s.deps.Usage != nil {
			s.deps.Usage.Track(ctx, trackRequest(text, embedding, chunks, generated, q))
		}
	} else {
		answer = &Answer{
			Answer:     generated,
			Title:      truncateRunes(text, titleMaxRunes),
			Summary:    truncateRunes(generated, summaryMaxRunes),
			References: []Reference{},
			Source: Source{
				Type:        SourceLLM,
				Label:       "AI Generated",
				Description: "Generated without matching documentation",
				Confidence:  confidenceUnknown,
			},
		}
	}

	s.recordUnanswered(ctx, &entity.UnansweredQuestion{
		Id:        uuid.New(),
		Question:  text,
		Answer:    generated,
		UsedRag:   len(chunks) > 0,
		TopScore:  topScore,
		UserId:    q.UserId,
		SessionId: q.SessionId,
		Status:    entity.UnansweredStatusPending,
	})

	span.SetAttributes(attribute.String("answer.source", answer.Source.Type), attribute.Int("answer.chunks", len(chunks)))
	s.deps.Logger.Info("SELECTOR", "Answer generated", map[string]interface{}{
		"source":   answer.Source.Type,
		"chunks":   len(chunks),
		"fallback": debug.Fallback,
	})

	debug.TimingsMs["total"] = time.Since(started).Milliseconds()
	if q.Debug {
		answer.Debug = debug
	}
	return answer, nil
}

// bestCuratedMatch returns the highest scoring curated question. A failing store counts as no match.
func (s *Selector) bestCuratedMatch(ctx context.Context, embedding []float32, debug *DebugInfo) *scoredCurated {
	matches, err := s.deps.Curated.SearchSimilar(ctx, embedding, s.cfg.CuratedCandidates)
	if err != nil {
		debug.CuratedError = err.Error()
		s.deps.Logger.Warn("SELECTOR", "Curated question search failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	var best *scoredCurated
	for _, m := range matches {
		if m == nil || m.Question == nil {
			continue
		}
		if best == nil || m.Score > best.Score {
			best = &scoredCurated{Question: m.Question, Score: m.Score}
		}
	}
	if best != nil {
		score := best.Score
		id := best.Question.Id
		debug.CuratedBestScore = &score
		debug.CuratedQuestionId = &id
	}
	return best
}

type scoredCurated struct {
	Question *entity.CuratedQuestion
	Score    float64
}

// retrieve never fails the request: an engine error counts as zero chunks.
func (s *Selector) retrieve(ctx context.Context, embedding []float32, q Question, maxChunks int, threshold float64, numCandidates int, debug *DebugInfo) []retrieval.RetrievedChunk {
	result, err := s.deps.Retriever.Retrieve(ctx, embedding, retrieval.Options{
		MaxChunks:           maxChunks,
		SimilarityThreshold: threshold,
		NumCandidates:       numCandidates,
		Category:            q.Category,
		Tags:                q.Tags,
	})
	if err != nil {
		debug.RetrievalError = err.Error()
		s.deps.Logger.Warn("SELECTOR", "Retrieval failed, continuing without documents", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if result == nil {
		return nil
	}

	debug.Fallback = result.Fallback
	debug.FallbackReason = result.FallbackReason
	debug.Candidates = result.Candidates
	for _, c := range result.Chunks {
		dc := DebugChunk{DocumentId: c.DocumentId, Title: c.Title, Score: c.Score}
		if c.Chunk != nil {
			dc.ChunkId = c.Chunk.Id
			dc.Section = c.Chunk.Metadata.Section
			dc.Sequence = c.Chunk.Metadata.Sequence
		}
		debug.RetrievedChunks = append(debug.RetrievedChunks, dc)
	}
	return result.Chunks
}

func (s *Selector) recordUnanswered(ctx context.Context, q *entity.UnansweredQuestion) {
	if s.deps.Unanswered == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RecordTimeout)
	go func() {
		defer cancel()
		if err := s.deps.Unanswered.Record(recordCtx, q); err != nil {
			s.deps.Logger.Error("SELECTOR", "Failed to record unanswered question", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}

func (s *Selector) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.deps.Logger.Error("SELECTOR", "Question failed", map[string]interface{}{
		"error": err.Error(),
		"kind":  apperror.Kind(err),
	})
}

func curatedAnswer(q *entity.CuratedQuestion, score float64) *Answer {
	refs := make([]Reference, 0, len(q.References))
	for _, r := range q.References {
		refs = append(refs, Reference{Title: r.Title, URL: r.URL})
	}
	return &Answer{
		Answer:     q.Answer,
		Title:      q.Title,
		Summary:    q.Summary,
		References: refs,
		Source: Source{
			Type:            SourceDatabase,
			Label:           "Knowledge Base",
			Description:     "Reviewed answer from the curated knowledge base",
			Confidence:      confidence(score),
			MatchedQuestion: q.Question,
		},
	}
}

// confidence renders a [0,1] score as a whole percentage, e.g. 0.987 -> "99%".
func confidence(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

func passages(chunks []retrieval.RetrievedChunk) []prompt.Passage {
	out := make([]prompt.Passage, 0, len(chunks))
	for _, c := range chunks {
		if c.Chunk == nil {
			continue
		}
		out = append(out, prompt.Passage{
			Title:   c.Title,
			Section: c.Chunk.Metadata.Section,
			Content: c.Chunk.Content,
		})
	}
	return out
}

// chunkReferences lists each source document once, at its best chunk's score.
func chunkReferences(chunks []retrieval.RetrievedChunk) []Reference {
	seen := make(map[uuid.UUID]bool, len(chunks))
	refs := make([]Reference, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.DocumentId] {
			continue
		}
		seen[c.DocumentId] = true

		docId := c.DocumentId
		score := c.Score
		ref := Reference{Title: c.Title, DocumentId: &docId, Score: &score}
		if c.Chunk != nil {
			ref.Section = c.Chunk.Metadata.Section
		}
		refs = append(refs, ref)
	}
	return refs
}

func trackRequest(question string, embedding []float32, chunks []retrieval.RetrievedChunk, response string, q Question) usage.TrackRequest {
	used := make([]usage.UsedChunk, 0, len(chunks))
	for _, c := range chunks {
		score := c.Score
		uc := usage.UsedChunk{DocumentId: c.DocumentId, Score: &score}
		if c.Chunk != nil {
			uc.ChunkId = c.Chunk.Id
			uc.ChunkIndex = c.Chunk.Metadata.Sequence
		}
		used = append(used, uc)
	}
	return usage.TrackRequest{
		Question:          question,
		QuestionEmbedding: embedding,
		UsedChunks:        used,
		Response:          response,
		UserId:            q.UserId,
		SessionId:         q.SessionId,
		OccurredAt:        time.Now(),
	}
}

func truncateRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
