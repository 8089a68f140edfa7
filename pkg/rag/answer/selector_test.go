package answer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/repository/contract"
	"ai-qa-rag-be/pkg/apperror"
	"ai-qa-rag-be/pkg/llm"
	"ai-qa-rag-be/pkg/rag/retrieval"
	"ai-qa-rag-be/pkg/rag/settings"
	"ai-qa-rag-be/pkg/rag/usage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeCurated struct {
	matches []*contract.ScoredCuratedQuestion
	err     error
}

func (f *fakeCurated) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredCuratedQuestion, error) {
	return f.matches, f.err
}

type fakeRetriever struct {
	result *retrieval.Result
	err    error
	opts   retrieval.Options
	calls  int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, emb []float32, opts retrieval.Options) (*retrieval.Result, error) {
	f.calls++
	f.opts = opts
	return f.result, f.err
}

type fakeGenerator struct {
	reply    string
	err      error
	messages []llm.Message
	calls    int
}

func (f *fakeGenerator) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	f.messages = history
	return f.reply, f.err
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type staticSettings struct{ snapshot settings.Snapshot }

func (s staticSettings) Snapshot(ctx context.Context) settings.Snapshot { return s.snapshot }

type fakeUnanswered struct {
	mu      sync.Mutex
	records []*entity.UnansweredQuestion
	err     error
}

func (f *fakeUnanswered) Record(ctx context.Context, q *entity.UnansweredQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, q)
	return f.err
}

func (f *fakeUnanswered) snapshot() []*entity.UnansweredQuestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.UnansweredQuestion(nil), f.records...)
}

type fakeUsage struct {
	requests []usage.TrackRequest
}

func (f *fakeUsage) Track(ctx context.Context, req usage.TrackRequest) {
	f.requests = append(f.requests, req)
}

type harness struct {
	embedder   *fakeEmbedder
	curated    *fakeCurated
	retriever  *fakeRetriever
	generator  *fakeGenerator
	unanswered *fakeUnanswered
	usage      *fakeUsage
	selector   *Selector
}

func newHarness() *harness {
	h := &harness{
		embedder:   &fakeEmbedder{},
		curated:    &fakeCurated{},
		retriever:  &fakeRetriever{result: &retrieval.Result{}},
		generator:  &fakeGenerator{reply: "Generated answer."},
		unanswered: &fakeUnanswered{},
		usage:      &fakeUsage{},
	}
	h.selector = NewSelector(Dependencies{
		Embedder:   h.embedder,
		Curated:    h.curated,
		Retriever:  h.retriever,
		Generator:  h.generator,
		Settings:   staticSettings{snapshot: settings.Defaults()},
		Unanswered: h.unanswered,
		Usage:      h.usage,
		Logger:     logger.NewNopLogger(),
	}, Config{})
	return h
}

func curatedMatch(score float64) *contract.ScoredCuratedQuestion {
	return &contract.ScoredCuratedQuestion{
		Question: &entity.CuratedQuestion{
			Id:         uuid.New(),
			Question:   "How do I reset my password?",
			Answer:     "Open Settings, choose Security and click Reset password.",
			Title:      "Password reset",
			Summary:    "Reset from the Security page.",
			References: []entity.CuratedReference{{Title: "Security guide", URL: "https://example.com/security"}},
		},
		Score: score,
	}
}

func retrievedChunk(title string, score float64) retrieval.RetrievedChunk {
	docId := uuid.New()
	return retrieval.RetrievedChunk{
		DocumentId: docId,
		Title:      title,
		Score:      score,
		Chunk: &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: docId,
			Content:    "Passwords can be reset from the Security page.",
			Metadata:   entity.ChunkMetadata{Section: "Security", Sequence: 2},
		},
	}
}

func TestSelect_EmptyQuestionRejectedBeforeEmbedding(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		h := newHarness()

		answer, err := h.selector.Select(context.Background(), Question{Text: text})

		require.Error(t, err)
		assert.Nil(t, answer)
		assert.True(t, errors.Is(err, apperror.ErrValidation))
		assert.Equal(t, 0, h.embedder.calls)
	}
}

func TestSelect_CuratedNearDuplicate(t *testing.T) {
	h := newHarness()
	h.curated.matches = []*contract.ScoredCuratedQuestion{curatedMatch(0.95), curatedMatch(0.99)}

	answer, err := h.selector.Select(context.Background(), Question{Text: "how can I reset my password"})

	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, answer.Source.Type)
	assert.Equal(t, "99%", answer.Source.Confidence)
	assert.Equal(t, "How do I reset my password?", answer.Source.MatchedQuestion)
	assert.Equal(t, "Open Settings, choose Security and click Reset password.", answer.Answer)
	assert.Equal(t, "Password reset", answer.Title)
	require.Len(t, answer.References, 1)
	assert.Equal(t, "Security guide", answer.References[0].Title)

	assert.Equal(t, 0, h.retriever.calls)
	assert.Equal(t, 0, h.generator.calls)
	assert.Empty(t, h.usage.requests)
	assert.Nil(t, answer.Debug)
}

func TestSelect_ConfidenceFormat(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{0.98, "98%"},
		{0.987, "99%"},
		{0.9849, "98%"},
		{1.0, "100%"},
		{0.5, "50%"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, confidence(tt.score))
		})
	}
}

func TestSelect_CuratedBelowThresholdFallsThrough(t *testing.T) {
	h := newHarness()
	h.curated.matches = []*contract.ScoredCuratedQuestion{curatedMatch(0.97)}
	h.retriever.result = &retrieval.Result{Chunks: []retrieval.RetrievedChunk{
		retrievedChunk("Security guide", 0.91),
		retrievedChunk("FAQ", 0.74),
	}}

	answer, err := h.selector.Select(context.Background(), Question{Text: "reset password?", UserId: "u1", SessionId: "s1"})

	require.NoError(t, err)
	assert.Equal(t, SourceRAG, answer.Source.Type)
	assert.Equal(t, "91%", answer.Source.Confidence)
	assert.Equal(t, "Generated answer.", answer.Answer)
	require.Len(t, answer.References, 2)
	assert.Equal(t, "Security guide", answer.References[0].Title)

	assert.Equal(t, 5, h.retriever.opts.MaxChunks)
	assert.InDelta(t, 0.7, h.retriever.opts.SimilarityThreshold, 1e-9)

	require.NotEmpty(t, h.generator.messages)
	system := h.generator.messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "Passwords can be reset from the Security page.")
	assert.NotContains(t, strings.ToLower(system.Content), "context")
	last := h.generator.messages[len(h.generator.messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "reset password?", last.Content)

	require.Len(t, h.usage.requests, 1)
	req := h.usage.requests[0]
	assert.Equal(t, "u1", req.UserId)
	assert.Equal(t, "s1", req.SessionId)
	require.Len(t, req.UsedChunks, 2)
	assert.InDelta(t, 0.91, *req.UsedChunks[0].Score, 1e-9)

	assert.Eventually(t, func() bool { return len(h.unanswered.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	record := h.unanswered.snapshot()[0]
	assert.True(t, record.UsedRag)
	assert.Equal(t, entity.UnansweredStatusPending, record.Status)
	require.NotNil(t, record.TopScore)
	assert.InDelta(t, 0.91, *record.TopScore, 1e-9)
}

func TestSelect_NoChunksPlainGeneration(t *testing.T) {
	h := newHarness()

	answer, err := h.selector.Select(context.Background(), Question{Text: "What is the meaning of life?"})

	require.NoError(t, err)
	assert.Equal(t, SourceLLM, answer.Source.Type)
	assert.Equal(t, "N/A", answer.Source.Confidence)
	assert.Empty(t, answer.References)
	assert.Empty(t, h.usage.requests)

	assert.Eventually(t, func() bool { return len(h.unanswered.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, h.unanswered.snapshot()[0].UsedRag)
}

func TestSelect_RetrievalErrorTreatedAsNoChunks(t *testing.T) {
	h := newHarness()
	h.retriever.result = nil
	h.retriever.err = errors.New("vector index unavailable and fallback failed")

	answer, err := h.selector.Select(context.Background(), Question{Text: "anything?", Debug: true})

	require.NoError(t, err)
	assert.Equal(t, SourceLLM, answer.Source.Type)
	require.NotNil(t, answer.Debug)
	assert.Contains(t, answer.Debug.RetrievalError, "vector index unavailable")
}

func TestSelect_FallbackChunksStillGrounded(t *testing.T) {
	h := newHarness()
	h.retriever.result = &retrieval.Result{
		Chunks:         []retrieval.RetrievedChunk{retrievedChunk("Recent doc", retrieval.FallbackScore)},
		Fallback:       true,
		FallbackReason: "vector search failed: index missing",
	}

	answer, err := h.selector.Select(context.Background(), Question{Text: "anything?", Debug: true})

	require.NoError(t, err)
	assert.Equal(t, SourceRAG, answer.Source.Type)
	assert.Equal(t, "50%", answer.Source.Confidence)
	require.NotNil(t, answer.Debug)
	assert.True(t, answer.Debug.Fallback)
	assert.Equal(t, "vector search failed: index missing", answer.Debug.FallbackReason)
	require.Len(t, answer.Debug.RetrievedChunks, 1)
	assert.Equal(t, "Security", answer.Debug.RetrievedChunks[0].Section)
}

func TestSelect_GroundedAnswerWithoutUsageTracker(t *testing.T) {
	h := newHarness()
	h.retriever.result = &retrieval.Result{Chunks: []retrieval.RetrievedChunk{retrievedChunk("Security guide", 0.88)}}
	sel := NewSelector(Dependencies{
		Embedder:  h.embedder,
		Curated:   h.curated,
		Retriever: h.retriever,
		Generator: h.generator,
		Settings:  staticSettings{snapshot: settings.Defaults()},
		Logger:    logger.NewNopLogger(),
	}, Config{})

	answer, err := sel.Select(context.Background(), Question{Text: "reset password?"})

	require.NoError(t, err)
	assert.Equal(t, SourceRAG, answer.Source.Type)
	assert.Equal(t, "88%", answer.Source.Confidence)
}

func TestSelect_CuratedStoreErrorDoesNotAbort(t *testing.T) {
	h := newHarness()
	h.curated.err = errors.New("curated index down")

	answer, err := h.selector.Select(context.Background(), Question{Text: "anything?"})

	require.NoError(t, err)
	assert.Equal(t, SourceLLM, answer.Source.Type)
}

func TestSelect_EmbeddingFailureIsFatal(t *testing.T) {
	h := newHarness()
	h.embedder.err = errors.New("provider returned 500")

	answer, err := h.selector.Select(context.Background(), Question{Text: "anything?"})

	require.Error(t, err)
	assert.Nil(t, answer)
	assert.True(t, errors.Is(err, apperror.ErrEmbeddingFailed))
	assert.Equal(t, 0, h.retriever.calls)
	assert.Equal(t, 0, h.generator.calls)
}

func TestSelect_GenerationFailureIsFatal(t *testing.T) {
	h := newHarness()
	h.generator.err = errors.New("model overloaded")

	answer, err := h.selector.Select(context.Background(), Question{Text: "anything?"})

	require.Error(t, err)
	assert.Nil(t, answer)
	assert.True(t, errors.Is(err, apperror.ErrGenerationFailed))
	assert.Empty(t, h.usage.requests)
	assert.Empty(t, h.unanswered.snapshot())
}

func TestSelect_UnansweredFailureIsSwallowed(t *testing.T) {
	h := newHarness()
	h.unanswered.err = errors.New("db down")

	answer, err := h.selector.Select(context.Background(), Question{Text: "anything?"})

	require.NoError(t, err)
	assert.Equal(t, "Generated answer.", answer.Answer)
}

func TestSelect_HistoryWindowPassedToGenerator(t *testing.T) {
	h := newHarness()
	recent := []llm.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "system", Content: "ignored"},
	}

	_, err := h.selector.Select(context.Background(), Question{Text: "follow-up?", RecentMessages: recent})

	require.NoError(t, err)
	require.Len(t, h.generator.messages, 4)
	assert.Equal(t, "first", h.generator.messages[1].Content)
	assert.Equal(t, "reply", h.generator.messages[2].Content)
	assert.Equal(t, "follow-up?", h.generator.messages[3].Content)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("  short  ", 10))
	assert.Equal(t, "héllo...", truncateRunes("héllo wörld", 5))
}
