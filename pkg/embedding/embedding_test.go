package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/pkg/apperror"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int32
	width int
	err   error
	delay time.Duration
}

func (p *countingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return nil, p.err
	}
	vec := make([]float32, p.width)
	for i := range vec {
		vec[i] = float32(len(text)) + float32(i)
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: vec}}, nil
}

func newTestCached(p EmbeddingProvider, width int, opts ...CachedOption) *CachedProvider {
	opts = append([]CachedOption{WithDimensions(width)}, opts...)
	return NewCachedProvider(p, NewCache(1000, 24*time.Hour), logger.NewNopLogger(), opts...)
}

func TestCachedProvider_SecondCallIsCacheHit(t *testing.T) {
	upstream := &countingProvider{width: 4}
	p := newTestCached(upstream, 4)

	first, err := p.Embed(context.Background(), "how do refunds work?")
	require.NoError(t, err)
	second, err := p.Embed(context.Background(), "how do refunds work?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), upstream.calls.Load())
}

func TestCachedProvider_DistinctTextMisses(t *testing.T) {
	upstream := &countingProvider{width: 4}
	p := newTestCached(upstream, 4)

	_, err := p.Embed(context.Background(), "alpha")
	require.NoError(t, err)
	_, err = p.Embed(context.Background(), "alpha ")
	require.NoError(t, err)

	assert.Equal(t, int32(2), upstream.calls.Load())
}

func TestCachedProvider_ClearForcesRefetch(t *testing.T) {
	upstream := &countingProvider{width: 4}
	p := newTestCached(upstream, 4)

	_, _ = p.Embed(context.Background(), "alpha")
	p.Cache().Clear()
	_, _ = p.Embed(context.Background(), "alpha")

	assert.Equal(t, int32(2), upstream.calls.Load())
}

func TestCachedProvider_UpstreamFailureIsNotRetriedOrCached(t *testing.T) {
	upstream := &countingProvider{width: 4, err: errors.New("boom")}
	p := newTestCached(upstream, 4)

	_, err := p.Embed(context.Background(), "alpha")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrEmbeddingFailed)
	assert.Equal(t, int32(1), upstream.calls.Load())

	_, err = p.Embed(context.Background(), "alpha")
	require.Error(t, err)
	assert.Equal(t, int32(2), upstream.calls.Load())
}

func TestCachedProvider_RejectsWrongDimension(t *testing.T) {
	upstream := &countingProvider{width: 3}
	p := newTestCached(upstream, 4)

	_, err := p.Embed(context.Background(), "alpha")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrDimensionMismatch)
	assert.Equal(t, 0, p.Cache().Len())
}

func TestCachedProvider_EmptyTextRejectedBeforeUpstream(t *testing.T) {
	upstream := &countingProvider{width: 4}
	p := newTestCached(upstream, 4)

	_, err := p.Embed(context.Background(), "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, int32(0), upstream.calls.Load())
}

func TestCachedProvider_ConcurrentMissesShareOneCall(t *testing.T) {
	upstream := &countingProvider{width: 4, delay: 50 * time.Millisecond}
	p := newTestCached(upstream, 4)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Embed(context.Background(), "same question")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), upstream.calls.Load())
}

// slowProvider blocks until its delay elapses or the call context ends.
type slowProvider struct {
	calls atomic.Int32
	width int
	delay time.Duration
}

func (p *slowProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	p.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.delay):
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: make([]float32, p.width)}}, nil
}

func TestCachedProvider_CancelledCallerDoesNotFailOthers(t *testing.T) {
	upstream := &slowProvider{width: 4, delay: 150 * time.Millisecond}
	p := newTestCached(upstream, 4)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := p.Embed(ctxA, "shared question")
		errA <- err
	}()
	require.Eventually(t, func() bool { return upstream.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	errB := make(chan error, 1)
	go func() {
		_, err := p.Embed(context.Background(), "shared question")
		errB <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancelA()

	err := <-errA
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrEmbeddingFailed)

	assert.NoError(t, <-errB)
	assert.Equal(t, int32(1), upstream.calls.Load())

	_, ok := p.Cache().Get("shared question")
	assert.True(t, ok)
}

func TestCachedProvider_TimeoutBoundsDetachedCall(t *testing.T) {
	upstream := &slowProvider{width: 4, delay: time.Second}
	p := newTestCached(upstream, 4, WithTimeout(30*time.Millisecond))

	_, err := p.Embed(context.Background(), "slow question")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrEmbeddingFailed)
}

func TestCachedProvider_SharedTier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	shared := NewRedisCache(client, "test-model", time.Hour)
	upstream := &countingProvider{width: 4}

	a := newTestCached(upstream, 4, WithSharedCache(shared))
	b := newTestCached(upstream, 4, WithSharedCache(shared))

	va, err := a.Embed(context.Background(), "shared text")
	require.NoError(t, err)
	vb, err := b.Embed(context.Background(), "shared text")
	require.NoError(t, err)

	assert.Equal(t, va, vb)
	assert.Equal(t, int32(1), upstream.calls.Load())
	assert.Len(t, mr.Keys(), 1)
}

func TestCache_LRUEviction(t *testing.T) {
	c := NewCache(2, time.Hour)

	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	_, _ = c.Get("a") // a becomes most recently used
	c.Set("c", []float32{3})

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache(10, 30*time.Millisecond)
	c.Set("a", []float32{1})

	_, ok := c.Get("a")
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(10, time.Hour)
	c.Set("a", []float32{1, 2})

	v, _ := c.Get("a")
	v[0] = 99

	again, _ := c.Get("a")
	assert.Equal(t, float32(1), again[0])
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 4}

	ab, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	ba, err := CosineSimilarity(b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	self, err := CosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, self, 1e-9)

	opposite, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, opposite, 1e-9)

	_, err = CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, apperror.ErrDimensionMismatch)

	_, err = CosineSimilarity(nil, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestScoreFromCosineDistance(t *testing.T) {
	assert.Equal(t, 1.0, ScoreFromCosineDistance(0))
	assert.Equal(t, 0.5, ScoreFromCosineDistance(1))
	assert.Equal(t, 0.0, ScoreFromCosineDistance(2))
	assert.InDelta(t, 0.99, ScoreFromCosineDistance(0.02), 1e-9)
}

func TestOpenAIProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIEmbeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Input)
		assert.Equal(t, "text-embedding-3-small", req.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", "", srv.URL)
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, resp.Embedding.Values)
}

func TestOpenAIProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", "", srv.URL)
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "hello", TaskRetrievalQuery)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.False(t, statusErr.Retryable())
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "")
	assert.Error(t, err)
}

func TestOllamaProvider_NormalizesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test")
	resp, err := p.Generate(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, resp.Embedding.Values[0], 1e-6)
	assert.InDelta(t, 0.8, resp.Embedding.Values[1], 1e-6)
}

type flakyProvider struct {
	failures int
	status   int
	calls    int
}

func (p *flakyProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, &StatusError{Provider: "fake", StatusCode: p.status}
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{1}}}, nil
}

func TestRetryingProvider(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		status    int
		wantErr   bool
		wantCalls int
	}{
		{name: "transient then success", failures: 2, status: http.StatusServiceUnavailable, wantErr: false, wantCalls: 3},
		{name: "rate limited beyond budget", failures: 5, status: http.StatusTooManyRequests, wantErr: true, wantCalls: 3},
		{name: "client error is permanent", failures: 5, status: http.StatusBadRequest, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := &flakyProvider{failures: tt.failures, status: tt.status}
			p := NewRetryingProvider(upstream, 3, 0)
			p.initial = time.Millisecond

			_, err := p.Generate(context.Background(), "x", "")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, upstream.calls)
		})
	}
}
