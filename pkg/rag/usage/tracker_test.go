package usage

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	queries []*entity.RetrievalQuery
	metrics [][]*entity.UsageMetric
	err     error
	delay   time.Duration
}

func (f *fakeStore) SaveTrail(ctx context.Context, q *entity.RetrievalQuery, m []*entity.UsageMetric) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.queries = append(f.queries, q)
	f.metrics = append(f.metrics, m)
	return nil
}

func (f *fakeStore) saved() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func newTestTracker(t *testing.T, store Store) *Tracker {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	return NewTracker(pubSub, pubSub, "", store, logger.NewNopLogger(), time.Second)
}

func ptr(f float64) *float64 { return &f }

func TestBuildTrail(t *testing.T) {
	docId := uuid.New()
	req := TrackRequest{
		Question: "How do I reset my password?",
		Response: "Use the reset link.",
		UserId:   "user-1",
		UsedChunks: []UsedChunk{
			{DocumentId: docId, ChunkId: uuid.New(), ChunkIndex: 0, Score: ptr(0.82)},
			{DocumentId: docId, ChunkId: uuid.New(), ChunkIndex: 1},
			{DocumentId: docId, ChunkId: uuid.New(), ChunkIndex: 2, Score: ptr(math.NaN())},
			{DocumentId: docId, ChunkId: uuid.New(), ChunkIndex: 3, Score: ptr(math.Inf(1))},
			{DocumentId: docId, ChunkId: uuid.New(), ChunkIndex: 4, Score: ptr(1.7)},
		},
	}

	query, metrics := BuildTrail(req)

	require.Len(t, metrics, 5)
	require.Len(t, query.RetrievedChunks, 5)
	assert.Equal(t, req.Question, query.Question)
	assert.Equal(t, "user-1", query.UserId)

	expected := []float64{0.82, 0.5, 0.5, 0.5, 0.5}
	for i, m := range metrics {
		assert.Equal(t, query.Id, m.QueryId)
		assert.Equal(t, docId, m.DocumentId)
		assert.InDelta(t, expected[i], m.RelevanceScore, 1e-9)
		assert.InDelta(t, expected[i], query.RetrievedChunks[i].RelevanceScore, 1e-9)
		assert.False(t, m.Timestamp.IsZero())
	}
}

func TestBuildTrail_NoChunks(t *testing.T) {
	query, metrics := BuildTrail(TrackRequest{Question: "q"})
	assert.Empty(t, metrics)
	assert.Empty(t, query.RetrievedChunks)
}

func TestTracker_TrackIsPersistedByConsumer(t *testing.T) {
	store := &fakeStore{}
	tracker := newTestTracker(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, tracker.Consume(ctx))

	tracker.Track(ctx, TrackRequest{
		Question:   "q",
		Response:   "a",
		UsedChunks: []UsedChunk{{DocumentId: uuid.New(), ChunkId: uuid.New(), Score: ptr(math.NaN())}},
	})

	assert.Eventually(t, func() bool { return store.saved() == 1 }, 2*time.Second, 10*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.metrics[0], 1)
	assert.InDelta(t, DefaultScore, store.metrics[0][0].RelevanceScore, 1e-9)
}

func TestTracker_TrackDoesNotWaitForStore(t *testing.T) {
	store := &fakeStore{delay: 300 * time.Millisecond}
	tracker := newTestTracker(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, tracker.Consume(ctx))

	start := time.Now()
	tracker.Track(ctx, TrackRequest{Question: "q", Response: "a"})
	assert.Less(t, time.Since(start), 200*time.Millisecond)

	assert.Eventually(t, func() bool { return store.saved() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestTracker_StoreFailureIsSwallowed(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	tracker := newTestTracker(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, tracker.Consume(ctx))

	assert.NotPanics(t, func() {
		tracker.Track(ctx, TrackRequest{Question: "q", Response: "a"})
	})

	err := tracker.Record(ctx, TrackRequest{Question: "q"})
	assert.Error(t, err)
}

func TestTracker_TrackWithoutConsumer(t *testing.T) {
	tracker := newTestTracker(t, &fakeStore{})
	assert.NotPanics(t, func() {
		tracker.Track(context.Background(), TrackRequest{Question: "q"})
	})
}
