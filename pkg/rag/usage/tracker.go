package usage

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// DefaultScore replaces missing or invalid per-chunk relevance scores.
const DefaultScore = 0.5

const DefaultTopic = "usage_tracking"

type UsedChunk struct {
	DocumentId uuid.UUID `json:"document_id"`
	ChunkId    uuid.UUID `json:"chunk_id"`
	ChunkIndex int       `json:"chunk_index"`
	Score      *float64  `json:"score,omitempty"`
}

type TrackRequest struct {
	Question          string      `json:"question"`
	QuestionEmbedding []float32   `json:"question_embedding,omitempty"`
	UsedChunks        []UsedChunk `json:"used_chunks"`
	Response          string      `json:"response"`
	UserId            string      `json:"user_id,omitempty"`
	SessionId         string      `json:"session_id,omitempty"`
	OccurredAt        time.Time   `json:"occurred_at"`
}

// Store persists one retrieval query and its per-chunk metrics.
type Store interface {
	SaveTrail(ctx context.Context, query *entity.RetrievalQuery, metrics []*entity.UsageMetric) error
}

// Tracker records generation events. Track only enqueues; a consumer started with Consume
// writes the records. Every failure is logged and dropped.
type Tracker struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	store      Store
	logger     logger.ILogger
	timeout    time.Duration
}

func NewTracker(publisher message.Publisher, subscriber message.Subscriber, topic string, store Store, log logger.ILogger, writeTimeout time.Duration) *Tracker {
	if topic == "" {
		topic = DefaultTopic
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Tracker{
		publisher:  publisher,
		subscriber: subscriber,
		topic:      topic,
		store:      store,
		logger:     log,
		timeout:    writeTimeout,
	}
}

// Track enqueues req without waiting for it to be written.
func (t *Tracker) Track(ctx context.Context, req TrackRequest) {
	if req.OccurredAt.IsZero() {
		req.OccurredAt = time.Now()
	}
	// NaN and Inf cannot be JSON encoded, so scores are cleaned before publishing
	req.UsedChunks = sanitizeChunks(req.UsedChunks)

	payload, err := json.Marshal(req)
	if err != nil {
		t.logger.Error("USAGE", "Failed to encode usage event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := t.publisher.Publish(t.topic, msg); err != nil {
		t.logger.Error("USAGE", "Failed to publish usage event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Consume subscribes to the usage topic and persists events until ctx is done.
func (t *Tracker) Consume(ctx context.Context) error {
	messages, err := t.subscriber.Subscribe(ctx, t.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			t.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (t *Tracker) processMessage(ctx context.Context, msg *message.Message) {
	// best effort: always Ack so a poison or failing event is never redelivered in a loop
	defer msg.Ack()

	var req TrackRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		t.logger.Error("USAGE", "Failed to decode usage event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	if err := t.Record(writeCtx, req); err != nil {
		t.logger.Error("USAGE", "Failed to record usage", map[string]interface{}{
			"error":    err.Error(),
			"question": req.Question,
		})
	}
}

// Record writes one RetrievalQuery and one UsageMetric per used chunk synchronously.
func (t *Tracker) Record(ctx context.Context, req TrackRequest) error {
	query, metrics := BuildTrail(req)
	if err := t.store.SaveTrail(ctx, query, metrics); err != nil {
		return err
	}

	t.logger.Debug("USAGE", "Usage recorded", map[string]interface{}{
		"query_id": query.Id.String(),
		"chunks":   len(metrics),
	})
	return nil
}

// BuildTrail maps a request to the records to persist. Missing or invalid scores become DefaultScore.
func BuildTrail(req TrackRequest) (*entity.RetrievalQuery, []*entity.UsageMetric) {
	ts := req.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}

	query := &entity.RetrievalQuery{
		Id:                uuid.New(),
		Question:          req.Question,
		QuestionEmbedding: req.QuestionEmbedding,
		RetrievedChunks:   make([]entity.RetrievedChunkRef, 0, len(req.UsedChunks)),
		Response:          req.Response,
		UserId:            req.UserId,
		SessionId:         req.SessionId,
	}

	metrics := make([]*entity.UsageMetric, 0, len(req.UsedChunks))
	for _, c := range req.UsedChunks {
		score := scoreOrDefault(c.Score)
		query.RetrievedChunks = append(query.RetrievedChunks, entity.RetrievedChunkRef{
			DocumentId:     c.DocumentId,
			ChunkId:        c.ChunkId,
			ChunkIndex:     c.ChunkIndex,
			RelevanceScore: score,
		})
		metrics = append(metrics, &entity.UsageMetric{
			DocumentId:     c.DocumentId,
			ChunkId:        c.ChunkId,
			QueryId:        query.Id,
			UserId:         req.UserId,
			SessionId:      req.SessionId,
			RelevanceScore: score,
			Timestamp:      ts,
		})
	}
	return query, metrics
}

func scoreOrDefault(s *float64) float64 {
	if s == nil || math.IsNaN(*s) || math.IsInf(*s, 0) || *s < 0 || *s > 1 {
		return DefaultScore
	}
	return *s
}

func sanitizeChunks(chunks []UsedChunk) []UsedChunk {
	out := make([]UsedChunk, len(chunks))
	for i, c := range chunks {
		score := scoreOrDefault(c.Score)
		c.Score = &score
		out[i] = c
	}
	return out
}
