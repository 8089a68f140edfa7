package mapper

import (
	"encoding/json"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// UsageMapper converts the analytics trail: retrieval queries, usage metrics and unanswered questions.
type UsageMapper struct{}

func NewUsageMapper() *UsageMapper {
	return &UsageMapper{}
}

func (m *UsageMapper) RetrievalQueryToModel(q *entity.RetrievalQuery) *model.RetrievalQuery {
	if q == nil {
		return nil
	}

	chunks := q.RetrievedChunks
	if chunks == nil {
		chunks = []entity.RetrievedChunkRef{}
	}
	raw, _ := json.Marshal(chunks)

	var embedding *pgvector.Vector
	if len(q.QuestionEmbedding) > 0 {
		v := pgvector.NewVector(q.QuestionEmbedding)
		embedding = &v
	}

	return &model.RetrievalQuery{
		Id:                q.Id,
		Question:          q.Question,
		QuestionEmbedding: embedding,
		RetrievedChunks:   datatypes.JSON(raw),
		Response:          q.Response,
		UserId:            q.UserId,
		SessionId:         q.SessionId,
		CreatedAt:         q.CreatedAt,
	}
}

func (m *UsageMapper) RetrievalQueryToEntity(q *model.RetrievalQuery) *entity.RetrievalQuery {
	if q == nil {
		return nil
	}

	var chunks []entity.RetrievedChunkRef
	if len(q.RetrievedChunks) > 0 {
		_ = json.Unmarshal(q.RetrievedChunks, &chunks)
	}

	var embedding []float32
	if q.QuestionEmbedding != nil {
		embedding = q.QuestionEmbedding.Slice()
	}

	return &entity.RetrievalQuery{
		Id:                q.Id,
		Question:          q.Question,
		QuestionEmbedding: embedding,
		RetrievedChunks:   chunks,
		Response:          q.Response,
		UserId:            q.UserId,
		SessionId:         q.SessionId,
		CreatedAt:         q.CreatedAt,
	}
}

func (m *UsageMapper) UsageMetricToModel(u *entity.UsageMetric) *model.UsageMetric {
	if u == nil {
		return nil
	}
	ts := u.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &model.UsageMetric{
		Id:             u.Id,
		DocumentId:     u.DocumentId,
		ChunkId:        u.ChunkId,
		QueryId:        u.QueryId,
		UserId:         u.UserId,
		SessionId:      u.SessionId,
		RelevanceScore: u.RelevanceScore,
		Timestamp:      ts,
	}
}

func (m *UsageMapper) UsageMetricToEntity(u *model.UsageMetric) *entity.UsageMetric {
	if u == nil {
		return nil
	}
	return &entity.UsageMetric{
		Id:             u.Id,
		DocumentId:     u.DocumentId,
		ChunkId:        u.ChunkId,
		QueryId:        u.QueryId,
		UserId:         u.UserId,
		SessionId:      u.SessionId,
		RelevanceScore: u.RelevanceScore,
		Timestamp:      u.Timestamp,
	}
}

func (m *UsageMapper) UnansweredToModel(q *entity.UnansweredQuestion) *model.UnansweredQuestion {
	if q == nil {
		return nil
	}
	status := q.Status
	if status == "" {
		status = entity.UnansweredStatusPending
	}
	return &model.UnansweredQuestion{
		Id:        q.Id,
		Question:  q.Question,
		Answer:    q.Answer,
		UsedRag:   q.UsedRag,
		TopScore:  q.TopScore,
		UserId:    q.UserId,
		SessionId: q.SessionId,
		Status:    status,
		CreatedAt: q.CreatedAt,
	}
}

func (m *UsageMapper) UnansweredToEntity(q *model.UnansweredQuestion) *entity.UnansweredQuestion {
	if q == nil {
		return nil
	}
	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}
	return &entity.UnansweredQuestion{
		Id:        q.Id,
		Question:  q.Question,
		Answer:    q.Answer,
		UsedRag:   q.UsedRag,
		TopScore:  q.TopScore,
		UserId:    q.UserId,
		SessionId: q.SessionId,
		Status:    q.Status,
		CreatedAt: q.CreatedAt,
		UpdatedAt: updatedAt,
	}
}
