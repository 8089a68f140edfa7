package mapper

import (
	"encoding/json"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CuratedQuestionMapper struct{}

func NewCuratedQuestionMapper() *CuratedQuestionMapper {
	return &CuratedQuestionMapper{}
}

func (m *CuratedQuestionMapper) ToEntity(q *model.CuratedQuestion) *entity.CuratedQuestion {
	if q == nil {
		return nil
	}

	var refs []entity.CuratedReference
	if len(q.References) > 0 {
		_ = json.Unmarshal(q.References, &refs)
	}

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	return &entity.CuratedQuestion{
		Id:                q.Id,
		Question:          q.Question,
		QuestionEmbedding: q.QuestionEmbedding.Slice(),
		Answer:            q.Answer,
		Title:             q.Title,
		Summary:           q.Summary,
		References:        refs,
		Module:            q.Module,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *CuratedQuestionMapper) ToModel(q *entity.CuratedQuestion) *model.CuratedQuestion {
	if q == nil {
		return nil
	}

	refs := q.References
	if refs == nil {
		refs = []entity.CuratedReference{}
	}
	rawRefs, _ := json.Marshal(refs)

	var updatedAt time.Time
	if q.UpdatedAt != nil {
		updatedAt = *q.UpdatedAt
	}

	return &model.CuratedQuestion{
		Id:                q.Id,
		Question:          q.Question,
		QuestionEmbedding: pgvector.NewVector(q.QuestionEmbedding),
		Answer:            q.Answer,
		Title:             q.Title,
		Summary:           q.Summary,
		References:        datatypes.JSON(rawRefs),
		Module:            q.Module,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}
