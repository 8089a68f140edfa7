package mapper

import (
	"encoding/json"
	"time"

	"ai-qa-rag-be/internal/entity"
	"ai-qa-rag-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var tags []string
	if len(d.Tags) > 0 {
		_ = json.Unmarshal(d.Tags, &tags)
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:      d.Id,
		Title:   d.Title,
		Content: d.Content,
		Metadata: entity.DocumentMetadata{
			Category:    d.Category,
			Tags:        tags,
			Author:      d.Author,
			ChunkCount:  d.ChunkCount,
			LastUpdated: d.LastUpdated,
		},
		Status:    d.Status,
		LastError: d.LastError,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	tags := d.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	rawTags, _ := json.Marshal(tags)

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:          d.Id,
		Title:       d.Title,
		Content:     d.Content,
		Category:    d.Metadata.Category,
		Tags:        datatypes.JSON(rawTags),
		Author:      d.Metadata.Author,
		ChunkCount:  d.Metadata.ChunkCount,
		Status:      d.Status,
		LastError:   d.LastError,
		LastUpdated: d.Metadata.LastUpdated,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
