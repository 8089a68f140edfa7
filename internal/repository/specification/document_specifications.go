package specification

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

// ByCategory and ByStatus are the document listing filters.
func ByCategory(category string) Specification {
	return Filter("category", category)
}

func ByStatus(status string) Specification {
	return Filter("status", status)
}

// HasTag matches documents whose jsonb tags array contains tag.
type HasTag struct {
	Tag string
}

func (s HasTag) Apply(db *gorm.DB) *gorm.DB {
	raw, _ := json.Marshal([]string{s.Tag})
	return db.Where("tags @> ?::jsonb", string(raw))
}

// DocumentSearchQuery filters documents by title or content (case insensitive)
type DocumentSearchQuery struct {
	Query string
}

func (s DocumentSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}

type BySequence struct{}

func (s BySequence) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC")
}
