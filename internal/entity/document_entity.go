package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document lifecycle states driven by the ingestion consumer.
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

type DocumentMetadata struct {
	Category    string
	Tags        []string
	Author      string
	ChunkCount  int
	LastUpdated *time.Time
}

type Document struct {
	Id        uuid.UUID
	Title     string
	Content   string
	Metadata  DocumentMetadata
	Status    string
	LastError string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// HasTag reports whether tag is one of the document's tags (case-insensitive).
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Metadata.Tags {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(tag)) {
			return true
		}
	}
	return false
}
