package events

import (
	"context"
	"time"
)

const (
	TypeDocumentIngested           = "DOCUMENT_INGESTED"
	TypeUnansweredQuestionRecorded = "UNANSWERED_QUESTION_RECORDED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to the bus. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func DocumentIngested(documentId, title string, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_id": documentId,
			"title":       title,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

func UnansweredQuestionRecorded(id, question string, usedRag bool) BaseEvent {
	return BaseEvent{
		Type: TypeUnansweredQuestionRecorded,
		Data: map[string]interface{}{
			"unanswered_question_id": id,
			"question":               question,
			"used_rag":               usedRag,
		},
		OccurredAt: time.Now(),
	}
}

// NopPublisher drops every event. Used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
