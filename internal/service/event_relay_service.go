package service

import (
	"context"
	"strings"

	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/pkg/events"
	pktNats "ai-qa-rag-be/pkg/nats"
)

type EventBroadcaster interface {
	Broadcast(ctx context.Context, eventType string, payload interface{})
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// EventRelayService forwards bus events to connected websocket clients.
type EventRelayService struct {
	subscriber  EventSubscriber
	broadcaster EventBroadcaster
	logger      logger.ILogger
}

func NewEventRelayService(sub EventSubscriber, broadcaster EventBroadcaster, log logger.ILogger) *EventRelayService {
	return &EventRelayService{
		subscriber:  sub,
		broadcaster: broadcaster,
		logger:      log,
	}
}

// Start uses one durable consumer shared by every instance; the hub's Redis fan-out reaches the rest.
func (s *EventRelayService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, "*", "ws-relay", s.handleEvent); err != nil {
		return err
	}
	s.logger.Info("RELAY", "Event relay started", nil)
	return nil
}

func (s *EventRelayService) handleEvent(ctx context.Context, event events.Event) error {
	eventType := strings.ToLower(event.EventType())
	s.broadcaster.Broadcast(ctx, eventType, event.Payload())
	return nil
}
