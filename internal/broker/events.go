package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrMalformedEvent marks a message that can never be handled, however often it is retried
var ErrMalformedEvent = errors.New("malformed event")

// EventPublisher handles publishing inventory change events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewBaseEvent stamps a fresh event envelope
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

func itemKey(itemID int64) string {
	return fmt.Sprintf("item-%d", itemID)
}

// PublishItemUpserted publishes ItemUpserted event
func (ep *EventPublisher) PublishItemUpserted(ctx context.Context, event *models.ItemUpsertedEvent) error {
	return ep.producer.PublishEvent(ctx, itemKey(event.ItemID), event)
}

// PublishItemDeleted publishes ItemDeleted event
func (ep *EventPublisher) PublishItemDeleted(ctx context.Context, event *models.ItemDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, itemKey(event.ItemID), event)
}

// PublishNotificationCreated publishes NotificationCreated event
func (ep *EventPublisher) PublishNotificationCreated(ctx context.Context, event *models.NotificationCreatedEvent) error {
	key := fmt.Sprintf("user-%d", event.UserID)
	if event.ItemID != nil {
		key = itemKey(*event.ItemID)
	}
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onItemUpserted        func(context.Context, *models.ItemUpsertedEvent) error
	onItemDeleted         func(context.Context, *models.ItemDeletedEvent) error
	onNotificationCreated func(context.Context, *models.NotificationCreatedEvent) error
	logger                *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnItemUpserted registers a handler for ItemUpserted events
func (eh *EventHandler) OnItemUpserted(handler func(context.Context, *models.ItemUpsertedEvent) error) {
	eh.onItemUpserted = handler
}

// OnItemDeleted registers a handler for ItemDeleted events
func (eh *EventHandler) OnItemDeleted(handler func(context.Context, *models.ItemDeletedEvent) error) {
	eh.onItemDeleted = handler
}

// OnNotificationCreated registers a handler for NotificationCreated events
func (eh *EventHandler) OnNotificationCreated(handler func(context.Context, *models.NotificationCreatedEvent) error) {
	eh.onNotificationCreated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("%w: base event: %v", ErrMalformedEvent, err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeItemUpserted:
		if eh.onItemUpserted != nil {
			var event models.ItemUpsertedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("%w: ItemUpserted event: %v", ErrMalformedEvent, err)
			}
			return eh.onItemUpserted(ctx, &event)
		}

	case models.EventTypeItemDeleted:
		if eh.onItemDeleted != nil {
			var event models.ItemDeletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("%w: ItemDeleted event: %v", ErrMalformedEvent, err)
			}
			return eh.onItemDeleted(ctx, &event)
		}

	case models.EventTypeNotificationCreated:
		if eh.onNotificationCreated != nil {
			var event models.NotificationCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("%w: NotificationCreated event: %v", ErrMalformedEvent, err)
			}
			return eh.onNotificationCreated(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
