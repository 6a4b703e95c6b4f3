package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/redisclient"
	"inventory-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	retryBaseDelay = 200 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// Mirror is the read-side store kept in step with the change feed
type Mirror interface {
	MirrorItem(ctx context.Context, snap redisclient.ItemSnapshot) error
	RemoveItem(ctx context.Context, itemID int64) error
	IncrNotificationCount(ctx context.Context, userID int64) (int64, error)
}

// SyncWorker consumes inventory change events and applies them to the mirror
type SyncWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mirror       Mirror
	retryDelay   time.Duration
	logger       *zap.Logger
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(consumer *broker.Consumer, mirror Mirror) *SyncWorker {
	w := &SyncWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		mirror:       mirror,
		retryDelay:   retryBaseDelay,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnItemUpserted(w.handleItemUpserted)
	w.eventHandler.OnItemDeleted(w.handleItemDeleted)
	w.eventHandler.OnNotificationCreated(w.handleNotificationCreated)

	return w
}

// Start starts the worker
func (w *SyncWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sync worker")
	return w.consumer.StartConsuming(ctx, w.apply)
}

// apply hands msg to the event handler until the mirror takes it or ctx ends.
// Malformed events are returned at once since no retry can fix them.
func (w *SyncWorker) apply(ctx context.Context, msg kafka.Message) error {
	delay := w.retryDelay
	for attempt := 1; ; attempt++ {
		err := w.eventHandler.HandleMessage(ctx, msg)
		if err == nil || errors.Is(err, broker.ErrMalformedEvent) {
			return err
		}

		util.SyncEventRetriesTotal.WithLabelValues(eventType(msg)).Inc()
		w.logger.Warn("Mirror update failed, retrying",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
}

func eventType(msg kafka.Message) string {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil || base.EventType == "" {
		return "unknown"
	}
	return base.EventType
}

// Stop stops the worker
func (w *SyncWorker) Stop() error {
	w.logger.Info("Stopping sync worker")
	return w.consumer.Close()
}

func (w *SyncWorker) handleItemUpserted(ctx context.Context, event *models.ItemUpsertedEvent) error {
	snap := redisclient.ItemSnapshot{
		ItemID:      event.ItemID,
		SKU:         event.SKU,
		Name:        event.Name,
		Quantity:    event.Quantity,
		MinQuantity: event.MinQuantity,
		Price:       event.Price.String(),
		Status:      event.Status,
	}
	if err := w.mirror.MirrorItem(ctx, snap); err != nil {
		return fmt.Errorf("failed to mirror item %d: %w", event.ItemID, err)
	}

	util.SyncEventsProcessedTotal.WithLabelValues(event.EventType).Inc()
	return nil
}

func (w *SyncWorker) handleItemDeleted(ctx context.Context, event *models.ItemDeletedEvent) error {
	if err := w.mirror.RemoveItem(ctx, event.ItemID); err != nil {
		return fmt.Errorf("failed to remove mirrored item %d: %w", event.ItemID, err)
	}

	util.SyncEventsProcessedTotal.WithLabelValues(event.EventType).Inc()
	return nil
}

func (w *SyncWorker) handleNotificationCreated(ctx context.Context, event *models.NotificationCreatedEvent) error {
	count, err := w.mirror.IncrNotificationCount(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to bump notification count for user %d: %w", event.UserID, err)
	}

	w.logger.Debug("Notification counted",
		zap.Int64("user_id", event.UserID),
		zap.Int64("notification_id", event.NotificationID),
		zap.Int64("count", count))
	util.SyncEventsProcessedTotal.WithLabelValues(event.EventType).Inc()
	return nil
}
