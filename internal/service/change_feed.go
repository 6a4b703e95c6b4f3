package service

import (
	"context"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// changeFeed publishes best-effort change events through a PublishQueue;
// failures are logged, never returned
type changeFeed struct {
	publisher EventPublisher
	queue     *PublishQueue
	logger    *zap.Logger
}

// newChangeFeed queues events for publisher. A publisher that already is a
// PublishQueue is shared as is, which keeps one order across services.
func newChangeFeed(publisher EventPublisher, logger *zap.Logger) changeFeed {
	if publisher == nil {
		return changeFeed{logger: logger}
	}
	queue, ok := publisher.(*PublishQueue)
	if !ok {
		queue = NewPublishQueue(publisher, 0, 0)
	}
	return changeFeed{publisher: queue, queue: queue, logger: logger}
}

// drain waits for queued events; a feed without a publisher has nothing to wait for
func (f changeFeed) drain(ctx context.Context) error {
	if f.queue == nil {
		return nil
	}
	return f.queue.Drain(ctx)
}

func (f changeFeed) itemUpserted(ctx context.Context, item *models.Item) {
	if f.publisher == nil {
		return
	}
	event := &models.ItemUpsertedEvent{
		BaseEvent:   broker.NewBaseEvent(models.EventTypeItemUpserted),
		ItemID:      item.ID,
		SKU:         item.SKU,
		Name:        item.Name,
		Quantity:    item.Quantity,
		MinQuantity: item.MinQuantity,
		Price:       item.Price,
		Status:      item.Status,
	}
	if err := f.publisher.PublishItemUpserted(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(event.EventType).Inc()
		f.logger.Error("Failed to publish ItemUpserted event", zap.Int64("item_id", item.ID), zap.Error(err))
	}
}

func (f changeFeed) itemsDeleted(ctx context.Context, itemIDs ...int64) {
	if f.publisher == nil {
		return
	}
	for _, id := range itemIDs {
		event := &models.ItemDeletedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeItemDeleted),
			ItemID:    id,
		}
		if err := f.publisher.PublishItemDeleted(ctx, event); err != nil {
			util.EventsPublishFailedTotal.WithLabelValues(event.EventType).Inc()
			f.logger.Error("Failed to publish ItemDeleted event", zap.Int64("item_id", id), zap.Error(err))
		}
	}
}

func (f changeFeed) notificationCreated(ctx context.Context, n *models.Notification) {
	if f.publisher == nil {
		return
	}
	event := &models.NotificationCreatedEvent{
		BaseEvent:      broker.NewBaseEvent(models.EventTypeNotificationCreated),
		NotificationID: n.ID,
		UserID:         n.UserID,
		ItemID:         n.ItemID,
		Type:           n.Type,
		Title:          n.Title,
	}
	if err := f.publisher.PublishNotificationCreated(ctx, event); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(event.EventType).Inc()
		f.logger.Error("Failed to publish NotificationCreated event", zap.Int64("notification_id", n.ID), zap.Error(err))
	}
}
