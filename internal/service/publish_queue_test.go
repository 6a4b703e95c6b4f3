package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/service/servicetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledPublisher holds every publish until release is closed, like a broker
// that stopped answering
type stalledPublisher struct {
	recordingPublisher
	release chan struct{}
	entered chan struct{}
}

func newStalledPublisher() *stalledPublisher {
	return &stalledPublisher{release: make(chan struct{}), entered: make(chan struct{}, 1)}
}

func (p *stalledPublisher) wait(ctx context.Context) error {
	select {
	case p.entered <- struct{}{}:
	default:
	}
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *stalledPublisher) PublishItemUpserted(ctx context.Context, e *models.ItemUpsertedEvent) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.recordingPublisher.PublishItemUpserted(ctx, e)
}

func (p *stalledPublisher) PublishItemDeleted(ctx context.Context, e *models.ItemDeletedEvent) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.recordingPublisher.PublishItemDeleted(ctx, e)
}

func (p *stalledPublisher) PublishNotificationCreated(ctx context.Context, e *models.NotificationCreatedEvent) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	return p.recordingPublisher.PublishNotificationCreated(ctx, e)
}

func TestCascadeDeleteDoesNotWaitOnPublisher(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	pub := newStalledPublisher()
	svc := NewCatalogService(mem, pub)
	ctx := context.Background()

	categoryID, supplierID := seedCatalog(t, mem, "bulk")
	var want []int64
	for i := 0; i < 10; i++ {
		item := &models.Item{
			SKU:        "BULK-" + string(rune('A'+i)),
			Name:       "Bulk item",
			CategoryID: categoryID,
			SupplierID: supplierID,
			Quantity:   10,
			Price:      decimal.NewFromInt(1),
		}
		require.NoError(t, mem.CreateItem(ctx, item))
		want = append(want, item.ID)
	}

	start := time.Now()
	deleted, err := svc.DeleteCategory(ctx, categoryID)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, deleted)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Empty(t, pub.deletedIDs())

	close(pub.release)
	drainFeed(t, svc.feed)
	assert.Equal(t, deleted, pub.deletedIDs())
}

func TestItemWriteDoesNotWaitOnPublisher(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	pub := newStalledPublisher()
	notifier := newNotificationService(mem, nil, pub)
	items := NewItemService(mem, mem, notifier, pub)
	categoryID, supplierID := seedCatalog(t, mem, "tools")

	start := time.Now()
	item, task, err := items.Create(context.Background(), &CreateItemRequest{
		SKU:         "T-1",
		Name:        "Hammer",
		CategoryID:  categoryID,
		SupplierID:  supplierID,
		Quantity:    0,
		MinQuantity: 2,
		Price:       decimal.NewFromInt(12),
	}, 0)
	require.NoError(t, err)
	waitTask(t, task)
	require.NoError(t, items.Delete(context.Background(), item.ID))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(pub.release)
	drainFeed(t, items.feed)
	drainFeed(t, notifier.feed)
	assert.Len(t, pub.upserted, 1)
	assert.Equal(t, []int64{item.ID}, pub.deletedIDs())
}

func TestPublishQueueDropsWhenFull(t *testing.T) {
	pub := newStalledPublisher()
	q := NewPublishQueue(pub, 1, time.Second)
	defer q.Close()
	ctx := context.Background()

	event := func(id int64) *models.ItemDeletedEvent {
		return &models.ItemDeletedEvent{BaseEvent: broker.NewBaseEvent(models.EventTypeItemDeleted), ItemID: id}
	}

	require.NoError(t, q.PublishItemDeleted(ctx, event(1)))
	<-pub.entered
	require.NoError(t, q.PublishItemDeleted(ctx, event(2)))
	assert.ErrorIs(t, q.PublishItemDeleted(ctx, event(3)), ErrPublishQueueFull)

	close(pub.release)
	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, q.Drain(drainCtx))
	assert.Equal(t, []int64{1, 2}, pub.deletedIDs())
}

func TestPublishQueueKeepsGoingAfterFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	q := NewPublishQueue(pub, 8, time.Second)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, q.PublishItemDeleted(ctx, &models.ItemDeletedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeItemDeleted),
			ItemID:    id,
		}))
	}

	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, q.Drain(drainCtx))
	assert.Equal(t, []int64{1, 2, 3}, pub.deletedIDs())

	q.Close()
	assert.Error(t, q.PublishItemDeleted(ctx, &models.ItemDeletedEvent{ItemID: 4}))
}
