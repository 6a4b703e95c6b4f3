package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/service/servicetest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu            sync.Mutex
	upserted      []*models.ItemUpsertedEvent
	deleted       []*models.ItemDeletedEvent
	notifications []*models.NotificationCreatedEvent
	err           error
}

func (p *recordingPublisher) PublishItemUpserted(_ context.Context, e *models.ItemUpsertedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upserted = append(p.upserted, e)
	return p.err
}

func (p *recordingPublisher) PublishItemDeleted(_ context.Context, e *models.ItemDeletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, e)
	return p.err
}

func (p *recordingPublisher) PublishNotificationCreated(_ context.Context, e *models.NotificationCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, e)
	return p.err
}

func (p *recordingPublisher) deletedIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int64, 0, len(p.deleted))
	for _, e := range p.deleted {
		ids = append(ids, e.ItemID)
	}
	return ids
}

func drainFeed(t *testing.T, feed changeFeed) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, feed.drain(ctx))
}

// seedCatalog creates one category and one supplier and returns their IDs
func seedCatalog(t *testing.T, mem *servicetest.MemoryStore, name string) (int64, int64) {
	t.Helper()
	ctx := context.Background()

	category := &models.Category{Name: name}
	require.NoError(t, mem.CreateCategory(ctx, category))
	supplier := &models.Supplier{Name: name + " Supply", Email: "orders@" + name + ".test"}
	require.NoError(t, mem.CreateSupplier(ctx, supplier))
	return category.ID, supplier.ID
}

func seedItem(t *testing.T, mem *servicetest.MemoryStore, sku string, quantity, minQuantity int) models.Item {
	t.Helper()
	categoryID, supplierID := seedCatalog(t, mem, "cat-"+sku)
	item := &models.Item{
		SKU:         sku,
		Name:        "Item " + sku,
		CategoryID:  categoryID,
		SupplierID:  supplierID,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		Price:       decimal.NewFromInt(3),
	}
	require.NoError(t, mem.CreateItem(context.Background(), item))
	return *item
}
