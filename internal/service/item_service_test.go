package service

import (
	"context"
	"testing"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/service/servicetest"
	"inventory-service/internal/stock"
	"inventory-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemFixture struct {
	mem        *servicetest.MemoryStore
	pub        *recordingPublisher
	items      *ItemService
	notifier   *NotificationService
	categoryID int64
	supplierID int64
}

func newItemFixture(t *testing.T) *itemFixture {
	mem := servicetest.NewMemoryStore()
	pub := &recordingPublisher{}
	notifier := newNotificationService(mem, nil, pub)
	categoryID, supplierID := seedCatalog(t, mem, "hardware")
	return &itemFixture{
		mem:        mem,
		pub:        pub,
		items:      NewItemService(mem, mem, notifier, pub),
		notifier:   notifier,
		categoryID: categoryID,
		supplierID: supplierID,
	}
}

func (f *itemFixture) request(sku string, quantity, minQuantity int) *CreateItemRequest {
	return &CreateItemRequest{
		SKU:         sku,
		Name:        "Widget",
		CategoryID:  f.categoryID,
		SupplierID:  f.supplierID,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		Price:       decimal.RequireFromString("4.50"),
	}
}

func waitTask(t *testing.T, task *NotificationTask) NotificationResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestCreateOutOfStockThenRestock(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, task, err := f.items.Create(ctx, f.request("W-1", 0, 5), 0)
	require.NoError(t, err)
	assert.Equal(t, string(stock.StatusOutOfStock), item.Status)

	res := waitTask(t, task)
	require.True(t, res.Created)
	assert.Equal(t, models.NotificationTypeOutOfStock, res.Notification.Type)
	assert.Equal(t, int64(1), res.Notification.UserID)

	quantity := 6
	updated, task, err := f.items.Update(ctx, item.ID, &UpdateItemRequest{Quantity: &quantity}, 0)
	require.NoError(t, err)
	assert.Equal(t, string(stock.StatusInStock), updated.Status)
	assert.Equal(t, "W-1", updated.SKU)

	res = waitTask(t, task)
	assert.False(t, res.Created)
	assert.Equal(t, ReasonNotNeeded, res.Reason)
	assert.Equal(t, 1, f.mem.NotificationCount())

	drainFeed(t, f.items.feed)
	assert.Len(t, f.pub.upserted, 2)
}

func TestCreateLowStockAtBoundary(t *testing.T) {
	f := newItemFixture(t)

	item, task, err := f.items.Create(context.Background(), f.request("B-1", 5, 5), 4)
	require.NoError(t, err)
	assert.Equal(t, string(stock.StatusLowStock), item.Status)

	res := waitTask(t, task)
	assert.False(t, res.Created)
	assert.Zero(t, f.mem.NotificationCount())
}

func TestCreateItemValidation(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	cases := map[string]func(r *CreateItemRequest){
		"missing sku":       func(r *CreateItemRequest) { r.SKU = " " },
		"missing name":      func(r *CreateItemRequest) { r.Name = "" },
		"negative quantity": func(r *CreateItemRequest) { r.Quantity = -1 },
		"negative minimum":  func(r *CreateItemRequest) { r.MinQuantity = -2 },
		"negative price":    func(r *CreateItemRequest) { r.Price = decimal.NewFromInt(-1) },
		"missing category":  func(r *CreateItemRequest) { r.CategoryID = 0 },
		"unknown category":  func(r *CreateItemRequest) { r.CategoryID = 404 },
		"unknown supplier":  func(r *CreateItemRequest) { r.SupplierID = 404 },
		"missing supplier":  func(r *CreateItemRequest) { r.SupplierID = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := f.request("V-1", 1, 1)
			mutate(req)
			_, _, err := f.items.Create(ctx, req, 0)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, f.mem.ItemCount())
}

func TestCreateDuplicateSKU(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	_, _, err := f.items.Create(ctx, f.request("DUP", 10, 1), 0)
	require.NoError(t, err)
	_, _, err = f.items.Create(ctx, f.request("DUP", 10, 1), 0)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestUpdateItem(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, _, err := f.items.Create(ctx, f.request("U-1", 10, 2), 0)
	require.NoError(t, err)

	t.Run("missing item", func(t *testing.T) {
		q := 1
		_, _, err := f.items.Update(ctx, 999, &UpdateItemRequest{Quantity: &q}, 0)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalid merged value", func(t *testing.T) {
		q := -3
		_, _, err := f.items.Update(ctx, item.ID, &UpdateItemRequest{Quantity: &q}, 0)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("drop to low stock raises alert for caller", func(t *testing.T) {
		q := 1
		updated, task, err := f.items.Update(ctx, item.ID, &UpdateItemRequest{Quantity: &q}, 42)
		require.NoError(t, err)
		assert.Equal(t, string(stock.StatusLowStock), updated.Status)

		res := waitTask(t, task)
		require.True(t, res.Created)
		assert.Equal(t, int64(42), res.Notification.UserID)
	})
}

func TestListItems(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	for _, r := range []*CreateItemRequest{f.request("A-1", 0, 1), f.request("A-2", 3, 5), f.request("A-3", 50, 5)} {
		_, task, err := f.items.Create(ctx, r, 0)
		require.NoError(t, err)
		waitTask(t, task)
	}

	all, total, err := f.items.List(ctx, models.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, total)

	low, _, err := f.items.List(ctx, models.ItemFilter{Status: string(stock.StatusLowStock)})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "A-2", low[0].SKU)

	page, total, err := f.items.List(ctx, models.ItemFilter{PageRequest: models.PageRequest{Page: 2, PerPage: 2}})
	require.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, 3, total)

	_, _, err = f.items.List(ctx, models.ItemFilter{Status: "discontinued"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteItemRemovesItsNotifications(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, task, err := f.items.Create(ctx, f.request("X-1", 0, 1), 0)
	require.NoError(t, err)
	waitTask(t, task)
	require.Equal(t, 1, f.mem.NotificationCount())

	require.NoError(t, f.items.Delete(ctx, item.ID))
	assert.Zero(t, f.mem.NotificationCount())
	drainFeed(t, f.items.feed)
	assert.Equal(t, []int64{item.ID}, f.pub.deletedIDs())

	assert.ErrorIs(t, f.items.Delete(ctx, item.ID), store.ErrNotFound)
}
