package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-service/internal/models"
	"inventory-service/internal/stock"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateItemRequest represents a request to create an item
type CreateItemRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	CategoryID  int64           `json:"categoryId"`
	SupplierID  int64           `json:"supplierId"`
	Quantity    int             `json:"quantity"`
	MinQuantity int             `json:"minQuantity"`
	Price       decimal.Decimal `json:"price"`
}

// UpdateItemRequest changes the fields that are set
type UpdateItemRequest struct {
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	CategoryID  *int64           `json:"categoryId"`
	SupplierID  *int64           `json:"supplierId"`
	Quantity    *int             `json:"quantity"`
	MinQuantity *int             `json:"minQuantity"`
	Price       *decimal.Decimal `json:"price"`
}

// ItemService handles item business logic
type ItemService struct {
	items    ItemStore
	catalog  CatalogStore
	notifier *NotificationService
	feed     changeFeed
	logger   *zap.Logger
}

// NewItemService creates a new item service
func NewItemService(
	items ItemStore,
	catalog CatalogStore,
	notifier *NotificationService,
	publisher EventPublisher,
) *ItemService {
	logger := util.GetLogger()
	return &ItemService{
		items:    items,
		catalog:  catalog,
		notifier: notifier,
		feed:     newChangeFeed(publisher, logger),
		logger:   logger,
	}
}

// List returns items matching the filter and the total match count
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error) {
	if filter.Status != "" && !stock.Status(filter.Status).Valid() {
		return nil, 0, validationError("unknown status %q", filter.Status)
	}
	return s.items.ListItems(ctx, filter)
}

// Get retrieves an item by ID
func (s *ItemService) Get(ctx context.Context, id int64) (*models.Item, error) {
	return s.items.GetItem(ctx, id)
}

// Create stores a new item and dispatches its stock alert check. The returned
// task may be awaited or ignored; it never affects the write.
func (s *ItemService) Create(ctx context.Context, req *CreateItemRequest, userID int64) (*models.Item, *NotificationTask, error) {
	ctx, span := util.StartSpan(ctx, "ItemService.Create")
	defer span.End()

	item := &models.Item{
		SKU:         strings.TrimSpace(req.SKU),
		Name:        strings.TrimSpace(req.Name),
		CategoryID:  req.CategoryID,
		SupplierID:  req.SupplierID,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		Price:       req.Price,
	}
	if err := s.validate(ctx, item); err != nil {
		return nil, nil, err
	}

	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, nil, s.writeError(err)
	}

	util.ItemsWrittenTotal.WithLabelValues("create").Inc()
	s.logger.Info("Item created", zap.Int64("item_id", item.ID), zap.String("sku", item.SKU))

	s.feed.itemUpserted(ctx, item)
	return item, s.notifier.Dispatch(*item, userID), nil
}

// Update applies the set fields of req to an item and dispatches its stock alert check
func (s *ItemService) Update(ctx context.Context, id int64, req *UpdateItemRequest, userID int64) (*models.Item, *NotificationTask, error) {
	ctx, span := util.StartSpan(ctx, "ItemService.Update")
	defer span.End()

	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if req.SKU != nil {
		item.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}
	if req.SupplierID != nil {
		item.SupplierID = *req.SupplierID
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.MinQuantity != nil {
		item.MinQuantity = *req.MinQuantity
	}
	if req.Price != nil {
		item.Price = *req.Price
	}

	if err := s.validate(ctx, item); err != nil {
		return nil, nil, err
	}

	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, nil, s.writeError(err)
	}

	util.ItemsWrittenTotal.WithLabelValues("update").Inc()
	s.logger.Info("Item updated",
		zap.Int64("item_id", item.ID),
		zap.Int("quantity", item.Quantity),
		zap.String("status", item.Status))

	s.feed.itemUpserted(ctx, item)
	return item, s.notifier.Dispatch(*item, userID), nil
}

// Delete removes an item; its notifications go with it at the storage layer
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "ItemService.Delete")
	defer span.End()

	if err := s.items.DeleteItem(ctx, id); err != nil {
		return err
	}

	util.ItemsWrittenTotal.WithLabelValues("delete").Inc()
	s.feed.itemsDeleted(ctx, id)
	return nil
}

func (s *ItemService) validate(ctx context.Context, item *models.Item) error {
	switch {
	case item.SKU == "":
		return validationError("sku is required")
	case item.Name == "":
		return validationError("name is required")
	case item.Quantity < 0:
		return validationError("quantity must not be negative")
	case item.MinQuantity < 0:
		return validationError("minQuantity must not be negative")
	case item.Price.IsNegative():
		return validationError("price must not be negative")
	case item.CategoryID <= 0:
		return validationError("categoryId is required")
	case item.SupplierID <= 0:
		return validationError("supplierId is required")
	}

	if _, err := s.catalog.GetCategory(ctx, item.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validationError("category %d does not exist", item.CategoryID)
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	if _, err := s.catalog.GetSupplier(ctx, item.SupplierID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validationError("supplier %d does not exist", item.SupplierID)
		}
		return fmt.Errorf("failed to check supplier: %w", err)
	}
	return nil
}

// writeError turns a foreign key race into a validation failure
func (s *ItemService) writeError(err error) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return validationError("category or supplier does not exist")
	}
	return err
}
