package service

import (
	"context"
	"errors"
	"strings"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// CategoryRequest creates or replaces a category
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SupplierRequest creates or replaces a supplier
type SupplierRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// CatalogService manages categories and suppliers
type CatalogService struct {
	store  CatalogStore
	feed   changeFeed
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog CatalogStore, publisher EventPublisher) *CatalogService {
	logger := util.GetLogger()
	return &CatalogService{
		store:  catalog,
		feed:   newChangeFeed(publisher, logger),
		logger: logger,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if category.Name == "" {
		return nil, validationError("name is required")
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, req *CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if category.Name == "" {
		return nil, validationError("name is required")
	}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category together with all of its items, atomically
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) ([]int64, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteCategory")
	defer span.End()

	itemIDs, err := s.store.DeleteCategoryCascade(ctx, id)
	s.recordCascade(ctx, "category", id, itemIDs, err)
	return itemIDs, util.SpanError(span, err)
}

func (s *CatalogService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return s.store.ListSuppliers(ctx)
}

func (s *CatalogService) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	return s.store.GetSupplier(ctx, id)
}

func (s *CatalogService) CreateSupplier(ctx context.Context, req *SupplierRequest) (*models.Supplier, error) {
	supplier := supplierFromRequest(req)
	if supplier.Name == "" {
		return nil, validationError("name is required")
	}
	if err := s.store.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *CatalogService) UpdateSupplier(ctx context.Context, id int64, req *SupplierRequest) (*models.Supplier, error) {
	supplier := supplierFromRequest(req)
	supplier.ID = id
	if supplier.Name == "" {
		return nil, validationError("name is required")
	}
	if err := s.store.UpdateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// DeleteSupplier removes a supplier together with all of its items, atomically
func (s *CatalogService) DeleteSupplier(ctx context.Context, id int64) ([]int64, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteSupplier")
	defer span.End()

	itemIDs, err := s.store.DeleteSupplierCascade(ctx, id)
	s.recordCascade(ctx, "supplier", id, itemIDs, err)
	return itemIDs, util.SpanError(span, err)
}

func supplierFromRequest(req *SupplierRequest) *models.Supplier {
	return &models.Supplier{
		Name:        strings.TrimSpace(req.Name),
		ContactName: strings.TrimSpace(req.ContactName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
	}
}

func (s *CatalogService) recordCascade(ctx context.Context, entity string, id int64, itemIDs []int64, err error) {
	switch {
	case err == nil:
		util.CascadeDeletesTotal.WithLabelValues(entity, "ok").Inc()
		s.logger.Info("Cascade delete committed",
			zap.String("entity", entity),
			zap.Int64("id", id),
			zap.Int("items_deleted", len(itemIDs)))
		s.feed.itemsDeleted(ctx, itemIDs...)
	case errors.Is(err, store.ErrNotFound):
		util.CascadeDeletesTotal.WithLabelValues(entity, "not_found").Inc()
	default:
		util.CascadeDeletesTotal.WithLabelValues(entity, "rolled_back").Inc()
		s.logger.Error("Cascade delete rolled back",
			zap.String("entity", entity),
			zap.Int64("id", id),
			zap.Error(err))
	}
}
