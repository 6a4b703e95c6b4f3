package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/models"
)

// ErrValidation marks a request rejected before any side effect
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ItemStore persists items
type ItemStore interface {
	ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItemsNeedingNotification(ctx context.Context) ([]models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id int64) error
}

// CatalogStore persists categories and suppliers
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategoryCascade(ctx context.Context, id int64) ([]int64, error)

	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	UpdateSupplier(ctx context.Context, supplier *models.Supplier) error
	DeleteSupplierCascade(ctx context.Context, id int64) ([]int64, error)
}

// OpenNotificationFinder looks up the unread stock alert of an item
type OpenNotificationFinder interface {
	FindOpenStockNotification(ctx context.Context, itemID int64) (*models.Notification, error)
}

// NotificationStore persists notifications
type NotificationStore interface {
	OpenNotificationFinder
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int, error)
	MarkNotificationRead(ctx context.Context, id int64) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)
	DeleteNotification(ctx context.Context, id int64) error
}

// ReportStore persists report snapshots
type ReportStore interface {
	ListReports(ctx context.Context, page models.PageRequest) ([]models.Report, int, error)
	GetReport(ctx context.Context, id int64) (*models.Report, error)
	CreateReport(ctx context.Context, report *models.Report) error
	DeleteReport(ctx context.Context, id int64) error
	DeleteDuplicateReports(ctx context.Context) (int64, error)
}

// EventPublisher feeds the change stream consumed by the sync path
type EventPublisher interface {
	PublishItemUpserted(ctx context.Context, event *models.ItemUpsertedEvent) error
	PublishItemDeleted(ctx context.Context, event *models.ItemDeletedEvent) error
	PublishNotificationCreated(ctx context.Context, event *models.NotificationCreatedEvent) error
}

// Locker guards a critical section across processes
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}
