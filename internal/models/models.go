package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item represents a stocked product
type Item struct {
	ID          int64           `db:"id" json:"id"`
	SKU         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	CategoryID  int64           `db:"category_id" json:"categoryId"`
	SupplierID  int64           `db:"supplier_id" json:"supplierId"`
	Quantity    int             `db:"quantity" json:"quantity"`
	MinQuantity int             `db:"min_quantity" json:"minQuantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Status      string          `db:"status" json:"status"`
	LastUpdated time.Time       `db:"last_updated" json:"lastUpdated"`
}

// Category groups items
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Supplier provides items
type Supplier struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ContactName string    `db:"contact_name" json:"contactName"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Address     string    `db:"address" json:"address"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Notification is a user-facing alert, usually about stock levels
type Notification struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"userId"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	ItemID    *int64     `db:"item_id" json:"itemId,omitempty"`
	IsRead    bool       `db:"is_read" json:"isRead"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	ReadAt    *time.Time `db:"read_at" json:"readAt,omitempty"`
}

// Report is an immutable stock snapshot labelled with a period
type Report struct {
	ID              int64           `db:"id" json:"id"`
	Period          string          `db:"period" json:"period"`
	StartDate       time.Time       `db:"start_date" json:"startDate"`
	EndDate         time.Time       `db:"end_date" json:"endDate"`
	TotalItems      int64           `db:"total_items" json:"totalItems"`
	TotalValue      decimal.Decimal `db:"total_value" json:"totalValue"`
	LowStockCount   int             `db:"low_stock_count" json:"lowStockCount"`
	OutOfStockCount int             `db:"out_of_stock_count" json:"outOfStockCount"`
	Notes           string          `db:"notes" json:"notes"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// Notification types
const (
	NotificationTypeLowStock   = "low_stock"
	NotificationTypeOutOfStock = "out_of_stock"
	NotificationTypeOther      = "other"
)

// ItemFilter narrows item listings. A zero PageRequest means "no pagination".
type ItemFilter struct {
	PageRequest
	CategoryID int64
	SupplierID int64
	Status     string
	Search     string
}

// PageRequest is a page window for listings that support optional pagination
type PageRequest struct {
	Page    int
	PerPage int
}

// Paginated reports whether a page window was requested
func (p PageRequest) Paginated() bool {
	return p.Page > 0 && p.PerPage > 0
}

// Offset returns the row offset of the page
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NotificationFilter narrows a user's notification listing
type NotificationFilter struct {
	UserID     int64
	UnreadOnly bool
	Limit      int
}
