package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeItemUpserted        = "ITEM_UPSERTED"
	EventTypeItemDeleted         = "ITEM_DELETED"
	EventTypeNotificationCreated = "NOTIFICATION_CREATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemUpsertedEvent published when an item is created or updated
type ItemUpsertedEvent struct {
	BaseEvent
	ItemID      int64           `json:"item_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	MinQuantity int             `json:"min_quantity"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
}

// ItemDeletedEvent published when an item is removed, directly or by a cascade
type ItemDeletedEvent struct {
	BaseEvent
	ItemID int64 `json:"item_id"`
}

// NotificationCreatedEvent published when a notification row is inserted
type NotificationCreatedEvent struct {
	BaseEvent
	NotificationID int64  `json:"notification_id"`
	UserID         int64  `json:"user_id"`
	ItemID         *int64 `json:"item_id,omitempty"`
	Type           string `json:"type"`
	Title          string `json:"title"`
}
