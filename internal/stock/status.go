// Package stock derives stock states from quantity and threshold.
//
// The Go functions and the SQL renderings below express the same rules and
// must be changed together: listings compute status in Postgres while writes
// compute it here.
package stock

import (
	"fmt"

	"inventory-service/internal/models"
)

// Status is the derived stock state of an item
type Status string

const (
	StatusInStock    Status = "in-stock"
	StatusLowStock   Status = "low-stock"
	StatusOutOfStock Status = "out-of-stock"
)

// Valid reports whether s is one of the known states
func (s Status) Valid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock:
		return true
	}
	return false
}

// StatusOf derives the stock state. Negative quantities count as out of stock.
func StatusOf(quantity, minQuantity int) Status {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity <= minQuantity:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// StatusSQL renders StatusOf as a CASE expression over the given columns
func StatusSQL(quantityCol, minQuantityCol string) string {
	return fmt.Sprintf(
		"CASE WHEN %[1]s <= 0 THEN '%[3]s' WHEN %[1]s <= %[2]s THEN '%[4]s' ELSE '%[5]s' END",
		quantityCol, minQuantityCol, StatusOutOfStock, StatusLowStock, StatusInStock)
}

// NeedsNotification reports whether an item qualifies for a stock alert.
// The low-stock boundary is strict, unlike StatusOf: an item sitting exactly
// at its minimum shows as low-stock but does not raise a new alert.
func NeedsNotification(quantity, minQuantity int) bool {
	return quantity == 0 || quantity < minQuantity
}

// NeedsNotificationSQL renders NeedsNotification as a WHERE predicate
func NeedsNotificationSQL(quantityCol, minQuantityCol string) string {
	return fmt.Sprintf("(%[1]s = 0 OR %[1]s < %[2]s)", quantityCol, minQuantityCol)
}

// NotificationTypeFor picks the alert type for an item that needs one
func NotificationTypeFor(quantity int) string {
	if quantity == 0 {
		return models.NotificationTypeOutOfStock
	}
	return models.NotificationTypeLowStock
}
