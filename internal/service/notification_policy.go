package service

import (
	"context"
	"fmt"

	"inventory-service/internal/models"
	"inventory-service/internal/stock"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// DecisionAction is the outcome of a policy evaluation
type DecisionAction string

const (
	DecisionNoop   DecisionAction = "noop"
	DecisionCreate DecisionAction = "create"
)

// Reasons attached to a no-op decision
const (
	ReasonNotNeeded     = "not_needed"
	ReasonAlreadyOpen   = "already_open"
	ReasonLookupFailed  = "lookup_failed"
	ReasonDuplicateRace = "duplicate"
)

// Decision tells the caller whether a stock alert must be created
type Decision struct {
	Action DecisionAction
	Reason string
	// Notification is the row to insert when Action is DecisionCreate
	Notification *models.Notification
}

// NotificationPolicy decides whether an item's stock state warrants a new alert
type NotificationPolicy struct {
	finder        OpenNotificationFinder
	defaultUserID int64
	logger        *zap.Logger
}

// NewNotificationPolicy creates a policy. defaultUserID attributes alerts
// evaluated without a caller identity.
func NewNotificationPolicy(finder OpenNotificationFinder, defaultUserID int64) *NotificationPolicy {
	return &NotificationPolicy{
		finder:        finder,
		defaultUserID: defaultUserID,
		logger:        util.GetLogger(),
	}
}

// Evaluate never fails: a lookup error is logged and reported as a no-op.
func (p *NotificationPolicy) Evaluate(ctx context.Context, item models.Item, userID int64) Decision {
	if !stock.NeedsNotification(item.Quantity, item.MinQuantity) {
		return Decision{Action: DecisionNoop, Reason: ReasonNotNeeded}
	}

	open, err := p.finder.FindOpenStockNotification(ctx, item.ID)
	if err != nil {
		p.logger.Error("Failed to look up open stock notification",
			zap.Int64("item_id", item.ID),
			zap.Error(err))
		return Decision{Action: DecisionNoop, Reason: ReasonLookupFailed}
	}
	if open != nil {
		return Decision{Action: DecisionNoop, Reason: ReasonAlreadyOpen}
	}

	if userID <= 0 {
		userID = p.defaultUserID
	}

	itemID := item.ID
	n := &models.Notification{
		UserID: userID,
		Type:   stock.NotificationTypeFor(item.Quantity),
		ItemID: &itemID,
	}
	if n.Type == models.NotificationTypeOutOfStock {
		n.Title = fmt.Sprintf("%s is out of stock", item.Name)
		n.Message = fmt.Sprintf("%s (SKU: %s) is out of stock. Please restock soon.", item.Name, item.SKU)
	} else {
		n.Title = fmt.Sprintf("%s is running low", item.Name)
		n.Message = fmt.Sprintf("%s (SKU: %s) is running low. Current quantity: %d, minimum: %d.",
			item.Name, item.SKU, item.Quantity, item.MinQuantity)
	}

	return Decision{Action: DecisionCreate, Notification: n}
}
