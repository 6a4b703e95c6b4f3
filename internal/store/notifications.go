package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-service/internal/models"
)

// FindOpenStockNotification returns the most recent unread stock alert for an item,
// or nil when there is none
func (s *Store) FindOpenStockNotification(ctx context.Context, itemID int64) (*models.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE item_id = $1 AND is_read = FALSE AND type IN ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	var n models.Notification
	err := s.db.GetContext(ctx, &n, query,
		itemID, models.NotificationTypeLowStock, models.NotificationTypeOutOfStock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification inserts a notification
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, item_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at`

	return translateError(s.db.GetContext(ctx, n, query, n.UserID, n.Type, n.Title, n.Message, n.ItemID))
}

// GetNotification retrieves a notification by ID
func (s *Store) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.GetContext(ctx, &n, "SELECT * FROM notifications WHERE id = $1", id); err != nil {
		return nil, translateError(err)
	}
	return &n, nil
}

// ListNotifications returns a user's notifications, newest first
func (s *Store) ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	query := "SELECT * FROM notifications WHERE user_id = $1"
	if filter.UnreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	notifications := []models.Notification{}
	err := s.db.SelectContext(ctx, &notifications, query, filter.UserID)
	return notifications, err
}

// CountUnreadNotifications counts a user's unread notifications
func (s *Store) CountUnreadNotifications(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE", userID)
	return count, err
}

// MarkNotificationRead flags a notification as read, keeping the first read time
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) (*models.Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1
		RETURNING *`

	var n models.Notification
	if err := s.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, translateError(err)
	}
	return &n, nil
}

// MarkAllNotificationsRead flags every unread notification of a user as read
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE user_id = $1 AND is_read = FALSE",
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteNotification removes a notification
func (s *Store) DeleteNotification(ctx context.Context, id int64) error {
	return s.execAffectingOne(ctx, "DELETE FROM notifications WHERE id = $1", id)
}
