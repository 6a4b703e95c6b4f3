package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/stock"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

const lockAttempts = 3

// NotificationConfig tunes notification side effects
type NotificationConfig struct {
	DefaultUserID int64
	// Timeout bounds a detached notification task
	Timeout time.Duration
	LockTTL time.Duration
}

// NotificationResult is the outcome of one stock alert attempt
type NotificationResult struct {
	Created      bool
	Reason       string
	Notification *models.Notification
}

// NotificationTask is a stock alert running detached from the write that
// triggered it. Callers may Wait on it or drop it.
type NotificationTask struct {
	done   chan struct{}
	result NotificationResult
	err    error
}

func completedTask(result NotificationResult) *NotificationTask {
	t := &NotificationTask{done: make(chan struct{}), result: result}
	close(t.done)
	return t
}

// Done is closed once the task has finished
func (t *NotificationTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends
func (t *NotificationTask) Wait(ctx context.Context) (NotificationResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return NotificationResult{}, ctx.Err()
	}
}

// GenerateSummary reports a bulk scan
type GenerateSummary struct {
	Scanned       int                   `json:"scanned"`
	Created       int                   `json:"created"`
	Skipped       int                   `json:"skipped"`
	Failed        int                   `json:"failed"`
	Notifications []models.Notification `json:"notifications"`
}

// CreateNotificationRequest is a manually raised notification
type CreateNotificationRequest struct {
	UserID  int64  `json:"userId"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	ItemID  *int64 `json:"itemId"`
}

// NotificationService creates and manages notifications
type NotificationService struct {
	store  NotificationStore
	items  ItemStore
	policy *NotificationPolicy
	locker Locker
	feed   changeFeed
	cfg    NotificationConfig
	logger *zap.Logger
	tasks  sync.WaitGroup
}

// NewNotificationService creates a new notification service. locker and
// publisher may be nil.
func NewNotificationService(
	notifications NotificationStore,
	items ItemStore,
	locker Locker,
	publisher EventPublisher,
	cfg NotificationConfig,
) *NotificationService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	logger := util.GetLogger()
	return &NotificationService{
		store:  notifications,
		items:  items,
		policy: NewNotificationPolicy(notifications, cfg.DefaultUserID),
		locker: locker,
		feed:   newChangeFeed(publisher, logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Policy exposes the policy the service evaluates
func (s *NotificationService) Policy() *NotificationPolicy {
	return s.policy
}

func (s *NotificationService) userOrDefault(userID int64) int64 {
	if userID > 0 {
		return userID
	}
	return s.cfg.DefaultUserID
}

// Notify evaluates an item and creates a stock alert when the policy asks for one.
// Concurrent callers for the same item are serialized by the locker; the store's
// open-alert uniqueness constraint catches whatever slips through.
func (s *NotificationService) Notify(ctx context.Context, item models.Item, userID int64) (NotificationResult, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.Notify")
	defer span.End()

	if !stock.NeedsNotification(item.Quantity, item.MinQuantity) {
		return NotificationResult{Reason: ReasonNotNeeded}, nil
	}

	start := time.Now()
	defer func() {
		util.NotificationLatency.Observe(time.Since(start).Seconds())
	}()

	if release := s.lockItem(ctx, item.ID); release != nil {
		defer release()
	}

	decision := s.policy.Evaluate(ctx, item, userID)
	if decision.Action != DecisionCreate {
		if decision.Reason != ReasonNotNeeded {
			util.NotificationsSuppressedTotal.WithLabelValues(decision.Reason).Inc()
		}
		return NotificationResult{Reason: decision.Reason}, nil
	}

	n := decision.Notification
	if err := s.store.CreateNotification(ctx, n); err != nil {
		if errors.Is(err, store.ErrConflict) {
			util.NotificationsSuppressedTotal.WithLabelValues(ReasonDuplicateRace).Inc()
			return NotificationResult{Reason: ReasonDuplicateRace}, nil
		}
		util.NotificationsFailedTotal.Inc()
		return NotificationResult{}, util.SpanError(span, fmt.Errorf("failed to create notification for item %d: %w", item.ID, err))
	}

	util.NotificationsCreatedTotal.WithLabelValues(n.Type).Inc()
	s.logger.Info("Stock notification created",
		zap.Int64("notification_id", n.ID),
		zap.Int64("item_id", item.ID),
		zap.String("type", n.Type))
	s.feed.notificationCreated(ctx, n)

	return NotificationResult{Created: true, Notification: n}, nil
}

// lockItem returns a release func, or nil when no lock is held
func (s *NotificationService) lockItem(ctx context.Context, itemID int64) func() {
	if s.locker == nil {
		return nil
	}

	key := fmt.Sprintf("notify:item:%d", itemID)
	for i := 0; i < lockAttempts; i++ {
		token, ok, err := s.locker.AcquireLock(ctx, key, s.cfg.LockTTL)
		if err != nil {
			s.logger.Warn("Notification lock unavailable", zap.Int64("item_id", itemID), zap.Error(err))
			return nil
		}
		if ok {
			return func() {
				if err := s.locker.ReleaseLock(context.Background(), key, token); err != nil {
					s.logger.Warn("Failed to release notification lock", zap.String("key", key), zap.Error(err))
				}
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	s.logger.Warn("Notification lock busy, proceeding without it", zap.Int64("item_id", itemID))
	return nil
}

// Dispatch runs Notify detached from the caller's request; the returned task
// never blocks the write that triggered it.
func (s *NotificationService) Dispatch(item models.Item, userID int64) *NotificationTask {
	if !stock.NeedsNotification(item.Quantity, item.MinQuantity) {
		return completedTask(NotificationResult{Reason: ReasonNotNeeded})
	}

	task := &NotificationTask{done: make(chan struct{})}
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer close(task.done)

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()

		task.result, task.err = s.Notify(ctx, item, userID)
		if task.err != nil {
			s.logger.Error("Stock notification side effect failed",
				zap.Int64("item_id", item.ID),
				zap.Error(task.err))
		}
	}()
	return task
}

// Drain waits for in-flight dispatched tasks or until ctx ends
func (s *NotificationService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Generate scans every item needing an alert and creates the missing ones
func (s *NotificationService) Generate(ctx context.Context, userID int64) (*GenerateSummary, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.Generate")
	defer span.End()

	items, err := s.items.ListItemsNeedingNotification(ctx)
	if err != nil {
		return nil, util.SpanError(span, fmt.Errorf("failed to list items needing notification: %w", err))
	}

	summary := &GenerateSummary{Scanned: len(items), Notifications: []models.Notification{}}
	for _, item := range items {
		res, err := s.Notify(ctx, item, userID)
		switch {
		case err != nil:
			summary.Failed++
			s.logger.Error("Failed to generate notification", zap.Int64("item_id", item.ID), zap.Error(err))
		case res.Created:
			summary.Created++
			summary.Notifications = append(summary.Notifications, *res.Notification)
		default:
			summary.Skipped++
		}
	}

	s.logger.Info("Notification scan completed",
		zap.Int("scanned", summary.Scanned),
		zap.Int("created", summary.Created),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// Create stores a manually raised notification
func (s *NotificationService) Create(ctx context.Context, req *CreateNotificationRequest, userID int64) (*models.Notification, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.Create")
	defer span.End()

	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if req.Title == "" {
		return nil, validationError("title is required")
	}
	if req.Message == "" {
		return nil, validationError("message is required")
	}
	if req.Type == "" {
		req.Type = models.NotificationTypeOther
	}
	switch req.Type {
	case models.NotificationTypeLowStock, models.NotificationTypeOutOfStock, models.NotificationTypeOther:
	default:
		return nil, validationError("unknown notification type %q", req.Type)
	}

	if req.UserID > 0 {
		userID = req.UserID
	}
	n := &models.Notification{
		UserID:  s.userOrDefault(userID),
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		ItemID:  req.ItemID,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	util.NotificationsCreatedTotal.WithLabelValues(n.Type).Inc()
	s.feed.notificationCreated(ctx, n)
	return n, nil
}

// List returns a user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	filter.UserID = s.userOrDefault(filter.UserID)
	return s.store.ListNotifications(ctx, filter)
}

// UnreadCount counts a user's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.store.CountUnreadNotifications(ctx, s.userOrDefault(userID))
}

// Get retrieves a notification
func (s *NotificationService) Get(ctx context.Context, id int64) (*models.Notification, error) {
	return s.store.GetNotification(ctx, id)
}

// MarkRead flags one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	return s.store.MarkNotificationRead(ctx, id)
}

// MarkAllRead flags all of a user's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx, s.userOrDefault(userID))
}

// Delete removes a notification
func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteNotification(ctx, id)
}
