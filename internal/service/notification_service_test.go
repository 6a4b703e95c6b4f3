package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/service/servicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationService(mem *servicetest.MemoryStore, locker Locker, publisher EventPublisher) *NotificationService {
	return NewNotificationService(mem, mem, locker, publisher, NotificationConfig{
		DefaultUserID: 1,
		Timeout:       time.Second,
		LockTTL:       time.Second,
	})
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	err      error
	acquired int
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if l.held == nil {
		l.held = map[string]string{}
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.acquired++
	token := fmt.Sprintf("token-%d", l.acquired)
	l.held[key] = token
	return token, true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return errors.New("lock not held")
	}
	delete(l.held, key)
	return nil
}

func TestPolicyEvaluate(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	policy := NewNotificationPolicy(mem, 7)

	t.Run("healthy stock is a no-op", func(t *testing.T) {
		d := policy.Evaluate(context.Background(), models.Item{ID: 1, Quantity: 10, MinQuantity: 5}, 2)
		assert.Equal(t, DecisionNoop, d.Action)
		assert.Equal(t, ReasonNotNeeded, d.Reason)
	})

	t.Run("quantity equal to minimum is a no-op", func(t *testing.T) {
		d := policy.Evaluate(context.Background(), models.Item{ID: 1, Quantity: 5, MinQuantity: 5}, 2)
		assert.Equal(t, DecisionNoop, d.Action)
	})

	t.Run("out of stock alert", func(t *testing.T) {
		item := models.Item{ID: 3, SKU: "W-1", Name: "Widget", Quantity: 0, MinQuantity: 5}
		d := policy.Evaluate(context.Background(), item, 2)

		require.Equal(t, DecisionCreate, d.Action)
		n := d.Notification
		assert.Equal(t, models.NotificationTypeOutOfStock, n.Type)
		assert.Equal(t, int64(2), n.UserID)
		require.NotNil(t, n.ItemID)
		assert.Equal(t, int64(3), *n.ItemID)
		assert.Equal(t, "Widget is out of stock", n.Title)
		assert.Equal(t, "Widget (SKU: W-1) is out of stock. Please restock soon.", n.Message)
	})

	t.Run("low stock alert falls back to default user", func(t *testing.T) {
		item := models.Item{ID: 4, SKU: "G-2", Name: "Gadget", Quantity: 2, MinQuantity: 5}
		d := policy.Evaluate(context.Background(), item, 0)

		require.Equal(t, DecisionCreate, d.Action)
		n := d.Notification
		assert.Equal(t, models.NotificationTypeLowStock, n.Type)
		assert.Equal(t, int64(7), n.UserID)
		assert.Equal(t, "Gadget is running low", n.Title)
		assert.Equal(t, "Gadget (SKU: G-2) is running low. Current quantity: 2, minimum: 5.", n.Message)
	})
}

func TestPolicyEvaluateOpenAlertAndLookupFailure(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	item := seedItem(t, mem, "P-1", 0, 5)
	itemID := item.ID
	require.NoError(t, mem.CreateNotification(context.Background(), &models.Notification{
		UserID: 1, Type: models.NotificationTypeOutOfStock, Title: "t", Message: "m", ItemID: &itemID,
	}))

	policy := NewNotificationPolicy(mem, 1)
	d := policy.Evaluate(context.Background(), item, 1)
	assert.Equal(t, DecisionNoop, d.Action)
	assert.Equal(t, ReasonAlreadyOpen, d.Reason)

	mem.FindOpenErr = errors.New("connection reset")
	d = policy.Evaluate(context.Background(), item, 1)
	assert.Equal(t, DecisionNoop, d.Action)
	assert.Equal(t, ReasonLookupFailed, d.Reason)
}

func TestNotifyIsIdempotent(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := newNotificationService(mem, nil, pub)
	item := seedItem(t, mem, "I-1", 1, 5)

	created := 0
	for i := 0; i < 4; i++ {
		res, err := svc.Notify(context.Background(), item, 0)
		require.NoError(t, err)
		if res.Created {
			created++
		} else {
			assert.Equal(t, ReasonAlreadyOpen, res.Reason)
		}
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, mem.NotificationCount())
	drainFeed(t, svc.feed)
	assert.Len(t, pub.notifications, 1)
}

func TestNotifyConcurrentCallersCreateOneAlert(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, nil, nil)
	item := seedItem(t, mem, "C-1", 0, 3)

	const callers = 8
	results := make(chan NotificationResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Notify(context.Background(), item, 1)
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for res := range results {
		if res.Created {
			created++
			continue
		}
		assert.Contains(t, []string{ReasonAlreadyOpen, ReasonDuplicateRace}, res.Reason)
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, mem.NotificationCount())
}

func TestNotifyUsesLocker(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	locker := &fakeLocker{}
	svc := newNotificationService(mem, locker, nil)
	item := seedItem(t, mem, "L-1", 0, 3)

	res, err := svc.Notify(context.Background(), item, 1)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, locker.acquired)
	assert.Empty(t, locker.held)
}

func TestNotifyProceedsWhenLockerFails(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, &fakeLocker{err: errors.New("redis down")}, nil)
	item := seedItem(t, mem, "L-2", 0, 3)

	res, err := svc.Notify(context.Background(), item, 1)
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestNotifyCreateFailure(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, nil, nil)
	item := seedItem(t, mem, "F-1", 0, 3)
	mem.CreateNotificationErr = errors.New("disk full")

	_, err := svc.Notify(context.Background(), item, 1)
	assert.Error(t, err)
}

func TestDispatch(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, nil, nil)

	t.Run("healthy item completes immediately", func(t *testing.T) {
		task := svc.Dispatch(models.Item{ID: 99, Quantity: 10, MinQuantity: 1}, 1)
		select {
		case <-task.Done():
		default:
			t.Fatal("task should already be done")
		}
		res, err := task.Wait(context.Background())
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, ReasonNotNeeded, res.Reason)
		assert.Zero(t, mem.FindOpenCalls)
	})

	t.Run("low item creates an alert in the background", func(t *testing.T) {
		item := seedItem(t, mem, "D-1", 2, 5)
		task := svc.Dispatch(item, 1)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		res, err := task.Wait(ctx)
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, models.NotificationTypeLowStock, res.Notification.Type)
	})

	t.Run("failure stays inside the task", func(t *testing.T) {
		item := seedItem(t, mem, "D-2", 0, 5)
		mem.CreateNotificationErr = errors.New("boom")
		defer func() { mem.CreateNotificationErr = nil }()

		_, err := svc.Dispatch(item, 1).Wait(context.Background())
		assert.Error(t, err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.Drain(ctx))
}

func TestGenerate(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, nil, nil)

	out := seedItem(t, mem, "G-1", 0, 5)
	seedItem(t, mem, "G-2", 2, 5)
	seedItem(t, mem, "G-3", 5, 5)
	seedItem(t, mem, "G-4", 20, 5)

	_, err := svc.Notify(context.Background(), out, 1)
	require.NoError(t, err)

	summary, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Notifications, 1)
	assert.Equal(t, models.NotificationTypeLowStock, summary.Notifications[0].Type)

	again, err := svc.Generate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, mem.NotificationCount())
}

func TestGenerateListFailure(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	mem.ListItemsErr = errors.New("timeout")
	svc := newNotificationService(mem, nil, nil)

	_, err := svc.Generate(context.Background(), 1)
	assert.Error(t, err)
}

func TestCreateManualNotification(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateNotificationRequest{Message: "m"}, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, &CreateNotificationRequest{Title: "t", Message: "m", Type: "weird"}, 0)
	assert.ErrorIs(t, err, ErrValidation)

	n, err := svc.Create(ctx, &CreateNotificationRequest{Title: " Stocktake ", Message: "Friday"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Stocktake", n.Title)
	assert.Equal(t, models.NotificationTypeOther, n.Type)
	assert.Equal(t, int64(1), n.UserID)

	n, err = svc.Create(ctx, &CreateNotificationRequest{UserID: 9, Title: "t", Message: "m"}, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n.UserID)
}

func TestNotificationLifecycle(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, &CreateNotificationRequest{Title: "a", Message: "a"}, 2)
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateNotificationRequest{Title: "b", Message: "b"}, 2)
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateNotificationRequest{Title: "c", Message: "c"}, 3)
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	read, err := svc.MarkRead(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	unread, err := svc.List(ctx, models.NotificationFilter{UserID: 2, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "b", unread[0].Title)

	updated, err := svc.MarkAllRead(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	count, err = svc.UnreadCount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.Error(t, svc.Delete(ctx, first.ID))
}

func TestReadAlertAllowsANewOne(t *testing.T) {
	mem := servicetest.NewMemoryStore()
	svc := newNotificationService(mem, nil, nil)
	ctx := context.Background()
	item := seedItem(t, mem, "R-1", 0, 5)

	res, err := svc.Notify(ctx, item, 1)
	require.NoError(t, err)
	require.True(t, res.Created)

	_, err = svc.MarkRead(ctx, res.Notification.ID)
	require.NoError(t, err)

	res, err = svc.Notify(ctx, item, 1)
	require.NoError(t, err)
	assert.True(t, res.Created)
}
