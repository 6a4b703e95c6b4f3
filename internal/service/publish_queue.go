package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// ErrPublishQueueFull is returned when a change event is dropped because the
// queue's buffer is full
var ErrPublishQueueFull = errors.New("publish queue full")

var errPublishQueueClosed = errors.New("publish queue closed")

const (
	defaultPublishBuffer  = 1024
	defaultPublishTimeout = 5 * time.Second
)

type publishJob struct {
	eventType string
	publish   func(ctx context.Context) error
}

// PublishQueue hands change events to a publisher on one background goroutine,
// so a write never waits on the broker. Events go out in enqueue order.
type PublishQueue struct {
	publisher EventPublisher
	timeout   time.Duration
	jobs      chan publishJob
	pending   sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	logger    *zap.Logger
}

// NewPublishQueue starts a queue in front of publisher. Each publish is bounded
// by timeout; buffer caps how many events may wait.
func NewPublishQueue(publisher EventPublisher, buffer int, timeout time.Duration) *PublishQueue {
	if buffer <= 0 {
		buffer = defaultPublishBuffer
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	q := &PublishQueue{
		publisher: publisher,
		timeout:   timeout,
		jobs:      make(chan publishJob, buffer),
		logger:    util.GetLogger(),
	}
	go q.run()
	return q
}

func (q *PublishQueue) PublishItemUpserted(_ context.Context, event *models.ItemUpsertedEvent) error {
	return q.enqueue(event.EventType, func(ctx context.Context) error {
		return q.publisher.PublishItemUpserted(ctx, event)
	})
}

func (q *PublishQueue) PublishItemDeleted(_ context.Context, event *models.ItemDeletedEvent) error {
	return q.enqueue(event.EventType, func(ctx context.Context) error {
		return q.publisher.PublishItemDeleted(ctx, event)
	})
}

func (q *PublishQueue) PublishNotificationCreated(_ context.Context, event *models.NotificationCreatedEvent) error {
	return q.enqueue(event.EventType, func(ctx context.Context) error {
		return q.publisher.PublishNotificationCreated(ctx, event)
	})
}

func (q *PublishQueue) enqueue(eventType string, publish func(context.Context) error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errPublishQueueClosed
	}

	q.pending.Add(1)
	select {
	case q.jobs <- publishJob{eventType: eventType, publish: publish}:
		return nil
	default:
		q.pending.Done()
		return ErrPublishQueueFull
	}
}

func (q *PublishQueue) run() {
	for job := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := job.publish(ctx); err != nil {
			util.EventsPublishFailedTotal.WithLabelValues(job.eventType).Inc()
			q.logger.Error("Failed to publish change event",
				zap.String("event_type", job.eventType),
				zap.Error(err))
		}
		cancel()
		q.pending.Done()
	}
}

// Drain waits until every queued event has been handed to the publisher or ctx ends
func (q *PublishQueue) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events; already queued ones are still published
func (q *PublishQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}
