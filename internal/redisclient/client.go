package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockNotHeld means the lock expired or now belongs to someone else
var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the lock only while it still carries the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ItemSnapshot is the mirrored read-side view of an item
type ItemSnapshot struct {
	ItemID      int64
	SKU         string
	Name        string
	Quantity    int
	MinQuantity int
	Price       string
	Status      string
}

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

// AcquireLock acquires a short-lived lock and returns the token that releases
// it; false means another holder has it
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := c.rdb.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseLock releases a lock acquired with token
func (c *Client) ReleaseLock(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, c.rdb, []string{lockKey(key)}, token).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func itemKey(itemID int64) string {
	return fmt.Sprintf("inventory:item:%d", itemID)
}

// MirrorItem writes an item snapshot into the read-side mirror
func (c *Client) MirrorItem(ctx context.Context, snap ItemSnapshot) error {
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, itemKey(snap.ItemID),
		"sku", snap.SKU,
		"name", snap.Name,
		"quantity", snap.Quantity,
		"min_quantity", snap.MinQuantity,
		"price", snap.Price,
		"status", snap.Status,
	)
	pipe.SAdd(ctx, "inventory:items", snap.ItemID)

	_, err := pipe.Exec(ctx)
	return err
}

// RemoveItem drops an item from the mirror
func (c *Client) RemoveItem(ctx context.Context, itemID int64) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, itemKey(itemID))
	pipe.SRem(ctx, "inventory:items", itemID)

	_, err := pipe.Exec(ctx)
	return err
}

// IncrNotificationCount bumps the per-user counter of created notifications
func (c *Client) IncrNotificationCount(ctx context.Context, userID int64) (int64, error) {
	return c.rdb.Incr(ctx, fmt.Sprintf("inventory:notifications:user:%d", userID)).Result()
}
