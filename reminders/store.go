package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker remembers which reminders already went out.
type Marker interface {
	// Mark claims key for ttl. It returns false when the key was already
	// claimed.
	Mark(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

type RedisMarker struct {
	rdb *redis.Client
}

func NewRedisMarker(rdb *redis.Client) *RedisMarker { return &RedisMarker{rdb: rdb} }

func (m *RedisMarker) Mark(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return m.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (m *RedisMarker) Unmark(ctx context.Context, key string) error {
	return m.rdb.Del(ctx, key).Err()
}

// 每条借用每天最多提醒一次
func reminderKey(bookingID uint, day time.Time) string {
	return fmt.Sprintf("lend:reminder:%d:%s", bookingID, day.UTC().Format(time.DateOnly))
}
