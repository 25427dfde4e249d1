package suppression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

const (
	markerKeyPattern  = "reminders:satisfied:%s:%s"
	markerScanPattern = "reminders:satisfied:*"
)

// RedisLedger stores suppression markers as presence keys in Redis.
type RedisLedger struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Ledger = (*RedisLedger)(nil)

// NewRedisLedger initializes a Redis-backed Ledger implementation.
func NewRedisLedger(client *redis.Client, log *slog.Logger) Ledger {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLedger{
		client: client,
		log:    log,
	}
}

// MarkSatisfied writes the presence marker for (kind, date).
func (l *RedisLedger) MarkSatisfied(ctx context.Context, kind reminder.Kind, date time.Time) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown reminder kind %q", kind)
	}

	key := markerKey(kind, date)
	if err := l.client.Set(ctx, key, 1, 0).Err(); err != nil {
		l.log.Error("failed to write suppression marker", "key", key, "error", err)
		return err
	}

	return nil
}

// IsSatisfied reports whether the presence marker for (kind, date) exists.
func (l *RedisLedger) IsSatisfied(ctx context.Context, kind reminder.Kind, date time.Time) (bool, error) {
	key := markerKey(kind, date)

	if _, err := l.client.Get(ctx, key).Result(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		l.log.Error("failed to read suppression marker", "key", key, "error", err)
		return false, err
	}

	return true, nil
}

// PurgeBefore scans all markers and deletes those keyed to a date before
// cutoff's calendar day.
func (l *RedisLedger) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	cutoffDay := reminder.DateKey(cutoff)

	var (
		cursor uint64
		purged int
	)

	for {
		keys, nextCursor, err := l.client.Scan(ctx, cursor, markerScanPattern, 100).Result()
		if err != nil {
			l.log.Error("failed to scan suppression markers", "error", err)
			return purged, err
		}

		for _, key := range keys {
			day := key[strings.LastIndex(key, ":")+1:]
			if day >= cutoffDay {
				continue
			}

			if err := l.client.Del(ctx, key).Err(); err != nil {
				l.log.Error("failed to delete suppression marker", "key", key, "error", err)
				return purged, err
			}
			purged++
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return purged, nil
}

func markerKey(kind reminder.Kind, date time.Time) string {
	return fmt.Sprintf(markerKeyPattern, kind, reminder.DateKey(date))
}
