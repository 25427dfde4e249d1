package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

const settingsKey = "reminders:settings"

// ErrNotFound indicates that no settings record has ever been saved.
var ErrNotFound = errors.New("reminder settings not found")

// RedisStore persists the settings record as a JSON blob in Redis. Settings
// survive restarts; no TTL is applied.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client *redis.Client, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

// Load returns the stored settings or ErrNotFound when absent.
func (s *RedisStore) Load(ctx context.Context) (*reminder.Settings, error) {
	data, err := s.client.Get(ctx, settingsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}

		s.log.Error("failed to get settings from redis", "error", err)
		return nil, err
	}

	var stored reminder.Settings
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		s.log.Error("failed to decode settings", "error", err)
		return nil, err
	}

	return &stored, nil
}

// Save validates and overwrites the stored settings record.
func (s *RedisStore) Save(ctx context.Context, settings *reminder.Settings) error {
	if settings == nil {
		return errors.New("settings cannot be nil")
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(settings)
	if err != nil {
		s.log.Error("failed to encode settings", "error", err)
		return err
	}

	if err := s.client.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		s.log.Error("failed to save settings in redis", "error", err)
		return err
	}

	return nil
}
