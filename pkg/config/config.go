package config

import (
	"time"

	"github.com/Proton-105/reminder-service/pkg/redis"
)

// Config holds runtime configuration for the reminder service.
type Config struct {
	AppEnv   string `mapstructure:"app_env"`
	HTTPPort string `mapstructure:"http_port" validate:"required"`

	// Timezone is the user's IANA timezone; local fire times and the broker
	// registration both depend on it.
	Timezone string `mapstructure:"timezone" validate:"required"`

	Log        LogConfig        `mapstructure:"log"`
	Redis      redis.Config     `mapstructure:"redis"`
	Broker     BrokerConfig     `mapstructure:"broker"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Push       PushConfig       `mapstructure:"push"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Delivery   DeliveryConfig   `mapstructure:"delivery"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	SentryDSN  string `mapstructure:"sentry_dsn"`
}

// BrokerConfig points at the backend broker holding push subscriptions.
type BrokerConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DispatcherConfig points at the external cron dispatcher.
type DispatcherConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`

	// TargetBaseURL is the public base URL the dispatcher calls back into,
	// one endpoint per reminder kind.
	TargetBaseURL string `mapstructure:"target_base_url" validate:"omitempty,url"`
}

// PushConfig carries the Web Push (VAPID) identity of this service.
type PushConfig struct {
	SubscriberID    string `mapstructure:"subscriber_id"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	SubscriberEmail string `mapstructure:"subscriber_email" validate:"omitempty,email"`
}

// TelegramConfig enables the Telegram delivery surface when set.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// JobsConfig tunes the background maintenance jobs.
type JobsConfig struct {
	// LedgerRetentionDays bounds how long suppression markers are kept.
	LedgerRetentionDays int `mapstructure:"ledger_retention_days"`
}

// DeliveryConfig tunes the notification content catalog.
type DeliveryConfig struct {
	// CatalogFile optionally overrides the built-in notification texts.
	CatalogFile string `mapstructure:"catalog_file"`
	// Icon is the notification icon URL.
	Icon string `mapstructure:"icon"`
	// TargetURL is opened when the user interacts with a notification.
	TargetURL string `mapstructure:"target_url" validate:"omitempty,url"`
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
