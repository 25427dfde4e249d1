package push

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBroker struct {
	mu      sync.Mutex
	records map[string]Record

	registerErr   error
	updateErr     error
	unregisterErr error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{records: make(map[string]Record)}
}

func (b *fakeBroker) Register(ctx context.Context, record Record) error {
	if b.registerErr != nil {
		return b.registerErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[record.SubscriberID] = record
	return nil
}

func (b *fakeBroker) UpdateSettings(ctx context.Context, subscriberID string, settings reminder.Settings) error {
	if b.updateErr != nil {
		return b.updateErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	record := b.records[subscriberID]
	record.Settings = settings
	b.records[subscriberID] = record
	return nil
}

func (b *fakeBroker) Unregister(ctx context.Context, subscriberID string) error {
	if b.unregisterErr != nil {
		return b.unregisterErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, subscriberID)
	return nil
}

func (b *fakeBroker) Validate(ctx context.Context, subscriberID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.records[subscriberID]
	return ok, nil
}

func (b *fakeBroker) record(subscriberID string) (Record, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.records[subscriberID]
	return record, ok
}

func channelObject(endpoint string) *webpush.Subscription {
	return &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: "p256dh-key",
			Auth:   "auth-secret",
		},
	}
}

func newTestManager(t *testing.T, broker Broker) (*Manager, *ChannelRelay) {
	t.Helper()

	relay := NewChannelRelay(true)
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	return NewManager("user-1", relay, broker, loc, testLogger()), relay
}

func TestManager_SubscribeRegistersRecord(t *testing.T) {
	broker := newFakeBroker()
	manager, relay := newTestManager(t, broker)
	relay.Provide(channelObject("https://relay.example/ch-1"))

	settings := reminder.DefaultSettings()
	err := manager.Subscribe(context.Background(), settings)
	assert.NoError(t, err)
	assert.Equal(t, StateSubscribed, manager.State())

	record, ok := broker.record("user-1")
	if assert.True(t, ok) {
		assert.Equal(t, "Europe/Moscow", record.Timezone)
		assert.Equal(t, settings, record.Settings)
		assert.Equal(t, "https://relay.example/ch-1", record.Subscription.Endpoint)
	}
}

func TestManager_SubscribeReusesExistingChannel(t *testing.T) {
	broker := newFakeBroker()
	manager, relay := newTestManager(t, broker)
	relay.Provide(channelObject("https://relay.example/ch-1"))

	assert.NoError(t, manager.Subscribe(context.Background(), reminder.DefaultSettings()))

	// Re-subscribing reuses the live channel instead of promoting the stale
	// candidate into a duplicate.
	relay.Provide(channelObject("https://relay.example/ch-2"))
	assert.NoError(t, manager.Subscribe(context.Background(), reminder.DefaultSettings()))
	assert.Equal(t, StateSubscribed, manager.State())

	record, ok := broker.record("user-1")
	if assert.True(t, ok) {
		assert.Equal(t, "https://relay.example/ch-1", record.Subscription.Endpoint)
	}
}

func TestManager_SubscribeUnsupportedPlatform(t *testing.T) {
	broker := newFakeBroker()
	relay := NewChannelRelay(false)
	manager := NewManager("user-1", relay, broker, time.UTC, testLogger())

	err := manager.Subscribe(context.Background(), reminder.DefaultSettings())
	assert.Error(t, err)
	assert.Equal(t, StateUnsubscribed, manager.State())
}

func TestManager_SubscribeBrokerFailureRollsBack(t *testing.T) {
	broker := newFakeBroker()
	broker.registerErr = errors.New("connection refused")
	manager, relay := newTestManager(t, broker)
	relay.Provide(channelObject("https://relay.example/ch-1"))

	err := manager.Subscribe(context.Background(), reminder.DefaultSettings())
	assert.Error(t, err)
	assert.Equal(t, StateUnsubscribed, manager.State())

	// The very next attempt succeeds without a new channel object.
	broker.registerErr = nil
	assert.NoError(t, manager.Subscribe(context.Background(), reminder.DefaultSettings()))
	assert.Equal(t, StateSubscribed, manager.State())
}

func TestManager_UpdateSettingsWithoutChannel(t *testing.T) {
	broker := newFakeBroker()
	manager, _ := newTestManager(t, broker)

	// Settings changed while offline: no channel, still transmitted.
	updated := reminder.DefaultSettings()
	updated.Dinner.Time = "19:00"

	err := manager.UpdateSettings(context.Background(), updated)
	assert.NoError(t, err)
	assert.Equal(t, StateUnsubscribed, manager.State())
}

func TestManager_UpdateSettingsBrokerFailure(t *testing.T) {
	broker := newFakeBroker()
	manager, relay := newTestManager(t, broker)
	relay.Provide(channelObject("https://relay.example/ch-1"))
	assert.NoError(t, manager.Subscribe(context.Background(), reminder.DefaultSettings()))

	broker.updateErr = errors.New("timeout")
	err := manager.UpdateSettings(context.Background(), reminder.DefaultSettings())
	assert.Error(t, err)
	assert.Equal(t, StateSubscribed, manager.State(), "failed update falls back to subscribed")
}

func TestManager_UnsubscribeBestEffort(t *testing.T) {
	broker := newFakeBroker()
	manager, relay := newTestManager(t, broker)
	relay.Provide(channelObject("https://relay.example/ch-1"))
	assert.NoError(t, manager.Subscribe(context.Background(), reminder.DefaultSettings()))

	// Tear the channel down behind the manager's back so the relay teardown
	// fails; the broker deletion must still happen.
	assert.NoError(t, relay.Unsubscribe(context.Background()))

	err := manager.Unsubscribe(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StateUnsubscribed, manager.State())

	_, ok := broker.record("user-1")
	assert.False(t, ok)
}

func TestManager_UnsubscribeThenSubscribeRoundTrips(t *testing.T) {
	broker := newFakeBroker()
	manager, relay := newTestManager(t, broker)
	relay.Provide(channelObject("https://relay.example/ch-1"))

	settings := reminder.DefaultSettings()
	settings.Water.IntervalHours = 4

	assert.NoError(t, manager.Subscribe(context.Background(), settings))
	before, _ := broker.record("user-1")

	assert.NoError(t, manager.Unsubscribe(context.Background()))

	// The transport channel changes identity across the round trip.
	relay.Provide(channelObject("https://relay.example/ch-2"))
	assert.NoError(t, manager.Subscribe(context.Background(), settings))
	after, ok := broker.record("user-1")

	if assert.True(t, ok) {
		assert.Equal(t, before.Settings, after.Settings)
		assert.Equal(t, before.Timezone, after.Timezone)
		assert.NotEqual(t, before.Subscription.Endpoint, after.Subscription.Endpoint)
	}
}

func TestManager_Validate(t *testing.T) {
	broker := newFakeBroker()
	manager, relay := newTestManager(t, broker)

	alive, err := manager.Validate(context.Background())
	assert.NoError(t, err)
	assert.False(t, alive, "no channel means not alive")

	relay.Provide(channelObject("https://relay.example/ch-1"))
	assert.NoError(t, manager.Subscribe(context.Background(), reminder.DefaultSettings()))

	alive, err = manager.Validate(context.Background())
	assert.NoError(t, err)
	assert.True(t, alive)

	assert.Equal(t, StateSubscribed, manager.State(), "validate is read-only")
}
