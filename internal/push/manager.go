package push

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/Proton-105/reminder-service/internal/errors"
	"github.com/Proton-105/reminder-service/internal/reminder"
)

// Manager drives the subscription lifecycle for the single subscriber. All
// failures are surfaced to the caller for a user-visible retry; nothing is
// retried automatically.
type Manager struct {
	subscriberID string
	relay        Relay
	broker       Broker
	loc          *time.Location
	log          *slog.Logger

	mu    sync.Mutex
	state State
}

// NewManager creates a Manager in the Unsubscribed state.
func NewManager(subscriberID string, relay Relay, broker Broker, loc *time.Location, log *slog.Logger) *Manager {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		subscriberID: subscriberID,
		relay:        relay,
		broker:       broker,
		loc:          loc,
		log:          log,
		state:        StateUnsubscribed,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe obtains a relay channel (reusing an existing one rather than
// creating a duplicate), captures the local timezone, and registers the
// full record with the broker.
func (m *Manager) Subscribe(ctx context.Context, settings reminder.Settings) error {
	if m.relay == nil || !m.relay.Supported() {
		return apperrors.NewPushUnsupportedError()
	}

	if err := m.transition(StateSubscribing); err != nil {
		return err
	}

	sub, err := m.relay.Subscribe(ctx)
	if err != nil {
		m.revert(StateUnsubscribed)
		return apperrors.NewRelayUnreachableError(err)
	}

	record := Record{
		SubscriberID: m.subscriberID,
		Subscription: sub,
		Timezone:     m.loc.String(),
		Settings:     settings,
	}

	if err := m.broker.Register(ctx, record); err != nil {
		m.revert(StateUnsubscribed)
		return apperrors.NewBrokerUnreachableError(err)
	}

	if err := m.transition(StateSubscribed); err != nil {
		return err
	}

	m.log.Info("push subscription registered", slog.String("subscriber_id", m.subscriberID), slog.String("timezone", record.Timezone))
	return nil
}

// UpdateSettings transmits the settings delta to the broker without touching
// the transport channel, so it works even while the local channel object is
// stale or absent.
func (m *Manager) UpdateSettings(ctx context.Context, settings reminder.Settings) error {
	wasSubscribed := m.State() == StateSubscribed
	if wasSubscribed {
		if err := m.transition(StateUpdating); err != nil {
			return err
		}
		defer m.revert(StateSubscribed)
	}

	if err := m.broker.UpdateSettings(ctx, m.subscriberID, settings); err != nil {
		return apperrors.NewBrokerUnreachableError(err)
	}

	return nil
}

// Unsubscribe performs a best-effort channel teardown followed by the broker
// deletion. The two are not transactional: a failed teardown never blocks
// the broker delete, and an orphaned broker record self-heals on the next
// subscribe.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	if err := m.transition(StateUnsubscribing); err != nil {
		return err
	}
	defer m.revert(StateUnsubscribed)

	if m.relay != nil {
		if err := m.relay.Unsubscribe(ctx); err != nil {
			m.log.Warn("push channel teardown failed, continuing with broker delete", slog.Any("error", err))
		}
	}

	if err := m.broker.Unregister(ctx, m.subscriberID); err != nil {
		return apperrors.NewBrokerUnreachableError(err)
	}

	m.log.Info("push subscription removed", slog.String("subscriber_id", m.subscriberID))
	return nil
}

// Validate is a read-only liveness check: the channel still exists locally
// and the broker still holds the record. Callers may poll it to detect
// silent invalidation and prompt a re-subscribe.
func (m *Manager) Validate(ctx context.Context) (bool, error) {
	if m.relay == nil || !m.relay.Supported() {
		return false, apperrors.NewPushUnsupportedError()
	}

	sub, err := m.relay.GetSubscription(ctx)
	if err != nil {
		return false, apperrors.NewRelayUnreachableError(err)
	}
	if sub == nil {
		return false, nil
	}

	alive, err := m.broker.Validate(ctx, m.subscriberID)
	if err != nil {
		return false, apperrors.NewBrokerUnreachableError(err)
	}

	return alive, nil
}

func (m *Manager) transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !IsTransitionAllowed(m.state, to) {
		m.log.Warn("invalid subscription transition", slog.String("from", string(m.state)), slog.String("to", string(to)))
		return apperrors.NewValidationError("subscription operation not allowed in state " + string(m.state))
	}

	transitionRecorder(string(m.state), string(to))
	m.state = to
	return nil
}

// revert moves back to the state an operation started from, bypassing the
// guard: rollback edges are always legal.
func (m *Manager) revert(to State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == to {
		return
	}

	transitionRecorder(string(m.state), string(to))
	m.state = to
}
