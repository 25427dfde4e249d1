package push

import (
	"context"
	"errors"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrNoChannel indicates the relay holds no channel object to subscribe with.
var ErrNoChannel = errors.New("no push channel available from the relay")

// Relay abstracts the platform push channel provider. The subscription
// object it yields is opaque to this subsystem and passed through to the
// broker unmodified.
type Relay interface {
	// Supported reports whether the platform offers push capability at all.
	Supported() bool
	// GetSubscription returns the active channel, or nil when none exists.
	GetSubscription(ctx context.Context) (*webpush.Subscription, error)
	// Subscribe returns the active channel, creating one if needed.
	// Idempotent: an existing channel is reused, never duplicated.
	Subscribe(ctx context.Context) (*webpush.Subscription, error)
	// Unsubscribe tears down the active channel.
	Unsubscribe(ctx context.Context) error
}

// ChannelRelay implements Relay over channel objects supplied by the client
// platform: the browser posts its push registration to this service, the
// HTTP layer calls Provide, and Subscribe promotes the candidate to the
// active channel.
type ChannelRelay struct {
	supported bool

	mu        sync.Mutex
	active    *webpush.Subscription
	candidate *webpush.Subscription
}

var _ Relay = (*ChannelRelay)(nil)

// NewChannelRelay creates a relay. supported should be false when the
// service has no VAPID identity configured.
func NewChannelRelay(supported bool) *ChannelRelay {
	return &ChannelRelay{supported: supported}
}

// Provide stages a channel object received from the client. It does not
// activate the channel; Subscribe does.
func (r *ChannelRelay) Provide(sub *webpush.Subscription) {
	r.mu.Lock()
	r.candidate = sub
	r.mu.Unlock()
}

// Supported reports push capability.
func (r *ChannelRelay) Supported() bool {
	return r != nil && r.supported
}

// GetSubscription returns the active channel or nil.
func (r *ChannelRelay) GetSubscription(ctx context.Context) (*webpush.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, nil
}

// Subscribe reuses the active channel when present, otherwise promotes the
// staged candidate.
func (r *ChannelRelay) Subscribe(ctx context.Context) (*webpush.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return r.active, nil
	}

	if r.candidate == nil {
		return nil, ErrNoChannel
	}

	r.active = r.candidate
	r.candidate = nil
	return r.active, nil
}

// Unsubscribe drops the active channel.
func (r *ChannelRelay) Unsubscribe(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return ErrNoChannel
	}

	r.active = nil
	return nil
}
