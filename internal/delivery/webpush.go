package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// SubscriptionSource yields the active push channel, if any. push.Relay
// satisfies this.
type SubscriptionSource interface {
	GetSubscription(ctx context.Context) (*webpush.Subscription, error)
}

// WebPushNotifier delivers reminders through the Web Push protocol using the
// service's VAPID identity. Permission follows the channel: an active
// subscription means the user granted notifications in the browser.
type WebPushNotifier struct {
	source  SubscriptionSource
	options webpush.Options
	log     *slog.Logger
}

var _ Notifier = (*WebPushNotifier)(nil)

// NewWebPushNotifier builds the notifier. subscriberEmail identifies this
// service to the push relay per the VAPID spec.
func NewWebPushNotifier(source SubscriptionSource, vapidPublicKey, vapidPrivateKey, subscriberEmail string, log *slog.Logger) *WebPushNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &WebPushNotifier{
		source: source,
		options: webpush.Options{
			Subscriber:      subscriberEmail,
			VAPIDPublicKey:  vapidPublicKey,
			VAPIDPrivateKey: vapidPrivateKey,
			TTL:             3600,
		},
		log: log,
	}
}

// Permission is granted while an active channel exists and undecided before
// the browser has registered one.
func (w *WebPushNotifier) Permission(ctx context.Context) Permission {
	if w == nil || w.source == nil {
		return PermissionDenied
	}

	sub, err := w.source.GetSubscription(ctx)
	if err != nil || sub == nil {
		return PermissionPrompt
	}
	return PermissionGranted
}

// RequestPermission cannot prompt from the server side; the browser asks the
// user and registers the channel through the subscribe endpoint.
func (w *WebPushNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	return w.Permission(ctx), nil
}

// Send encrypts the payload against the channel keys and posts it to the
// relay endpoint.
func (w *WebPushNotifier) Send(ctx context.Context, n *Notification) error {
	sub, err := w.source.GetSubscription(ctx)
	if err != nil {
		return fmt.Errorf("fetch push channel: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("no active push channel")
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &w.options)
	if err != nil {
		return fmt.Errorf("send web push: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("push relay returned status %d", resp.StatusCode)
	}

	return nil
}
