// Package delivery renders reminders to the user. The gate checks
// permission and the suppression ledger at fire time; notifiers are the
// platform surfaces that actually display something.
package delivery

import "context"

// Permission mirrors the platform notification permission states.
type Permission int

const (
	// PermissionPrompt means the user has not decided yet.
	PermissionPrompt Permission = iota
	// PermissionGranted means notifications may be shown.
	PermissionGranted
	// PermissionDenied means the user refused; only a fresh explicit user
	// action may ask again.
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "prompt"
	}
}

// Notification is the delivery surface payload. Tag carries the reminder
// kind so a newer notification of the same kind replaces the older one
// instead of stacking.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Tag   string `json:"tag"`
	URL   string `json:"url,omitempty"`
}

// Notifier is a platform notification surface.
type Notifier interface {
	// Permission reports the current authorization state.
	Permission(ctx context.Context) Permission
	// RequestPermission asks the user for authorization when undecided.
	RequestPermission(ctx context.Context) (Permission, error)
	// Send displays the notification.
	Send(ctx context.Context, n *Notification) error
}
