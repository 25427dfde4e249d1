// Package push manages the server-brokered push subscription: the
// transport-level channel obtained from the platform relay and its
// association with the backend broker.
package push

// State represents a subscription lifecycle state.
type State string

const (
	// StateUnsubscribed indicates no active push channel.
	StateUnsubscribed State = "unsubscribed"
	// StateSubscribing indicates a subscribe operation is in flight.
	StateSubscribing State = "subscribing"
	// StateSubscribed indicates an active, broker-registered channel.
	StateSubscribed State = "subscribed"
	// StateUpdating indicates a settings delta is being transmitted.
	StateUpdating State = "updating"
	// StateUnsubscribing indicates teardown is in flight.
	StateUnsubscribing State = "unsubscribing"
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe subscription
// state transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}
