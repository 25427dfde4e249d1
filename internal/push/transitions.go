package push

// allowedTransitions encodes the subscription lifecycle:
// Unsubscribed → Subscribing → Subscribed → (Updating ⟲ Subscribed) →
// Unsubscribing → Unsubscribed. Failed operations fall back to the state
// they started from. A subscribed manager may re-enter Subscribing: the
// subscribe operation is idempotent and overwrites the broker record.
var allowedTransitions = map[State][]State{
	StateUnsubscribed:  {StateSubscribing},
	StateSubscribing:   {StateSubscribed, StateUnsubscribed},
	StateSubscribed:    {StateUpdating, StateUnsubscribing, StateSubscribing},
	StateUpdating:      {StateSubscribed},
	StateUnsubscribing: {StateUnsubscribed},
}

// IsTransitionAllowed reports whether the lifecycle permits moving from one
// state to another.
func IsTransitionAllowed(from, to State) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
