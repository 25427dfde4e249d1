// Package reminder defines the reminder domain: kinds, user settings and
// fire-time arithmetic shared by the local scheduler, the push subscription
// manager and the dispatcher synchronizer.
package reminder

// Kind identifies a single reminder category.
type Kind string

const (
	// KindBreakfast reminds the user to log breakfast.
	KindBreakfast Kind = "breakfast"
	// KindLunch reminds the user to log lunch.
	KindLunch Kind = "lunch"
	// KindDinner reminds the user to log dinner.
	KindDinner Kind = "dinner"
	// KindWeight reminds the user to log the morning weigh-in.
	KindWeight Kind = "weight"
	// KindSleep reminds the user to log last night's sleep.
	KindSleep Kind = "sleep"
	// KindMotivation delivers the daily motivational message.
	KindMotivation Kind = "motivation"
	// KindWater reminds the user to drink water on a fixed interval.
	KindWater Kind = "water"
)

// FixedKinds lists every kind that fires once per day at a configured time.
// KindWater is deliberately absent: it is interval-driven and is never
// represented as an external dispatcher job.
var FixedKinds = []Kind{
	KindBreakfast,
	KindLunch,
	KindDinner,
	KindWeight,
	KindSleep,
	KindMotivation,
}

// Valid reports whether k names a known reminder kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBreakfast, KindLunch, KindDinner, KindWeight, KindSleep, KindMotivation, KindWater:
		return true
	}
	return false
}

// Fixed reports whether k is a fixed-time kind.
func (k Kind) Fixed() bool {
	return k.Valid() && k != KindWater
}
