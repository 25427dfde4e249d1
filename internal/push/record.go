package push

import (
	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// Record is the broker-side association for one subscriber: the opaque
// transport channel, the user's timezone and the settings copy the broker
// needs for server-side firing. The broker keys records by SubscriberID and
// overwrites on re-registration.
type Record struct {
	SubscriberID string                `json:"subscriber_id"`
	Subscription *webpush.Subscription `json:"subscription"`
	Timezone     string                `json:"timezone"`
	Settings     reminder.Settings     `json:"settings"`
}
