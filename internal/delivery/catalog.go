package delivery

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// Message is the per-kind notification content.
type Message struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// Catalog maps reminder kinds to notification content plus the shared icon
// and interaction target.
type Catalog struct {
	messages  map[reminder.Kind]Message
	icon      string
	targetURL string
}

var defaultMessages = map[reminder.Kind]Message{
	reminder.KindBreakfast:  {Title: "Breakfast time! 🍳", Body: "Don't forget to log your breakfast."},
	reminder.KindLunch:      {Title: "Lunch time! 🥗", Body: "Don't forget to log your lunch."},
	reminder.KindDinner:     {Title: "Dinner time! 🍽️", Body: "Don't forget to log your dinner."},
	reminder.KindWeight:     {Title: "Morning weigh-in ⚖️", Body: "Step on the scale and log today's weight."},
	reminder.KindSleep:      {Title: "Wind down 🌙", Body: "Log last night's sleep and get ready for bed."},
	reminder.KindMotivation: {Title: "Keep it up! 💪", Body: "Small steps every day add up. Check your progress."},
	reminder.KindWater:      {Title: "Hydration check 💧", Body: "Time for a glass of water."},
}

// DefaultCatalog returns the built-in notification texts.
func DefaultCatalog(icon, targetURL string) *Catalog {
	messages := make(map[reminder.Kind]Message, len(defaultMessages))
	for kind, msg := range defaultMessages {
		messages[kind] = msg
	}

	return &Catalog{
		messages:  messages,
		icon:      icon,
		targetURL: targetURL,
	}
}

// LoadCatalog overlays the built-in texts with per-kind overrides from a
// YAML file keyed by kind name.
func LoadCatalog(path, icon, targetURL string) (*Catalog, error) {
	catalog := DefaultCatalog(icon, targetURL)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	overrides := make(map[string]Message)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	for name, msg := range overrides {
		kind := reminder.Kind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("catalog file references unknown reminder kind %q", name)
		}

		merged := catalog.messages[kind]
		if msg.Title != "" {
			merged.Title = msg.Title
		}
		if msg.Body != "" {
			merged.Body = msg.Body
		}
		catalog.messages[kind] = merged
	}

	return catalog, nil
}

// Message returns the content for kind.
func (c *Catalog) Message(kind reminder.Kind) Message {
	return c.messages[kind]
}

// Build assembles the full notification payload for kind.
func (c *Catalog) Build(kind reminder.Kind) *Notification {
	msg := c.messages[kind]
	return &Notification{
		Title: msg.Title,
		Body:  msg.Body,
		Icon:  c.icon,
		Tag:   string(kind),
		URL:   c.targetURL,
	}
}
