package delivery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

func TestDefaultCatalogCoversEveryKind(t *testing.T) {
	catalog := DefaultCatalog("/icons/app.png", "https://tracker.example/")

	for _, kind := range append(append([]reminder.Kind{}, reminder.FixedKinds...), reminder.KindWater) {
		msg := catalog.Message(kind)
		assert.NotEmpty(t, msg.Title, "kind %s has no title", kind)
		assert.NotEmpty(t, msg.Body, "kind %s has no body", kind)
	}
}

func TestLoadCatalogOverridesAndMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	content := []byte("lunch:\n  title: \"Midday check\"\nwater:\n  body: \"Drink up\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	catalog, err := LoadCatalog(path, "/icons/app.png", "https://tracker.example/")
	require.NoError(t, err)

	lunch := catalog.Message(reminder.KindLunch)
	assert.Equal(t, "Midday check", lunch.Title)
	assert.Equal(t, defaultMessages[reminder.KindLunch].Body, lunch.Body, "missing fields keep defaults")

	water := catalog.Message(reminder.KindWater)
	assert.Equal(t, defaultMessages[reminder.KindWater].Title, water.Title)
	assert.Equal(t, "Drink up", water.Body)

	assert.Equal(t, defaultMessages[reminder.KindBreakfast], catalog.Message(reminder.KindBreakfast))
}

func TestLoadCatalogRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snack:\n  title: \"nope\"\n"), 0o600))

	_, err := LoadCatalog(path, "", "")
	assert.ErrorContains(t, err, "unknown reminder kind")
}

func TestCatalogBuild(t *testing.T) {
	catalog := DefaultCatalog("/icons/app.png", "https://tracker.example/")

	n := catalog.Build(reminder.KindSleep)
	assert.Equal(t, "sleep", n.Tag)
	assert.Equal(t, "/icons/app.png", n.Icon)
	assert.Equal(t, "https://tracker.example/", n.URL)
}
