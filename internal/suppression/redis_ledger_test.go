package suppression

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisLedger_MarkAndCheck(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	ledger := NewRedisLedger(client, testLogger())
	ctx := context.Background()
	today := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	satisfied, err := ledger.IsSatisfied(ctx, reminder.KindLunch, today)
	assert.NoError(t, err)
	assert.False(t, satisfied)

	err = ledger.MarkSatisfied(ctx, reminder.KindLunch, today)
	assert.NoError(t, err)

	satisfied, err = ledger.IsSatisfied(ctx, reminder.KindLunch, today)
	assert.NoError(t, err)
	assert.True(t, satisfied)

	// Other kinds and other days stay unaffected.
	satisfied, err = ledger.IsSatisfied(ctx, reminder.KindDinner, today)
	assert.NoError(t, err)
	assert.False(t, satisfied)

	satisfied, err = ledger.IsSatisfied(ctx, reminder.KindLunch, today.Add(24*time.Hour))
	assert.NoError(t, err)
	assert.False(t, satisfied)
}

func TestRedisLedger_RejectsUnknownKind(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	ledger := NewRedisLedger(client, testLogger())

	err := ledger.MarkSatisfied(context.Background(), reminder.Kind("coffee"), time.Now())
	assert.Error(t, err)
}

func TestRedisLedger_PurgeBefore(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	ledger := NewRedisLedger(client, testLogger())
	ctx := context.Background()

	old := time.Date(2025, time.February, 20, 9, 0, 0, 0, time.UTC)
	recent := time.Date(2025, time.March, 9, 9, 0, 0, 0, time.UTC)
	cutoff := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ledger.MarkSatisfied(ctx, reminder.KindBreakfast, old))
	assert.NoError(t, ledger.MarkSatisfied(ctx, reminder.KindWeight, old))
	assert.NoError(t, ledger.MarkSatisfied(ctx, reminder.KindBreakfast, recent))

	purged, err := ledger.PurgeBefore(ctx, cutoff)
	assert.NoError(t, err)
	assert.Equal(t, 2, purged)

	satisfied, err := ledger.IsSatisfied(ctx, reminder.KindBreakfast, recent)
	assert.NoError(t, err)
	assert.True(t, satisfied, "markers newer than the cutoff survive the purge")

	satisfied, err = ledger.IsSatisfied(ctx, reminder.KindBreakfast, old)
	assert.NoError(t, err)
	assert.False(t, satisfied)
}
