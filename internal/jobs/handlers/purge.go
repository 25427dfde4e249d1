package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/reminder-service/internal/jobs"
	"github.com/Proton-105/reminder-service/internal/suppression"
)

// LedgerPurgeHandler drops suppression markers older than the retention
// window. Markers carry no TTL of their own; this job is the only eviction.
type LedgerPurgeHandler struct {
	ledger suppression.Ledger
	loc    *time.Location
	log    *slog.Logger
}

func NewLedgerPurgeHandler(ledger suppression.Ledger, loc *time.Location, log *slog.Logger) *LedgerPurgeHandler {
	if loc == nil {
		loc = time.Local
	}

	return &LedgerPurgeHandler{ledger: ledger, loc: loc, log: log}
}

func (h *LedgerPurgeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.LedgerPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "ledger purge: failed to decode payload", slog.String("task_type", t.Type()), slog.String("error", err.Error()))
		}
		return err
	}

	retention := payload.RetentionDays
	if retention < 1 {
		retention = 30
	}

	cutoff := time.Now().In(h.loc).AddDate(0, 0, -retention)

	purged, err := h.ledger.PurgeBefore(ctx, cutoff)
	if err != nil {
		if h.log != nil {
			h.log.ErrorContext(ctx, "ledger purge failed", slog.String("error", err.Error()))
		}
		return err
	}

	if h.log != nil {
		h.log.InfoContext(ctx, "ledger purge completed",
			slog.Int("purged", purged),
			slog.Int("retention_days", retention))
	}

	return nil
}
