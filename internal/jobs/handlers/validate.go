package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/reminder-service/internal/push"
)

// PushValidateHandler polls the push channel and broker record for liveness.
// Read-only: a dead channel is reported, never repaired automatically.
type PushValidateHandler struct {
	manager *push.Manager
	log     *slog.Logger
}

func NewPushValidateHandler(manager *push.Manager, log *slog.Logger) *PushValidateHandler {
	return &PushValidateHandler{manager: manager, log: log}
}

func (h *PushValidateHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if h.manager == nil {
		return nil
	}

	alive, err := h.manager.Validate(ctx)
	if err != nil {
		if h.log != nil {
			h.log.WarnContext(ctx, "push validate failed", slog.String("error", err.Error()))
		}
		// Validation is advisory; a transient broker error should not pile
		// up asynq retries.
		return nil
	}

	if h.log != nil {
		h.log.InfoContext(ctx, "push validate completed", slog.Bool("alive", alive))
	}

	return nil
}
