package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	apperrors "github.com/Proton-105/reminder-service/internal/errors"
	"github.com/Proton-105/reminder-service/internal/reminder"
	"github.com/Proton-105/reminder-service/internal/settings"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.loadOrDefault(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, current)
}

// handleSaveSettings persists the record, re-arms the local timers and pushes
// the settings delta to the broker. The broker sync is best-effort: the local
// save and re-arm always win.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var incoming reminder.Settings
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		s.writeError(r.Context(), w, apperrors.NewValidationError("malformed settings payload"))
		return
	}

	if err := s.store.Save(r.Context(), &incoming); err != nil {
		s.writeError(r.Context(), w, apperrors.NewValidationError(err.Error()))
		return
	}

	s.scheduler.RearmAll(incoming)

	pushSynced := true
	if s.pushMgr != nil {
		if err := s.pushMgr.UpdateSettings(r.Context(), incoming); err != nil {
			pushSynced = false
			s.log.Warn("push settings sync failed", slog.Any("error", err))
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings":    incoming,
		"push_synced": pushSynced,
	})
}

// handleSetup reconciles the external dispatcher against current settings.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		s.writeError(r.Context(), w, apperrors.NewValidationError("no dispatcher configured"))
		return
	}

	current, err := s.loadOrDefault(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	summary, err := s.sync.Reconcile(r.Context(), *current)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handleLogSaved is the "log saved" hook: the logging UI calls it whenever an
// entry of kind is recorded, which suppresses today's smart reminder.
func (s *Server) handleLogSaved(w http.ResponseWriter, r *http.Request) {
	kind := reminder.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		s.writeError(r.Context(), w, apperrors.NewValidationError("unknown reminder kind"))
		return
	}

	today := time.Now().In(s.loc)
	if err := s.ledger.MarkSatisfied(r.Context(), kind, today); err != nil {
		s.writeError(r.Context(), w, apperrors.NewStorageError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleFire is the dispatcher's callback target: an externally-triggered
// fire goes through the same gate as a local timer, so permission and
// suppression checks apply either way.
func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	kind := reminder.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		s.writeError(r.Context(), w, apperrors.NewValidationError("unknown reminder kind"))
		return
	}

	if s.gate == nil {
		s.writeError(r.Context(), w, apperrors.NewUnsupportedPlatformError())
		return
	}

	if err := s.gate.SmartDeliver(r.Context(), kind); err != nil {
		s.log.Warn("dispatched reminder delivery failed", slog.String("kind", string(kind)), slog.Any("error", err))
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePushSubscribe(w http.ResponseWriter, r *http.Request) {
	if s.relay == nil || s.pushMgr == nil {
		s.writeError(r.Context(), w, apperrors.NewPushUnsupportedError())
		return
	}

	var sub webpush.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil || sub.Endpoint == "" {
		s.writeError(r.Context(), w, apperrors.NewValidationError("malformed push subscription payload"))
		return
	}

	s.relay.Provide(&sub)

	current, err := s.loadOrDefault(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if err := s.pushMgr.Subscribe(r.Context(), *current); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"state": string(s.pushMgr.State())})
}

func (s *Server) handlePushUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if s.pushMgr == nil {
		s.writeError(r.Context(), w, apperrors.NewPushUnsupportedError())
		return
	}

	if err := s.pushMgr.Unsubscribe(r.Context()); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"state": string(s.pushMgr.State())})
}

func (s *Server) handlePushValidate(w http.ResponseWriter, r *http.Request) {
	if s.pushMgr == nil {
		s.writeError(r.Context(), w, apperrors.NewPushUnsupportedError())
		return
	}

	alive, err := s.pushMgr.Validate(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"alive": alive})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
		return
	}

	results := s.checker.Check(r.Context())

	status := http.StatusOK
	for _, state := range results {
		if state != "OK" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	s.writeJSON(w, status, results)
}

func (s *Server) loadOrDefault(ctx context.Context) (*reminder.Settings, error) {
	current, err := s.store.Load(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		defaults := reminder.DefaultSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return current, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	userMessage, retryable := s.errs.Handle(ctx, err)

	status := http.StatusInternalServerError
	code := ""

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		switch appErr.Code {
		case "E100":
			status = http.StatusBadRequest
		case "E200", "E202":
			status = http.StatusNotImplemented
		case "E201":
			status = http.StatusForbidden
		case "E300", "E301", "E400":
			status = http.StatusBadGateway
		}
	}

	s.writeJSON(w, status, map[string]interface{}{
		"code":      code,
		"error":     userMessage,
		"retryable": retryable,
	})
}
