package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Proton-105/reminder-service/internal/idempotency"
)

type cachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// Idempotency replays the cached response for requests that repeat an
// Idempotency-Key header, so a retried setup call reconciles exactly once.
// Requests without the header pass through untouched.
func Idempotency(manager idempotency.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		if manager == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Idempotency-Key")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := idempotency.GenerateKey(r.Method, r.URL.Path, header)

			result, err := manager.Execute(r.Context(), key, 24*time.Hour, func(execCtx context.Context) (interface{}, error) {
				recorder := httptest.NewRecorder()
				next.ServeHTTP(recorder, r.WithContext(execCtx))

				status := recorder.Code
				if status == 0 {
					status = http.StatusOK
				}

				return &cachedResponse{Status: status, Body: recorder.Body.String()}, nil
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					http.Error(w, "request with this key is already in progress", http.StatusConflict)
					return
				}

				log.Error("idempotent handler failed", slog.String("key", key), slog.Any("error", err))
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			var cached cachedResponse
			switch resp := result.Response.(type) {
			case *cachedResponse:
				cached = *resp
			default:
				// Replays come back as decoded JSON.
				data, err := json.Marshal(result.Response)
				if err != nil {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				if err := json.Unmarshal(data, &cached); err != nil {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
			}

			if cached.Status == 0 {
				cached.Status = http.StatusOK
			}

			w.WriteHeader(cached.Status)
			_, _ = w.Write([]byte(cached.Body))
		})
	}
}
