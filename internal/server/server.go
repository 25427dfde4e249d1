// Package server exposes the reminder service HTTP API: settings saves, the
// log-saved hook, push subscription management, dispatcher setup and the
// operational endpoints.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/reminder-service/internal/delivery"
	"github.com/Proton-105/reminder-service/internal/dispatch"
	apperrors "github.com/Proton-105/reminder-service/internal/errors"
	"github.com/Proton-105/reminder-service/internal/health"
	"github.com/Proton-105/reminder-service/internal/idempotency"
	"github.com/Proton-105/reminder-service/internal/middleware"
	"github.com/Proton-105/reminder-service/internal/push"
	"github.com/Proton-105/reminder-service/internal/ratelimit"
	"github.com/Proton-105/reminder-service/internal/scheduler"
	"github.com/Proton-105/reminder-service/internal/settings"
	"github.com/Proton-105/reminder-service/internal/suppression"
	"github.com/Proton-105/reminder-service/pkg/logger"
)

// Server wires the subsystem components behind the HTTP API.
type Server struct {
	store     settings.Store
	ledger    suppression.Ledger
	scheduler *scheduler.Scheduler
	gate      *delivery.Gate
	relay     *push.ChannelRelay
	pushMgr   *push.Manager
	sync      *dispatch.Synchronizer
	checker   *health.Checker
	errs      *apperrors.Handler
	loc       *time.Location
	log       *slog.Logger
}

// Deps collects the component dependencies for New.
type Deps struct {
	Store       settings.Store
	Ledger      suppression.Ledger
	Scheduler   *scheduler.Scheduler
	Gate        *delivery.Gate
	Relay       *push.ChannelRelay
	PushManager *push.Manager
	Sync        *dispatch.Synchronizer
	Checker     *health.Checker
	Errors      *apperrors.Handler
	Location    *time.Location
	Log         *slog.Logger
}

// New constructs the API server.
func New(deps Deps) *Server {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	errs := deps.Errors
	if errs == nil {
		errs = apperrors.NewHandler(log, false)
	}

	return &Server{
		store:     deps.Store,
		ledger:    deps.Ledger,
		scheduler: deps.Scheduler,
		gate:      deps.Gate,
		relay:     deps.Relay,
		pushMgr:   deps.PushManager,
		sync:      deps.Sync,
		checker:   deps.Checker,
		errs:      errs,
		loc:       loc,
		log:       log,
	}
}

// Handler builds the route table. The network-fanout endpoints (setup, push
// subscribe/unsubscribe) additionally go through the rate limiter and the
// idempotency replay.
func (s *Server) Handler(limiter ratelimit.Limiter, idem idempotency.Manager) http.Handler {
	mux := http.NewServeMux()

	limited := middleware.NewRateLimit(limiter, 10, time.Minute, s.log)
	replayed := middleware.Idempotency(idem, s.log)

	fanout := func(h http.HandlerFunc) http.Handler {
		return limited.Handle(replayed(h))
	}

	mux.HandleFunc("PUT /api/settings", s.handleSaveSettings)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.Handle("POST /api/setup", fanout(s.handleSetup))
	mux.HandleFunc("POST /api/logs/{kind}", s.handleLogSaved)
	mux.HandleFunc("POST /api/reminders/fire/{kind}", s.handleFire)
	mux.Handle("POST /api/push/subscribe", fanout(s.handlePushSubscribe))
	mux.Handle("POST /api/push/unsubscribe", fanout(s.handlePushUnsubscribe))
	mux.HandleFunc("GET /api/push/validate", s.handlePushValidate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.Metrics(handler)
	handler = middleware.Logging(s.log)(handler)
	handler = logger.Middleware(handler)

	return handler
}
