package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/Proton-105/reminder-service/internal/delivery"
	"github.com/Proton-105/reminder-service/internal/dispatch"
	apperrors "github.com/Proton-105/reminder-service/internal/errors"
	"github.com/Proton-105/reminder-service/internal/health"
	"github.com/Proton-105/reminder-service/internal/idempotency"
	"github.com/Proton-105/reminder-service/internal/jobs"
	"github.com/Proton-105/reminder-service/internal/jobs/handlers"
	"github.com/Proton-105/reminder-service/internal/lifecycle"
	"github.com/Proton-105/reminder-service/internal/push"
	"github.com/Proton-105/reminder-service/internal/ratelimit"
	"github.com/Proton-105/reminder-service/internal/reminder"
	"github.com/Proton-105/reminder-service/internal/scheduler"
	"github.com/Proton-105/reminder-service/internal/server"
	"github.com/Proton-105/reminder-service/internal/settings"
	"github.com/Proton-105/reminder-service/internal/suppression"
	"github.com/Proton-105/reminder-service/pkg/config"
	"github.com/Proton-105/reminder-service/pkg/graceful"
	"github.com/Proton-105/reminder-service/pkg/logger"
	appredis "github.com/Proton-105/reminder-service/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		SentryDSN:   cfg.Log.SentryDSN,
		Environment: cfg.AppEnv,
	})
	slog.SetDefault(log)

	loc := cfg.Location()
	log.Info("starting reminder service",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.HTTPPort),
		slog.String("timezone", loc.String()))

	rdb, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("redis", func(context.Context) error { return rdb.Close() })

	store := settings.NewRedisStore(rdb.Client, log)
	ledger := suppression.NewRedisLedger(rdb.Client, log)

	pushSupported := cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != ""
	relay := push.NewChannelRelay(pushSupported)

	notifier := buildNotifier(cfg, relay, log)

	catalog := buildCatalog(cfg, log)
	gate := delivery.NewGate(notifier, ledger, catalog, loc, log)

	sched := scheduler.New(scheduler.SystemClock(), gate, loc, log)
	shutdown.Register("scheduler", func(context.Context) error {
		sched.StopAll()
		return nil
	})

	rearm := func(c context.Context) {
		current, err := store.Load(c)
		if errors.Is(err, settings.ErrNotFound) {
			defaults := reminder.DefaultSettings()
			current = &defaults
		} else if err != nil {
			log.Error("failed to load settings, timers not armed", slog.Any("error", err))
			return
		}
		sched.RearmAll(*current)
	}
	rearm(ctx)

	var pushMgr *push.Manager
	if cfg.Broker.BaseURL != "" {
		subscriberID := cfg.Push.SubscriberID
		if subscriberID == "" {
			subscriberID = uuid.NewString()
			log.Warn("no subscriber id configured, generated an ephemeral one", slog.String("subscriber_id", subscriberID))
		}

		broker := push.NewHTTPBroker(cfg.Broker.BaseURL, cfg.Broker.Timeout, log)
		pushMgr = push.NewManager(subscriberID, relay, broker, loc, log)
	}

	var synchronizer *dispatch.Synchronizer
	if cfg.Dispatcher.BaseURL != "" {
		client := dispatch.NewHTTPClient(cfg.Dispatcher.BaseURL, cfg.Dispatcher.APIKey, cfg.Dispatcher.Timeout, log)
		synchronizer = dispatch.NewSynchronizer(client, cfg.Dispatcher.TargetBaseURL, log)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	if cfg.Broker.BaseURL != "" {
		checker.AddCheck("broker", health.NewEndpointChecker(cfg.Broker.BaseURL+"/healthz"))
	}
	if cfg.Dispatcher.BaseURL != "" {
		checker.AddCheck("dispatcher", health.NewEndpointChecker(cfg.Dispatcher.BaseURL))
	}

	startJobs(cfg, rdb, ledger, pushMgr, loc, log, shutdown)

	limiter := ratelimit.NewRedisLimiter(rdb.Client, log)
	idemStore := idempotency.NewRedisStore(rdb.Client, log)
	idemManager := idempotency.NewManager(idemStore, log)

	cleaner := idempotency.NewCleaner(rdb.Client, log, 6*time.Hour)
	go cleaner.Run(ctx)

	api := server.New(server.Deps{
		Store:       store,
		Ledger:      ledger,
		Scheduler:   sched,
		Gate:        gate,
		Relay:       relay,
		PushManager: pushMgr,
		Sync:        synchronizer,
		Checker:     checker,
		Errors:      apperrors.NewHandler(log, cfg.Log.SentryDSN != ""),
		Location:    loc,
		Log:         log,
	})

	// Config edits re-arm the timers without a restart.
	config.Watch(v, log, func(*config.Config) {
		rearm(context.Background())
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Handler(limiter, idemManager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := graceful.NewServer(log, httpServer, 15*time.Second)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("http server stopped with error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown completed with errors", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("reminder service stopped")
}

// buildNotifier picks the delivery surface: Telegram when a bot token is
// configured, Web Push when a VAPID identity is, otherwise none (every fire
// degrades to a logged skip).
func buildNotifier(cfg *config.Config, relay *push.ChannelRelay, log *slog.Logger) delivery.Notifier {
	if cfg.Telegram.Token != "" {
		notifier, err := delivery.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Error("failed to initialize telegram notifier", slog.Any("error", err))
			return nil
		}
		log.Info("delivering reminders via telegram")
		return notifier
	}

	if relay.Supported() {
		log.Info("delivering reminders via web push")
		return delivery.NewWebPushNotifier(relay, cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.SubscriberEmail, log)
	}

	log.Warn("no delivery surface configured, reminders will be skipped")
	return nil
}

func buildCatalog(cfg *config.Config, log *slog.Logger) *delivery.Catalog {
	if cfg.Delivery.CatalogFile == "" {
		return delivery.DefaultCatalog(cfg.Delivery.Icon, cfg.Delivery.TargetURL)
	}

	catalog, err := delivery.LoadCatalog(cfg.Delivery.CatalogFile, cfg.Delivery.Icon, cfg.Delivery.TargetURL)
	if err != nil {
		log.Error("failed to load message catalog, using defaults", slog.Any("error", err))
		return delivery.DefaultCatalog(cfg.Delivery.Icon, cfg.Delivery.TargetURL)
	}

	return catalog
}

// startJobs wires the asynq scheduler and worker for the background
// maintenance tasks: the nightly ledger purge and the hourly push validate.
func startJobs(cfg *config.Config, rdb *appredis.Client, ledger suppression.Ledger, pushMgr *push.Manager, loc *time.Location, log *slog.Logger, shutdown *lifecycle.Shutdown) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	jobScheduler := jobs.NewScheduler(redisOpt, cfg.Jobs.LedgerRetentionDays, log)
	if err := jobScheduler.RegisterTasks(); err != nil {
		log.Error("failed to register background tasks", slog.Any("error", err))
		return
	}
	jobScheduler.Run()
	shutdown.Register("job-scheduler", func(context.Context) error {
		jobScheduler.Shutdown()
		return nil
	})

	worker := jobs.NewWorker(redisOpt, map[string]int{
		jobs.QueueCritical: 6,
		jobs.QueueDefault:  3,
		jobs.QueueLow:      1,
	}, log)
	worker.RegisterHandler(jobs.TaskTypeLedgerPurge, handlers.NewLedgerPurgeHandler(ledger, loc, log))
	worker.RegisterHandler(jobs.TaskTypePushValidate, handlers.NewPushValidateHandler(pushMgr, log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
		}
	}()
	shutdown.Register("job-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	// Kick a validate run right away so a subscription that went stale while
	// the service was down is caught before the first hourly slot.
	if pushMgr != nil {
		manager := jobs.NewManager(redisOpt, log)
		shutdown.Register("job-manager", func(context.Context) error { return manager.Close() })

		if task, err := jobs.NewPushValidateTask(); err == nil {
			if _, err := manager.Enqueue(context.Background(), task); err != nil {
				log.Warn("failed to enqueue startup push validation", slog.Any("error", err))
			}
		}
	}
}
