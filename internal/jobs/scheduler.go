package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	retentionDays  int
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, retentionDays int, log *slog.Logger) Scheduler {
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		retentionDays:  retentionDays,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	purge, err := NewLedgerPurgeTask(s.retentionDays)
	if err != nil {
		return err
	}

	// Nightly, well outside the waking window.
	if _, err := s.asynqScheduler.Register("0 4 * * *", purge); err != nil {
		return err
	}

	validate, err := NewPushValidateTask()
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register("0 * * * *", validate); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered ledger purge and push validate tasks")
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
