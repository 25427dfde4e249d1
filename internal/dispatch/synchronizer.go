package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/Proton-105/reminder-service/internal/errors"
	"github.com/Proton-105/reminder-service/internal/reminder"
	"github.com/Proton-105/reminder-service/pkg/metrics"
)

// Summary reports what a reconcile run did.
type Summary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Synchronizer drives the dispatcher's job set to exactly match current
// settings. It owns no state between runs; identity by job title makes every
// run idempotent.
type Synchronizer struct {
	client        Client
	targetBaseURL string
	log           *slog.Logger
}

// NewSynchronizer builds a synchronizer over the given dispatcher client.
func NewSynchronizer(client Client, targetBaseURL string, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}

	return &Synchronizer{
		client:        client,
		targetBaseURL: targetBaseURL,
		log:           log,
	}
}

// Reconcile computes the target job set from settings, diffs it against the
// dispatcher's live jobs, and applies creates, updates, then deletes. Each
// operation is independent: a failure is counted and the run continues, so a
// partially-reconciled state is always completed by the next run.
func (s *Synchronizer) Reconcile(ctx context.Context, settings reminder.Settings) (Summary, error) {
	var summary Summary

	target, err := BuildTarget(settings, s.targetBaseURL)
	if err != nil {
		return summary, err
	}

	existing, err := s.client.ListJobs(ctx)
	if err != nil {
		return summary, fmt.Errorf("list dispatcher jobs: %w", err)
	}

	owned := make(map[reminder.Kind]Job)
	for _, job := range existing {
		kind, ok := KindFromTitle(job.Title)
		if !ok {
			continue
		}
		owned[kind] = job
	}

	var creates, updates, deletes []Job
	for kind, want := range target {
		have, ok := owned[kind]
		switch {
		case !ok:
			creates = append(creates, want)
		case have.Cron != want.Cron || have.URL != want.URL || have.Enabled != want.Enabled:
			want.ID = have.ID
			updates = append(updates, want)
		default:
			summary.Unchanged++
		}
	}
	for kind, have := range owned {
		if _, ok := target[kind]; !ok {
			deletes = append(deletes, have)
		}
	}

	var firstErr error
	record := func(op string, job Job, err error) {
		if err != nil {
			metrics.RecordReconcileOp(op, "error")
			summary.Failed++
			if firstErr == nil {
				firstErr = err
			}
			s.log.Error("dispatcher reconcile operation failed",
				slog.String("operation", op),
				slog.String("job", job.Title),
				slog.Any("error", err))
			return
		}
		metrics.RecordReconcileOp(op, "ok")
		s.log.Info("dispatcher job reconciled", slog.String("operation", op), slog.String("job", job.Title))
	}

	for _, job := range creates {
		err := s.client.CreateJob(ctx, job)
		record("create", job, err)
		if err == nil {
			summary.Created++
		}
	}
	for _, job := range updates {
		err := s.client.UpdateJob(ctx, job)
		record("update", job, err)
		if err == nil {
			summary.Updated++
		}
	}
	for _, job := range deletes {
		err := s.client.DeleteJob(ctx, job.ID)
		record("delete", job, err)
		if err == nil {
			summary.Deleted++
		}
	}

	if summary.Failed > 0 {
		return summary, apperrors.NewReconciliationPartialError(summary.Failed, firstErr)
	}

	return summary, nil
}
