package delivery

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/Proton-105/reminder-service/internal/errors"
	"github.com/Proton-105/reminder-service/internal/reminder"
	"github.com/Proton-105/reminder-service/internal/suppression"
	"github.com/Proton-105/reminder-service/pkg/metrics"
)

// Gate decides whether a reminder may be shown and performs the display side
// effect. All checks happen at fire time, never at arm time, so a permission
// granted later takes effect without rescheduling.
type Gate struct {
	notifier Notifier
	ledger   suppression.Ledger
	catalog  *Catalog
	loc      *time.Location
	log      *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewGate constructs a Gate. notifier may be nil on platforms without any
// notification capability; every deliver call then degrades to a logged skip.
func NewGate(notifier Notifier, ledger suppression.Ledger, catalog *Catalog, loc *time.Location, log *slog.Logger) *Gate {
	if catalog == nil {
		catalog = DefaultCatalog("", "")
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}

	return &Gate{
		notifier: notifier,
		ledger:   ledger,
		catalog:  catalog,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

// EnsurePermission checks or obtains authorization to show notifications.
// UnsupportedPlatform and PermissionDenied are terminal; only a fresh
// explicit user action should call this again after a denial.
func (g *Gate) EnsurePermission(ctx context.Context) error {
	if g.notifier == nil {
		return apperrors.NewUnsupportedPlatformError()
	}

	switch g.notifier.Permission(ctx) {
	case PermissionGranted:
		return nil
	case PermissionDenied:
		return apperrors.NewPermissionDeniedError()
	}

	granted, err := g.notifier.RequestPermission(ctx)
	if err != nil {
		return err
	}
	if granted != PermissionGranted {
		return apperrors.NewPermissionDeniedError()
	}

	return nil
}

// Deliver shows a notification for kind with explicit content. Missing
// permission is a recoverable skip with a warning, not an error: the
// caller's re-arm loop must continue regardless.
func (g *Gate) Deliver(ctx context.Context, kind reminder.Kind, title, body string) error {
	if g.notifier == nil || g.notifier.Permission(ctx) != PermissionGranted {
		g.log.Warn("skipping reminder, notifications not permitted", slog.String("kind", string(kind)))
		return nil
	}

	n := g.catalog.Build(kind)
	if title != "" {
		n.Title = title
	}
	if body != "" {
		n.Body = body
	}

	if err := g.notifier.Send(ctx, n); err != nil {
		metrics.RecordDeliveryError(string(kind))
		return err
	}

	metrics.RecordReminderFired(string(kind))
	return nil
}

// SmartDeliver consults the suppression ledger before delivering: a kind
// already logged today is skipped entirely. The check is advisory and
// local-only; server-originated pushes are a separate path with no shared
// state.
func (g *Gate) SmartDeliver(ctx context.Context, kind reminder.Kind) error {
	if g.ledger != nil {
		today := g.now().In(g.loc)

		satisfied, err := g.ledger.IsSatisfied(ctx, kind, today)
		if err != nil {
			// A broken ledger read must not silence reminders.
			g.log.Warn("suppression check failed, delivering anyway", slog.String("kind", string(kind)), slog.Any("error", err))
		} else if satisfied {
			g.log.Debug("reminder suppressed, already logged today", slog.String("kind", string(kind)))
			metrics.RecordReminderSuppressed(string(kind))
			return nil
		}
	}

	return g.Deliver(ctx, kind, "", "")
}
