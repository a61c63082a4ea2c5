package reminder

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Entry is one ledger transaction as the worker consumes it.
type Entry struct {
	ID        uint64
	Amount    float64
	Category  string
	CreatedAt time.Time
}

// Settings is the per-owner summary enrichment the worker reads.
type Settings struct {
	SavingsGoal *float64
}

// Document is an attachment handed to the transport.
type Document struct {
	Bytes    []byte
	Filename string
}

// JobStore is the slice of Store the worker drives.
type JobStore interface {
	ClaimNextDue(ctx context.Context, now time.Time) (*ReminderJob, error)
	MarkExecutedAndRescheduled(ctx context.Context, id uint64, nextRunAt time.Time) error
	ReleaseForRetry(ctx context.Context, id uint64, attempts, maxAttempts int, backoff time.Duration, errText string) error
	ReclaimStale(ctx context.Context, now time.Time, lease time.Duration) (int64, error)
}

// LedgerReader supplies the point-in-time transaction data a reminder
// summarizes. Implemented by the ledger service.
type LedgerReader interface {
	Expenses(ctx context.Context, ownerKey string) ([]Entry, error)
	Income(ctx context.Context, ownerKey string) ([]Entry, error)
}

// SettingsReader supplies optional per-owner settings for the summary.
type SettingsReader interface {
	Settings(ctx context.Context, ownerKey string) (Settings, error)
}

// ContentBuilder renders the notification from gathered ledger data.
// A nil document means there is nothing worth attaching.
type ContentBuilder interface {
	Build(expenses, income []Entry, settings Settings, now time.Time) (text string, doc *Document, err error)
}

// Transport delivers notifications. Both sends are fallible and retried
// at the job level, not here.
type Transport interface {
	SendText(ctx context.Context, target DeliveryTarget, text string) error
	SendDocument(ctx context.Context, target DeliveryTarget, doc Document) error
}

const (
	// DefaultRetryBackoff delays the next attempt after a failed delivery.
	DefaultRetryBackoff = 60 * time.Second

	tickSpec = "* * * * *"
)

// Worker is the polling driver. All job state lives in the store; the
// only process-local state is the non-reentrancy flag, so any number of
// processes may run a Worker against the same database.
type Worker struct {
	Store    JobStore
	Ledger   LedgerReader
	Settings SettingsReader
	Content  ContentBuilder
	Send     Transport

	// Backoff defaults to DefaultRetryBackoff when zero.
	Backoff time.Duration
	// Lease > 0 enables the stale-claim reclaim sweep at tick start.
	Lease time.Duration

	Log zerolog.Logger

	ticking atomic.Bool
	cron    *cron.Cron
}

// Start fires one immediate sweep so a fresh process does not sit out a
// full interval, then ticks every minute until Stop or ctx cancellation.
func (w *Worker) Start(ctx context.Context) error {
	if w.cron != nil {
		return nil
	}

	go w.tickLogged(ctx)

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(tickSpec, func() { w.tickLogged(ctx) }); err != nil {
		return fmt.Errorf("schedule worker tick: %w", err)
	}
	c.Start()
	w.cron = c

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts the trigger. An in-flight tick finishes on its own.
func (w *Worker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

func (w *Worker) tickLogged(ctx context.Context) {
	if err := w.Tick(ctx, time.Now()); err != nil {
		// Store connectivity problems abort the sweep; the next tick
		// retries the whole thing, no partial job state is left behind.
		w.Log.Error().Err(err).Msg("reminder tick failed")
	}
}

// Tick drains every currently due job. Reentrant calls within the same
// process are no-ops; cross-process overlap is safe because the claim is
// atomic.
func (w *Worker) Tick(ctx context.Context, now time.Time) error {
	if !w.ticking.CompareAndSwap(false, true) {
		return nil
	}
	defer w.ticking.Store(false)

	if w.Lease > 0 {
		n, err := w.Store.ReclaimStale(ctx, now, w.Lease)
		if err != nil {
			return fmt.Errorf("reclaim stale jobs: %w", err)
		}
		if n > 0 {
			w.Log.Warn().Int64("jobs", n).Msg("requeued stale processing jobs")
		}
	}

	for {
		job, err := w.Store.ClaimNextDue(ctx, now)
		if err != nil {
			return fmt.Errorf("claim next due job: %w", err)
		}
		if job == nil {
			return nil
		}

		if err := w.execute(ctx, job); err != nil {
			w.Log.Warn().
				Err(err).
				Uint64("job_id", job.ID).
				Str("owner_key", job.OwnerKey).
				Int("attempts", job.Attempts).
				Msg("reminder delivery failed; releasing for retry")

			backoff := w.Backoff
			if backoff <= 0 {
				backoff = DefaultRetryBackoff
			}
			if err := w.Store.ReleaseForRetry(ctx, job.ID, job.Attempts, job.MaxAttempts, backoff, err.Error()); err != nil {
				return fmt.Errorf("release job %d for retry: %w", job.ID, err)
			}
			continue
		}

		next := NextRunAt(job.ScheduleKind, time.Now())
		if err := w.Store.MarkExecutedAndRescheduled(ctx, job.ID, next); err != nil {
			return fmt.Errorf("reschedule job %d: %w", job.ID, err)
		}
		w.Log.Info().
			Uint64("job_id", job.ID).
			Str("owner_key", job.OwnerKey).
			Str("schedule", string(job.ScheduleKind)).
			Time("next_run_at", next).
			Msg("reminder delivered")
	}
}

// execute gathers the summary data and delivers one claimed job. Any
// error here is per-job: it feeds ReleaseForRetry and never aborts the
// drain loop.
func (w *Worker) execute(ctx context.Context, job *ReminderJob) error {
	expenses, err := w.Ledger.Expenses(ctx, job.OwnerKey)
	if err != nil {
		return fmt.Errorf("read expenses: %w", err)
	}
	income, err := w.Ledger.Income(ctx, job.OwnerKey)
	if err != nil {
		return fmt.Errorf("read income: %w", err)
	}
	settings, err := w.Settings.Settings(ctx, job.OwnerKey)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	text, doc, err := w.Content.Build(expenses, income, settings, time.Now())
	if err != nil {
		return fmt.Errorf("build reminder content: %w", err)
	}

	if doc != nil {
		if err := w.Send.SendDocument(ctx, job.DeliveryTarget, *doc); err != nil {
			return fmt.Errorf("send analytics document: %w", err)
		}
	}
	if err := w.Send.SendText(ctx, job.DeliveryTarget, text); err != nil {
		return fmt.Errorf("send reminder text: %w", err)
	}
	return nil
}
