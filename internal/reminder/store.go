package reminder

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store owns the durable representation of reminder jobs. Every mutation
// is a single-row conditional update; the claim is the only concurrency
// gate in the system. No schedule arithmetic lives here.
type Store struct {
	DB *gorm.DB
}

// UpsertInput describes one (owner, schedule) registration.
type UpsertInput struct {
	OwnerKey    string
	Target      DeliveryTarget
	Kind        ScheduleKind
	RunAt       time.Time
	MaxAttempts int
}

// Upsert creates or replaces the job for (owner_key, schedule_kind).
// A collision never errors: the existing row gets the new target and
// run_at, attempts drops to 0 and status returns to PENDING. MaxAttempts
// is only set on insert, matching the original registration.
func (s *Store) Upsert(ctx context.Context, in UpsertInput) (created bool, err error) {
	if in.MaxAttempts <= 0 {
		in.MaxAttempts = DefaultMaxAttempts
	}

	var row struct {
		Created bool `gorm:"column:created"`
	}
	// xmax = 0 only holds for a freshly inserted tuple.
	err = s.DB.WithContext(ctx).Raw(`
insert into reminder_jobs
  (owner_key, chat_id, user_id, schedule_kind, run_at, status, attempts, max_attempts, created_at, updated_at)
values (?, ?, ?, ?, ?, 'PENDING', 0, ?, now(), now())
on conflict (owner_key, schedule_kind) do update
set chat_id    = excluded.chat_id,
    user_id    = excluded.user_id,
    run_at     = excluded.run_at,
    status     = 'PENDING',
    attempts   = 0,
    updated_at = now()
returning (xmax = 0) as created;
`, in.OwnerKey, in.Target.ChatID, in.Target.UserID, in.Kind, in.RunAt.UTC(), in.MaxAttempts).
		Scan(&row).Error
	if err != nil {
		return false, err
	}
	return row.Created, nil
}

// ClaimNextDue atomically claims the due PENDING job with the smallest
// run_at. FOR UPDATE SKIP LOCKED ensures two racing workers can never
// both claim the same row. Returns nil when nothing is due.
func (s *Store) ClaimNextDue(ctx context.Context, now time.Time) (*ReminderJob, error) {
	now = now.UTC()

	var job ReminderJob
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Raw(`
with cte as (
  select id
  from reminder_jobs
  where status = 'PENDING' and run_at <= ?
  order by run_at asc
  for update skip locked
  limit 1
)
update reminder_jobs
set status = 'PROCESSING', locked_at = ?, attempts = attempts + 1, updated_at = ?
where id in (select id from cte)
returning *;
`, now, now, now)

		return q.Scan(&job).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

// MarkExecutedAndRescheduled moves a claimed job back to PENDING with the
// next due time. Conditional on status = PROCESSING and never re-inserts,
// so a disable that raced with the execution wins.
func (s *Store) MarkExecutedAndRescheduled(ctx context.Context, id uint64, nextRunAt time.Time) error {
	return s.DB.WithContext(ctx).Exec(`
update reminder_jobs
set status = 'PENDING',
    run_at = ?,
    attempts = 0,
    locked_at = null,
    last_error = null,
    updated_at = now()
where id = ? and status = 'PROCESSING'`, nextRunAt.UTC(), id).Error
}

// ReleaseForRetry returns a claimed job to PENDING after a failed
// execution, due again backoff from now. Once attempts have reached
// maxAttempts the job is quarantined instead.
func (s *Store) ReleaseForRetry(ctx context.Context, id uint64, attempts, maxAttempts int, backoff time.Duration, errText string) error {
	if attempts >= maxAttempts {
		return s.markFailed(ctx, id, errText)
	}

	return s.DB.WithContext(ctx).Exec(`
update reminder_jobs
set status = 'PENDING',
    run_at = ?,
    locked_at = null,
    last_error = ?,
    updated_at = now()
where id = ? and status = 'PROCESSING'`, time.Now().UTC().Add(backoff), errText, id).Error
}

func (s *Store) markFailed(ctx context.Context, id uint64, errText string) error {
	return s.DB.WithContext(ctx).Exec(`
update reminder_jobs
set status = 'FAILED',
    locked_at = null,
    last_error = ?,
    updated_at = now()
where id = ? and status = 'PROCESSING'`, errText, id).Error
}

// DisableAll deletes every job for the owner regardless of status.
func (s *Store) DisableAll(ctx context.Context, ownerKey string) (bool, error) {
	res := s.DB.WithContext(ctx).Exec(`delete from reminder_jobs where owner_key = ?`, ownerKey)
	return res.RowsAffected > 0, res.Error
}

// DisableOne deletes the single (owner_key, schedule_kind) job if present.
func (s *Store) DisableOne(ctx context.Context, ownerKey string, kind ScheduleKind) (bool, error) {
	res := s.DB.WithContext(ctx).Exec(
		`delete from reminder_jobs where owner_key = ? and schedule_kind = ?`, ownerKey, kind)
	return res.RowsAffected > 0, res.Error
}

// ListActive returns the owner's jobs excluding quarantined ones, soonest
// first. Used to render "what's configured" views.
func (s *Store) ListActive(ctx context.Context, ownerKey string) ([]ReminderJob, error) {
	var out []ReminderJob
	err := s.DB.WithContext(ctx).
		Where("owner_key = ? AND status <> ?", ownerKey, StatusFailed).
		Order("run_at asc").
		Find(&out).Error
	return out, err
}

// ReclaimStale requeues PROCESSING jobs whose lock is older than lease,
// recovering work orphaned by a crashed worker. Callers opt in; a zero
// lease means the sweep never runs.
func (s *Store) ReclaimStale(ctx context.Context, now time.Time, lease time.Duration) (int64, error) {
	res := s.DB.WithContext(ctx).Exec(`
update reminder_jobs
set status = 'PENDING', locked_at = null, updated_at = ?
where status = 'PROCESSING' and locked_at is not null and locked_at < ?`,
		now.UTC(), now.UTC().Add(-lease))
	return res.RowsAffected, res.Error
}
