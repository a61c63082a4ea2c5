package reminder

import (
	"context"
	"time"
)

// MinScheduleAhead is the minimum lead time a first run must have at
// configure time, so the job cannot be due before the store write lands.
const MinScheduleAhead = 30 * time.Second

// ConfigStore is the slice of Store the command facade drives.
type ConfigStore interface {
	Upsert(ctx context.Context, in UpsertInput) (bool, error)
	DisableAll(ctx context.Context, ownerKey string) (bool, error)
	DisableOne(ctx context.Context, ownerKey string, kind ScheduleKind) (bool, error)
	ListActive(ctx context.Context, ownerKey string) ([]ReminderJob, error)
}

// Service is the command-facing surface: it validates, computes the
// first due time and defers everything durable to the store.
type Service struct {
	Store ConfigStore

	// Clock is overridable in tests; nil means time.Now.
	Clock func() time.Time
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Configure registers (or replaces) the owner's reminder for the given
// schedule kind and returns whether a new job was created along with the
// first due time.
func (s *Service) Configure(ctx context.Context, ownerKey string, target DeliveryTarget, kind ScheduleKind) (created bool, runAt time.Time, err error) {
	if !kind.Valid() {
		return false, time.Time{}, ErrUnknownScheduleKind
	}

	now := s.now()
	runAt = NextRunAt(kind, now)
	if runAt.Sub(now.UTC()) < MinScheduleAhead {
		return false, time.Time{}, ErrLeadTimeTooShort
	}

	created, err = s.Store.Upsert(ctx, UpsertInput{
		OwnerKey: ownerKey,
		Target:   target,
		Kind:     kind,
		RunAt:    runAt,
	})
	if err != nil {
		return false, time.Time{}, err
	}
	return created, runAt, nil
}

// DisableAll removes every reminder the owner has configured.
func (s *Service) DisableAll(ctx context.Context, ownerKey string) (bool, error) {
	return s.Store.DisableAll(ctx, ownerKey)
}

// DisableOne removes a single schedule; false means nothing was configured.
func (s *Service) DisableOne(ctx context.Context, ownerKey string, kind ScheduleKind) (bool, error) {
	if !kind.Valid() {
		return false, ErrUnknownScheduleKind
	}
	return s.Store.DisableOne(ctx, ownerKey, kind)
}

// ListActive returns the owner's configured reminders, soonest first,
// quarantined jobs excluded.
func (s *Service) ListActive(ctx context.Context, ownerKey string) ([]ReminderJob, error) {
	return s.Store.ListActive(ctx, ownerKey)
}
