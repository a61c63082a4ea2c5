package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &Store{DB: gdb}, mock
}

var jobColumns = []string{
	"id", "owner_key", "chat_id", "user_id", "schedule_kind",
	"run_at", "status", "attempts", "max_attempts",
	"locked_at", "last_error", "created_at", "updated_at",
}

func TestUpsertCreatesAndUpdates(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	runAt := ts("2024-03-01T23:59:00Z")

	mock.ExpectQuery("insert into reminder_jobs").
		WithArgs("7:42", int64(42), int64(7), "END_OF_DAY", runAt, 5).
		WillReturnRows(sqlmock.NewRows([]string{"created"}).AddRow(true))

	created, err := store.Upsert(ctx, UpsertInput{
		OwnerKey: "7:42",
		Target:   DeliveryTarget{ChatID: 42, UserID: 7},
		Kind:     EndOfDay,
		RunAt:    runAt,
	})
	require.NoError(t, err)
	assert.True(t, created, "first upsert inserts")

	// Same conflict target again: the store resolves it in place.
	mock.ExpectQuery("insert into reminder_jobs").
		WithArgs("7:42", int64(42), int64(7), "END_OF_DAY", runAt, 5).
		WillReturnRows(sqlmock.NewRows([]string{"created"}).AddRow(false))

	created, err = store.Upsert(ctx, UpsertInput{
		OwnerKey: "7:42",
		Target:   DeliveryTarget{ChatID: 42, UserID: 7},
		Kind:     EndOfDay,
		RunAt:    runAt,
	})
	require.NoError(t, err)
	assert.False(t, created, "second upsert updates in place")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAppliesDefaultMaxAttempts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into reminder_jobs").
		WithArgs("7:42", int64(42), int64(0), "EVERY_HOUR", sqlmock.AnyArg(), DefaultMaxAttempts).
		WillReturnRows(sqlmock.NewRows([]string{"created"}).AddRow(true))

	_, err := store.Upsert(context.Background(), UpsertInput{
		OwnerKey: "7:42",
		Target:   DeliveryTarget{ChatID: 42},
		Kind:     EveryHour,
		RunAt:    time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimNextDueReturnsClaimedJob(t *testing.T) {
	store, mock := newMockStore(t)
	now := ts("2024-03-01T23:59:05Z")

	rows := sqlmock.NewRows(jobColumns).AddRow(
		uint64(1), "7:42", int64(42), int64(7), "END_OF_DAY",
		ts("2024-03-01T23:59:00Z"), "PROCESSING", 1, 5,
		now, nil, now.Add(-time.Hour), now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery("for update skip locked").
		WithArgs(now, now, now).
		WillReturnRows(rows)
	mock.ExpectCommit()

	job, err := store.ClaimNextDue(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, uint64(1), job.ID)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, int64(42), job.DeliveryTarget.ChatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimNextDueEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("for update skip locked").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(jobColumns))
	mock.ExpectCommit()

	job, err := store.ClaimNextDue(context.Background(), now)
	require.NoError(t, err)
	assert.Nil(t, job, "no due candidate yields nil, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkExecutedAndRescheduled(t *testing.T) {
	store, mock := newMockStore(t)
	next := ts("2024-03-02T23:59:00Z")

	mock.ExpectExec("status = 'PENDING'").
		WithArgs(next, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkExecutedAndRescheduled(context.Background(), 1, next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseForRetryBelowCeiling(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("status = 'PENDING'").
		WithArgs(sqlmock.AnyArg(), "send failed", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.ReleaseForRetry(context.Background(), 1, 2, 5, time.Minute, "send failed")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseForRetryQuarantinesAtCeiling(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("status = 'FAILED'").
		WithArgs("send failed", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.ReleaseForRetry(context.Background(), 1, 5, 5, time.Minute, "send failed")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisableOne(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("delete from reminder_jobs").
		WithArgs("7:42", "END_OF_DAY").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.DisableOne(ctx, "7:42", EndOfDay)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec("delete from reminder_jobs").
		WithArgs("7:42", "END_OF_MONTH").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = store.DisableOne(ctx, "7:42", EndOfMonth)
	require.NoError(t, err)
	assert.False(t, ok, "nothing configured for that schedule")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisableAll(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from reminder_jobs").
		WithArgs("7:42").
		WillReturnResult(sqlmock.NewResult(0, 3))

	ok, err := store.DisableAll(context.Background(), "7:42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveExcludesFailed(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(jobColumns).
		AddRow(uint64(1), "7:42", int64(42), int64(7), "EVERY_HOUR",
			now.Add(time.Hour), "PENDING", 0, 5, nil, nil, now, now).
		AddRow(uint64(2), "7:42", int64(42), int64(7), "END_OF_DAY",
			now.Add(2*time.Hour), "PENDING", 0, 5, nil, nil, now, now)

	mock.ExpectQuery(`SELECT \* FROM "reminder_jobs"`).
		WithArgs("7:42", "FAILED").
		WillReturnRows(rows)

	jobs, err := store.ListActive(context.Background(), "7:42")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, EveryHour, jobs[0].ScheduleKind)
	assert.Equal(t, EndOfDay, jobs[1].ScheduleKind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReclaimStale(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("locked_at is not null").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := store.ReclaimStale(context.Background(), time.Now(), 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
