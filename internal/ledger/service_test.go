package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return &Service{DB: gdb}, mock
}

func TestRecordRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()
	svc := &Service{}

	_, err := svc.Record(context.Background(), RecordInput{OwnerKey: "7:42", Kind: KindExpense, Amount: 0})
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = svc.Record(context.Background(), RecordInput{OwnerKey: "7:42", Kind: KindExpense, Amount: -3})
	assert.True(t, errors.Is(err, ErrInvalidAmount))
}

func TestExpensesMapsEntries(t *testing.T) {
	svc, mock := newMockService(t)
	created := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "owner_key", "kind", "amount", "category", "note", "tags", "created_at"}).
		AddRow(uint64(1), "7:42", "EXPENSE", 10.5, "Food", "lunch #food", "{food}", created).
		AddRow(uint64(2), "7:42", "EXPENSE", 4.25, "Transport", "", "{}", created.Add(time.Hour))

	mock.ExpectQuery(`SELECT \* FROM "transactions"`).
		WithArgs("7:42", "EXPENSE").
		WillReturnRows(rows)

	entries, err := svc.Expenses(context.Background(), "7:42")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 10.5, entries[0].Amount)
	assert.Equal(t, "Food", entries[0].Category)
	assert.Equal(t, uint64(2), entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsMissingRowIsNotAnError(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT \* FROM "owner_settings"`).
		WithArgs("7:42", 1).
		WillReturnRows(sqlmock.NewRows([]string{"owner_key", "savings_goal", "updated_at"}))

	got, err := svc.Settings(context.Background(), "7:42")
	require.NoError(t, err)
	assert.Nil(t, got.SavingsGoal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsReturnsGoal(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT \* FROM "owner_settings"`).
		WithArgs("7:42", 1).
		WillReturnRows(sqlmock.NewRows([]string{"owner_key", "savings_goal", "updated_at"}).
			AddRow("7:42", 150.0, time.Now()))

	got, err := svc.Settings(context.Background(), "7:42")
	require.NoError(t, err)
	require.NotNil(t, got.SavingsGoal)
	assert.Equal(t, 150.0, *got.SavingsGoal)
	assert.NoError(t, mock.ExpectationsWereMet())
}
