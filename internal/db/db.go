package db

import (
	"fmt"

	"finbot/internal/ledger"
	"finbot/internal/reminder"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&reminder.ReminderJob{},
		&ledger.Transaction{},
		&ledger.OwnerSettings{},
	); err != nil {
		return err
	}

	// One reminder per (owner, schedule); upserts rely on this conflict target.
	if err := gdb.Exec(`create unique index if not exists uq_reminder_jobs_owner_kind on reminder_jobs(owner_key, schedule_kind);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_reminder_jobs_due on reminder_jobs(status, run_at);`,
		`create index if not exists idx_reminder_jobs_lock on reminder_jobs(status, locked_at);`,
		`create index if not exists idx_transactions_owner_kind on transactions(owner_key, kind, created_at);`,
		`create index if not exists idx_transactions_tags on transactions using gin (tags);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
