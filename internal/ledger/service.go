package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"finbot/internal/reminder"
)

var ErrInvalidAmount = errors.New("amount must be positive")

// Service is the transaction ledger. The reminder worker consumes it
// through the reminder.LedgerReader / reminder.SettingsReader interfaces.
type Service struct {
	DB *gorm.DB
}

type RecordInput struct {
	OwnerKey string
	Kind     Kind
	Amount   float64
	Category string
	Note     string
}

// Record stores one transaction. Hashtags in the note become tags; a
// blank category falls back to "Other" like the legacy records did.
func (s *Service) Record(ctx context.Context, in RecordInput) (uint64, error) {
	if in.Amount <= 0 {
		return 0, ErrInvalidAmount
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "Other"
	}

	tx := Transaction{
		OwnerKey:  in.OwnerKey,
		Kind:      in.Kind,
		Amount:    in.Amount,
		Category:  category,
		Note:      strings.TrimSpace(in.Note),
		Tags:      pq.StringArray(ExtractTags(in.Note)),
		CreatedAt: time.Now().UTC(),
	}
	if tx.Tags == nil {
		tx.Tags = pq.StringArray{}
	}
	if err := s.DB.WithContext(ctx).Create(&tx).Error; err != nil {
		return 0, err
	}
	return tx.ID, nil
}

// ListByKind returns the owner's transactions of one kind, oldest first.
func (s *Service) ListByKind(ctx context.Context, ownerKey string, kind Kind) ([]Transaction, error) {
	var out []Transaction
	err := s.DB.WithContext(ctx).
		Where("owner_key = ? AND kind = ?", ownerKey, kind).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// DeleteByID removes a single transaction; false means no match.
func (s *Service) DeleteByID(ctx context.Context, ownerKey string, kind Kind, id uint64) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("owner_key = ? AND kind = ? AND id = ?", ownerKey, kind, id).
		Delete(&Transaction{})
	return res.RowsAffected > 0, res.Error
}

// ClearByKind wipes one side of the owner's ledger.
func (s *Service) ClearByKind(ctx context.Context, ownerKey string, kind Kind) error {
	return s.DB.WithContext(ctx).
		Where("owner_key = ? AND kind = ?", ownerKey, kind).
		Delete(&Transaction{}).Error
}

// SetSavingsGoal upserts the owner's monthly savings goal; nil clears it.
func (s *Service) SetSavingsGoal(ctx context.Context, ownerKey string, goal *float64) error {
	return s.DB.WithContext(ctx).Exec(`
insert into owner_settings (owner_key, savings_goal, updated_at)
values (?, ?, now())
on conflict (owner_key) do update
set savings_goal = excluded.savings_goal, updated_at = now()`, ownerKey, goal).Error
}

// Expenses implements reminder.LedgerReader.
func (s *Service) Expenses(ctx context.Context, ownerKey string) ([]reminder.Entry, error) {
	return s.entries(ctx, ownerKey, KindExpense)
}

// Income implements reminder.LedgerReader.
func (s *Service) Income(ctx context.Context, ownerKey string) ([]reminder.Entry, error) {
	return s.entries(ctx, ownerKey, KindIncome)
}

func (s *Service) entries(ctx context.Context, ownerKey string, kind Kind) ([]reminder.Entry, error) {
	rows, err := s.ListByKind(ctx, ownerKey, kind)
	if err != nil {
		return nil, err
	}
	out := make([]reminder.Entry, 0, len(rows))
	for _, t := range rows {
		out = append(out, reminder.Entry{
			ID:        t.ID,
			Amount:    t.Amount,
			Category:  t.Category,
			CreatedAt: t.CreatedAt,
		})
	}
	return out, nil
}

// Settings implements reminder.SettingsReader. A missing row is not an
// error; the summary just goes out without goal enrichment.
func (s *Service) Settings(ctx context.Context, ownerKey string) (reminder.Settings, error) {
	var row OwnerSettings
	err := s.DB.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reminder.Settings{}, nil
	}
	if err != nil {
		return reminder.Settings{}, err
	}
	return reminder.Settings{SavingsGoal: row.SavingsGoal}, nil
}
