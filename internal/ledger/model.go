package ledger

import (
	"time"

	"github.com/lib/pq"
)

// Kind separates the two sides of the ledger.
type Kind string

const (
	KindExpense Kind = "EXPENSE"
	KindIncome  Kind = "INCOME"
)

// Transaction is one recorded expense or income entry. OwnerKey is the
// same opaque user+chat composite the reminder scheduler keys on.
type Transaction struct {
	ID       uint64 `gorm:"primaryKey"`
	OwnerKey string `gorm:"type:text;index;not null"`
	Kind     Kind   `gorm:"type:text;index;not null"`

	Amount   float64 `gorm:"type:numeric(14,2);not null"`
	Category string  `gorm:"type:text;not null;default:'Other'"`
	Note     string  `gorm:"type:text;not null;default:''"`

	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	CreatedAt time.Time `gorm:"index;not null;default:now()"`
}

func (Transaction) TableName() string { return "transactions" }

// OwnerSettings holds optional per-owner preferences used to enrich
// reminder summaries.
type OwnerSettings struct {
	OwnerKey    string    `gorm:"primaryKey;type:text"`
	SavingsGoal *float64  `gorm:"type:numeric(14,2)"`
	UpdatedAt   time.Time `gorm:"not null;default:now()"`
}

func (OwnerSettings) TableName() string { return "owner_settings" }
