package reminder

import "time"

// Status of a ReminderJob. FAILED is terminal: only a fresh Configure
// (upsert) or a disable touches the row again.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusFailed     Status = "FAILED"
)

// DeliveryTarget routes a notification. The scheduler never interprets
// it; it is handed to the transport verbatim.
type DeliveryTarget struct {
	ChatID int64 `gorm:"column:chat_id;not null" json:"chat_id"`
	UserID int64 `gorm:"column:user_id;not null" json:"user_id"`
}

// ReminderJob is one recurring reminder schedule. At most one row exists
// per (owner_key, schedule_kind); upserts resolve collisions in place.
type ReminderJob struct {
	ID       uint64 `gorm:"primaryKey"`
	OwnerKey string `gorm:"type:text;index;not null"`

	DeliveryTarget DeliveryTarget `gorm:"embedded"`

	ScheduleKind ScheduleKind `gorm:"type:text;not null"`

	RunAt  time.Time `gorm:"index;not null"`
	Status Status    `gorm:"type:text;index;not null;default:'PENDING'"`

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:5"`

	LockedAt  *time.Time `gorm:"type:timestamptz"`
	LastError *string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (ReminderJob) TableName() string { return "reminder_jobs" }

// DefaultMaxAttempts is applied when Upsert gets maxAttempts <= 0.
const DefaultMaxAttempts = 5
