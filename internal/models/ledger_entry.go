package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry records one time-credit grant. There is at most one per task.
type LedgerEntry struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	TaskID     string          `gorm:"size:36;not null;uniqueIndex" json:"task_id"`
	UserID     string          `gorm:"size:36;not null;index" json:"user_id"`
	TimeEarned decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"time_earned"`
	Timestamp  time.Time       `gorm:"not null" json:"timestamp"`
}

func (LedgerEntry) TableName() string {
	return "ledger"
}
