package model

import (
	"time"

	"github.com/shopspring/decimal"

	"time-bank.com/time-bank/internal/constants"
)

type Task struct {
	ID            string               `gorm:"primaryKey;size:36" json:"id"`
	Title         string               `gorm:"not null" json:"title"`
	Description   string               `json:"description"`
	Location      string               `gorm:"index" json:"location"`
	Availability  string               `json:"availability"`
	CreatedBy     string               `gorm:"size:36;not null;index" json:"created_by"`
	AssignedTo    *string              `gorm:"size:36;index" json:"assigned_to"`
	TimeOffered   decimal.Decimal      `gorm:"type:decimal(12,2);not null" json:"time_offered"`
	Status        constants.TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReportedHours decimal.NullDecimal  `gorm:"type:decimal(12,2)" json:"reported_hours"`
	ReportedBy    *string              `gorm:"size:36" json:"reported_by"`
	ReportedAt    *time.Time           `json:"reported_at"`
	Version       uint                 `gorm:"not null;default:1" json:"version"`
	Timestamp     time.Time            `gorm:"not null;index" json:"timestamp"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}

// IsAssignedTo reports whether userID is the task's current assignee.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// ClearAssignment drops the assignee and any pending time report.
func (t *Task) ClearAssignment() {
	t.AssignedTo = nil
	t.ReportedHours = decimal.NullDecimal{}
	t.ReportedBy = nil
	t.ReportedAt = nil
}
