package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
)

// LedgerRepository is append-only: entries are never updated or deleted.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append records a grant. It fails with ErrDuplicateLedgerEntry when the task
// has already been credited.
func (r *LedgerRepository) Append(ctx context.Context, entry *model.LedgerEntry) error {
	exists, err := r.ExistsForTask(ctx, entry.TaskID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("task %s: %w", entry.TaskID, apperr.ErrDuplicateLedgerEntry)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("task %s: %w", entry.TaskID, apperr.ErrDuplicateLedgerEntry)
		}
		return translate(err)
	}

	return nil
}

func (r *LedgerRepository) ExistsForTask(ctx context.Context, taskID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Where("task_id = ?", taskID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID string) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc").
		Find(&entries).Error
	return entries, translate(err)
}

func (r *LedgerRepository) ListByTask(ctx context.Context, taskID string) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Find(&entries).Error
	return entries, translate(err)
}
