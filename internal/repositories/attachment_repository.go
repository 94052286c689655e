package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "time-bank.com/time-bank/internal/models"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, a *model.TaskAttachment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *AttachmentRepository) ListByTask(ctx context.Context, taskID string) ([]model.TaskAttachment, error) {
	var attachments []model.TaskAttachment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("timestamp asc").
		Find(&attachments).Error
	return attachments, translate(err)
}
