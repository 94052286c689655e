package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"time-bank.com/time-bank/internal/constants"
	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
)

type TaskRepository struct {
	db *gorm.DB
}

// OpenTaskFilter narrows the list of tasks available for acceptance.
// Zero-valued fields do not filter.
type OpenTaskFilter struct {
	ExcludeCreator string
	Keyword        string
	Location       string
	Availability   string
	MinTime        decimal.Decimal
	Limit          int
}

const defaultListLimit = 100

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Timestamp.IsZero() {
		task.Timestamp = time.Now().UTC()
	}
	task.Version = 1

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return translate(err)
	}

	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %s: %w", id, apperr.ErrTaskNotFound)
		}
		return nil, translate(err)
	}
	return &task, nil
}

// Assign claims an open, unassigned task for workerID in a single
// conditional write. Only one of several concurrent callers can match the
// predicate; the others get ErrTaskNotOpen.
func (r *TaskRepository) Assign(ctx context.Context, id, workerID string) (*model.Task, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ? AND assigned_to IS NULL", id, constants.StatusOpen).
		Updates(map[string]interface{}{
			"assigned_to": workerID,
			"status":      constants.StatusInProgress,
			"version":     gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return nil, translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrTaskNotOpen)
	}

	return r.FindByID(ctx, id)
}

// ErrInconsistentAssignment rejects a write where the assignee does not match
// the status: only In Progress and Completed tasks carry one.
var ErrInconsistentAssignment = errors.New("task status and assignee disagree")

// Update writes the mutable fields of task if nobody else changed the row
// since it was read.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if task.Status.HasAssignee() != (task.AssignedTo != nil) {
		return fmt.Errorf("task %s is %s: %w", task.ID, task.Status, ErrInconsistentAssignment)
	}

	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":          task.Title,
			"description":    task.Description,
			"location":       task.Location,
			"availability":   task.Availability,
			"assigned_to":    task.AssignedTo,
			"status":         task.Status,
			"reported_hours": task.ReportedHours,
			"reported_by":    task.ReportedBy,
			"reported_at":    task.ReportedAt,
			"completed_at":   task.CompletedAt,
			"version":        gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", task.ID, apperr.ErrStoreConflict)
	}

	task.Version++
	return nil
}

// Delete removes the task and its attachments. Ledger entries are kept.
func (r *TaskRepository) Delete(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskAttachment{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND version = ?", task.ID, task.Version).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Task{}).Where("id = ?", task.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("task %s: %w", task.ID, apperr.ErrTaskNotFound)
			}
			return fmt.Errorf("task %s: %w", task.ID, apperr.ErrStoreConflict)
		}
		return nil
	})
	return translate(err)
}

func (r *TaskRepository) ListByCreator(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("timestamp desc").
		Find(&tasks).Error
	return tasks, translate(err)
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("assigned_to = ?", userID).
		Order("timestamp desc").
		Find(&tasks).Error
	return tasks, translate(err)
}

func (r *TaskRepository) ListOpen(ctx context.Context, f OpenTaskFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND assigned_to IS NULL", constants.StatusOpen)

	if f.ExcludeCreator != "" {
		query = query.Where("created_by <> ?", f.ExcludeCreator)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(kw))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		query = query.Where(`LOWER(location) LIKE ? ESCAPE '\'`, containsPattern(loc))
	}
	if f.Availability != "" {
		query = query.Where("availability = ?", f.Availability)
	}
	if f.MinTime.IsPositive() {
		query = query.Where("time_offered >= ?", f.MinTime)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var tasks []model.Task
	err := query.Order("timestamp desc").Limit(limit).Find(&tasks).Error
	return tasks, translate(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
