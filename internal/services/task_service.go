package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"time-bank.com/time-bank/internal/constants"
	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
	repository "time-bank.com/time-bank/internal/repositories"
)

// TaskService is the task lifecycle engine. It owns every status transition
// and is the only caller allowed to move time credits between users.
type TaskService struct {
	store    *repository.Store
	notifier Notifier
	opts     Options
}

type Options struct {
	// StoreTimeout bounds each operation's store work. Zero disables it.
	StoreTimeout time.Duration

	// OverReportFactor flags reports above TimeOffered * factor.
	OverReportFactor decimal.Decimal

	// DebitOwnerOnApproval also charges the owner the approved hours.
	DebitOwnerOnApproval bool
}

type CreateTaskInput struct {
	Title        string
	Description  string
	Location     string
	Availability string
	TimeOffered  decimal.Decimal
}

type TimeReport struct {
	Task         *model.Task `json:"task"`
	OverReported bool        `json:"over_reported"`
}

type Completion struct {
	Task          *model.Task        `json:"task"`
	Entry         *model.LedgerEntry `json:"ledger_entry"`
	WorkerBalance decimal.Decimal    `json:"worker_balance"`
}

var defaultOverReportFactor = decimal.RequireFromString("1.5")

func NewTaskService(store *repository.Store, notifier Notifier, opts Options) *TaskService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if !opts.OverReportFactor.IsPositive() {
		opts.OverReportFactor = defaultOverReportFactor
	}

	return &TaskService{
		store:    store,
		notifier: notifier,
		opts:     opts,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (*model.Task, error) {
	if !model.ValidHours(in.TimeOffered) {
		return nil, fmt.Errorf(
			"time offered %s must be positive, at most %s and use at most %d decimal places: %w",
			in.TimeOffered, model.MaxHours, model.HoursScale, apperr.ErrInvalidHours,
		)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	owner, err := s.store.Users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if in.TimeOffered.GreaterThan(owner.TimeBalance) {
		return nil, fmt.Errorf(
			"offering %s hours with a balance of %s: %w",
			in.TimeOffered, owner.TimeBalance, apperr.ErrInsufficientBalance,
		)
	}

	task := &model.Task{
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		Availability: in.Availability,
		CreatedBy:    ownerID,
		TimeOffered:  in.TimeOffered,
		Status:       constants.StatusOpen,
	}

	if err := s.store.Tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	log.Printf("task %s created by %s offering %s hours", task.ID, ownerID, task.TimeOffered)
	return task, nil
}

func (s *TaskService) AcceptTask(ctx context.Context, workerID, taskID string) (*model.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy == workerID {
		return nil, fmt.Errorf("task %s: %w", taskID, apperr.ErrSelfAssignment)
	}

	if task.Status != constants.StatusOpen || task.AssignedTo != nil {
		return nil, fmt.Errorf("task %s is %s: %w", taskID, task.Status, apperr.ErrTaskNotOpen)
	}

	if _, err := s.store.Users.FindByID(ctx, workerID); err != nil {
		return nil, err
	}

	assigned, err := s.store.Tasks.Assign(ctx, taskID, workerID)
	if err != nil {
		return nil, err
	}

	log.Printf("task %s accepted by %s", taskID, workerID)
	s.notifier.Notify(assigned.CreatedBy, constants.EventTaskAccepted, taskPayload(assigned))

	return assigned, nil
}

// ReportTime records the worker's hours. Any valid amount is accepted, even
// above the offer; the owner is the approval gate.
func (s *TaskService) ReportTime(ctx context.Context, workerID, taskID string, hours decimal.Decimal) (*TimeReport, error) {
	if !model.ValidHours(hours) {
		return nil, fmt.Errorf(
			"reported %s hours must be positive, at most %s and use at most %d decimal places: %w",
			hours, model.MaxHours, model.HoursScale, apperr.ErrInvalidHours,
		)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsAssignedTo(workerID) {
		return nil, fmt.Errorf("task %s: %w", taskID, apperr.ErrNotAssignee)
	}

	if task.Status != constants.StatusInProgress {
		return nil, fmt.Errorf("task %s is %s: %w", taskID, task.Status, apperr.ErrWrongState)
	}

	now := time.Now().UTC()
	task.ReportedHours = decimal.NewNullDecimal(hours)
	task.ReportedBy = &workerID
	task.ReportedAt = &now

	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	report := &TimeReport{
		Task:         task,
		OverReported: s.IsOverReported(task.TimeOffered, hours),
	}

	log.Printf("task %s: %s reported %s hours", taskID, workerID, hours)

	payload := taskPayload(task)
	payload["hours"] = hours.String()
	s.notifier.Notify(task.CreatedBy, constants.EventTimeReported, payload)

	return report, nil
}

// IsOverReported reports whether hours exceed what a client should confirm
// with the user before submitting.
func (s *TaskService) IsOverReported(offered, hours decimal.Decimal) bool {
	return hours.GreaterThan(offered.Mul(s.opts.OverReportFactor))
}

// ApproveAndComplete grants the reported hours to the worker and closes the
// task. The ledger append, balance changes and status update commit together
// or not at all.
func (s *TaskService) ApproveAndComplete(ctx context.Context, ownerID, taskID string) (*Completion, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var completion *Completion
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, taskID)
		if err != nil {
			return err
		}

		if task.CreatedBy != ownerID {
			return fmt.Errorf("task %s: %w", taskID, apperr.ErrNotOwner)
		}

		if task.Status != constants.StatusInProgress || task.AssignedTo == nil {
			return fmt.Errorf("task %s is %s: %w", taskID, task.Status, apperr.ErrWrongState)
		}

		if !task.ReportedHours.Valid {
			return fmt.Errorf("task %s: %w", taskID, apperr.ErrNoReportedHours)
		}

		workerID := *task.AssignedTo
		hours := task.ReportedHours.Decimal

		entry := &model.LedgerEntry{
			TaskID:     task.ID,
			UserID:     workerID,
			TimeEarned: hours,
		}
		if err := tx.Ledger.Append(ctx, entry); err != nil {
			return err
		}

		balance, err := tx.Users.Credit(ctx, workerID, hours)
		if err != nil {
			return err
		}

		if s.opts.DebitOwnerOnApproval {
			if _, err := tx.Users.Debit(ctx, ownerID, hours); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		task.Status = constants.StatusCompleted
		task.CompletedAt = &now
		if err := tx.Tasks.Update(ctx, task); err != nil {
			return err
		}

		completion = &Completion{
			Task:          task,
			Entry:         entry,
			WorkerBalance: balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	task := completion.Task
	log.Printf("task %s completed: %s credited %s hours", task.ID, completion.Entry.UserID, completion.Entry.TimeEarned)

	payload := taskPayload(task)
	payload["hours"] = completion.Entry.TimeEarned.String()
	s.notifier.Notify(task.CreatedBy, constants.EventTaskCompleted, payload)
	s.notifier.Notify(completion.Entry.UserID, constants.EventTaskCompleted, payload)

	return completion, nil
}

// Unassign returns an in-progress task to Open and discards the worker's
// report. No credit has been issued yet, so balances are untouched.
func (s *TaskService) Unassign(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task, err := s.ownedTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status != constants.StatusInProgress {
		return nil, fmt.Errorf("task %s is %s: %w", taskID, task.Status, apperr.ErrWrongState)
	}

	formerWorker := derefString(task.AssignedTo)
	task.ClearAssignment()
	task.Status = constants.StatusOpen

	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	log.Printf("task %s unassigned from %s", taskID, formerWorker)
	s.notifier.Notify(formerWorker, constants.EventTaskUnassigned, taskPayload(task))

	return task, nil
}

func (s *TaskService) CancelTask(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task, err := s.ownedTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status.IsTerminal() {
		return nil, fmt.Errorf("task %s is %s: %w", taskID, task.Status, apperr.ErrWrongState)
	}

	formerWorker := derefString(task.AssignedTo)
	task.ClearAssignment()
	task.Status = constants.StatusCancelled

	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	log.Printf("task %s cancelled by %s", taskID, ownerID)
	if formerWorker != "" {
		s.notifier.Notify(formerWorker, constants.EventTaskCancelled, taskPayload(task))
	}

	return task, nil
}

// DeleteTask removes a task in any state. Ledger entries of a completed task
// stay behind for audit.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task, err := s.ownedTask(ctx, ownerID, taskID)
	if err != nil {
		return err
	}

	if err := s.store.Tasks.Delete(ctx, task); err != nil {
		return err
	}

	log.Printf("task %s deleted by %s", taskID, ownerID)
	if task.Status == constants.StatusInProgress {
		s.notifier.Notify(derefString(task.AssignedTo), constants.EventTaskDeleted, taskPayload(task))
	}

	return nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Tasks.FindByID(ctx, id)
}

func (s *TaskService) ListCreatedBy(ctx context.Context, userID string) ([]model.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Tasks.ListByCreator(ctx, userID)
}

func (s *TaskService) ListAssignedTo(ctx context.Context, userID string) ([]model.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Tasks.ListByAssignee(ctx, userID)
}

// ListOpen lists tasks callerID could accept; their own tasks are hidden.
func (s *TaskService) ListOpen(ctx context.Context, callerID string, filter repository.OpenTaskFilter) ([]model.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter.ExcludeCreator = callerID
	return s.store.Tasks.ListOpen(ctx, filter)
}

func (s *TaskService) AddAttachment(ctx context.Context, userID, taskID, fileURL string) (*model.TaskAttachment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != userID && !task.IsAssignedTo(userID) {
		return nil, fmt.Errorf("task %s: %w", taskID, apperr.ErrNotParticipant)
	}

	attachment := &model.TaskAttachment{
		TaskID:     taskID,
		FileURL:    fileURL,
		UploadedBy: userID,
	}
	if err := s.store.Attachments.Create(ctx, attachment); err != nil {
		return nil, err
	}

	return attachment, nil
}

func (s *TaskService) ListAttachments(ctx context.Context, taskID string) ([]model.TaskAttachment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.store.Tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.store.Attachments.ListByTask(ctx, taskID)
}

// TaskLedger lists the credit granted for a task. Only its owner and its
// worker may see it.
func (s *TaskService) TaskLedger(ctx context.Context, userID, taskID string) ([]model.LedgerEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != userID && !task.IsAssignedTo(userID) {
		return nil, fmt.Errorf("task %s: %w", taskID, apperr.ErrNotParticipant)
	}

	return s.store.Ledger.ListByTask(ctx, taskID)
}

func (s *TaskService) ownedTask(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.CreatedBy != ownerID {
		return nil, fmt.Errorf("task %s: %w", taskID, apperr.ErrNotOwner)
	}

	return task, nil
}

func (s *TaskService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

func taskPayload(task *model.Task) map[string]any {
	return map[string]any{
		"task_id": task.ID,
		"title":   task.Title,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
