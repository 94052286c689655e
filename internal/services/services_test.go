package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"time-bank.com/time-bank/internal/constants"
	apperr "time-bank.com/time-bank/internal/errors"
	model "time-bank.com/time-bank/internal/models"
	repository "time-bank.com/time-bank/internal/repositories"
)

// recordingNotifier captures events in memory for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	userID    string
	eventType constants.EventType
	payload   map[string]any
}

func (n *recordingNotifier) Notify(userID string, eventType constants.EventType, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, recordedEvent{userID: userID, eventType: eventType, payload: payload})
}

func (n *recordingNotifier) count(userID string, eventType constants.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	c := 0
	for _, e := range n.events {
		if e.userID == userID && e.eventType == eventType {
			c++
		}
	}
	return c
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type fixture struct {
	store    *repository.Store
	tasks    *TaskService
	users    *UserService
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts Options) *fixture {
	store := repository.NewStore(setupTestDB(t))
	notifier := &recordingNotifier{}

	return &fixture{
		store:    store,
		tasks:    NewTaskService(store, notifier, opts),
		users:    NewUserService(store, opts.StoreTimeout),
		notifier: notifier,
	}
}

func (f *fixture) user(t *testing.T, id, balance string) *model.User {
	t.Helper()

	u, err := f.users.Register(context.Background(), RegisterUserInput{
		ID:             id,
		Name:           id,
		InitialBalance: decimal.RequireFromString(balance),
	})
	if err != nil {
		t.Fatalf("failed to register user %s: %v", id, err)
	}
	return u
}

func (f *fixture) openTask(t *testing.T, ownerID, offered string) *model.Task {
	t.Helper()

	task, err := f.tasks.CreateTask(context.Background(), ownerID, CreateTaskInput{
		Title:       "Help moving boxes",
		Description: "Two flights of stairs",
		Location:    "Downtown",
		TimeOffered: decimal.RequireFromString(offered),
	})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return task
}

func (f *fixture) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()

	b, err := f.users.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to read balance of %s: %v", userID, err)
	}
	return b
}

func (f *fixture) reload(t *testing.T, taskID string) *model.Task {
	t.Helper()

	task, err := f.tasks.GetTask(context.Background(), taskID)
	if err != nil {
		t.Fatalf("failed to reload task %s: %v", taskID, err)
	}
	assertAssignmentInvariant(t, task)
	return task
}

func assertAssignmentInvariant(t *testing.T, task *model.Task) {
	t.Helper()

	if (task.AssignedTo != nil) != task.Status.HasAssignee() {
		t.Errorf("task %s: status %s with assigned_to=%v", task.ID, task.Status, task.AssignedTo)
	}
	if task.ReportedHours.Valid && task.Status != constants.StatusInProgress && task.Status != constants.StatusCompleted {
		t.Errorf("task %s: reported hours kept in status %s", task.ID, task.Status)
	}
}

func assertDecimal(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s: expected %s, got %s", what, want, got)
	}
}

func assertErr(t *testing.T, err, target error) {
	t.Helper()

	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func TestTaskService_FullLifecycle(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")

	task := f.openTask(t, "alice", "2")
	if task.Status != constants.StatusOpen {
		t.Fatalf("expected status %s, got %s", constants.StatusOpen, task.Status)
	}

	accepted, err := f.tasks.AcceptTask(ctx, "bob", task.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != constants.StatusInProgress || !accepted.IsAssignedTo("bob") {
		t.Fatalf("expected in-progress task assigned to bob, got %s / %v", accepted.Status, accepted.AssignedTo)
	}

	report, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.RequireFromString("3.5"))
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !report.OverReported {
		t.Error("expected 3.5 hours on a 2 hour task to be flagged as over-reported")
	}
	if report.Task.Status != constants.StatusInProgress {
		t.Errorf("reporting must not change status, got %s", report.Task.Status)
	}

	completion, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	assertDecimal(t, "ledger time earned", completion.Entry.TimeEarned, "3.5")
	assertDecimal(t, "worker balance in completion", completion.WorkerBalance, "3.5")

	done := f.reload(t, task.ID)
	if done.Status != constants.StatusCompleted {
		t.Errorf("expected status %s, got %s", constants.StatusCompleted, done.Status)
	}
	if !done.IsAssignedTo("bob") {
		t.Error("completed task must retain its assignee")
	}
	if done.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}

	entries, err := f.store.Ledger.ListByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "bob" {
		t.Fatalf("expected one ledger entry for bob, got %+v", entries)
	}

	assertDecimal(t, "bob balance", f.balance(t, "bob"), "3.5")
	assertDecimal(t, "alice balance", f.balance(t, "alice"), "10")

	if f.notifier.count("alice", constants.EventTaskAccepted) != 1 {
		t.Error("expected owner to be notified of acceptance")
	}
	if f.notifier.count("alice", constants.EventTimeReported) != 1 {
		t.Error("expected owner to be notified of the time report")
	}
	if f.notifier.count("alice", constants.EventTaskCompleted) != 1 || f.notifier.count("bob", constants.EventTaskCompleted) != 1 {
		t.Error("expected owner and worker to be notified of completion")
	}
}

func TestTaskService_CreateTaskValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "2")

	_, err := f.tasks.CreateTask(ctx, "alice", CreateTaskInput{Title: "x", TimeOffered: decimal.Zero})
	assertErr(t, err, apperr.ErrInvalidHours)

	_, err = f.tasks.CreateTask(ctx, "alice", CreateTaskInput{Title: "x", TimeOffered: decimal.RequireFromString("-1")})
	assertErr(t, err, apperr.ErrInvalidHours)

	_, err = f.tasks.CreateTask(ctx, "alice", CreateTaskInput{Title: "x", TimeOffered: decimal.RequireFromString("2.5")})
	assertErr(t, err, apperr.ErrInsufficientBalance)

	_, err = f.tasks.CreateTask(ctx, "nobody", CreateTaskInput{Title: "x", TimeOffered: decimal.NewFromInt(1)})
	assertErr(t, err, apperr.ErrUserNotFound)

	if _, err := f.tasks.CreateTask(ctx, "alice", CreateTaskInput{Title: "x", TimeOffered: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("offering the full balance should succeed: %v", err)
	}
	assertDecimal(t, "creation must not debit", f.balance(t, "alice"), "2")
}

func TestTaskService_AcceptTaskNotOpen(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")
	f.user(t, "carol", "0")

	task := f.openTask(t, "alice", "1")

	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := f.tasks.AcceptTask(ctx, "carol", task.ID)
	assertErr(t, err, apperr.ErrTaskNotOpen)

	_, err = f.tasks.AcceptTask(ctx, "bob", task.ID)
	assertErr(t, err, apperr.ErrTaskNotOpen)

	if got := f.reload(t, task.ID); !got.IsAssignedTo("bob") {
		t.Errorf("expected bob to remain the assignee, got %v", got.AssignedTo)
	}
}

func TestTaskService_AcceptOwnTask(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "alice", "10")
	task := f.openTask(t, "alice", "1")

	_, err := f.tasks.AcceptTask(context.Background(), "alice", task.ID)
	assertErr(t, err, apperr.ErrSelfAssignment)
}

func TestTaskService_AcceptMissingTask(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "bob", "0")

	_, err := f.tasks.AcceptTask(context.Background(), "bob", "missing")
	assertErr(t, err, apperr.ErrTaskNotFound)
}

func TestTaskService_ConcurrentAccept(t *testing.T) {
	f := newFixture(t, Options{})
	f.user(t, "alice", "10")

	const workerCount = 12
	for i := 0; i < workerCount; i++ {
		f.user(t, fmt.Sprintf("worker-%d", i), "0")
	}

	task := f.openTask(t, "alice", "1")

	var wg sync.WaitGroup
	wg.Add(workerCount)

	results := make(chan error, workerCount)
	for i := 0; i < workerCount; i++ {
		go func(idx int) {
			defer wg.Done()
			_, err := f.tasks.AcceptTask(context.Background(), fmt.Sprintf("worker-%d", idx), task.ID)
			results <- err
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case errors.Is(err, apperr.ErrTaskNotOpen):
		default:
			t.Errorf("unexpected error from concurrent accept: %v", err)
		}
	}

	if successCount != 1 {
		t.Errorf("expected exactly one accept to succeed, got %d", successCount)
	}

	if got := f.reload(t, task.ID); got.Status != constants.StatusInProgress {
		t.Errorf("expected status %s, got %s", constants.StatusInProgress, got.Status)
	}
}

func TestTaskService_ReportTimeGuards(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")
	f.user(t, "carol", "0")

	task := f.openTask(t, "alice", "2")

	_, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(1))
	assertErr(t, err, apperr.ErrNotAssignee)

	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err = f.tasks.ReportTime(ctx, "carol", task.ID, decimal.NewFromInt(1))
	assertErr(t, err, apperr.ErrNotAssignee)

	_, err = f.tasks.ReportTime(ctx, "bob", task.ID, decimal.Zero)
	assertErr(t, err, apperr.ErrInvalidHours)

	report, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if report.OverReported {
		t.Error("3 hours on a 2 hour task is exactly the threshold and must not be flagged")
	}

	got := f.reload(t, task.ID)
	assertDecimal(t, "reported hours", got.ReportedHours.Decimal, "3")
	if got.ReportedBy == nil || *got.ReportedBy != "bob" || got.ReportedAt == nil {
		t.Errorf("expected report provenance for bob, got %v at %v", got.ReportedBy, got.ReportedAt)
	}

	if _, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, err = f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(1))
	assertErr(t, err, apperr.ErrWrongState)
}

func TestTaskService_ApproveWithoutReport(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")

	task := f.openTask(t, "alice", "2")

	_, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID)
	assertErr(t, err, apperr.ErrWrongState)

	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err = f.tasks.ApproveAndComplete(ctx, "alice", task.ID)
	assertErr(t, err, apperr.ErrNoReportedHours)

	_, err = f.tasks.ApproveAndComplete(ctx, "bob", task.ID)
	assertErr(t, err, apperr.ErrNotOwner)

	assertDecimal(t, "bob balance", f.balance(t, "bob"), "0")
}

func TestTaskService_ApproveTwice(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "1")

	task := f.openTask(t, "alice", "2")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(2)); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if _, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	_, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID)
	assertErr(t, err, apperr.ErrWrongState)

	assertDecimal(t, "bob balance", f.balance(t, "bob"), "3")

	entries, _ := f.store.Ledger.ListByTask(ctx, task.ID)
	if len(entries) != 1 {
		t.Errorf("expected exactly one ledger entry, got %d", len(entries))
	}
}

func TestTaskService_ApproveRollsBackOnFailure(t *testing.T) {
	f := newFixture(t, Options{DebitOwnerOnApproval: true})
	ctx := context.Background()
	f.user(t, "alice", "2")
	f.user(t, "bob", "0")

	task := f.openTask(t, "alice", "2")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	_, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID)
	assertErr(t, err, apperr.ErrInsufficientBalance)

	assertDecimal(t, "bob balance after rollback", f.balance(t, "bob"), "0")
	assertDecimal(t, "alice balance after rollback", f.balance(t, "alice"), "2")

	exists, err := f.store.Ledger.ExistsForTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to check ledger: %v", err)
	}
	if exists {
		t.Error("ledger entry must be rolled back with the failed approval")
	}

	if got := f.reload(t, task.ID); got.Status != constants.StatusInProgress {
		t.Errorf("expected task to stay %s, got %s", constants.StatusInProgress, got.Status)
	}
	if f.notifier.count("bob", constants.EventTaskCompleted) != 0 {
		t.Error("no completion notification may be sent for a rolled back approval")
	}
}

func TestTaskService_ApproveDebitsOwnerWhenEnabled(t *testing.T) {
	f := newFixture(t, Options{DebitOwnerOnApproval: true})
	ctx := context.Background()
	f.user(t, "alice", "5")
	f.user(t, "bob", "0")

	task := f.openTask(t, "alice", "2")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.RequireFromString("1.5")); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if _, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	assertDecimal(t, "alice balance", f.balance(t, "alice"), "3.5")
	assertDecimal(t, "bob balance", f.balance(t, "bob"), "1.5")
}

func TestTaskService_ApproveRejectsExistingLedgerEntry(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")

	task := f.openTask(t, "alice", "2")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(2)); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	stray := &model.LedgerEntry{TaskID: task.ID, UserID: "bob", TimeEarned: decimal.NewFromInt(2)}
	if err := f.store.Ledger.Append(ctx, stray); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	_, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID)
	assertErr(t, err, apperr.ErrDuplicateLedgerEntry)

	assertDecimal(t, "bob balance", f.balance(t, "bob"), "0")
	if got := f.reload(t, task.ID); got.Status != constants.StatusInProgress {
		t.Errorf("expected task to stay %s, got %s", constants.StatusInProgress, got.Status)
	}
}

func TestTaskService_UnassignClearsReport(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")
	f.user(t, "carol", "0")

	task := f.openTask(t, "alice", "2")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.RequireFromString("1.0")); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	_, err := f.tasks.Unassign(ctx, "bob", task.ID)
	assertErr(t, err, apperr.ErrNotOwner)

	reopened, err := f.tasks.Unassign(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("unassign failed: %v", err)
	}
	if reopened.Status != constants.StatusOpen || reopened.AssignedTo != nil || reopened.ReportedHours.Valid {
		t.Fatalf("expected open unassigned task without report, got %+v", reopened)
	}

	assertDecimal(t, "bob balance", f.balance(t, "bob"), "0")
	assertDecimal(t, "alice balance", f.balance(t, "alice"), "10")
	if f.notifier.count("bob", constants.EventTaskUnassigned) != 1 {
		t.Error("expected former worker to be notified")
	}

	_, err = f.tasks.Unassign(ctx, "alice", task.ID)
	assertErr(t, err, apperr.ErrWrongState)

	if _, err := f.tasks.AcceptTask(ctx, "carol", task.ID); err != nil {
		t.Fatalf("accept by a different worker failed: %v", err)
	}

	got := f.reload(t, task.ID)
	if !got.IsAssignedTo("carol") {
		t.Errorf("expected carol as assignee, got %v", got.AssignedTo)
	}
	if got.ReportedHours.Valid || got.ReportedBy != nil || got.ReportedAt != nil {
		t.Error("previous assignment's report must not survive re-acceptance")
	}
}

func TestTaskService_CancelTask(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")

	open := f.openTask(t, "alice", "1")

	_, err := f.tasks.CancelTask(ctx, "bob", open.ID)
	assertErr(t, err, apperr.ErrNotOwner)

	cancelled, err := f.tasks.CancelTask(ctx, "alice", open.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.StatusCancelled {
		t.Errorf("expected status %s, got %s", constants.StatusCancelled, cancelled.Status)
	}

	if n := len(f.notifier.events); n != 0 {
		t.Errorf("cancelling an unassigned task must not notify anyone, got %d events", n)
	}

	_, err = f.tasks.CancelTask(ctx, "alice", open.ID)
	assertErr(t, err, apperr.ErrWrongState)

	_, err = f.tasks.AcceptTask(ctx, "bob", open.ID)
	assertErr(t, err, apperr.ErrTaskNotOpen)

	inProgress := f.openTask(t, "alice", "1")
	if _, err := f.tasks.AcceptTask(ctx, "bob", inProgress.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", inProgress.ID, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if _, err := f.tasks.CancelTask(ctx, "alice", inProgress.ID); err != nil {
		t.Fatalf("cancel in progress failed: %v", err)
	}

	got := f.reload(t, inProgress.ID)
	if got.ReportedHours.Valid {
		t.Error("cancel must clear reported hours")
	}
	if f.notifier.count("bob", constants.EventTaskCancelled) != 1 {
		t.Error("expected worker to be notified of cancellation")
	}
	assertDecimal(t, "bob balance", f.balance(t, "bob"), "0")
}

func TestTaskService_DeleteTask(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")

	task := f.openTask(t, "alice", "1")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.AddAttachment(ctx, "alice", task.ID, "https://files.example.com/a.png"); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	assertErr(t, f.tasks.DeleteTask(ctx, "bob", task.ID), apperr.ErrNotOwner)

	if err := f.tasks.DeleteTask(ctx, "alice", task.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	_, err := f.tasks.GetTask(ctx, task.ID)
	assertErr(t, err, apperr.ErrTaskNotFound)

	attachments, err := f.store.Attachments.ListByTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("failed to list attachments: %v", err)
	}
	if len(attachments) != 0 {
		t.Errorf("expected attachments to be removed, got %d", len(attachments))
	}

	if f.notifier.count("bob", constants.EventTaskDeleted) != 1 {
		t.Error("expected worker to be notified of deletion")
	}

	assertErr(t, f.tasks.DeleteTask(ctx, "alice", task.ID), apperr.ErrTaskNotFound)
}

func TestTaskService_DeleteCompletedKeepsLedger(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")

	task := f.openTask(t, "alice", "1")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if _, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := f.tasks.DeleteTask(ctx, "alice", task.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	entries, err := f.users.Ledger(ctx, "bob")
	if err != nil {
		t.Fatalf("failed to list ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected ledger entry to survive deletion, got %d", len(entries))
	}
	assertDecimal(t, "bob balance", f.balance(t, "bob"), "1")
}

func TestTaskService_ListOpenExcludesOwnTasks(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "10")

	f.openTask(t, "alice", "1")
	bobs := f.openTask(t, "bob", "1")

	tasks, err := f.tasks.ListOpen(ctx, "alice", repository.OpenTaskFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != bobs.ID {
		t.Errorf("expected only bob's task, got %+v", tasks)
	}

	mine, err := f.tasks.ListCreatedBy(ctx, "alice")
	if err != nil {
		t.Fatalf("list created failed: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected one task created by alice, got %d", len(mine))
	}

	if _, err := f.tasks.AcceptTask(ctx, "alice", bobs.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	assigned, err := f.tasks.ListAssignedTo(ctx, "alice")
	if err != nil {
		t.Fatalf("list assigned failed: %v", err)
	}
	if len(assigned) != 1 || assigned[0].ID != bobs.ID {
		t.Errorf("expected bob's task assigned to alice, got %+v", assigned)
	}
}

func TestTaskService_AttachmentsRequireParticipant(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")
	f.user(t, "carol", "0")

	task := f.openTask(t, "alice", "1")

	_, err := f.tasks.AddAttachment(ctx, "carol", task.ID, "https://files.example.com/x.png")
	assertErr(t, err, apperr.ErrNotParticipant)

	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.AddAttachment(ctx, "bob", task.ID, "https://files.example.com/proof.jpg"); err != nil {
		t.Fatalf("assignee attach failed: %v", err)
	}

	attachments, err := f.tasks.ListAttachments(ctx, task.ID)
	if err != nil {
		t.Fatalf("list attachments failed: %v", err)
	}
	if len(attachments) != 1 || attachments[0].UploadedBy != "bob" {
		t.Errorf("expected one attachment from bob, got %+v", attachments)
	}

	_, err = f.tasks.ListAttachments(ctx, "missing")
	assertErr(t, err, apperr.ErrTaskNotFound)
}

func TestTaskService_StoreTimeoutIsRetryable(t *testing.T) {
	f := newFixture(t, Options{StoreTimeout: time.Second})
	f.user(t, "alice", "10")
	task := f.openTask(t, "alice", "1")

	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := f.tasks.GetTask(expired, task.ID)
	assertErr(t, err, apperr.ErrStoreTimeout)
	if !apperr.IsRetryable(err) {
		t.Error("store timeouts must be retryable")
	}

	_, err = f.tasks.ApproveAndComplete(expired, "alice", task.ID)
	assertErr(t, err, apperr.ErrStoreTimeout)
}

func TestUserService_Profile(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")

	for _, hours := range []string{"1.5", "2"} {
		task := f.openTask(t, "alice", "2")
		if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.RequireFromString(hours)); err != nil {
			t.Fatalf("report failed: %v", err)
		}
		if _, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
	}

	profile, err := f.users.Profile(ctx, "bob")
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.TasksDone != 2 {
		t.Errorf("expected 2 tasks done, got %d", profile.TasksDone)
	}
	if profile.HoursEarned != "3.5" {
		t.Errorf("expected 3.5 hours earned, got %s", profile.HoursEarned)
	}
	assertDecimal(t, "profile balance", profile.User.TimeBalance, "3.5")

	if err := f.users.SetPushToken(ctx, "bob", "ExponentPushToken[abc]"); err != nil {
		t.Fatalf("set push token failed: %v", err)
	}
	assertErr(t, f.users.SetPushToken(ctx, "nobody", "x"), apperr.ErrUserNotFound)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterUserInput{Name: ""})
	assertErr(t, err, apperr.ErrInvalidInput)

	_, err = f.users.Register(ctx, RegisterUserInput{Name: "x", InitialBalance: decimal.NewFromInt(-1)})
	assertErr(t, err, apperr.ErrInvalidInput)

	for _, balance := range []string{"1.005", "10000.01"} {
		_, err = f.users.Register(ctx, RegisterUserInput{Name: "x", InitialBalance: decimal.RequireFromString(balance)})
		assertErr(t, err, apperr.ErrInvalidInput)
	}

	f.user(t, "alice", "1")
	_, err = f.users.Register(ctx, RegisterUserInput{ID: "alice", Name: "again"})
	assertErr(t, err, apperr.ErrInvalidInput)
}

func TestTaskService_HoursMustFitColumnPrecision(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10000")
	f.user(t, "bob", "0")

	for _, offered := range []string{"0.004", "1.005", "10000.01", "10000000000"} {
		_, err := f.tasks.CreateTask(ctx, "alice", CreateTaskInput{Title: "x", TimeOffered: decimal.RequireFromString(offered)})
		assertErr(t, err, apperr.ErrInvalidHours)
	}

	task := f.openTask(t, "alice", "1.500")
	assertDecimal(t, "offered", task.TimeOffered, "1.5")

	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	for _, hours := range []string{"0.004", "1.005", "10000.01"} {
		_, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.RequireFromString(hours))
		assertErr(t, err, apperr.ErrInvalidHours)
	}
	if f.reload(t, task.ID).ReportedHours.Valid {
		t.Fatal("rejected reports must not be stored")
	}

	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.RequireFromString("1.25")); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	completion, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	assertDecimal(t, "credited hours", completion.Entry.TimeEarned, "1.25")
	assertDecimal(t, "bob balance", f.balance(t, "bob"), "1.25")
}

func TestTaskService_TaskLedger(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.user(t, "alice", "10")
	f.user(t, "bob", "0")
	f.user(t, "carol", "0")

	task := f.openTask(t, "alice", "2")
	if _, err := f.tasks.AcceptTask(ctx, "bob", task.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := f.tasks.ReportTime(ctx, "bob", task.ID, decimal.NewFromInt(2)); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if _, err := f.tasks.ApproveAndComplete(ctx, "alice", task.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	for _, viewer := range []string{"alice", "bob"} {
		entries, err := f.tasks.TaskLedger(ctx, viewer, task.ID)
		if err != nil {
			t.Fatalf("%s: task ledger failed: %v", viewer, err)
		}
		if len(entries) != 1 || entries[0].UserID != "bob" {
			t.Errorf("%s: expected bob's single entry, got %+v", viewer, entries)
		}
	}

	_, err := f.tasks.TaskLedger(ctx, "carol", task.ID)
	assertErr(t, err, apperr.ErrNotParticipant)

	_, err = f.tasks.TaskLedger(ctx, "alice", "missing")
	assertErr(t, err, apperr.ErrTaskNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := f.user(t, "alice", "4")
	if alice.IsProfileComplete {
		t.Fatal("new users start with an incomplete profile")
	}

	updated, err := f.users.UpdateProfile(ctx, "alice", UpdateProfileInput{
		Name:         "  Alice  ",
		Description:  "Retired carpenter",
		Location:     "Riverside",
		SkillSets:    []string{" Woodwork ", "", "woodwork", "Gardening"},
		Availability: "Weekends",
		AvatarURL:    "https://cdn.example.com/alice.png",
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.Name != "Alice" || !updated.IsProfileComplete {
		t.Errorf("expected trimmed name and a complete profile, got %+v", updated)
	}

	stored, err := f.users.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if len(stored.SkillSets) != 2 || stored.SkillSets[0] != "Woodwork" || stored.SkillSets[1] != "Gardening" {
		t.Errorf("expected deduplicated skills, got %v", stored.SkillSets)
	}
	if stored.Location != "Riverside" || stored.Availability != "Weekends" || !stored.IsProfileComplete {
		t.Errorf("expected profile to be stored, got %+v", stored)
	}
	assertDecimal(t, "balance after profile edit", stored.TimeBalance, "4")

	public, err := f.users.PublicProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("public profile failed: %v", err)
	}
	if public.Name != "Alice" || public.AvatarURL != "https://cdn.example.com/alice.png" || len(public.SkillSets) != 2 {
		t.Errorf("unexpected public profile %+v", public)
	}

	_, err = f.users.UpdateProfile(ctx, "alice", UpdateProfileInput{Name: "   "})
	assertErr(t, err, apperr.ErrInvalidInput)

	_, err = f.users.UpdateProfile(ctx, "nobody", UpdateProfileInput{Name: "x"})
	assertErr(t, err, apperr.ErrUserNotFound)
}
