package constants

type TaskStatus string

const (
	StatusOpen       TaskStatus = "Open"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
	StatusCancelled  TaskStatus = "Cancelled"
)

// IsTerminal reports whether no further transition is possible from s.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// HasAssignee reports whether a task in status s must carry an assignee.
func (s TaskStatus) HasAssignee() bool {
	return s == StatusInProgress || s == StatusCompleted
}
