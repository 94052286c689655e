package constants

type EventType string

const (
	EventTaskAccepted   EventType = "task_accepted"
	EventTimeReported   EventType = "time_reported"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskUnassigned EventType = "task_unassigned"
	EventTaskCancelled  EventType = "task_cancelled"
	EventTaskDeleted    EventType = "task_deleted"
)
