package circulation

import (
	"time"
)

// NotificationStatus reports how a circulation operation completed.
type NotificationStatus string

const (
	NotificationCompleted NotificationStatus = "completed"
	NotificationFailed    NotificationStatus = "failed"
)

// Notification is the structured event emitted by the engine after an
// issue, return or void operation. It replaces console-notice style side
// effects: an observability hook only, never a control-flow dependency.
type Notification struct {
	ID         string
	Operation  string
	IssueID    string
	BookTitle  string
	Status     NotificationStatus
	Detail     string
	OccurredAt time.Time
}

// Notifier receives notifications from the engine. Implementations must not
// block; the engine publishes synchronously after the transaction outcome
// is decided and ignores delivery failures.
type Notifier interface {
	Publish(notification Notification)
}
