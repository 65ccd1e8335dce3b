package testdoubles

import (
	"sync"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// NotifierSpy implements circulation.Notifier and records every published
// notification.
type NotifierSpy struct {
	mu            sync.Mutex
	notifications []circulation.Notification
}

var _ circulation.Notifier = (*NotifierSpy)(nil)

// NewNotifierSpy creates an empty notifier spy.
func NewNotifierSpy() *NotifierSpy {
	return &NotifierSpy{}
}

func (s *NotifierSpy) Publish(notification circulation.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, notification)
}

// Notifications returns a copy of all captured notifications.
func (s *NotifierSpy) Notifications() []circulation.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]circulation.Notification(nil), s.notifications...)
}

// WithStatus returns the captured notifications carrying one status.
func (s *NotifierSpy) WithStatus(status circulation.NotificationStatus) []circulation.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matching []circulation.Notification

	for _, notification := range s.notifications {
		if notification.Status == status {
			matching = append(matching, notification)
		}
	}

	return matching
}
