package notify_test

import (
	"bytes"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/notify"
)

func Test_Hub_DeliversNotificationToSubscriber(t *testing.T) {
	// arrange
	hub := notify.NewHub()
	defer hub.Close()

	received, cancel := hub.Subscribe()
	defer cancel()

	notification := givenNotification()

	// act
	hub.Publish(notification)

	// assert
	select {
	case got := <-received:
		assert.Equal(t, notification.ID, got.ID)
		assert.Equal(t, notification.Operation, got.Operation)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func Test_Hub_Publish_DoesNotBlock_AfterClose(t *testing.T) {
	// arrange
	hub := notify.NewHub()
	hub.Close()

	// act + assert: must return immediately
	hub.Publish(givenNotification())
}

func Test_Hub_Subscribe_ClosesChannel_OnCancel(t *testing.T) {
	// arrange
	hub := notify.NewHub()
	defer hub.Close()

	received, cancel := hub.Subscribe()

	// act
	cancel()

	// assert
	select {
	case _, open := <-received:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func Test_WriterNotifier_WritesOneJSONDocumentPerLine(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	notifier := notify.NewWriterNotifier(&buf)
	notification := givenNotification()

	// act
	notifier.Publish(notification)
	notifier.Publish(notification)

	// assert
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var decoded circulation.Notification
	require.NoError(t, jsoniter.Unmarshal(lines[0], &decoded))
	assert.Equal(t, notification.ID, decoded.ID)
	assert.Equal(t, notification.Status, decoded.Status)
}

func givenNotification() circulation.Notification {
	return circulation.Notification{
		ID:         "11111111-1111-1111-1111-111111111111",
		Operation:  "issue",
		IssueID:    "22222222-2222-2222-2222-222222222222",
		BookTitle:  "The Go Programming Language",
		Status:     circulation.NotificationCompleted,
		OccurredAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}
