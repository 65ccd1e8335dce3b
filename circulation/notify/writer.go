package notify

import (
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriterNotifier appends each notification to an io.Writer as one JSON
// document per line. Useful for audit files and CLI output. Write failures
// are swallowed, matching the fire-and-forget notification contract.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ circulation.Notifier = (*WriterNotifier)(nil)

// NewWriterNotifier creates a notifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Publish encodes the notification and writes it followed by a newline.
func (n *WriterNotifier) Publish(notification circulation.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err = n.w.Write(payload); err != nil {
		return
	}

	_, _ = n.w.Write([]byte("\n"))
}
