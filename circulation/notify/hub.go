// Package notify carries operation outcome notifications to interested
// observers. Notifications are observability output only: losing one never
// affects a recorded transaction, and a slow subscriber is dropped behind
// rather than blocking the publisher.
package notify

import (
	"sync"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

const (
	subscriberBuffer = 16
	broadcastBuffer  = 64
)

type subscriber struct {
	ch chan circulation.Notification
}

// Hub fans notifications out to all subscribers. Publish never blocks: when
// the fan-out loop or a subscriber cannot keep up, messages are dropped,
// not queued without bound.
type Hub struct {
	register    chan *subscriber
	unregister  chan *subscriber
	broadcast   chan circulation.Notification
	done        chan struct{}
	closeOnce   sync.Once
	subscribers map[*subscriber]struct{}
}

var _ circulation.Notifier = (*Hub)(nil)

// NewHub creates a hub and starts its fan-out loop.
func NewHub() *Hub {
	h := &Hub{
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan circulation.Notification, broadcastBuffer),
		done:        make(chan struct{}),
		subscribers: make(map[*subscriber]struct{}),
	}

	go h.run()

	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.subscribers[sub] = struct{}{}

		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.ch)
			}

		case notification := <-h.broadcast:
			for sub := range h.subscribers {
				select {
				case sub.ch <- notification:
				default:
					// Subscriber fell behind, drop the message.
				}
			}

		case <-h.done:
			for sub := range h.subscribers {
				delete(h.subscribers, sub)
				close(sub.ch)
			}

			return
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. The channel is closed on cancel or hub close.
func (h *Hub) Subscribe() (<-chan circulation.Notification, func()) {
	sub := &subscriber{ch: make(chan circulation.Notification, subscriberBuffer)}

	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.ch)
		return sub.ch, func() {}
	}

	cancel := func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}

	return sub.ch, cancel
}

// Publish hands a notification to the fan-out loop without blocking. After
// Close, or with a saturated hub, the notification is dropped.
func (h *Hub) Publish(notification circulation.Notification) {
	select {
	case <-h.done:
	case h.broadcast <- notification:
	default:
	}
}

// Close stops the fan-out loop and closes all subscriber channels.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
