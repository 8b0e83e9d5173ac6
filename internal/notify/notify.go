// Package notify queues transient user-facing messages. A notification is
// shown for a fixed duration, then spends a short removal window animating
// out, after which it is dropped. Messages stack and are never deduplicated.
package notify

import (
	"sync"
	"time"
)

const (
	// DisplayDuration is how long a notification stays fully visible.
	DisplayDuration = 4 * time.Second
	// RemovalDuration is the slide-out window after display ends.
	RemovalDuration = 400 * time.Millisecond
)

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is one queued message.
type Notification struct {
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Removing reports whether the notification is past its display window and
// inside the removal animation, relative to now.
func (n Notification) Removing(now time.Time) bool {
	return now.Sub(n.CreatedAt) > DisplayDuration
}

// Notifier holds the queue. It keeps no other state and nothing persists.
type Notifier struct {
	mu    sync.Mutex
	now   func() time.Time
	queue []Notification
}

// New creates a Notifier using the wall clock.
func New() *Notifier {
	return &Notifier{now: time.Now}
}

// Push enqueues a message with the given severity.
func (n *Notifier) Push(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, Notification{
		Message:   message,
		Severity:  severity,
		CreatedAt: n.now(),
	})
}

// Success enqueues a success message.
func (n *Notifier) Success(message string) { n.Push(message, SeveritySuccess) }

// Error enqueues an error message.
func (n *Notifier) Error(message string) { n.Push(message, SeverityError) }

// Info enqueues an informational message.
func (n *Notifier) Info(message string) { n.Push(message, SeverityInfo) }

// Active returns the notifications still inside their display or removal
// window, oldest first, and drops the expired ones.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	kept := n.queue[:0]
	for _, item := range n.queue {
		if now.Sub(item.CreatedAt) <= DisplayDuration+RemovalDuration {
			kept = append(kept, item)
		}
	}
	n.queue = kept
	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}
