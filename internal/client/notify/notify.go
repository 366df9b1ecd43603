// Package notify carries user-facing notifications (the client's toasts)
// from the components that raise them to whichever front end shows them.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Variant is the visual severity of a notification.
type Variant string

const (
	Default     Variant = "default"
	Success     Variant = "success"
	Destructive Variant = "destructive"
)

// Notification is one user-facing message.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	At          time.Time `json:"at"`
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Queue buffers notifications until a front end drains them. When full,
// the oldest entry is dropped.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

// NewQueue returns a Queue holding at most limit entries.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 64
	}
	return &Queue{limit: limit}
}

func (q *Queue) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == q.limit {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)
}

// Drain returns and clears the buffered notifications, oldest first.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Log writes notifications to a zap logger.
type Log struct {
	L *zap.Logger
}

func (l Log) Notify(n Notification) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("variant", string(n.Variant))}
	if n.Description != "" {
		fields = append(fields, zap.String("description", n.Description))
	}
	if n.Variant == Destructive {
		l.L.Warn("notification", fields...)
		return
	}
	l.L.Info("notification", fields...)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, nt := range m {
		nt.Notify(n)
	}
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(Notification) {}
