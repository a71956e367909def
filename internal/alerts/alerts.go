// Package alerts holds the transient, time-boxed messages the other
// stores enqueue for the view layer.
package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"devconnect/internal/models"
)

// DefaultTimeout is how long an alert stays visible unless dismissed.
const DefaultTimeout = 3 * time.Second

// Queue is an in-memory notification queue. Entries keep insertion order
// and duplicates are not coalesced.
type Queue struct {
	defaultTimeout time.Duration

	mu      sync.Mutex
	entries []models.Alert
	timers  map[string]*time.Timer
}

// NewQueue creates a new alert queue
func NewQueue() *Queue {
	return NewQueueWithTimeout(DefaultTimeout)
}

// NewQueueWithTimeout creates a queue with a configured default timeout.
func NewQueueWithTimeout(timeout time.Duration) *Queue {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Queue{defaultTimeout: timeout, timers: make(map[string]*time.Timer)}
}

// Show enqueues a message with the default timeout and returns its id.
func (q *Queue) Show(message, severity string) string {
	return q.ShowFor(message, severity, q.defaultTimeout)
}

// ShowFor enqueues a message that self-destructs after timeout.
func (q *Queue) ShowFor(message, severity string, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = q.defaultTimeout
	}
	alert := models.Alert{
		ID:       uuid.New().String(),
		Message:  message,
		Severity: severity,
		Timeout:  timeout,
	}

	q.mu.Lock()
	q.entries = append(q.entries, alert)
	q.timers[alert.ID] = time.AfterFunc(timeout, func() { q.Dismiss(alert.ID) })
	q.mu.Unlock()

	return alert.ID
}

// Dismiss removes an alert immediately. Unknown ids are ignored.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	for i, alert := range q.entries {
		if alert.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
}

// Active returns the queued alerts in insertion order.
func (q *Queue) Active() []models.Alert {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.Alert, len(q.entries))
	copy(out, q.entries)
	return out
}

// Stop cancels all pending removal timers. Used on shutdown.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.entries = nil
}
