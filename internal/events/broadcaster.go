package events

import (
	"sync"
	"time"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// Notifier receives user-facing notices.
type Notifier interface {
	Notify(models.Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(models.Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n models.Notice) { f(n) }

// Broadcaster fans notices out to subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan models.Notice]struct{}
}

// NewBroadcaster creates a new notice broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan models.Notice]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan models.Notice {
	ch := make(chan models.Notice, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan models.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Notify publishes a notice. Slow subscribers miss notices rather than block.
func (b *Broadcaster) Notify(n models.Notice) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- n:
		default:
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// ErrorNotice builds an error notice for op.
func ErrorNotice(op string, err error) models.Notice {
	return models.Notice{
		Kind:    models.NoticeError,
		Op:      op,
		Message: models.UserMessage(err),
		Err:     err,
		Time:    time.Now(),
	}
}
