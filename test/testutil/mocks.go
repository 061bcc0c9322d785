package testutil

import (
	"sync"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// NoticeRecorder collects notices published by the core.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []models.Notice
}

// NewNoticeRecorder creates an empty recorder.
func NewNoticeRecorder() *NoticeRecorder {
	return &NoticeRecorder{}
}

// Notify implements events.Notifier.
func (r *NoticeRecorder) Notify(n models.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded.
func (r *NoticeRecorder) Notices() []models.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notice(nil), r.notices...)
}

// Messages returns the recorded messages in order.
func (r *NoticeRecorder) Messages() []string {
	var out []string
	for _, n := range r.Notices() {
		out = append(out, n.Message)
	}
	return out
}
