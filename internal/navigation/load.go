package navigation

import (
	"context"

	"github.com/TheMichaelB/filedeck/internal/models"
)

// Load is the handle of one listing request. A nil *Load stands for a
// transition that did nothing; it is already done and waits successfully.
type Load struct {
	// Location is the location the request was issued for.
	Location models.Location

	gen  uint64
	done chan struct{}
	err  error
}

func (l *Load) finish(err error) {
	l.err = err
	close(l.done)
}

// Done is closed when the request resolves or is superseded.
func (l *Load) Done() <-chan struct{} {
	if l == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return l.done
}

// Wait blocks until the request resolves and returns its error:
// ErrSuperseded when a newer navigation replaced it, or the listing error.
func (l *Load) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Superseded reports whether the request finished after being replaced.
func (l *Load) Superseded() bool {
	if l == nil {
		return false
	}
	select {
	case <-l.done:
		return l.err == ErrSuperseded
	default:
		return false
	}
}
