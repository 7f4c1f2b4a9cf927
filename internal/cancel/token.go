// Package cancel holds the session's stop capability.
package cancel

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned when a cancellation probe tripped. It is terminal, not a failure.
var ErrStopped = errors.New("stopped")

// Probe answers "has the user pressed stop?".
type Probe func() bool

// Never is a probe that never trips.
func Never() bool { return false }

// Token is a monotonic stop flag. Once cancelled it stays cancelled.
type Token struct {
	mu     sync.Mutex
	set    bool
	reason string
	done   chan struct{}
}

func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel sets the flag. Only the first reason is kept.
func (t *Token) Cancel(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.set {
		return
	}
	t.set = true
	t.reason = reason
	close(t.done)
}

func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.set
}

func (t *Token) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// Done is closed when the token is cancelled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

func (t *Token) Probe() Probe {
	return t.Cancelled
}

// Any trips as soon as one of the probes trips.
func Any(probes ...Probe) Probe {
	return func() bool {
		for _, p := range probes {
			if p != nil && p() {
				return true
			}
		}
		return false
	}
}

// Deadline trips once now() passes at.
func Deadline(at time.Time, now func() time.Time) Probe {
	if now == nil {
		now = time.Now
	}
	return func() bool {
		return !now().Before(at)
	}
}
