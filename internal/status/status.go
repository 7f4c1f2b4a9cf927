// Package status carries the user-visible progress log of a session.
package status

import (
	"fmt"
	"sync"
	"time"
)

type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

type Event struct {
	Seq      int       `json:"seq"`
	Text     string    `json:"text"`
	Severity Severity  `json:"status"`
	Time     time.Time `json:"time"`
}

// Summary is attached to the completion event.
type Summary struct {
	TotalJobs  int    `json:"totalJobs"`
	TotalPages int    `json:"totalPages"`
	Applied    int    `json:"applied"`
	Failed     int    `json:"failed"`
	Stopped    int    `json:"stopped"`
	Skipped    int    `json:"skipped"`
	Errors     int    `json:"errors"`
	Completed  bool   `json:"completed"`
	Reason     string `json:"reason,omitempty"`
}

func (s Summary) String() string {
	return fmt.Sprintf("applied %d, failed %d, stopped %d, skipped %d, errors %d (%d jobs on %d pages)",
		s.Applied, s.Failed, s.Stopped, s.Skipped, s.Errors, s.TotalJobs, s.TotalPages)
}

// Sink receives status events and the final summary.
type Sink interface {
	Emit(e Event)
	Complete(s Summary)
}

// Discard drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event)       {}
func (discard) Complete(Summary) {}

// Multi fans events out to every sink.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

func (m multi) Complete(sum Summary) {
	for _, s := range m {
		s.Complete(sum)
	}
}

// Recorder keeps every event in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	summary *Summary
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Seq = len(r.events) + 1
	r.events = append(r.events, e)
}

func (r *Recorder) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = &s
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Since returns events with Seq greater than seq.
func (r *Recorder) Since(seq int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(r.events) {
		return nil
	}
	return append([]Event(nil), r.events[seq:]...)
}

func (r *Recorder) Summary() (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return Summary{}, false
	}
	return *r.summary, true
}

// Texts is a test helper returning just the event texts.
func (r *Recorder) Texts() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Text
	}
	return out
}

// Emitter formats and timestamps events for Sink. A nil Sink drops them.
type Emitter struct {
	Sink Sink
	Now  func() time.Time
}

func (em Emitter) emit(sev Severity, format string, args ...any) {
	if em.Sink == nil {
		return
	}
	now := time.Now
	if em.Now != nil {
		now = em.Now
	}
	em.Sink.Emit(Event{Text: fmt.Sprintf(format, args...), Severity: sev, Time: now()})
}

func (em Emitter) Info(format string, args ...any)    { em.emit(Info, format, args...) }
func (em Emitter) Success(format string, args ...any) { em.emit(Success, format, args...) }
func (em Emitter) Error(format string, args ...any)   { em.emit(Error, format, args...) }
