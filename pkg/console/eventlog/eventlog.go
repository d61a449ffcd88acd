// Package eventlog keeps the ordered diagnostic log of protocol events.
//
// The log is append-only with one exception: when a new event has the same
// type and source as the current tail entry, the tail's repeat count is
// incremented in place instead of appending. This keeps high-frequency
// streaming notifications (audio deltas in particular) from flooding the
// visible log. No entry other than the tail is ever mutated, and no event
// is inserted out of arrival order.
package eventlog

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vango-go/voice-console/pkg/realtime"
)

// Entry is one log line.
type Entry struct {
	// ID is the identifier of the first event merged into this entry.
	ID string `json:"id"`
	// Time is the arrival time of the first event.
	Time time.Time `json:"time"`
	// Source is which side produced the event.
	Source realtime.Source `json:"source"`
	// Type is the wire event type.
	Type string `json:"type"`
	// Count is how many consecutive same-type events this entry represents.
	Count int `json:"count"`
	// Payload is the raw JSON of the most recent merged event.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Log is the coalescing event log. A zero Log is not usable; construct with
// New.
type Log struct {
	mu      sync.Mutex
	start   time.Time
	entries []Entry

	// expanded is per-entry UI state keyed by event id. It lives outside
	// the entries so toggling never touches the log's own mutation rules.
	expanded map[string]bool

	now func() time.Time
}

// New creates an empty log with the clock started at now.
func New() *Log {
	l := &Log{now: time.Now}
	l.Reset(l.now())
	return l
}

// Reset discards all entries and expansion state and restarts the clock.
func (l *Log) Reset(start time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = start
	l.entries = l.entries[:0]
	l.expanded = make(map[string]bool)
}

// Record appends an event, merging it into the tail entry when the tail has
// the same source and type.
func (l *Log) Record(ev realtime.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.entries); n > 0 {
		tail := &l.entries[n-1]
		if tail.Source == ev.Source && tail.Type == ev.Type {
			tail.Count++
			tail.Payload = ev.Payload
			return
		}
	}

	l.entries = append(l.entries, Entry{
		ID:      ev.ID,
		Time:    l.now(),
		Source:  ev.Source,
		Type:    ev.Type,
		Count:   1,
		Payload: ev.Payload,
	})
}

// Entries returns a snapshot of the log in arrival order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// FormatTime renders t as mm:ss.hs relative to the log's start.
func (l *Log) FormatTime(t time.Time) string {
	l.mu.Lock()
	start := l.start
	l.mu.Unlock()

	delta := t.Sub(start)
	if delta < 0 {
		delta = 0
	}
	hs := int(delta/(10*time.Millisecond)) % 100
	s := int(delta/time.Second) % 60
	m := int(delta/time.Minute) % 60
	return fmt.Sprintf("%02d:%02d.%02d", m, s, hs)
}

// Toggle flips the expanded flag for the entry with the given event id.
func (l *Log) Toggle(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expanded[id] = !l.expanded[id]
}

// IsExpanded reports whether the entry's payload view is expanded.
func (l *Log) IsExpanded(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.expanded[id]
}
