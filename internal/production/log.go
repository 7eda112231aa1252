package production

import (
	"fmt"
	"sync"
	"time"
)

const defaultEventCap = 100

// EventLog is a bounded ring of display log lines. Once full, the oldest
// entry is dropped for each append.
type EventLog struct {
	mu      sync.Mutex
	entries []Event
	start   int
	count   int
}

// Event is one timestamped log line.
type Event struct {
	At      time.Time
	Message string
}

// NewEventLog builds a log holding at most capacity entries.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = defaultEventCap
	}
	return &EventLog{entries: make([]Event, capacity)}
}

// Append adds a formatted line.
func (l *EventLog) Append(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := Event{At: time.Now(), Message: fmt.Sprintf(format, args...)}
	idx := (l.start + l.count) % len(l.entries)
	l.entries[idx] = entry
	if l.count < len(l.entries) {
		l.count++
	} else {
		l.start = (l.start + 1) % len(l.entries)
	}
}

// Snapshot returns the retained entries, oldest first.
func (l *EventLog) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.entries[(l.start+i)%len(l.entries)])
	}
	return out
}

// Len returns the number of retained entries.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
