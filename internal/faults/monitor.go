package faults

import (
	"sync"
	"time"
)

const (
	defaultRecordCap       = 100
	defaultThrottleLimit   = 10
	defaultThrottleWindow  = 30 * time.Second
	defaultThrottleCooloff = time.Minute
)

// Record is one retained failure observation.
type Record struct {
	At      time.Time
	Kind    Kind
	Message string
}

// Monitor collects classified failures into a bounded buffer and throttles
// surfacing when failures arrive in a burst, so a repeating error cannot
// feed back into more error reporting. It is constructed state, created at
// startup and Reset on sign-out; there are no package-level singletons.
type Monitor struct {
	mu       sync.Mutex
	records  []Record
	start    int
	count    int
	window   []time.Time
	limit    int
	windowD  time.Duration
	cooloff  time.Duration
	mutedTo  time.Time
	now      func() time.Time
}

// MonitorOptions tunes monitor bounds; zero values take defaults.
type MonitorOptions struct {
	RecordCap      int
	ThrottleLimit  int
	ThrottleWindow time.Duration
	Cooloff        time.Duration
}

// NewMonitor builds a monitor.
func NewMonitor(opts MonitorOptions) *Monitor {
	if opts.RecordCap <= 0 {
		opts.RecordCap = defaultRecordCap
	}
	if opts.ThrottleLimit <= 0 {
		opts.ThrottleLimit = defaultThrottleLimit
	}
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = defaultThrottleWindow
	}
	if opts.Cooloff <= 0 {
		opts.Cooloff = defaultThrottleCooloff
	}
	return &Monitor{
		records: make([]Record, opts.RecordCap),
		limit:   opts.ThrottleLimit,
		windowD: opts.ThrottleWindow,
		cooloff: opts.Cooloff,
		now:     time.Now,
	}
}

// Observe records a failure and reports whether it should be surfaced to the
// user. Suppressed-list messages and throttled bursts return false.
func (m *Monitor) Observe(err error) (Kind, bool) {
	if err == nil {
		return KindUnknown, false
	}
	kind := Classify(err)
	message := err.Error()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	idx := (m.start + m.count) % len(m.records)
	m.records[idx] = Record{At: now, Kind: kind, Message: message}
	if m.count < len(m.records) {
		m.count++
	} else {
		m.start = (m.start + 1) % len(m.records)
	}

	if ShouldSuppress(message) {
		return kind, false
	}

	if now.Before(m.mutedTo) {
		return kind, false
	}

	cutoff := now.Add(-m.windowD)
	kept := m.window[:0]
	for _, t := range m.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.window = append(kept, now)
	if len(m.window) > m.limit {
		m.mutedTo = now.Add(m.cooloff)
		m.window = m.window[:0]
		return kind, false
	}
	return kind, true
}

// Recent returns retained records, oldest first.
func (m *Monitor) Recent() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, m.count)
	for i := 0; i < m.count; i++ {
		out = append(out, m.records[(m.start+i)%len(m.records)])
	}
	return out
}

// Reset clears all retained state. Called on sign-out.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = 0
	m.count = 0
	m.window = m.window[:0]
	m.mutedTo = time.Time{}
}
