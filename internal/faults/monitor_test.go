package faults

import (
	"errors"
	"testing"
	"time"
)

func TestMonitorThrottlesBursts(t *testing.T) {
	m := NewMonitor(MonitorOptions{ThrottleLimit: 3, ThrottleWindow: 30 * time.Second, Cooloff: time.Minute})
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		if _, surface := m.Observe(errors.New("dial tcp: connection refused")); !surface {
			t.Fatalf("observation %d within the limit should surface", i)
		}
		current = current.Add(time.Second)
	}

	if _, surface := m.Observe(errors.New("dial tcp: connection refused")); surface {
		t.Fatal("burst overflow should be muted")
	}

	current = current.Add(30 * time.Second)
	if _, surface := m.Observe(errors.New("dial tcp: connection refused")); surface {
		t.Fatal("observation during the cooloff should stay muted")
	}

	current = current.Add(2 * time.Minute)
	if _, surface := m.Observe(errors.New("dial tcp: connection refused")); !surface {
		t.Fatal("observation after the cooloff should surface again")
	}
}

func TestMonitorSpacedFailuresNeverMute(t *testing.T) {
	m := NewMonitor(MonitorOptions{ThrottleLimit: 2, ThrottleWindow: 10 * time.Second, Cooloff: time.Minute})
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	for i := 0; i < 6; i++ {
		if _, surface := m.Observe(errors.New("stitch request failed")); !surface {
			t.Fatalf("spaced observation %d should surface", i)
		}
		current = current.Add(11 * time.Second)
	}
}
