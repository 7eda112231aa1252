package production_test

import (
	"testing"

	"cineforge/internal/production"
)

func TestEventLogDropsOldestWhenFull(t *testing.T) {
	log := production.NewEventLog(3)
	for _, message := range []string{"one", "two", "three", "four", "five"} {
		log.Append("%s", message)
	}

	events := log.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(events))
	}
	want := []string{"three", "four", "five"}
	for i, event := range events {
		if event.Message != want[i] {
			t.Fatalf("event %d: got %q want %q", i, event.Message, want[i])
		}
	}
	if log.Len() != 3 {
		t.Fatalf("len reported %d", log.Len())
	}
}
