package faults_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cineforge/internal/backend"
	"cineforge/internal/faults"
)

func TestClassifyTypedErrorsFirst(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want faults.Kind
	}{
		{"unauthorized sentinel", backend.ErrUnauthorized, faults.KindAuth},
		{"wrapped unauthorized", fmt.Errorf("list projects: %w", backend.ErrUnauthorized), faults.KindAuth},
		{"deadline", context.DeadlineExceeded, faults.KindTimeout},
		{"canceled", context.Canceled, faults.KindAsyncRace},
		{"api 403", &backend.APIError{Status: 403, Message: "nope"}, faults.KindAuth},
		{"api 504", &backend.APIError{Status: 504, Message: "upstream"}, faults.KindTimeout},
		{"api 500", &backend.APIError{Status: 500, Message: "boom"}, faults.KindNetwork},
	}
	for _, tc := range cases {
		if got := faults.Classify(tc.err); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassifyMessageFallback(t *testing.T) {
	cases := []struct {
		err  error
		want faults.Kind
	}{
		{errors.New("dial tcp 10.0.0.1:443: connection refused"), faults.KindNetwork},
		{errors.New("JWT expired"), faults.KindAuth},
		{errors.New("request timed out"), faults.KindTimeout},
		{errors.New("operation was aborted"), faults.KindAsyncRace},
		{errors.New("hydration mismatch in chunk 7"), faults.KindRender},
		{errors.New("mirror row inconsistent with feed"), faults.KindStateCorruption},
		{errors.New("weird"), faults.KindUnknown},
	}
	for _, tc := range cases {
		if got := faults.Classify(tc.err); got != tc.want {
			t.Fatalf("%q: got %q want %q", tc.err, got, tc.want)
		}
	}
}

func TestShouldSuppress(t *testing.T) {
	suppressed := []string{
		"ResizeObserver loop limit exceeded",
		"Get \"https://x\": context canceled",
		"write: use of closed network connection",
	}
	for _, message := range suppressed {
		if !faults.ShouldSuppress(message) {
			t.Fatalf("expected %q to be suppressed", message)
		}
	}
	if faults.ShouldSuppress("stitch request failed: http 500") {
		t.Fatal("real failure must not be suppressed")
	}
}

func TestMonitorObserveSurfacesAndRecords(t *testing.T) {
	monitor := faults.NewMonitor(faults.MonitorOptions{})
	kind, surface := monitor.Observe(errors.New("dial tcp: connection refused"))
	if kind != faults.KindNetwork {
		t.Fatalf("unexpected kind %q", kind)
	}
	if !surface {
		t.Fatal("first failure should surface")
	}

	_, surface = monitor.Observe(errors.New("request aborted by client"))
	if surface {
		t.Fatal("suppressed message must not surface")
	}

	records := monitor.Recent()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	monitor.Reset()
	if len(monitor.Recent()) != 0 {
		t.Fatal("reset should clear records")
	}
}

func TestMonitorRecordCapBoundsBuffer(t *testing.T) {
	monitor := faults.NewMonitor(faults.MonitorOptions{RecordCap: 3, ThrottleLimit: 1000})
	for i := 0; i < 10; i++ {
		monitor.Observe(fmt.Errorf("failure %d", i))
	}
	records := monitor.Recent()
	if len(records) != 3 {
		t.Fatalf("expected 3 retained records, got %d", len(records))
	}
	if records[0].Message != "failure 7" || records[2].Message != "failure 9" {
		t.Fatalf("unexpected retention window: %q .. %q", records[0].Message, records[2].Message)
	}
}
