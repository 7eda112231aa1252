package main

import (
	"testing"
	"time"
	"unicode/utf8"
)

func TestDisplayStatus(t *testing.T) {
	cases := map[string]string{
		"producing":        "Producing",
		"stitching_failed": "Stitching Failed",
		"draft":            "Draft",
	}
	for in, want := range cases {
		if got := displayStatus(in); got != want {
			t.Fatalf("displayStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("short value should pass through, got %q", got)
	}
	if got := truncate("a long project title", 10); got != "a long ..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("tiny budget should hard cut, got %q", got)
	}
	if got := truncate("cinéma vérité on the café strip", 12); got != "cinéma vé..." {
		t.Fatalf("multibyte truncate = %q", got)
	}
	if !utf8.ValidString(truncate("日本語のタイトルです", 6)) {
		t.Fatal("truncate split a rune")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0a1b2c3d-4e5f-6789"); got != "0a1b2c3d" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("short input should pass through, got %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	if got := formatAge(time.Time{}); got != "-" {
		t.Fatalf("zero time = %q", got)
	}
	if got := formatAge(time.Now().Add(-30 * time.Second)); got != "just now" {
		t.Fatalf("recent = %q", got)
	}
	if got := formatAge(time.Now().Add(-5 * time.Minute)); got != "5m ago" {
		t.Fatalf("minutes = %q", got)
	}
	if got := formatAge(time.Now().Add(-3 * 24 * time.Hour)); got != "3d ago" {
		t.Fatalf("days = %q", got)
	}
}

func TestFormatStageProgress(t *testing.T) {
	if got := formatStageProgress(3, 6); got != "4/6 Filming" {
		t.Fatalf("stage progress = %q", got)
	}
	if got := formatStageProgress(-1, 6); got != "-" {
		t.Fatalf("unknown stage = %q", got)
	}
}

func TestFormatClipCount(t *testing.T) {
	if got := formatClipCount(4, 6); got != "4/6" {
		t.Fatalf("clip count = %q", got)
	}
	if got := formatClipCount(2, 0); got != "2" {
		t.Fatalf("clip count without expectation = %q", got)
	}
}
