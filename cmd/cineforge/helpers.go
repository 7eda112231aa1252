package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cineforge/internal/models"
)

var titleCaser = cases.Title(language.English)

// displayStatus renders a backend status value for table output, e.g.
// "stitching_failed" becomes "Stitching Failed".
func displayStatus(status string) string {
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if max <= 0 || len(runes) <= max {
		return value
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// formatAge renders a timestamp as a coarse relative age for list output.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatClipDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1fs", seconds)
}

// formatStageProgress renders "3/6 Filming" style progress from a stage index.
func formatStageProgress(stageIndex, stageCount int) string {
	if stageIndex < 0 || stageCount <= 0 {
		return "-"
	}
	names := models.StageNames()
	name := ""
	if stageIndex < len(names) {
		name = titleCaser.String(names[stageIndex])
	}
	return fmt.Sprintf("%d/%d %s", stageIndex+1, stageCount, name)
}

func formatClipCount(completed, expected int) string {
	if expected <= 0 {
		return fmt.Sprintf("%d", completed)
	}
	return fmt.Sprintf("%d/%d", completed, expected)
}
