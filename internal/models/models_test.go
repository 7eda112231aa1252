package models_test

import (
	"encoding/json"
	"testing"

	"cineforge/internal/models"
)

func TestParseProjectStatus(t *testing.T) {
	status, ok := models.ParseProjectStatus("  Producing ")
	if !ok {
		t.Fatal("expected producing to parse")
	}
	if status != models.ProjectProducing {
		t.Fatalf("unexpected status %q", status)
	}
	if _, ok := models.ParseProjectStatus("exploded"); ok {
		t.Fatal("expected unknown status to fail")
	}
}

func TestProjectStatusTerminalAndActive(t *testing.T) {
	terminal := []models.ProjectStatus{
		models.ProjectCompleted,
		models.ProjectFailed,
		models.ProjectStitchingFailed,
	}
	for _, status := range terminal {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
		if status.IsActive() {
			t.Fatalf("%s should not be active", status)
		}
	}
	active := []models.ProjectStatus{
		models.ProjectGenerating,
		models.ProjectProducing,
		models.ProjectRendering,
		models.ProjectStitching,
	}
	for _, status := range active {
		if !status.IsActive() {
			t.Fatalf("%s should be active", status)
		}
		if status.IsTerminal() {
			t.Fatalf("%s should not be terminal", status)
		}
	}
	if models.ProjectDraft.IsActive() || models.ProjectDraft.IsTerminal() {
		t.Fatal("draft should be neither active nor terminal")
	}
}

func TestStageIndexUnknownName(t *testing.T) {
	if idx := models.StageIndex("filming"); idx != 3 {
		t.Fatalf("filming index: got %d want 3", idx)
	}
	if idx := models.StageIndex("color-grading"); idx != -1 {
		t.Fatalf("unknown stage: got %d want -1", idx)
	}
	if idx := models.StageIndex(""); idx != -1 {
		t.Fatalf("empty stage: got %d want -1", idx)
	}
}

func TestStageNamesAreOrdered(t *testing.T) {
	names := models.StageNames()
	if len(names) != models.StageCount() {
		t.Fatalf("stage count mismatch: %d vs %d", len(names), models.StageCount())
	}
	for i, name := range names {
		if models.StageIndex(name) != i {
			t.Fatalf("stage %q index mismatch", name)
		}
	}
}

func TestProgressDecodesTaskBlob(t *testing.T) {
	project := models.Project{
		Task: json.RawMessage(`{"stage":"editing","percent":62.5,"message":"cutting scenes","clips_done":4,"extra":"ignored"}`),
	}
	progress := project.Progress()
	if progress.Stage != "editing" {
		t.Fatalf("unexpected stage %q", progress.Stage)
	}
	if progress.Percent != 62.5 {
		t.Fatalf("unexpected percent %v", progress.Percent)
	}
	if progress.ClipsDone != 4 {
		t.Fatalf("unexpected clips_done %d", progress.ClipsDone)
	}
}

func TestProgressToleratesMalformedBlob(t *testing.T) {
	project := models.Project{Task: json.RawMessage(`{"stage":`)}
	progress := project.Progress()
	if progress.Stage != "" || progress.Percent != 0 {
		t.Fatalf("expected zero progress, got %+v", progress)
	}
}

func TestSummarizeCredits(t *testing.T) {
	transactions := []models.CreditTransaction{
		{Amount: 100, Type: models.CreditPurchase},
		{Amount: 25, Type: models.CreditBonus},
		{Amount: -40, Type: models.CreditUsage},
		{Amount: -10, Type: models.CreditUsage},
	}
	summary := models.SummarizeCredits(transactions)
	if summary.Balance != 75 {
		t.Fatalf("balance: got %d want 75", summary.Balance)
	}
	if summary.Purchased != 100 {
		t.Fatalf("purchased: got %d want 100", summary.Purchased)
	}
	if summary.Bonus != 25 {
		t.Fatalf("bonus: got %d want 25", summary.Bonus)
	}
	if summary.Spent != 50 {
		t.Fatalf("spent: got %d want 50", summary.Spent)
	}
}
