package views_test

import (
	"testing"
	"time"

	"cineforge/internal/models"
	"cineforge/internal/views"
)

func sampleProjects() []models.Project {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Project{
		{ID: "p1", Title: "Neon City", Prompt: "a cyberpunk heist", Status: models.ProjectCompleted, CreatedAt: base},
		{ID: "p2", Title: "Quiet Tide", Prompt: "a fishing village drama", Status: models.ProjectProducing, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "p3", Title: "Desert Run", Prompt: "neon lights over dunes", Status: models.ProjectFailed, CreatedAt: base.Add(time.Hour)},
	}
}

func TestFilterProjectsMatchesTitleAndPrompt(t *testing.T) {
	projects := sampleProjects()
	got := views.FilterProjects(projects, "NEON")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	for _, p := range got {
		if p.ID != "p1" && p.ID != "p3" {
			t.Fatalf("unexpected match %s", p.ID)
		}
	}
}

func TestFilterProjectsEmptyQueryReturnsCopy(t *testing.T) {
	projects := sampleProjects()
	got := views.FilterProjects(projects, "  ")
	if len(got) != len(projects) {
		t.Fatalf("expected all %d projects, got %d", len(projects), len(got))
	}
	got[0].Title = "mutated"
	if projects[0].Title == "mutated" {
		t.Fatal("filter result aliases the input slice")
	}
}

func TestFilterProjectsResultIsSubset(t *testing.T) {
	projects := sampleProjects()
	byID := make(map[string]bool, len(projects))
	for _, p := range projects {
		byID[p.ID] = true
	}
	for _, query := range []string{"neon", "tide", "zzz", ""} {
		for _, p := range views.FilterProjects(projects, query) {
			if !byID[p.ID] {
				t.Fatalf("query %q produced project %s not in input", query, p.ID)
			}
		}
	}
}

func TestFilterProjectsByStatus(t *testing.T) {
	projects := sampleProjects()
	got := views.FilterProjectsByStatus(projects, []models.ProjectStatus{models.ProjectProducing})
	if len(got) != 1 || got[0].ID != "p2" {
		t.Fatalf("unexpected result %+v", got)
	}
	all := views.FilterProjectsByStatus(projects, nil)
	if len(all) != len(projects) {
		t.Fatalf("empty status set should keep everything, got %d", len(all))
	}
}

func TestSortProjectsRecentIsNonIncreasing(t *testing.T) {
	projects := sampleProjects()
	sorted := views.SortProjectsRecent(projects)
	if len(sorted) != len(projects) {
		t.Fatalf("sort changed length: %d vs %d", len(sorted), len(projects))
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].CreatedAt.After(sorted[i-1].CreatedAt) {
			t.Fatalf("not sorted at index %d", i)
		}
	}
	if projects[0].ID != "p1" {
		t.Fatal("input slice order was mutated")
	}
}

func sampleClips() []models.Clip {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return []models.Clip{
		{ID: "c1", ProjectID: "p1", ShotIndex: 2, Status: models.ClipCompleted, DurationSeconds: 4.0, UpdatedAt: base.Add(3 * time.Minute)},
		{ID: "c2", ProjectID: "p2", ShotIndex: 0, Status: models.ClipFailed, DurationSeconds: 6.5, UpdatedAt: base.Add(time.Minute)},
		{ID: "c3", ProjectID: "p1", ShotIndex: 1, Status: models.ClipCompleted, DurationSeconds: 5.0, UpdatedAt: base},
		{ID: "c4", ProjectID: "p2", ShotIndex: 1, Status: models.ClipGenerating, DurationSeconds: 0, UpdatedAt: base.Add(2 * time.Minute)},
	}
}

func TestSortClipsKeys(t *testing.T) {
	clips := sampleClips()

	byShot := views.SortClips(clips, views.SortShotOrder)
	for i := 1; i < len(byShot); i++ {
		if byShot[i].ShotIndex < byShot[i-1].ShotIndex {
			t.Fatalf("shot order violated at %d", i)
		}
	}

	byRecent := views.SortClips(clips, views.SortRecent)
	for i := 1; i < len(byRecent); i++ {
		if byRecent[i].UpdatedAt.After(byRecent[i-1].UpdatedAt) {
			t.Fatalf("recent order violated at %d", i)
		}
	}

	byDuration := views.SortClips(clips, views.SortDuration)
	for i := 1; i < len(byDuration); i++ {
		if byDuration[i].DurationSeconds > byDuration[i-1].DurationSeconds {
			t.Fatalf("duration order violated at %d", i)
		}
	}

	if len(byShot) != len(clips) || len(byRecent) != len(clips) || len(byDuration) != len(clips) {
		t.Fatal("sort changed slice length")
	}
}

func TestSortClipsRecentFallsBackToCreatedAt(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clips := []models.Clip{
		{ID: "old", ProjectID: "p1", CreatedAt: base},
		{ID: "new", ProjectID: "p1", CreatedAt: base.Add(time.Hour)},
		{ID: "touched", ProjectID: "p1", CreatedAt: base.Add(-time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}
	sorted := views.SortClips(clips, views.SortRecent)
	want := []string{"touched", "new", "old"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, sorted[i].ID, id)
		}
	}
}

func TestGroupClipsByProjectIsExactPartition(t *testing.T) {
	clips := sampleClips()
	groups := views.GroupClipsByProject(clips)

	total := 0
	seen := make(map[string]bool)
	for _, group := range groups {
		if seen[group.ProjectID] {
			t.Fatalf("project %s appears in two groups", group.ProjectID)
		}
		seen[group.ProjectID] = true
		total += len(group.Clips)
		for _, clip := range group.Clips {
			if clip.ProjectID != group.ProjectID {
				t.Fatalf("clip %s leaked into group %s", clip.ID, group.ProjectID)
			}
		}
	}
	if total != len(clips) {
		t.Fatalf("partition lost clips: %d vs %d", total, len(clips))
	}
}

func TestGroupClipsCountsAndOrder(t *testing.T) {
	groups := views.GroupClipsByProject(sampleClips())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	// p1 has the most recent clip update, so it leads.
	if groups[0].ProjectID != "p1" {
		t.Fatalf("expected p1 first, got %s", groups[0].ProjectID)
	}
	if groups[0].Completed != 2 || groups[0].Failed != 0 {
		t.Fatalf("p1 counts wrong: %+v", groups[0])
	}
	if groups[1].Completed != 0 || groups[1].Failed != 1 {
		t.Fatalf("p2 counts wrong: %+v", groups[1])
	}
}

func TestParseSortKeyDefaultsToRecent(t *testing.T) {
	key, ok := views.ParseSortKey("")
	if !ok || key != views.SortRecent {
		t.Fatalf("empty key: got %q ok=%v", key, ok)
	}
	if _, ok := views.ParseSortKey("alphabetical"); ok {
		t.Fatal("expected unknown key to fail")
	}
}
