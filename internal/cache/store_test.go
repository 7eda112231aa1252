package cache_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cineforge/internal/cache"
	"cineforge/internal/models"
)

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.OpenPath(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProjectMirrorRoundtrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	project := models.Project{
		ID:                "p1",
		OwnerID:           "user-1",
		Title:             "Neon City",
		Prompt:            "a heist in the rain",
		Mode:              "movie",
		Status:            models.ProjectProducing,
		AspectRatio:       "16:9",
		ExpectedClipCount: 6,
		CreatedAt:         time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2026, 2, 1, 10, 5, 0, 0, time.UTC),
	}
	if err := store.UpsertProject(ctx, project); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != project.Title || got.Status != models.ProjectProducing || got.ExpectedClipCount != 6 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}

	project.Status = models.ProjectCompleted
	project.FinalVideoURL = "https://cdn/final.mp4"
	if err := store.UpsertProject(ctx, project); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	got, err = store.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Status != models.ProjectCompleted || got.FinalVideoURL != "https://cdn/final.mp4" {
		t.Fatalf("update not applied: %+v", got)
	}

	if _, err := store.GetProject(ctx, "missing"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProjectsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"p1", "p2", "p3"} {
		err := store.UpsertProject(ctx, models.Project{
			ID:        id,
			Status:    models.ProjectDraft,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	projects, err := store.ListProjects(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != "p3" || projects[1].ID != "p2" {
		t.Fatalf("unexpected order/limit: %+v", projects)
	}
}

func TestActiveProjectsFiltersByStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	statuses := map[string]models.ProjectStatus{
		"p1": models.ProjectDraft,
		"p2": models.ProjectProducing,
		"p3": models.ProjectCompleted,
		"p4": models.ProjectStitching,
		"p5": models.ProjectFailed,
	}
	for id, status := range statuses {
		if err := store.UpsertProject(ctx, models.Project{ID: id, Status: status}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	active, err := store.ActiveProjects(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	got := map[string]bool{}
	for _, p := range active {
		got[p.ID] = true
	}
	if len(got) != 2 || !got["p2"] || !got["p4"] {
		t.Fatalf("unexpected active set: %v", got)
	}
}

func TestReplaceClipsSwapsSetAndCascades(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.UpsertProject(ctx, models.Project{ID: "p1", Status: models.ProjectProducing}); err != nil {
		t.Fatalf("upsert project: %v", err)
	}

	first := []models.Clip{
		{ID: "c2", ProjectID: "p1", ShotIndex: 2, Status: models.ClipGenerating},
		{ID: "c1", ProjectID: "p1", ShotIndex: 1, Status: models.ClipCompleted, VideoURL: "https://cdn/c1.mp4"},
	}
	if err := store.ReplaceClips(ctx, "p1", first); err != nil {
		t.Fatalf("replace clips: %v", err)
	}
	clips, err := store.ListClips(ctx, "p1")
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(clips) != 2 || clips[0].ID != "c1" || clips[1].ID != "c2" {
		t.Fatalf("expected shot order, got %+v", clips)
	}

	second := []models.Clip{{ID: "c3", ProjectID: "p1", ShotIndex: 1, Status: models.ClipPending}}
	if err := store.ReplaceClips(ctx, "p1", second); err != nil {
		t.Fatalf("replace clips again: %v", err)
	}
	clips, err = store.ListClips(ctx, "p1")
	if err != nil {
		t.Fatalf("list clips after swap: %v", err)
	}
	if len(clips) != 1 || clips[0].ID != "c3" {
		t.Fatalf("swap did not replace the set: %+v", clips)
	}

	if err := store.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	clips, err = store.ListClips(ctx, "p1")
	if err != nil {
		t.Fatalf("list clips after delete: %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("clips should cascade with the project: %+v", clips)
	}
}

func TestReplaceCreditsRoundtrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	transactions := []models.CreditTransaction{
		{ID: "t1", OwnerID: "user-1", Amount: 100, Type: models.CreditPurchase, CreatedAt: base},
		{ID: "t2", OwnerID: "user-1", Amount: -40, Type: models.CreditUsage, CreatedAt: base.Add(time.Hour)},
	}
	if err := store.ReplaceCredits(ctx, transactions); err != nil {
		t.Fatalf("replace credits: %v", err)
	}

	got, err := store.ListCredits(ctx, 0)
	if err != nil {
		t.Fatalf("list credits: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t2" || got[1].ID != "t1" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got[0].Amount != -40 || got[0].Type != models.CreditUsage {
		t.Fatalf("unexpected row %+v", got[0])
	}

	if err := store.ReplaceCredits(ctx, nil); err != nil {
		t.Fatalf("clear credits: %v", err)
	}
	got, err = store.ListCredits(ctx, 0)
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %+v", got)
	}
}
