package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"cineforge/internal/backend"
	"cineforge/internal/cache"
	"cineforge/internal/config"
	"cineforge/internal/logging"
	"cineforge/internal/models"
	"cineforge/internal/realtime"
)

// recordingNotifier captures notification calls for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
	stitches  []string
	credits   []int64
}

func (r *recordingNotifier) NotifyProjectCompleted(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, title)
	return nil
}

func (r *recordingNotifier) NotifyProjectFailed(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, title)
	return nil
}

func (r *recordingNotifier) NotifyStitchTriggered(_ context.Context, title string, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stitches = append(r.stitches, title)
	return nil
}

func (r *recordingNotifier) NotifyCreditsLow(_ context.Context, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credits = append(r.credits, balance)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func newTestWatcher(t *testing.T, handler http.HandlerFunc) (*Daemon, *watcher, *recordingNotifier) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Backend.URL = server.URL
	cfg.Backend.AnonKey = "anon-key"
	cfg.Paths.DataDir = dir
	cfg.Paths.LogDir = dir

	client := backend.NewClient(server.URL, "anon-key",
		backend.WithSession(&backend.Session{AccessToken: "jwt-access", UserID: "user-1", Email: "ada@example.com"}))
	store, err := cache.OpenPath(filepath.Join(dir, "mirror.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	notifier := &recordingNotifier{}
	d, err := New(&cfg, client, store, logging.NewNop(), notifier)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d, d.watcher, notifier
}

func projectEvent(t *testing.T, eventType string, project models.Project) realtime.ChangeEvent {
	t.Helper()
	raw, err := json.Marshal(project)
	if err != nil {
		t.Fatalf("marshal project: %v", err)
	}
	event := realtime.ChangeEvent{Table: backend.TableProjects, Type: eventType}
	if eventType == realtime.EventDelete {
		event.Old = raw
	} else {
		event.New = raw
	}
	return event
}

func clipEvent(t *testing.T, clip models.Clip) realtime.ChangeEvent {
	t.Helper()
	raw, err := json.Marshal(clip)
	if err != nil {
		t.Fatalf("marshal clip: %v", err)
	}
	return realtime.ChangeEvent{Table: backend.TableClips, Type: realtime.EventUpdate, New: raw}
}

func TestWatcherRoutesProjectChanges(t *testing.T) {
	d, w, notifier := newTestWatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	w.handleProjectChange(ctx, projectEvent(t, realtime.EventInsert, models.Project{
		ID: "p1", Title: "Neon City", Status: models.ProjectProducing, ExpectedClipCount: 3,
	}))
	if w.reconciler("p1") == nil {
		t.Fatal("active project insert should start a watch")
	}
	mirrored, err := d.store.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("mirrored project missing: %v", err)
	}
	if mirrored.Title != "Neon City" {
		t.Fatalf("mirrored title = %q", mirrored.Title)
	}

	w.handleProjectChange(ctx, projectEvent(t, realtime.EventUpdate, models.Project{
		ID: "p1", Title: "Neon City", Status: models.ProjectCompleted, FinalVideoURL: "https://cdn/final.mp4",
	}))
	state := w.reconciler("p1").Snapshot()
	if state.Status != models.ProjectCompleted {
		t.Fatalf("reconciler did not fold the update, status = %q", state.Status)
	}
	notifier.mu.Lock()
	completed := append([]string(nil), notifier.completed...)
	notifier.mu.Unlock()
	if len(completed) != 1 || completed[0] != "Neon City" {
		t.Fatalf("completion notification = %v", completed)
	}

	w.handleProjectChange(ctx, projectEvent(t, realtime.EventDelete, models.Project{ID: "p1"}))
	if w.reconciler("p1") != nil {
		t.Fatal("delete should drop the watch")
	}
	if _, err := d.store.GetProject(ctx, "p1"); err == nil {
		t.Fatal("delete should remove the mirrored row")
	}
}

func TestWatcherClipRoutingTriggersStitch(t *testing.T) {
	d, w, notifier := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/video_clips":
			rw.Write([]byte(`[
				{"id":"c1","project_id":"p1","shot_index":1,"status":"completed"},
				{"id":"c2","project_id":"p1","shot_index":2,"status":"completed"}
			]`))
		case "/functions/v1/auto-stitch-trigger":
			rw.Write([]byte(`{"status":"stitching"}`))
		default:
			rw.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	project := models.Project{
		ID: "p1", Title: "Neon City", Status: models.ProjectProducing, ExpectedClipCount: 2,
	}
	if err := d.store.UpsertProject(ctx, project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	w.ensureReconciler(ctx, project)

	w.handleClipChange(ctx, clipEvent(t, models.Clip{
		ID: "c2", ProjectID: "p1", ShotIndex: 2, Status: models.ClipCompleted,
	}))

	mirrored, err := d.store.ListClips(ctx, "p1")
	if err != nil {
		t.Fatalf("list mirrored clips: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0].ID != "c2" {
		t.Fatalf("clip should be mirrored, got %+v", mirrored)
	}
	state := w.reconciler("p1").Snapshot()
	if state.CompletedClips != 2 {
		t.Fatalf("completed clips = %d, want 2", state.CompletedClips)
	}
	if !state.StitchRequested {
		t.Fatal("all clips done should request the stitch")
	}
	notifier.mu.Lock()
	stitches := append([]string(nil), notifier.stitches...)
	notifier.mu.Unlock()
	if len(stitches) != 1 || stitches[0] != "Neon City" {
		t.Fatalf("stitch notification = %v", stitches)
	}
}

func TestWatcherMirrorsClipsForUnwatchedProjects(t *testing.T) {
	d, w, notifier := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`[]`))
	})
	ctx := context.Background()

	// Mirrored but inactive projects stay out of the watch set.
	if err := d.store.UpsertProject(ctx, models.Project{
		ID: "p9", Title: "Quiet Tide", Status: models.ProjectCompleted,
	}); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	w.handleClipChange(ctx, clipEvent(t, models.Clip{
		ID: "c7", ProjectID: "p9", ShotIndex: 1, Status: models.ClipCompleted,
	}))

	mirrored, err := d.store.ListClips(ctx, "p9")
	if err != nil {
		t.Fatalf("list mirrored clips: %v", err)
	}
	if len(mirrored) != 1 || mirrored[0].ID != "c7" {
		t.Fatalf("clip should be mirrored even when unwatched, got %+v", mirrored)
	}
	if w.reconciler("p9") != nil {
		t.Fatal("clip events must not start a watch")
	}
	notifier.mu.Lock()
	stitches := len(notifier.stitches)
	notifier.mu.Unlock()
	if stitches != 0 {
		t.Fatalf("unexpected stitch notifications: %d", stitches)
	}
}

func TestWatcherRefreshCreditsAlertsBalance(t *testing.T) {
	d, w, notifier := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/v1/credit_transactions" {
			rw.Write([]byte(`[
				{"id":"t1","user_id":"user-1","amount":100,"type":"purchase"},
				{"id":"t2","user_id":"user-1","amount":-90,"type":"usage"}
			]`))
			return
		}
		rw.Write([]byte(`[]`))
	})
	ctx := context.Background()

	w.refreshCredits(ctx, "user-1")

	mirrored, err := d.store.ListCredits(ctx, 0)
	if err != nil {
		t.Fatalf("list mirrored credits: %v", err)
	}
	if len(mirrored) != 2 {
		t.Fatalf("mirrored %d transactions, want 2", len(mirrored))
	}
	notifier.mu.Lock()
	credits := append([]int64(nil), notifier.credits...)
	notifier.mu.Unlock()
	if len(credits) != 1 || credits[0] != 10 {
		t.Fatalf("credit balance notification = %v", credits)
	}
}
