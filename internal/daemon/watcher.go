package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cineforge/internal/backend"
	"cineforge/internal/logging"
	"cineforge/internal/models"
	"cineforge/internal/production"
	"cineforge/internal/realtime"
)

// watcher owns the realtime subscription and the per-project reconcilers. It
// subscribes once to the user's project rows and once to the clip table, then
// routes each change to the matching reconciler; clip rows for projects the
// user does not watch are dropped by project id.
type watcher struct {
	daemon *Daemon

	mu          sync.Mutex
	reconcilers map[string]*production.Reconciler
	feed        *realtime.Client
}

func newWatcher(d *Daemon) *watcher {
	return &watcher{
		daemon:      d,
		reconcilers: make(map[string]*production.Reconciler),
	}
}

// start discovers active projects, mirrors them locally, and launches the
// realtime and refresh loops.
func (w *watcher) start(ctx context.Context) error {
	d := w.daemon
	session := d.client.Session()
	if session == nil {
		return errors.New("watcher requires a signed-in session")
	}

	projects, err := d.client.ListProjects(ctx, session.UserID, d.cfg.Backend.RowLimit)
	if err != nil {
		return fmt.Errorf("discover projects: %w", err)
	}
	if err := d.store.UpsertProjects(ctx, projects); err != nil {
		d.observe(err, "mirror projects")
	}
	for _, project := range projects {
		if project.Status.IsActive() {
			w.ensureReconciler(ctx, project)
		}
	}

	feed, err := realtime.NewClient(realtime.Options{
		BaseURL:           d.cfg.Backend.URL,
		APIKey:            d.cfg.Backend.AnonKey,
		Token:             session.AccessToken,
		HeartbeatInterval: time.Duration(d.cfg.Watch.HeartbeatInterval) * time.Second,
		ReconnectAttempts: d.cfg.Watch.ReconnectAttempts,
		Logger:            d.logger,
	})
	if err != nil {
		return fmt.Errorf("create realtime client: %w", err)
	}
	if err := feed.Subscribe(realtime.Subscription{
		Table:  backend.TableProjects,
		Filter: "user_id=eq." + session.UserID,
	}, func(event realtime.ChangeEvent) {
		w.handleProjectChange(ctx, event)
	}); err != nil {
		return err
	}
	if err := feed.Subscribe(realtime.Subscription{
		Table: backend.TableClips,
	}, func(event realtime.ChangeEvent) {
		w.handleClipChange(ctx, event)
	}); err != nil {
		return err
	}

	w.mu.Lock()
	w.feed = feed
	w.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.observe(err, "realtime feed stopped")
		}
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		w.refreshLoop(ctx)
	}()

	return nil
}

func (w *watcher) stop() {
	w.mu.Lock()
	feed := w.feed
	w.feed = nil
	w.mu.Unlock()
	if feed != nil {
		feed.Close()
	}
}

func (w *watcher) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.reconcilers)
}

func (w *watcher) states() []production.State {
	w.mu.Lock()
	recs := make([]*production.Reconciler, 0, len(w.reconcilers))
	for _, rec := range w.reconcilers {
		recs = append(recs, rec)
	}
	w.mu.Unlock()

	states := make([]production.State, 0, len(recs))
	for _, rec := range recs {
		states = append(states, rec.Snapshot())
	}
	return states
}

func (w *watcher) reconciler(projectID string) *production.Reconciler {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reconcilers[projectID]
}

// watch fetches the project's current row and adds it to the watch set.
func (w *watcher) watch(ctx context.Context, projectID string) (bool, string, error) {
	if w.reconciler(projectID) != nil {
		return false, "project already watched", nil
	}
	project, err := w.daemon.client.GetProject(ctx, projectID)
	if err != nil {
		return false, "", err
	}
	if err := w.daemon.store.UpsertProject(ctx, project); err != nil {
		w.daemon.observe(err, "mirror project")
	}
	w.ensureReconciler(ctx, project)
	return true, fmt.Sprintf("watching %q", project.Title), nil
}

// ensureReconciler registers a reconciler for the project if none exists,
// then folds the given row in. Safe to call from any goroutine.
func (w *watcher) ensureReconciler(ctx context.Context, project models.Project) {
	d := w.daemon

	w.mu.Lock()
	rec, ok := w.reconcilers[project.ID]
	if !ok {
		rec = production.NewReconciler(production.Options{
			Project:  project,
			Backend:  d.client,
			Logger:   d.logger,
			EventCap: d.cfg.Watch.EventLogCap,
			OnTerminal: func(state production.State) {
				w.onTerminal(ctx, state)
			},
			OnStitch: func(state production.State) {
				w.onStitch(ctx, state)
			},
		})
		w.reconcilers[project.ID] = rec
		d.logger.Info("watching project",
			logging.String(logging.FieldProjectID, project.ID),
			logging.String("title", project.Title),
			logging.String("status", string(project.Status)))
	}
	w.mu.Unlock()

	if ok {
		rec.ApplyProject(ctx, project)
	}
}

// onStitch fires once per project, when the backend accepts final assembly.
func (w *watcher) onStitch(ctx context.Context, state production.State) {
	d := w.daemon
	d.logger.Info("stitch accepted",
		logging.String(logging.FieldProjectID, state.ProjectID),
		logging.Int("clips", state.ExpectedClips))
	if err := d.notifier.NotifyStitchTriggered(ctx, state.Title, state.ExpectedClips); err != nil {
		d.observe(err, "send notification")
	}
}

// onTerminal fires once per project, when it first reaches a terminal status.
func (w *watcher) onTerminal(ctx context.Context, state production.State) {
	d := w.daemon
	d.logger.Info("project reached terminal status",
		logging.String(logging.FieldProjectID, state.ProjectID),
		logging.String("status", string(state.Status)))

	var err error
	switch state.Status {
	case models.ProjectCompleted:
		err = d.notifier.NotifyProjectCompleted(ctx, state.Title, state.FinalVideoURL)
	case models.ProjectFailed, models.ProjectStitchingFailed:
		reason := state.ErrorMessage
		if reason == "" {
			reason = string(state.Status)
		}
		err = d.notifier.NotifyProjectFailed(ctx, state.Title, reason)
	}
	if err != nil {
		d.observe(err, "send notification")
	}
}

// handleProjectChange mirrors the row and routes it to its reconciler. New
// active projects start a watch automatically so a project created from
// another device still gets followed here.
func (w *watcher) handleProjectChange(ctx context.Context, event realtime.ChangeEvent) {
	d := w.daemon

	if event.Type == realtime.EventDelete {
		var old models.Project
		if err := json.Unmarshal(event.Old, &old); err == nil && old.ID != "" {
			if err := d.store.DeleteProject(ctx, old.ID); err != nil {
				d.observe(err, "mirror project delete")
			}
			w.mu.Lock()
			delete(w.reconcilers, old.ID)
			w.mu.Unlock()
		}
		return
	}

	var project models.Project
	if err := json.Unmarshal(event.New, &project); err != nil {
		d.observe(err, "decode project change")
		return
	}
	if project.ID == "" {
		return
	}
	if err := d.store.UpsertProject(ctx, project); err != nil {
		d.observe(err, "mirror project")
	}

	if rec := w.reconciler(project.ID); rec != nil {
		rec.ApplyProject(ctx, project)
		return
	}
	if project.Status.IsActive() {
		w.ensureReconciler(ctx, project)
	}
}

// handleClipChange mirrors the clip and routes it to the owning project's
// reconciler. Clips for unwatched projects are mirrored only.
func (w *watcher) handleClipChange(ctx context.Context, event realtime.ChangeEvent) {
	d := w.daemon

	if event.Type == realtime.EventDelete {
		return
	}

	var clip models.Clip
	if err := json.Unmarshal(event.New, &clip); err != nil {
		d.observe(err, "decode clip change")
		return
	}
	if clip.ProjectID == "" {
		return
	}
	if err := d.store.UpsertClip(ctx, clip); err != nil {
		d.observe(err, "mirror clip")
	}

	if rec := w.reconciler(clip.ProjectID); rec != nil {
		rec.ApplyClipChange(ctx, event.New)
	}
}

// refreshLoop periodically refetches the project list so display state heals
// after dropped realtime events.
func (w *watcher) refreshLoop(ctx context.Context) {
	d := w.daemon
	interval := time.Duration(d.cfg.Watch.RefreshInterval) * time.Second
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *watcher) refresh(ctx context.Context) {
	d := w.daemon
	session := d.client.Session()
	if session == nil {
		return
	}
	projects, err := d.client.ListProjects(ctx, session.UserID, d.cfg.Backend.RowLimit)
	if err != nil {
		d.observe(err, "refresh projects")
		return
	}
	if err := d.store.UpsertProjects(ctx, projects); err != nil {
		d.observe(err, "mirror projects")
	}
	for _, project := range projects {
		if rec := w.reconciler(project.ID); rec != nil {
			rec.ApplyProject(ctx, project)
		} else if project.Status.IsActive() {
			w.ensureReconciler(ctx, project)
		}
	}

	w.refreshCredits(ctx, session.UserID)
}

// refreshCredits mirrors the credit history and raises the low-balance alert
// when the summed balance sits below the configured threshold.
func (w *watcher) refreshCredits(ctx context.Context, userID string) {
	d := w.daemon
	transactions, err := d.client.ListCredits(ctx, userID, d.cfg.Backend.RowLimit)
	if err != nil {
		d.observe(err, "refresh credits")
		return
	}
	if err := d.store.ReplaceCredits(ctx, transactions); err != nil {
		d.observe(err, "mirror credits")
	}
	summary := models.SummarizeCredits(transactions)
	if err := d.notifier.NotifyCreditsLow(ctx, summary.Balance); err != nil {
		d.observe(err, "send notification")
	}
}
