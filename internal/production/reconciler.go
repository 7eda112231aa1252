package production

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"cineforge/internal/backend"
	"cineforge/internal/logging"
	"cineforge/internal/models"
)

// Backend is the slice of the backend client the reconciler needs.
type Backend interface {
	TriggerStitch(ctx context.Context, projectID string) (backend.StitchResponse, error)
	ListClips(ctx context.Context, projectID string) ([]models.Clip, error)
}

// State is the reconciler's display snapshot.
type State struct {
	ProjectID      string
	Title          string
	Status         models.ProjectStatus
	StageIndex     int
	StagePercent   float64
	StageMessage   string
	FinalVideoURL  string
	ErrorMessage   string
	CompletedClips int
	ExpectedClips  int
	Clips          []models.Clip
	StitchRequested bool
}

// Options configures a reconciler.
type Options struct {
	Project models.Project
	Backend Backend
	Logger  *slog.Logger
	// EventCap bounds the retained log lines (default 100).
	EventCap int
	// OnTerminal fires once when the project reaches a terminal status.
	OnTerminal func(State)
	// OnStitch fires once when the backend accepts the stitch request.
	OnStitch func(State)
}

// Reconciler folds server-pushed project and clip changes into local display
// state and owns the one derived side effect: requesting final assembly when
// every expected clip has completed. The stitch request fires at most once
// per reconciler, guarded by an atomic flag since project and clip feeds are
// delivered concurrently here, unlike the single-threaded original.
type Reconciler struct {
	projectID  string
	be         Backend
	logger     *slog.Logger
	events     *EventLog
	onTerminal func(State)
	onStitch   func(State)

	stitchRequested atomic.Bool
	terminalFired   atomic.Bool

	mu    sync.Mutex
	state State
}

// NewReconciler seeds a reconciler from the project's current row.
func NewReconciler(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	project := opts.Project
	r := &Reconciler{
		projectID:  project.ID,
		be:         opts.Backend,
		logger:     logger.With(logging.String(logging.FieldComponent, "production"), logging.String(logging.FieldProjectID, project.ID)),
		events:     NewEventLog(opts.EventCap),
		onTerminal: opts.OnTerminal,
		onStitch:   opts.OnStitch,
	}
	r.state = State{
		ProjectID:     project.ID,
		Title:         project.Title,
		Status:        project.Status,
		StageIndex:    models.StageIndex(project.Progress().Stage),
		FinalVideoURL: project.FinalVideoURL,
		ErrorMessage:  project.ErrorMessage,
		ExpectedClips: project.ExpectedClipCount,
	}
	return r
}

// Snapshot returns a copy of the current display state.
func (r *Reconciler) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := r.state
	state.Clips = append([]models.Clip(nil), r.state.Clips...)
	state.StitchRequested = r.stitchRequested.Load()
	return state
}

// Events returns the retained log lines, oldest first.
func (r *Reconciler) Events() []Event {
	return r.events.Snapshot()
}

// Done reports whether the project has reached a terminal status.
func (r *Reconciler) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Status.IsTerminal()
}

// ApplyProjectChange folds a project UPDATE payload into the state.
func (r *Reconciler) ApplyProjectChange(ctx context.Context, raw json.RawMessage) {
	var project models.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		r.logger.Warn("project payload dropped", logging.Error(err))
		return
	}
	r.ApplyProject(ctx, project)
}

// ApplyProject folds a decoded project row into the state.
func (r *Reconciler) ApplyProject(ctx context.Context, project models.Project) {
	r.mu.Lock()
	if status, ok := models.ParseProjectStatus(string(project.Status)); ok {
		if r.state.Status != status {
			r.events.Append("project status: %s", status)
		}
		r.state.Status = status
	}
	if project.Title != "" {
		r.state.Title = project.Title
	}
	if project.FinalVideoURL != "" {
		r.state.FinalVideoURL = project.FinalVideoURL
	}
	if project.ErrorMessage != "" {
		r.state.ErrorMessage = project.ErrorMessage
	}
	if project.ExpectedClipCount > 0 {
		r.state.ExpectedClips = project.ExpectedClipCount
	}

	progress := project.Progress()
	if idx := models.StageIndex(progress.Stage); idx >= 0 {
		// Prior stages are implicitly complete; an unknown name (-1) is
		// ignored so the display never regresses on vocabulary drift.
		if idx != r.state.StageIndex {
			r.events.Append("stage: %s", progress.Stage)
		}
		r.state.StageIndex = idx
	}
	if progress.Percent > 0 {
		r.state.StagePercent = progress.Percent
	}
	if progress.Message != "" {
		r.state.StageMessage = progress.Message
	}
	if progress.ClipsDone > r.state.CompletedClips {
		r.state.CompletedClips = progress.ClipsDone
	}
	r.mu.Unlock()

	r.maybeTriggerStitch(ctx)
	r.maybeFireTerminal()
}

// ApplyClipChange folds a clip INSERT/UPDATE payload into the state. A clip
// reaching completed re-fetches the full clip list; the original client never
// merged incrementally and a project has few clips.
func (r *Reconciler) ApplyClipChange(ctx context.Context, raw json.RawMessage) {
	var clip models.Clip
	if err := json.Unmarshal(raw, &clip); err != nil {
		r.logger.Warn("clip payload dropped", logging.Error(err))
		return
	}

	if clip.Status == models.ClipCompleted {
		r.events.Append("clip %d completed", clip.ShotIndex)
		r.refreshClips(ctx)
	} else if clip.Status == models.ClipFailed {
		r.events.Append("clip %d failed: %s", clip.ShotIndex, clip.ErrorMessage)
	}

	r.maybeTriggerStitch(ctx)
}

func (r *Reconciler) refreshClips(ctx context.Context) {
	clips, err := r.be.ListClips(ctx, r.projectID)
	if err != nil {
		r.events.Append("clip refresh failed: %v", err)
		r.logger.Warn("clip refresh failed", logging.Error(err))
		return
	}
	completed := 0
	for _, clip := range clips {
		if clip.Status == models.ClipCompleted {
			completed++
		}
	}
	r.mu.Lock()
	r.state.Clips = clips
	// Completion count is monotonic per project; a stale fetch must not
	// walk the display backwards.
	if completed > r.state.CompletedClips {
		r.state.CompletedClips = completed
	}
	r.mu.Unlock()
}

// maybeTriggerStitch requests final assembly exactly once when every expected
// clip has completed and the project is not already past producing.
func (r *Reconciler) maybeTriggerStitch(ctx context.Context) {
	r.mu.Lock()
	ready := r.state.ExpectedClips > 0 &&
		r.state.CompletedClips >= r.state.ExpectedClips &&
		!stitchIneligible(r.state.Status)
	r.mu.Unlock()
	if !ready {
		return
	}
	if !r.stitchRequested.CompareAndSwap(false, true) {
		return
	}

	r.events.Append("all %d clips complete, requesting stitch", r.Snapshot().ExpectedClips)
	r.logger.Info("triggering stitch")

	resp, err := r.be.TriggerStitch(ctx, r.projectID)
	if err != nil {
		// No client-side retry: the orchestrator owns recovery, and the user
		// can re-run stitch explicitly.
		r.events.Append("stitch request failed: %v", err)
		r.logger.Warn("stitch request failed", logging.Error(err))
		return
	}

	r.mu.Lock()
	if status, ok := models.ParseProjectStatus(string(resp.Status)); ok {
		r.state.Status = status
	}
	if resp.FinalVideoURL != "" {
		r.state.FinalVideoURL = resp.FinalVideoURL
	}
	r.mu.Unlock()
	r.events.Append("stitch accepted")
	if r.onStitch != nil {
		r.onStitch(r.Snapshot())
	}
	r.maybeFireTerminal()
}

func (r *Reconciler) maybeFireTerminal() {
	r.mu.Lock()
	terminal := r.state.Status.IsTerminal()
	r.mu.Unlock()
	if !terminal || r.onTerminal == nil {
		return
	}
	if !r.terminalFired.CompareAndSwap(false, true) {
		return
	}
	r.onTerminal(r.Snapshot())
}

func stitchIneligible(status models.ProjectStatus) bool {
	switch status {
	case models.ProjectStitching, models.ProjectCompleted, models.ProjectFailed, models.ProjectStitchingFailed:
		return true
	default:
		return false
	}
}
