package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"cineforge/internal/backend"
	"cineforge/internal/cache"
	"cineforge/internal/config"
	"cineforge/internal/faults"
	"cineforge/internal/logging"
	"cineforge/internal/notifications"
	"cineforge/internal/production"
)

// Daemon coordinates the watcher services and enforces single-instance
// execution. It holds the realtime subscription, one reconciler per watched
// project, the local row mirror, and the shared failure monitor.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *backend.Client
	store    *cache.Store
	notifier notifications.Service
	monitor  *faults.Monitor
	watcher  *watcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	wg      sync.WaitGroup

	errMu   sync.Mutex
	lastErr string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	UserEmail    string
	WatchCount   int
	LastError    string
	LockPath     string
	MirrorDBPath string
	PID          int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, client *backend.Client, store *cache.Store, logger *slog.Logger, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || client == nil || store == nil {
		return nil, errors.New("daemon requires config, backend client, and cache store")
	}
	if client.Session() == nil {
		return nil, errors.New("daemon requires a signed-in session")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "cineforged.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		store:    store,
		notifier: notifier,
		monitor:  faults.NewMonitor(faults.MonitorOptions{}),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.watcher = newWatcher(d)
	return d, nil
}

// Start acquires the daemon lock, discovers active projects, and launches the
// realtime watcher loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cineforge daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.stopped = make(chan struct{})
	if err := d.watcher.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start watcher: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("cineforge daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("watched_projects", d.watcher.count()))
	return nil
}

// Stop stops the watcher and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	if d.stopped != nil {
		close(d.stopped)
	}
	d.logger.Info("cineforge daemon stopped")
}

// Done reports daemon shutdown; the returned channel closes when a started
// daemon stops. Must be called after Start.
func (d *Daemon) Done() <-chan struct{} {
	return d.stopped
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	email := ""
	if session := d.client.Session(); session != nil {
		email = session.Email
	}
	return Status{
		Running:      d.running.Load(),
		UserEmail:    email,
		WatchCount:   d.watcher.count(),
		LastError:    d.lastError(),
		LockPath:     d.lockPath,
		MirrorDBPath: d.store.Path(),
		PID:          os.Getpid(),
	}
}

// Watches returns each watched project's reconciled display state, newest
// activity first is not guaranteed; callers sort for display.
func (d *Daemon) Watches() []production.State {
	return d.watcher.states()
}

// ProductionStatus returns one watched project's snapshot and event lines.
func (d *Daemon) ProductionStatus(projectID string) (production.State, []production.Event, error) {
	rec := d.watcher.reconciler(projectID)
	if rec == nil {
		return production.State{}, nil, fmt.Errorf("project %s is not watched", projectID)
	}
	return rec.Snapshot(), rec.Events(), nil
}

// Watch adds a project to the watch set, fetching its current row first.
func (d *Daemon) Watch(ctx context.Context, projectID string) (bool, string, error) {
	if !d.running.Load() {
		return false, "daemon is not running", nil
	}
	return d.watcher.watch(ctx, projectID)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// observe routes a failure through the shared monitor. Surfaced failures log
// at warn and become the reported last error; suppressed or throttled ones
// stay at debug.
func (d *Daemon) observe(err error, context string) {
	if err == nil {
		return
	}
	kind, surface := d.monitor.Observe(err)
	if surface {
		d.errMu.Lock()
		d.lastErr = fmt.Sprintf("%s: %v", context, err)
		d.errMu.Unlock()
		d.logger.Warn(context,
			logging.Error(err),
			logging.String("fault_kind", string(kind)))
		return
	}
	d.logger.Debug(context+" (muted)",
		logging.Error(err),
		logging.String("fault_kind", string(kind)))
}

func (d *Daemon) lastError() string {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.lastErr
}
