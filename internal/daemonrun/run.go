package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"cineforge/internal/backend"
	"cineforge/internal/cache"
	"cineforge/internal/config"
	"cineforge/internal/daemon"
	"cineforge/internal/ipc"
	"cineforge/internal/logging"
	"cineforge/internal/notifications"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// SocketPath overrides the config-derived IPC socket location.
	SocketPath string
}

// SocketPath returns the IPC socket location for the given configuration.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "cineforged.sock")
}

// CurrentLogPath returns the stable symlink to the current run's log file.
func CurrentLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "cineforged.log")
}

// Run starts the cineforge daemon runtime loop and blocks until a signal
// arrives or the daemon is stopped over IPC.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("cineforged-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update cineforged.log link: %v\n", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "cineforged.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	session, err := backend.LoadSession(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return errors.New("not signed in; run `cineforge login` before starting the daemon")
	}

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey,
		backend.WithSession(session),
		backend.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Backend.RequestTimeout) * time.Second}))
	if session.Expired() {
		refreshed, err := client.Refresh(signalCtx)
		if err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}
		if err := backend.SaveSession(cfg.Session.Path, refreshed); err != nil {
			logger.Warn("failed to persist refreshed session", logging.Error(err))
		}
	}

	store, err := cache.Open(cfg)
	if err != nil {
		logger.Error("open mirror store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)

	d, err := daemon.New(cfg, client, store, logger, notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = SocketPath(cfg)
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	select {
	case <-signalCtx.Done():
		logger.Info("cineforge daemon shutting down")
	case <-d.Done():
		logger.Info("cineforge daemon stopped via IPC")
	}
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "cineforged.log")
	if err := os.Remove(current); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
