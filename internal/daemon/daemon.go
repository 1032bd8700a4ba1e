package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"lodestone/internal/api"
	"lodestone/internal/config"
	"lodestone/internal/events"
	"lodestone/internal/installer"
	"lodestone/internal/logging"
	"lodestone/internal/notifications"
	"lodestone/internal/profilesync"
	"lodestone/internal/queue"
	"lodestone/internal/scheduler"
)

// Daemon coordinates the background services and enforces single-instance
// execution through a file lock.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *queue.Store
	bus       *events.Bus
	scheduler *scheduler.Scheduler
	sync      *profilesync.Sync
	service   *api.Service
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Scheduler    scheduler.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with all services wired. The installer may be nil,
// in which case the local filesystem installer is used.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, inst installer.Installer) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if inst == nil {
		inst = installer.NewLocal(cfg.Paths.InstancesDir, logger)
	}

	bus := events.NewBus()
	notifier := notifications.NewService(cfg)
	sched := scheduler.New(cfg, store, bus, inst, notifier, logger)
	sync := profilesync.New(store, bus, logger)

	lockPath := filepath.Join(cfg.Paths.DataDir, "lodestoned.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		bus:       bus,
		scheduler: sched,
		sync:      sync,
		service:   api.NewService(store, sched),
		logPath:   filepath.Join(cfg.Paths.LogDir, "lodestone.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the profile sync and the
// install scheduler. Startup recovery of orphaned in-flight items runs
// inside scheduler.Start before any new work is claimed.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lodestone daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.sync.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start profile sync: %w", err)
	}
	if err := d.scheduler.Start(runCtx); err != nil {
		d.sync.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start scheduler: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("lodestone daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

// Stop halts background processing and releases the daemon lock. An item
// mid-install stays current and is recovered on the next start.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.Stop()
	d.sync.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("lodestone daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.bus.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// API exposes the queue operations facade shared with the IPC layer.
func (d *Daemon) API() *api.Service {
	return d.service
}

// Subscribe registers an event bus subscriber for in-process consumers such
// as an embedding UI.
func (d *Daemon) Subscribe() *events.Subscription {
	return d.bus.Subscribe()
}

// ListQueue returns queue items filtered by optional states.
func (d *Daemon) ListQueue(ctx context.Context, states []queue.State) ([]*queue.Item, error) {
	if len(states) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, states...)
}

// ClearQueue removes every item not currently installing.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.ClearAll(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Scheduler:    d.scheduler.Status(ctx),
		QueueDBPath:  d.cfg.QueueDatabasePath(),
		LockFilePath: d.lockPath,
	}
}
