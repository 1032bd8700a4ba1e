package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lodestone/internal/config"
	"lodestone/internal/events"
	"lodestone/internal/installer"
	"lodestone/internal/logging"
	"lodestone/internal/notifications"
	"lodestone/internal/queue"
)

// Scheduler owns the single install worker and its lifecycle.
type Scheduler struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	bus       *events.Bus
	installer installer.Installer
	notifier  notifications.Service

	pollInterval       time.Duration
	errorRetryInterval time.Duration

	wake chan struct{}

	mu            sync.RWMutex
	running       bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	lastErr       error
	lastItem      *queue.Item
	currentID     int64
	currentCancel context.CancelCauseFunc

	drainProcessed int
	drainFailed    int
	drainStart     time.Time
}

// New constructs a scheduler. A nil logger logs nowhere; a nil notifier
// disables notifications.
func New(cfg *config.Config, store *queue.Store, bus *events.Bus, inst installer.Installer, notifier notifications.Service, logger *slog.Logger) *Scheduler {
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	return &Scheduler{
		cfg:                cfg,
		store:              store,
		logger:             logging.NewComponentLogger(logger, "scheduler"),
		bus:                bus,
		installer:          inst,
		notifier:           notifier,
		pollInterval:       time.Duration(cfg.Scheduler.QueuePollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Scheduler.ErrorRetryInterval) * time.Second,
		wake:               make(chan struct{}, 1),
	}
}

// Start recovers orphaned work and launches the worker goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	if s.installer == nil {
		s.mu.Unlock()
		return errors.New("scheduler requires an installer")
	}

	// Recovery must finish before the loop can claim anything, so no item
	// from a previous run keeps blocking the single-flight slot.
	recovered, err := s.store.RecoverOrphaned(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("recover orphaned items: %w", err)
	}
	if recovered > 0 {
		s.logger.Info("recovered orphaned install",
			logging.Int64("count", recovered),
			logging.String(logging.FieldEventType, "orphan_recovered"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Stop terminates the worker and waits for it to exit. The in-flight item,
// if any, stays current and is demoted by the next start's recovery scan.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

// Wake nudges an idle worker after an enqueue, retry, or resume.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Cancel requests cooperative cancellation of the in-flight install. Only
// the current item can be cancelled; pending or postponed items are removed
// with Remove instead.
func (s *Scheduler) Cancel(id int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID != id || s.currentCancel == nil {
		return fmt.Errorf("%w: item %d is not installing", queue.ErrInvalidState, id)
	}
	s.currentCancel(installer.ErrCancelRequested)
	return nil
}

// Running reports whether the worker loop is active.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// StatusSummary represents lightweight scheduler diagnostics.
type StatusSummary struct {
	Running    bool
	LastError  string
	LastItem   *queue.Item
	QueueStats map[queue.State]int
}

// Status returns the latest scheduler information.
func (s *Scheduler) Status(ctx context.Context) StatusSummary {
	s.mu.RLock()
	running := s.running
	lastErr := s.lastErr
	lastItem := s.lastItem
	s.mu.RUnlock()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	summary := StatusSummary{Running: running, QueueStats: stats}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastItem != nil {
		cp := *lastItem
		summary.LastItem = &cp
	}
	return summary
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := s.store.NextPending(ctx)
		if err != nil {
			s.setLastError(err)
			s.logger.Error("failed to fetch next queue item",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			s.waitForWakeOrShutdown(ctx, s.errorRetryInterval)
			continue
		}
		if item == nil {
			s.notifyQueueDrained(ctx)
			s.waitForWakeOrShutdown(ctx, s.pollInterval)
			continue
		}

		if err := s.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
		}
	}
}

func (s *Scheduler) waitForWakeOrShutdown(ctx context.Context, wait time.Duration) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-s.wake:
	case <-timer.C:
	}
}

func (s *Scheduler) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Scheduler) setLastItem(item *queue.Item) {
	s.mu.Lock()
	if item != nil {
		cp := *item
		s.lastItem = &cp
	} else {
		s.lastItem = nil
	}
	s.mu.Unlock()
}

func (s *Scheduler) notifyQueueDrained(ctx context.Context) {
	s.mu.Lock()
	processed := s.drainProcessed
	failed := s.drainFailed
	start := s.drainStart
	s.drainProcessed = 0
	s.drainFailed = 0
	s.drainStart = time.Time{}
	s.mu.Unlock()

	if processed == 0 && failed == 0 {
		return
	}
	if err := s.notifier.NotifyQueueCompleted(ctx, processed, failed, time.Since(start)); err != nil {
		s.logger.Debug("queue completion notification failed", logging.Error(err))
	}
}

func (s *Scheduler) trackOutcome(failedOutcome bool) {
	s.mu.Lock()
	if s.drainStart.IsZero() {
		s.drainStart = time.Now()
	}
	if failedOutcome {
		s.drainFailed++
	} else {
		s.drainProcessed++
	}
	s.mu.Unlock()
}
