package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lodestone/internal/events"
	"lodestone/internal/installer"
	"lodestone/internal/logging"
	"lodestone/internal/queue"
)

func (s *Scheduler) processItem(ctx context.Context, item *queue.Item) error {
	claimed, err := s.store.Transition(ctx, item.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{})
	if err != nil {
		if errors.Is(err, queue.ErrConflict) || errors.Is(err, queue.ErrNotFound) {
			// Someone removed or postponed the item between the read and the
			// claim. Not an error with a single worker, just stale data.
			s.logger.Debug("lost claim on queue item",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Error(err),
			)
			return nil
		}
		s.setLastError(err)
		s.logger.Error("failed to claim queue item",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.Error(err),
		)
		s.waitForWakeOrShutdown(ctx, s.errorRetryInterval)
		return err
	}

	s.mu.Lock()
	if s.drainStart.IsZero() {
		s.drainStart = time.Now()
	}
	s.mu.Unlock()
	s.setLastItem(claimed)

	runID := uuid.NewString()
	itemLogger := s.logger.With(
		logging.Int64(logging.FieldItemID, claimed.ID),
		logging.String(logging.FieldContentType, string(claimed.ContentType)),
		logging.String(logging.FieldProfileID, claimed.ProfileID),
		logging.String(logging.FieldCorrelationID, runID),
	)

	ref := events.ItemRef{
		ID:          claimed.ID,
		ContentType: claimed.ContentType,
		ProfileID:   claimed.ProfileID,
		DisplayName: claimed.DisplayName,
	}
	s.bus.Publish(events.Event{Type: events.TypeItemStarted, Item: ref})

	installStart := time.Now()
	itemLogger.Info("install started",
		logging.String(logging.FieldEventType, "install_start"),
		logging.String("display_name", strings.TrimSpace(claimed.DisplayName)),
	)

	installCtx, cancelInstall := context.WithCancelCause(ctx)
	s.mu.Lock()
	s.currentID = claimed.ID
	s.currentCancel = cancelInstall
	s.mu.Unlock()

	progress := func(p events.Progress) {
		s.bus.Publish(events.Event{Type: events.TypeItemProgress, Item: ref, Progress: p})
	}

	execErr := s.installer.Install(installCtx, claimed, progress)

	s.mu.Lock()
	s.currentID = 0
	s.currentCancel = nil
	s.mu.Unlock()
	cancelInstall(nil)

	switch {
	case execErr == nil:
		return s.finishCompleted(ctx, itemLogger, ref, installStart)
	case installer.IsUserCancel(installCtx, execErr):
		return s.finishErrored(ctx, itemLogger, ref, queue.CancelledReason, installStart)
	case errors.Is(execErr, context.Canceled) && ctx.Err() != nil:
		// Daemon shutdown. Leave the item current; the next start's recovery
		// scan demotes it to pending so the install restarts from scratch.
		itemLogger.Info("install interrupted by shutdown",
			logging.String(logging.FieldEventType, "install_interrupted"),
		)
		return execErr
	default:
		return s.finishErrored(ctx, itemLogger, ref, failureReason(execErr), installStart)
	}
}

func (s *Scheduler) finishCompleted(ctx context.Context, itemLogger *slog.Logger, ref events.ItemRef, started time.Time) error {
	now := time.Now().UTC()
	updated, err := s.store.Transition(ctx, ref.ID, queue.StateCurrent, queue.StateCompleted, queue.TransitionExtra{CompletedAt: &now})
	if err != nil {
		s.setLastError(err)
		itemLogger.Error("failed to record install success", logging.Error(err))
		return err
	}
	s.setLastItem(updated)
	s.trackOutcome(false)

	itemLogger.Info("install completed",
		logging.String(logging.FieldEventType, "install_complete"),
		logging.Duration("install_duration", time.Since(started)),
	)
	s.bus.Publish(events.Event{Type: events.TypeItemCompleted, Item: ref})
	if err := s.notifier.NotifyInstallCompleted(ctx, ref.DisplayName); err != nil {
		itemLogger.Debug("install notification failed", logging.Error(err))
	}
	return nil
}

func (s *Scheduler) finishErrored(ctx context.Context, itemLogger *slog.Logger, ref events.ItemRef, reason string, started time.Time) error {
	updated, err := s.store.Transition(ctx, ref.ID, queue.StateCurrent, queue.StateErrored, queue.TransitionExtra{ErrorMessage: reason})
	if err != nil {
		s.setLastError(err)
		itemLogger.Error("failed to record install failure", logging.Error(err))
		return err
	}
	s.setLastItem(updated)
	s.trackOutcome(true)

	itemLogger.Error("install failed",
		logging.String(logging.FieldEventType, "install_failure"),
		logging.String("error_message", reason),
		logging.Duration("install_duration", time.Since(started)),
	)
	s.bus.Publish(events.Event{Type: events.TypeItemFailed, Item: ref, Error: reason})
	if err := s.notifier.NotifyInstallFailed(ctx, ref.DisplayName, reason); err != nil {
		itemLogger.Debug("failure notification failed", logging.Error(err))
	}
	return nil
}

func failureReason(err error) string {
	if err == nil {
		return "install failed without error detail"
	}
	reason := strings.TrimSpace(err.Error())
	if reason == "" {
		return "install failed without error detail"
	}
	return reason
}
