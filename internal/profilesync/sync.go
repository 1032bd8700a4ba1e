package profilesync

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lodestone/internal/events"
	"lodestone/internal/logging"
	"lodestone/internal/queue"
)

// Sync keeps profile state in step with client install outcomes.
//
// A profile is installing while its client item is queued or in flight,
// installed once the item completes, and stays installing after a failure so
// the UI keeps showing the unfinished install. Launch logic waits for the
// install_ready event instead of inspecting state, so a failed install
// aborts the launch cleanly rather than hanging.
type Sync struct {
	store  *queue.Store
	bus    *events.Bus
	logger *slog.Logger

	mu     sync.Mutex
	sub    *events.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a profile state sync.
func New(store *queue.Store, bus *events.Bus, logger *slog.Logger) *Sync {
	return &Sync{
		store:  store,
		bus:    bus,
		logger: logging.NewComponentLogger(logger, "profile-sync"),
	}
}

// Start subscribes to the bus and begins applying profile transitions.
func (s *Sync) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return errors.New("profile sync already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.sub = s.bus.Subscribe()
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(runCtx, s.sub)
	return nil
}

// Stop unsubscribes and waits for the handler goroutine to exit.
func (s *Sync) Stop() {
	s.mu.Lock()
	sub := s.sub
	cancel := s.cancel
	s.sub = nil
	s.cancel = nil
	s.mu.Unlock()

	if sub == nil {
		return
	}
	cancel()
	sub.Close()
	s.wg.Wait()
}

func (s *Sync) loop(ctx context.Context, sub *events.Subscription) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			s.handle(ctx, evt)
		}
	}
}

func (s *Sync) handle(ctx context.Context, evt events.Event) {
	if evt.Item.ContentType != queue.ContentClient || evt.Item.ProfileID == "" {
		return
	}

	switch evt.Type {
	case events.TypeItemStarted:
		s.markInstalling(ctx, evt.Item.ProfileID)
	case events.TypeItemCompleted:
		s.markInstalled(ctx, evt.Item.ProfileID)
	case events.TypeItemFailed:
		// State stays installing; only the ready signal tells launch logic
		// to give up.
		s.publishReady(evt.Item.ProfileID, false)
	}
}

func (s *Sync) markInstalling(ctx context.Context, profileID string) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		s.logger.Warn("failed to read profile", logging.String(logging.FieldProfileID, profileID), logging.Error(err))
		return
	}
	if profile == nil || profile.State == queue.ProfileInstalling {
		return
	}
	if err := s.store.UpdateProfileState(ctx, profileID, queue.ProfileInstalling); err != nil {
		s.logger.Warn("failed to mark profile installing",
			logging.String(logging.FieldProfileID, profileID),
			logging.Error(err),
		)
		return
	}
	s.logger.Debug("profile installing", logging.String(logging.FieldProfileID, profileID))
}

func (s *Sync) markInstalled(ctx context.Context, profileID string) {
	if err := s.store.UpdateProfileState(ctx, profileID, queue.ProfileInstalled); err != nil {
		s.logger.Warn("failed to mark profile installed",
			logging.String(logging.FieldProfileID, profileID),
			logging.Error(err),
		)
		// Launch logic is still waiting on the ready signal; tell it the
		// install cannot be trusted rather than leaving it hanging.
		s.publishReady(profileID, false)
		return
	}
	s.logger.Info("profile installed",
		logging.String(logging.FieldProfileID, profileID),
		logging.String(logging.FieldEventType, "profile_installed"),
	)
	s.publishReady(profileID, true)
}

func (s *Sync) publishReady(profileID string, valid bool) {
	s.bus.Publish(events.Event{
		Type:      events.TypeInstallReady,
		ProfileID: profileID,
		Valid:     valid,
	})
}
