package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lodestone/internal/queue"
)

// Waker nudges the scheduler after an operation produces new pending work.
type Waker interface {
	Wake()
	Cancel(id int64) error
}

// Service implements the launcher-facing queue operations.
type Service struct {
	store *queue.Store
	waker Waker
}

// NewService constructs the queue facade.
func NewService(store *queue.Store, waker Waker) *Service {
	return &Service{store: store, waker: waker}
}

var titleCaser = cases.Title(language.English)

// ContentRef identifies one piece of content to install.
type ContentRef struct {
	Source      string `json:"source"`
	ProjectID   string `json:"project_id"`
	VersionID   string `json:"version_id,omitempty"`
	SHA512      string `json:"sha512,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// EnqueueClientInstall queues a game client install for a profile.
func (s *Service) EnqueueClientInstall(ctx context.Context, profileID, gameVersion, loader, loaderVersion string) (QueueItem, error) {
	meta := queue.ClientMetadata{
		GameVersion:   strings.TrimSpace(gameVersion),
		Loader:        strings.ToLower(strings.TrimSpace(loader)),
		LoaderVersion: strings.TrimSpace(loaderVersion),
	}
	displayName := fmt.Sprintf("Minecraft %s (%s)", meta.GameVersion, meta.Loader)

	item, err := s.store.Enqueue(ctx, queue.NewItem{
		ContentType: queue.ContentClient,
		ProfileID:   profileID,
		Display:     true,
		DisplayName: displayName,
		Metadata:    meta,
	})
	if err != nil {
		return QueueItem{}, err
	}
	// The profile counts as installing from the moment a client item is
	// queued, not just once the scheduler picks it up.
	if err := s.store.UpdateProfileState(ctx, profileID, queue.ProfileInstalling); err != nil {
		return QueueItem{}, fmt.Errorf("mark profile installing: %w", err)
	}
	s.wake()
	return FromQueueItem(item), nil
}

// EnqueueContentInstall queues one item per content reference. Validation
// failures reject the whole batch before anything is inserted.
func (s *Service) EnqueueContentInstall(ctx context.Context, profileID string, contentType queue.ContentType, refs []ContentRef) ([]QueueItem, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no content references provided", queue.ErrValidation)
	}
	if contentType == queue.ContentClient {
		return nil, fmt.Errorf("%w: client installs use EnqueueClientInstall", queue.ErrValidation)
	}

	requests := make([]queue.NewItem, 0, len(refs))
	for _, ref := range refs {
		meta := queue.ContentMetadata{
			Source:    strings.TrimSpace(ref.Source),
			ProjectID: strings.TrimSpace(ref.ProjectID),
			VersionID: strings.TrimSpace(ref.VersionID),
			SHA512:    strings.TrimSpace(ref.SHA512),
		}
		if err := meta.Validate(); err != nil {
			return nil, err
		}
		displayName := strings.TrimSpace(ref.DisplayName)
		if displayName == "" {
			displayName = fmt.Sprintf("%s %s", titleCaser.String(string(contentType)), meta.ProjectID)
		}
		requests = append(requests, queue.NewItem{
			ContentType: contentType,
			ProfileID:   profileID,
			Display:     true,
			DisplayName: displayName,
			Icon:        strings.TrimSpace(ref.Icon),
			Metadata:    meta,
		})
	}

	items := make([]QueueItem, 0, len(requests))
	for _, req := range requests {
		item, err := s.store.Enqueue(ctx, req)
		if err != nil {
			return items, err
		}
		items = append(items, FromQueueItem(item))
	}
	s.wake()
	return items, nil
}

// Retry moves an errored item back to pending at the queue tail.
func (s *Service) Retry(ctx context.Context, id int64) (QueueItem, error) {
	item, err := s.store.Retry(ctx, id)
	if err != nil {
		return QueueItem{}, err
	}
	s.wake()
	return FromQueueItem(item), nil
}

// Postpone parks a pending item.
func (s *Service) Postpone(ctx context.Context, id int64) (QueueItem, error) {
	item, err := s.store.Postpone(ctx, id)
	if err != nil {
		return QueueItem{}, err
	}
	return FromQueueItem(item), nil
}

// Resume returns a postponed item to the queue tail.
func (s *Service) Resume(ctx context.Context, id int64) (QueueItem, error) {
	item, err := s.store.Resume(ctx, id)
	if err != nil {
		return QueueItem{}, err
	}
	s.wake()
	return FromQueueItem(item), nil
}

// Delete removes a non-current item.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Remove(ctx, id)
}

// Cancel requests cooperative cancellation of the in-flight install.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if s.waker == nil {
		return errors.New("scheduler unavailable")
	}
	return s.waker.Cancel(id)
}

// ClearByState bulk-deletes all items in a state; current is rejected by the
// store.
func (s *Service) ClearByState(ctx context.Context, state queue.State) (int64, error) {
	return s.store.Clear(ctx, state)
}

// ListByState returns items in a state, optionally scoped to one profile.
func (s *Service) ListByState(ctx context.Context, state queue.State, profileID string) ([]QueueItem, error) {
	items, err := s.store.ListByState(ctx, state, profileID)
	if err != nil {
		return nil, err
	}
	return FromQueueItems(items), nil
}

// Describe fetches a single queue item.
func (s *Service) Describe(ctx context.Context, id int64) (*QueueItem, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	dto := FromQueueItem(item)
	return &dto, nil
}

// CreateProfile registers a new profile.
func (s *Service) CreateProfile(ctx context.Context, profile Profile) (Profile, error) {
	created, err := s.store.CreateProfile(ctx, queue.Profile{
		ID:               profile.ID,
		Name:             profile.Name,
		GameVersion:      profile.GameVersion,
		Loader:           strings.ToLower(strings.TrimSpace(profile.Loader)),
		LoaderVersion:    profile.LoaderVersion,
		JavaArgs:         profile.JavaArgs,
		ResolutionWidth:  profile.ResolutionWidth,
		ResolutionHeight: profile.ResolutionHeight,
	})
	if err != nil {
		return Profile{}, err
	}
	return FromProfile(created), nil
}

// ListProfiles returns every profile.
func (s *Service) ListProfiles(ctx context.Context) ([]Profile, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return FromProfiles(profiles), nil
}

// DeleteProfile removes a profile and its queue history.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	return s.store.DeleteProfile(ctx, id)
}

func (s *Service) wake() {
	if s.waker != nil {
		s.waker.Wake()
	}
}
