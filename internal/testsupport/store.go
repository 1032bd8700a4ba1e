package testsupport

import (
	"context"
	"testing"

	"lodestone/internal/config"
	"lodestone/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustCreateProfile registers a profile for tests using the provided store.
func MustCreateProfile(t testing.TB, store *queue.Store, name, gameVersion, loader string) *queue.Profile {
	t.Helper()

	profile, err := store.CreateProfile(context.Background(), queue.Profile{
		Name:        name,
		GameVersion: gameVersion,
		Loader:      loader,
	})
	if err != nil {
		t.Fatalf("store.CreateProfile: %v", err)
	}
	return profile
}

// MustEnqueueContent queues a mod install for tests and returns the item.
func MustEnqueueContent(t testing.TB, store *queue.Store, profileID, projectID string) *queue.Item {
	t.Helper()

	item, err := store.Enqueue(context.Background(), queue.NewItem{
		ContentType: queue.ContentMod,
		ProfileID:   profileID,
		Display:     true,
		DisplayName: "Test Mod " + projectID,
		Metadata: queue.ContentMetadata{
			Source:    "modrinth",
			ProjectID: projectID,
		},
	})
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
