package profilesync_test

import (
	"context"
	"testing"
	"time"

	"lodestone/internal/events"
	"lodestone/internal/logging"
	"lodestone/internal/profilesync"
	"lodestone/internal/queue"
	"lodestone/internal/testsupport"
)

func waitForProfileState(t *testing.T, store *queue.Store, id string, want queue.ProfileState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		profile, err := store.GetProfile(context.Background(), id)
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if profile != nil && profile.State == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	profile, _ := store.GetProfile(context.Background(), id)
	t.Fatalf("profile %s never reached state %s (currently %#v)", id, want, profile)
}

func waitForReady(t *testing.T, sub *events.Subscription, profileID string) events.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				t.Fatal("subscription closed early")
			}
			if evt.Type == events.TypeInstallReady && evt.ProfileID == profileID {
				return evt
			}
		case <-timeout:
			t.Fatal("timed out waiting for install_ready event")
		}
	}
}

func clientRef(id int64, profileID string) events.ItemRef {
	return events.ItemRef{ID: id, ContentType: queue.ContentClient, ProfileID: profileID, DisplayName: "Minecraft 1.21.4 (fabric)"}
}

func TestClientLifecycleUpdatesProfile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	sync := profilesync.New(store, bus, logging.NewNop())
	if err := sync.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sync.Stop()

	bus.Publish(events.Event{Type: events.TypeItemStarted, Item: clientRef(1, profile.ID)})
	waitForProfileState(t, store, profile.ID, queue.ProfileInstalling)

	bus.Publish(events.Event{Type: events.TypeItemCompleted, Item: clientRef(1, profile.ID)})
	waitForProfileState(t, store, profile.ID, queue.ProfileInstalled)

	evt := waitForReady(t, sub, profile.ID)
	if !evt.Valid {
		t.Fatal("expected install_ready to report success")
	}
}

func TestFailedClientInstallSignalsNotReady(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	sync := profilesync.New(store, bus, logging.NewNop())
	if err := sync.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sync.Stop()

	bus.Publish(events.Event{Type: events.TypeItemStarted, Item: clientRef(1, profile.ID)})
	waitForProfileState(t, store, profile.ID, queue.ProfileInstalling)

	bus.Publish(events.Event{Type: events.TypeItemFailed, Item: clientRef(1, profile.ID), Error: "download failed"})
	evt := waitForReady(t, sub, profile.ID)
	if evt.Valid {
		t.Fatal("expected install_ready to report failure")
	}

	// Failure leaves the profile installing rather than rolling it back.
	profileRow, err := store.GetProfile(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profileRow.State != queue.ProfileInstalling {
		t.Fatalf("expected profile to stay installing, got %s", profileRow.State)
	}
}

func TestPersistFailureStillSignalsNotReady(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	sync := profilesync.New(store, bus, logging.NewNop())
	if err := sync.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sync.Stop()

	// The profile row is gone (deleted mid-install), so the state update
	// fails; launch logic must still be released with a failure signal.
	bus.Publish(events.Event{Type: events.TypeItemCompleted, Item: clientRef(1, "vanished")})
	evt := waitForReady(t, sub, "vanished")
	if evt.Valid {
		t.Fatal("expected install_ready to report failure when the profile cannot be updated")
	}
}

func TestContentItemsAreIgnored(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	bus := events.NewBus()
	defer bus.Close()

	sync := profilesync.New(store, bus, logging.NewNop())
	if err := sync.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	bus.Publish(events.Event{
		Type: events.TypeItemCompleted,
		Item: events.ItemRef{ID: 1, ContentType: queue.ContentMod, ProfileID: profile.ID},
	})

	// Give the handler a chance to run, then verify nothing changed.
	time.Sleep(50 * time.Millisecond)
	sync.Stop()

	profileRow, err := store.GetProfile(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profileRow.State != queue.ProfileUninstalled {
		t.Fatalf("expected profile untouched, got %s", profileRow.State)
	}
}

func TestStartTwiceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	bus := events.NewBus()
	defer bus.Close()

	sync := profilesync.New(store, bus, logging.NewNop())
	if err := sync.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sync.Stop()

	if err := sync.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}
