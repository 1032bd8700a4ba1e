package queue_test

import (
	"context"
	"errors"
	"testing"

	"lodestone/internal/queue"
	"lodestone/internal/testsupport"
)

func TestCreateProfileDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	profile, err := store.CreateProfile(context.Background(), queue.Profile{
		Name:        "Main",
		GameVersion: "1.21.4",
		Loader:      "fabric",
	})
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if profile.ID == "" {
		t.Fatal("expected generated profile id")
	}
	if profile.State != queue.ProfileUninstalled {
		t.Fatalf("expected uninstalled state, got %s", profile.State)
	}
	if profile.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestProfileStateTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	if err := store.UpdateProfileState(ctx, profile.ID, queue.ProfileInstalling); err != nil {
		t.Fatalf("UpdateProfileState failed: %v", err)
	}
	if err := store.UpdateProfileState(ctx, profile.ID, queue.ProfileInstalled); err != nil {
		t.Fatalf("UpdateProfileState failed: %v", err)
	}

	updated, err := store.GetProfile(ctx, profile.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if updated == nil || updated.State != queue.ProfileInstalled {
		t.Fatalf("unexpected profile: %#v", updated)
	}

	if err := store.UpdateProfileState(ctx, "missing", queue.ProfileInstalled); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestTouchLastPlayed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	if err := store.TouchLastPlayed(ctx, profile.ID); err != nil {
		t.Fatalf("TouchLastPlayed failed: %v", err)
	}

	updated, err := store.GetProfile(ctx, profile.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if updated.LastPlayed == nil {
		t.Fatal("expected last_played to be set")
	}
}

func TestDeleteProfileCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	item := testsupport.MustEnqueueContent(t, store, profile.ID, "sodium")

	if err := store.DeleteProfile(ctx, profile.ID); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}

	gone, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected queue item deleted with profile, got %#v", gone)
	}
}

func TestDeleteProfileRejectedWhileInstalling(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	item := testsupport.MustEnqueueContent(t, store, profile.ID, "sodium")
	if _, err := store.Transition(ctx, item.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := store.DeleteProfile(ctx, profile.ID); !errors.Is(err, queue.ErrInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}
