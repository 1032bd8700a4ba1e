package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lodestone/internal/queue"
	"lodestone/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	item := testsupport.MustEnqueueContent(t, store, profile.ID, "sodium")
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.State != queue.StatePending {
		t.Fatalf("expected pending state, got %s", item.State)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.DisplayName != item.DisplayName {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
}

func TestEnqueueValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name string
		req  queue.NewItem
	}{
		{"missing content type", queue.NewItem{DisplayName: "X"}},
		{"missing display name", queue.NewItem{ContentType: queue.ContentMod}},
		{"client without profile", queue.NewItem{
			ContentType: queue.ContentClient,
			DisplayName: "Minecraft 1.21.4",
			Metadata:    queue.ClientMetadata{GameVersion: "1.21.4", Loader: "vanilla"},
		}},
		{"mod without metadata", queue.NewItem{ContentType: queue.ContentMod, DisplayName: "Sodium"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.Enqueue(ctx, tc.req); !errors.Is(err, queue.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestEnqueueUnknownProfile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.Enqueue(context.Background(), queue.NewItem{
		ContentType: queue.ContentMod,
		ProfileID:   "no-such-profile",
		DisplayName: "Sodium",
		Metadata:    queue.ContentMetadata{Source: "modrinth", ProjectID: "sodium"},
	})
	if !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestInstallOrderMonotonicPastDeletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	first := testsupport.MustEnqueueContent(t, store, profile.ID, "first")
	second := testsupport.MustEnqueueContent(t, store, profile.ID, "second")
	if second.InstallOrder <= first.InstallOrder {
		t.Fatalf("expected increasing install order, got %d then %d", first.InstallOrder, second.InstallOrder)
	}

	// Deleting the highest-ordered item must not release its order value.
	if err := store.Remove(ctx, second.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	third := testsupport.MustEnqueueContent(t, store, profile.ID, "third")
	if third.InstallOrder <= second.InstallOrder {
		t.Fatalf("install order %d reused after deleting order %d", third.InstallOrder, second.InstallOrder)
	}
}

func TestConcurrentEnqueueSerializesInstallOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	const callers = 24
	results := make(chan int64, callers)
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			item, err := store.Enqueue(ctx, queue.NewItem{
				ContentType: queue.ContentMod,
				ProfileID:   profile.ID,
				DisplayName: fmt.Sprintf("Mod %d", n),
				Metadata:    queue.ContentMetadata{Source: "modrinth", ProjectID: fmt.Sprintf("mod-%d", n)},
			})
			if err != nil {
				errs <- err
				return
			}
			results <- item.InstallOrder
		}(i)
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent Enqueue failed: %v", err)
	}

	seen := make(map[int64]bool, callers)
	for order := range results {
		if seen[order] {
			t.Fatalf("install order %d assigned twice", order)
		}
		seen[order] = true
	}
	if len(seen) != callers {
		t.Fatalf("expected %d unique install orders, got %d", callers, len(seen))
	}
}

func TestNextPendingFollowsInstallOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	var ids []int64
	for i := 0; i < 3; i++ {
		item := testsupport.MustEnqueueContent(t, store, profile.ID, fmt.Sprintf("mod-%d", i))
		ids = append(ids, item.ID)
	}

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != ids[0] {
		t.Fatalf("expected first enqueued item, got %#v", next)
	}

	if _, err := store.Postpone(ctx, ids[0]); err != nil {
		t.Fatalf("Postpone failed: %v", err)
	}
	next, err = store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != ids[1] {
		t.Fatalf("expected second item after postponing first, got %#v", next)
	}
}

func TestTransitionConflict(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	item := testsupport.MustEnqueueContent(t, store, profile.ID, "sodium")

	if _, err := store.Transition(ctx, item.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim transition failed: %v", err)
	}

	// A second claim must observe the item already moved on.
	_, err := store.Transition(ctx, item.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{})
	if !errors.Is(err, queue.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	_, err = store.Transition(ctx, 9999, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{})
	if !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestTransitionRecordsTerminalFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	completed := testsupport.MustEnqueueContent(t, store, profile.ID, "lithium")
	if _, err := store.Transition(ctx, completed.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	finishedAt := time.Now().UTC()
	done, err := store.Transition(ctx, completed.ID, queue.StateCurrent, queue.StateCompleted, queue.TransitionExtra{CompletedAt: &finishedAt})
	if err != nil {
		t.Fatalf("complete transition failed: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at to be recorded")
	}

	failed := testsupport.MustEnqueueContent(t, store, profile.ID, "phosphor")
	if _, err := store.Transition(ctx, failed.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	errored, err := store.Transition(ctx, failed.ID, queue.StateCurrent, queue.StateErrored, queue.TransitionExtra{ErrorMessage: "download failed"})
	if err != nil {
		t.Fatalf("error transition failed: %v", err)
	}
	if errored.ErrorMessage != "download failed" {
		t.Fatalf("expected error message recorded, got %q", errored.ErrorMessage)
	}
}

func TestRetryRequeuesAtTail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	failed := testsupport.MustEnqueueContent(t, store, profile.ID, "fails")
	if _, err := store.Transition(ctx, failed.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := store.Transition(ctx, failed.ID, queue.StateCurrent, queue.StateErrored, queue.TransitionExtra{ErrorMessage: "boom"}); err != nil {
		t.Fatalf("error transition failed: %v", err)
	}

	waiting := testsupport.MustEnqueueContent(t, store, profile.ID, "waiting")

	retried, err := store.Retry(ctx, failed.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if retried.State != queue.StatePending {
		t.Fatalf("expected pending after retry, got %s", retried.State)
	}
	if retried.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", retried.ErrorMessage)
	}
	if retried.InstallOrder <= waiting.InstallOrder {
		t.Fatalf("retried item order %d should follow waiting item order %d", retried.InstallOrder, waiting.InstallOrder)
	}

	// Retrying a non-errored item is a conflict.
	if _, err := store.Retry(ctx, waiting.ID); !errors.Is(err, queue.ErrConflict) {
		t.Fatalf("expected conflict retrying pending item, got %v", err)
	}
}

func TestPostponeAndResume(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	parked := testsupport.MustEnqueueContent(t, store, profile.ID, "parked")
	if _, err := store.Postpone(ctx, parked.ID); err != nil {
		t.Fatalf("Postpone failed: %v", err)
	}

	later := testsupport.MustEnqueueContent(t, store, profile.ID, "later")

	resumed, err := store.Resume(ctx, parked.ID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.State != queue.StatePending {
		t.Fatalf("expected pending after resume, got %s", resumed.State)
	}
	if resumed.InstallOrder <= later.InstallOrder {
		t.Fatalf("resumed item order %d should follow later item order %d", resumed.InstallOrder, later.InstallOrder)
	}
}

func TestRemoveCurrentRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	item := testsupport.MustEnqueueContent(t, store, profile.ID, "busy")
	if _, err := store.Transition(ctx, item.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if err := store.Remove(ctx, item.ID); !errors.Is(err, queue.ErrInvalidState) {
		t.Fatalf("expected invalid state error removing current item, got %v", err)
	}
	if err := store.Remove(ctx, 9999); !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestClearExcludesCurrent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	busy := testsupport.MustEnqueueContent(t, store, profile.ID, "busy")
	testsupport.MustEnqueueContent(t, store, profile.ID, "idle-1")
	testsupport.MustEnqueueContent(t, store, profile.ID, "idle-2")
	if _, err := store.Transition(ctx, busy.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	if _, err := store.Clear(ctx, queue.StateCurrent); !errors.Is(err, queue.ErrInvalidState) {
		t.Fatalf("expected invalid state error clearing current, got %v", err)
	}

	removed, err := store.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	survivor, err := store.GetByID(ctx, busy.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if survivor == nil || survivor.State != queue.StateCurrent {
		t.Fatalf("expected current item to survive, got %#v", survivor)
	}
}

func TestRecoverOrphanedKeepsOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	orphan := testsupport.MustEnqueueContent(t, store, profile.ID, "orphan")
	testsupport.MustEnqueueContent(t, store, profile.ID, "queued")
	if _, err := store.Transition(ctx, orphan.ID, queue.StatePending, queue.StateCurrent, queue.TransitionExtra{}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	recovered, err := store.RecoverOrphaned(ctx)
	if err != nil {
		t.Fatalf("RecoverOrphaned failed: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered item, got %d", recovered)
	}

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != orphan.ID {
		t.Fatalf("expected recovered item to be picked first, got %#v", next)
	}
	if next.InstallOrder != orphan.InstallOrder {
		t.Fatalf("expected original install order kept, got %d want %d", next.InstallOrder, orphan.InstallOrder)
	}
}

func TestListByStateOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	other := testsupport.MustCreateProfile(t, store, "Alt", "1.20.1", "forge")

	a := testsupport.MustEnqueueContent(t, store, profile.ID, "a")
	b := testsupport.MustEnqueueContent(t, store, other.ID, "b")
	c := testsupport.MustEnqueueContent(t, store, profile.ID, "c")

	pending, err := store.ListByState(ctx, queue.StatePending, "")
	if err != nil {
		t.Fatalf("ListByState failed: %v", err)
	}
	if len(pending) != 3 || pending[0].ID != a.ID || pending[1].ID != b.ID || pending[2].ID != c.ID {
		t.Fatalf("unexpected pending ordering: %#v", pending)
	}

	scoped, err := store.ListByState(ctx, queue.StatePending, profile.ID)
	if err != nil {
		t.Fatalf("ListByState with profile failed: %v", err)
	}
	if len(scoped) != 2 || scoped[0].ID != a.ID || scoped[1].ID != c.ID {
		t.Fatalf("unexpected scoped listing: %#v", scoped)
	}

	if _, err := store.ListByState(ctx, queue.State("bogus"), ""); !errors.Is(err, queue.ErrValidation) {
		t.Fatalf("expected validation error for unknown state, got %v", err)
	}
}

func TestStatsAndSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")

	testsupport.MustEnqueueContent(t, store, profile.ID, "one")
	parked := testsupport.MustEnqueueContent(t, store, profile.ID, "two")
	if _, err := store.Postpone(ctx, parked.ID); err != nil {
		t.Fatalf("Postpone failed: %v", err)
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Total != 2 || summary.Pending != 1 || summary.Postponed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	profile := testsupport.MustCreateProfile(t, store, "Main", "1.21.4", "fabric")
	testsupport.MustEnqueueContent(t, store, profile.ID, "sodium")

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists || !health.IntegrityCheck {
		t.Fatalf("unexpected health report: %#v", health)
	}
	if health.TotalItems != 1 {
		t.Fatalf("expected 1 item, got %d", health.TotalItems)
	}
}
