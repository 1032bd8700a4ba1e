package main

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"lodestone/internal/queue"
	"lodestone/internal/testsupport"
)

func TestCLIProfileAndInstallCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"profile", "create", "Main", "1.21.4", "--loader", "fabric"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("profile create: %v", err)
	}
	requireContains(t, out, "Profile Main created")

	profiles, err := env.store.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected one profile, got %d", len(profiles))
	}
	profileID := profiles[0].ID

	out, _, err = runCLI(t, []string{"profile", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("profile list: %v", err)
	}
	requireContains(t, out, "Main")
	requireContains(t, out, "1.21.4")

	out, _, err = runCLI(t, []string{"install", "client", profileID, "1.21.4", "--loader", "fabric"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("install client: %v", err)
	}
	requireContains(t, out, "Queued Minecraft 1.21.4 (fabric)")

	out, _, err = runCLI(t, []string{"install", "mod", profileID, "sodium", "lithium"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("install mod: %v", err)
	}
	requireContains(t, out, "Mod sodium")
	requireContains(t, out, "Mod lithium")

	_, _, err = runCLI(t, []string{"install", "mod", profileID, "sodium", "lithium", "--version", "abc"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "single project only") {
		t.Fatalf("expected per-item flag rejection, got %v", err)
	}

	out, _, err = runCLI(t, []string{"profile", "remove", profileID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("profile remove: %v", err)
	}
	requireContains(t, out, "removed")
}

func TestCLIQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	profile := testsupport.MustCreateProfile(t, env.store, "Main", "1.21.4", "fabric")
	first := testsupport.MustEnqueueContent(t, env.store, profile.ID, "sodium")
	second := testsupport.MustEnqueueContent(t, env.store, profile.ID, "lithium")

	out, _, err := runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "sodium")
	requireContains(t, out, "lithium")

	out, _, err = runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", first.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, profile.ID)

	out, _, err = runCLI(t, []string{"queue", "postpone", fmt.Sprintf("%d", first.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue postpone: %v", err)
	}
	requireContains(t, out, "postponed")

	out, _, err = runCLI(t, []string{"queue", "resume", fmt.Sprintf("%d", first.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue resume: %v", err)
	}
	requireContains(t, out, "requeued at position")

	resumed, err := env.store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if resumed.InstallOrder <= second.InstallOrder {
		t.Fatalf("expected resumed item behind %d, got order %d", second.InstallOrder, resumed.InstallOrder)
	}

	out, _, err = runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", second.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "removed")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 queue items")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list after clear: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	_, _, err = runCLI(t, []string{"queue", "show", "not-a-number"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid item id") {
		t.Fatalf("expected id parse error, got %v", err)
	}
}

func TestCLIQueueHealth(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"queue", "health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Database")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "Integrity")
}

func TestCLIDaemonStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"daemon", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("daemon status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "Running")
	requireContains(t, out, "no")
	requireContains(t, out, "Queue is empty")

	profile := testsupport.MustCreateProfile(t, env.store, "Main", "1.21.4", "fabric")
	testsupport.MustEnqueueContent(t, env.store, profile.ID, "sodium")

	out, _, err = runCLI(t, []string{"daemon", "start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	out, _, err = runCLI(t, []string{"daemon", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("daemon status after start: %v", err)
	}
	requireContains(t, out, "yes")

	out, _, err = runCLI(t, []string{"daemon", "stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("daemon stop: %v", err)
	}
	requireContains(t, out, "Daemon stopped")
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "not configured")
}

func TestCLICancelRequiresCurrentItem(t *testing.T) {
	env := setupCLITestEnv(t)
	profile := testsupport.MustCreateProfile(t, env.store, "Main", "1.21.4", "fabric")
	item := testsupport.MustEnqueueContent(t, env.store, profile.ID, "sodium")

	_, _, err := runCLI(t, []string{"queue", "cancel", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected cancel of non-current item to fail")
	}

	row, err := env.store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.State != queue.StatePending {
		t.Fatalf("expected item untouched, got %s", row.State)
	}
}
