package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vigil/internal/testsupport"
)

func TestCLIWarningsLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	events := filepath.Join(env.baseDir, "events.jsonl")
	testsupport.WriteLines(t, events,
		`{"category":"blood","timestamp":0,"visual":{"confidence":90}}`,
		`{"category":"blood","timestamp":0.5,"visual":{"confidence":90}}`,
	)

	out, _, err := runCLI(t, []string{"feed", events}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	requireContains(t, out, "blood")
	requireContains(t, out, "Processed 2 events and 0 scenes, surfaced 1 warnings")

	out, _, err = runCLI(t, []string{"warnings", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("warnings list: %v", err)
	}
	requireContains(t, out, "blood")
	requireContains(t, out, "active")

	out, _, err = runCLI(t, []string{"warnings", "list", "--category", "gore"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("warnings list --category: %v", err)
	}
	requireContains(t, out, "No warnings recorded")

	out, _, err = runCLI(t, []string{"warnings", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("warnings clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 warnings")

	out, _, err = runCLI(t, []string{"warnings", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("warnings list after clear: %v", err)
	}
	requireContains(t, out, "No warnings recorded")
}

func TestCLIStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "Running")
	requireContains(t, out, "categories routed")
	requireContains(t, out, "Paths")
	requireContains(t, out, "Warnings")
	requireContains(t, out, "No warnings recorded")

	out, _, err = runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	requireContains(t, out, `"running": true`)
	requireContains(t, out, `"system_checks"`)
}

func TestCLILogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.WriteFile(env.logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs --lines: %v", err)
	}
	requireContains(t, out, "second")
	requireContains(t, out, "third")
	if strings.Contains(out, "first") {
		t.Fatalf("expected only the last two lines, got %q", out)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--socket", env.socketPath, "--config", env.configPath, "logs", "--follow", "--lines", "1"})
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	time.Sleep(100 * time.Millisecond)
	if err := appendLine(env.logPath, "followed"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	time.Sleep(1500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("logs --follow execute: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("logs --follow did not exit")
	}

	if !strings.Contains(stdout.String(), "followed") {
		t.Fatalf("expected follow output to include new line, got %q", stdout.String())
	}
}

func TestCLIFeedbackAndStats(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"feedback", "--category", "blood", "--type", "confirm"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	requireContains(t, out, "Feedback applied: yes")

	_, _, err = runCLI(t, []string{"feedback", "--type", "confirm"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected feedback without category to fail")
	}

	out, _, err = runCLI(t, []string{"stats"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Pipeline")
	requireContains(t, out, "Feedback applied")
	requireContains(t, out, "correct")

	out, _, err = runCLI(t, []string{"stats", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	requireContains(t, out, `"engine"`)
	requireContains(t, out, `"feedbackApplied": 1`)
}

func TestCLIFeedOfflineJournalsWarnings(t *testing.T) {
	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	events := filepath.Join(base, "events.jsonl")
	testsupport.WriteLines(t, events,
		"# replay fixture",
		`{"type":"combat","start":0,"end":30}`,
		`{"category":"blood","timestamp":0,"visual":{"confidence":90}}`,
		`{"category":"blood","timestamp":0.5,"visual":{"confidence":90}}`,
	)

	socket := filepath.Join(base, "absent.sock")
	out, _, err := runCLI(t, []string{"feed", events, "--offline"}, socket, configPath)
	if err != nil {
		t.Fatalf("feed --offline: %v", err)
	}
	requireContains(t, out, "Processed 2 events and 1 scenes, surfaced 1 warnings")

	out, _, err = runCLI(t, []string{"warnings", "list"}, socket, configPath)
	if err != nil {
		t.Fatalf("warnings list fallback: %v", err)
	}
	requireContains(t, out, "blood")
}

func TestCLICategoriesTable(t *testing.T) {
	out, _, err := runCLI(t, []string{"categories"}, "unused.sock", "")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	requireContains(t, out, "blood")
	requireContains(t, out, "visual-primary")
	requireContains(t, out, "sustained")

	out, _, err = runCLI(t, []string{"categories", "--json"}, "unused.sock", "")
	if err != nil {
		t.Fatalf("categories --json: %v", err)
	}
	requireContains(t, out, `"route": "visual-primary"`)
}

func TestCLIDialErrorMentionsStart(t *testing.T) {
	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	socket := filepath.Join(base, "absent.sock")
	_, _, err := runCLI(t, []string{"stats"}, socket, configPath)
	if err == nil {
		t.Fatal("expected stats against absent socket to fail")
	}
	requireContains(t, err.Error(), "vigil start")
}
