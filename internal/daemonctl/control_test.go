package daemonctl_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vigil/internal/daemonctl"
	"vigil/internal/ipc"
	"vigil/internal/testsupport"
	"vigil/internal/warnings"
)

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	w := warnings.Warning{
		ID:          "w-offline",
		Category:    "blood",
		Confidence:  91.25,
		Description: "Strong blood content detected",
		StartTime:   0,
		EndTime:     0.5,
		SubmittedBy: "auto",
		Status:      warnings.StatusActive,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := st.SaveWarning(context.Background(), w); err != nil {
		t.Fatalf("save warning: %v", err)
	}

	socket := filepath.Join(cfg.Paths.LogDir, "absent.sock")
	snapshot, err := daemonctl.BuildStatusSnapshot(context.Background(), socket, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot failed: %v", err)
	}
	if snapshot.Running {
		t.Fatal("expected daemon to be reported as not running")
	}
	if snapshot.WarningCounts["blood"] != 1 {
		t.Fatalf("unexpected warning counts: %#v", snapshot.WarningCounts)
	}
	if len(snapshot.Preflight) == 0 {
		t.Fatal("expected offline preflight results")
	}

	if len(snapshot.SystemChecks) == 0 {
		t.Fatal("expected system check lines")
	}
	first := snapshot.SystemChecks[0]
	if first.Label != "Vigil" || first.Severity != "warn" {
		t.Fatalf("unexpected first system check: %#v", first)
	}

	if len(snapshot.PathChecks) != 3 {
		t.Fatalf("expected 3 path checks, got %d", len(snapshot.PathChecks))
	}
	for _, line := range snapshot.PathChecks {
		if line.Severity != "ok" {
			t.Fatalf("expected ok path check, got %#v", line)
		}
	}
}

func TestBuildSystemChecksRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	status := &ipc.StatusResponse{Running: true, APIBind: "127.0.0.1:7130"}
	status.Engine.Categories = 12
	status.Engine.ActiveShards = 2

	lines := daemonctl.BuildSystemChecks(cfg, status)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].Severity != "ok" || lines[0].Detail != "Running" {
		t.Fatalf("unexpected daemon line: %#v", lines[0])
	}
	if lines[1].Detail != "12 categories routed, 2 active shards" {
		t.Fatalf("unexpected engine line: %#v", lines[1])
	}
	if lines[2].Severity != "ok" || lines[2].Detail != "Listening on 127.0.0.1:7130" {
		t.Fatalf("unexpected api line: %#v", lines[2])
	}
}

func TestDeriveLogDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	if got := daemonctl.DeriveLogDir("/var/run/vigil/vigild.lock", nil); got != "/var/run/vigil" {
		t.Fatalf("unexpected dir from lock path: %s", got)
	}
	if got := daemonctl.DeriveLogDir("", cfg); got != cfg.Paths.LogDir {
		t.Fatalf("unexpected dir from config: %s", got)
	}
	if got := daemonctl.DeriveLogDir("", nil); got != "" {
		t.Fatalf("expected empty dir, got %s", got)
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "vigild.pid")
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	if _, err := daemonctl.ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
}

func TestStopAndTerminateNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	socket := filepath.Join(cfg.Paths.LogDir, "absent.sock")

	_, err := daemonctl.StopAndTerminate(socket, cfg, 100*time.Millisecond)
	if err != daemonctl.ErrDaemonNotRunning {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}
