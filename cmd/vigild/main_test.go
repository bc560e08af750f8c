package main

import (
	"testing"

	"vigil/internal/config"
)

func TestRunOptionsUsesConfiguredLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "debug"

	opts := runOptions(&cfg)
	if opts.LogLevel != "debug" {
		t.Fatalf("expected configured log level, got %q", opts.LogLevel)
	}
	if opts.Development {
		t.Fatal("expected development mode to stay off")
	}
}

func TestRunOptionsNilConfig(t *testing.T) {
	opts := runOptions(nil)
	if opts.LogLevel != "" {
		t.Fatalf("expected empty log level for nil config, got %q", opts.LogLevel)
	}
}
