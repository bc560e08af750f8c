package main

import (
	"vigil/internal/config"
	"vigil/internal/daemonrun"
)

// runOptions derives the daemon runtime options from the loaded
// configuration. vigild carries no flags of its own, so the configured
// log level is the only knob.
func runOptions(cfg *config.Config) daemonrun.Options {
	opts := daemonrun.Options{}
	if cfg != nil {
		opts.LogLevel = cfg.Logging.Level
	}
	return opts
}
