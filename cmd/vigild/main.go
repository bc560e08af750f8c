// Command vigild runs the vigil detection daemon in the foreground.
//
// It loads the configuration from the default path, prepares the data and
// log directories, and hands control to the daemon runtime. The process
// exits when it receives SIGINT or SIGTERM or when startup fails. Most
// installs launch the daemon through `vigil start` instead; vigild exists
// for service managers that want a dedicated binary to supervise.
package main

import (
	"context"
	"log"

	"vigil/internal/config"
	"vigil/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}
	if err := daemonrun.Run(context.Background(), cfg, runOptions(cfg)); err != nil {
		log.Fatalf("vigild: %v", err)
	}
}
