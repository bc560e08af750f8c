// Package daemon coordinates the long-running Vigil process and its
// integration points.
//
// It wires configuration, the warning journal, and the fusion engine into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon exposes the HTTP ingestion API for detector clients, delegates
// pipeline operations to the engine, and aggregates status for the CLI.
//
// Keep orchestration logic here: pipeline stages live in their respective
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
