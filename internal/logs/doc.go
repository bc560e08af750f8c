// Package logs provides file tailing and offset helpers shared by the CLI and
// daemon diagnostics.
//
// It reads log files with bounded memory usage and supports negative offsets
// for "tail last N lines" operations. Follow mode is built by the caller:
// repeated Tail calls with the returned offset pick up whatever the daemon
// appended in between, which keeps the daemon-side LogTail RPC stateless.
//
// Use this package whenever you need consistent log viewing semantics instead
// of re-implementing ad-hoc tail logic.
package logs
