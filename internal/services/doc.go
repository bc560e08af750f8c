// Package services defines shared utilities consumed by the fusion pipeline
// and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp trigger categories, ingest sources, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     consistently at the host boundaries (API status codes, CLI exits).
//
// Use these helpers when wiring new pipeline or transport logic so operational
// behaviour (error handling, observability) stays uniform across components.
package services
