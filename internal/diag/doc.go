// Package diag defines the diagnostic model shared by all compiler phases.
//
// Phases emit through a Reporter so that emission is decoupled from storage.
// BagReporter aggregates into a Bag, which supports sorting, deduplication and
// error checks. Rendering lives in internal/diagfmt.
//
// Diagnostic is the central record:
//
//   - Severity – Help, Info, Warning or Error.
//   - Code – compact numeric identifier with a stable string form (codes.go).
//   - Message – short, actionable text.
//   - Primary – the source.Span pointing at the issue.
//   - Notes – optional secondary spans.
//
// Diagnostics accumulate: a phase keeps going after reporting, so one
// compilation surfaces as many issues as possible.
package diag
