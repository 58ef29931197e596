// Package detect recovers structured tool invocations from free-form
// model output. It runs an open set of independent detection strategies,
// each recognizing one textual convention, then deduplicates the
// candidates and validates them against the live tool registry.
//
// Strategies are pure functions over normalized text: they never perform
// I/O and never fail. A span that resembles a convention but does not
// parse is skipped silently.
//
// An explicit intent gate runs before the strategies. It rejects inputs
// that look like plain questions or bare file-analysis requests so a
// document upload is not escalated into a live tool call. The gate is a
// configurable policy, not a hard boundary.
package detect
