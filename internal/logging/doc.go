// Package logging assembles the structured slog loggers used across
// Cineforge. It owns the console and JSON handlers, level and output
// plumbing, standardized attribute keys, and a no-op logger for tests and
// wiring code that cannot fail.
package logging
