// Package faults classifies failures for display and decides whether they
// should be surfaced. Typed backend errors drive classification; substring
// heuristics only catch errors that arrive untyped. Nothing here retries or
// recovers; it exists to keep noise out of the user's face.
package faults
