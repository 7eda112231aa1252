package faults

import (
	"context"
	"errors"
	"strings"

	"cineforge/internal/backend"
)

// Kind is the coarse display category for a failure.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindAuth            Kind = "auth"
	KindTimeout         Kind = "timeout"
	KindAsyncRace       Kind = "async-race"
	KindRender          Kind = "render"
	KindStateCorruption Kind = "state-corruption"
	KindUnknown         Kind = "unknown"
)

// Classify maps an error onto a Kind. Typed errors from the backend boundary
// are checked first; message heuristics are only the fallback for errors that
// arrive untyped (third-party, runtime).
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return KindAuth
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindAsyncRace
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401 || apiErr.Status == 403:
			return KindAuth
		case apiErr.Status == 408 || apiErr.Status == 504:
			return KindTimeout
		case apiErr.Status >= 500:
			return KindNetwork
		}
	}
	return classifyMessage(err.Error())
}

func classifyMessage(message string) Kind {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "connection refused", "no such host", "network", "dial tcp", "broken pipe", "eof"):
		return KindNetwork
	case containsAny(lower, "unauthorized", "jwt", "token expired", "forbidden"):
		return KindAuth
	case containsAny(lower, "timeout", "timed out", "deadline"):
		return KindTimeout
	case containsAny(lower, "aborted", "canceled", "cancelled"):
		return KindAsyncRace
	case containsAny(lower, "render", "hydrat", "chunk"):
		return KindRender
	case containsAny(lower, "corrupt", "invalid state", "inconsistent"):
		return KindStateCorruption
	default:
		return KindUnknown
	}
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// suppressList names known-benign conditions that should never surface as
// failures: expected aborts, observer loop warnings, unmount races.
var suppressList = []string{
	"ResizeObserver loop",
	"context canceled",
	"request aborted",
	"operation was aborted",
	"use of closed network connection",
}

// ShouldSuppress reports whether a message matches the benign allow-list.
func ShouldSuppress(message string) bool {
	for _, needle := range suppressList {
		if strings.Contains(message, needle) {
			return true
		}
	}
	return false
}
