package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized indicates a missing, expired, or rejected session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates the requested row or function does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientCredits indicates the backend refused an operation for
	// lack of credits.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// APIError is the structured error body returned by the backend for both
// table requests and edge function invocations.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("backend: %s (http %d, code %s)", msg, e.Status, e.Code)
	}
	return fmt.Sprintf("backend: %s (http %d)", msg, e.Status)
}

// Is maps well-known statuses and codes onto the package sentinels so call
// sites can branch with errors.Is instead of matching message substrings.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == 401 || e.Status == 403
	case ErrNotFound:
		return e.Status == 404
	case ErrInsufficientCredits:
		return e.Code == "insufficient_credits"
	default:
		return false
	}
}

// ActiveProjectError is the distinguished conflict returned by mode-router
// when the user already has a project in flight. It carries the existing
// project id so the caller can offer a resume path.
type ActiveProjectError struct {
	ProjectID string `json:"existing_project_id"`
}

func (e *ActiveProjectError) Error() string {
	return fmt.Sprintf("backend: an active project already exists (%s)", e.ProjectID)
}
