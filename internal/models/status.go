package models

import "strings"

// ProjectStatus represents the server-owned lifecycle of a project.
type ProjectStatus string

const (
	ProjectDraft           ProjectStatus = "draft"
	ProjectGenerating      ProjectStatus = "generating"
	ProjectProducing       ProjectStatus = "producing"
	ProjectRendering       ProjectStatus = "rendering"
	ProjectStitching       ProjectStatus = "stitching"
	ProjectCompleted       ProjectStatus = "completed"
	ProjectFailed          ProjectStatus = "failed"
	ProjectStitchingFailed ProjectStatus = "stitching_failed"
)

var allProjectStatuses = []ProjectStatus{
	ProjectDraft,
	ProjectGenerating,
	ProjectProducing,
	ProjectRendering,
	ProjectStitching,
	ProjectCompleted,
	ProjectFailed,
	ProjectStitchingFailed,
}

var projectStatusSet = func() map[ProjectStatus]struct{} {
	set := make(map[ProjectStatus]struct{}, len(allProjectStatuses))
	for _, status := range allProjectStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllProjectStatuses returns the ordered list of known project statuses.
func AllProjectStatuses() []ProjectStatus {
	cp := make([]ProjectStatus, len(allProjectStatuses))
	copy(cp, allProjectStatuses)
	return cp
}

// ParseProjectStatus converts a string into a known ProjectStatus.
func ParseProjectStatus(value string) (ProjectStatus, bool) {
	normalized := ProjectStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := projectStatusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status ends the watch for a project.
func (s ProjectStatus) IsTerminal() bool {
	switch s {
	case ProjectCompleted, ProjectFailed, ProjectStitchingFailed:
		return true
	default:
		return false
	}
}

// IsActive reports whether the server may still push updates for the project.
func (s ProjectStatus) IsActive() bool {
	switch s {
	case ProjectGenerating, ProjectProducing, ProjectRendering, ProjectStitching:
		return true
	default:
		return false
	}
}

// ClipStatus represents the lifecycle of a single clip.
type ClipStatus string

const (
	ClipPending    ClipStatus = "pending"
	ClipGenerating ClipStatus = "generating"
	ClipCompleted  ClipStatus = "completed"
	ClipFailed     ClipStatus = "failed"
)

// ParseClipStatus converts a string into a known ClipStatus.
func ParseClipStatus(value string) (ClipStatus, bool) {
	switch normalized := ClipStatus(strings.ToLower(strings.TrimSpace(value))); normalized {
	case ClipPending, ClipGenerating, ClipCompleted, ClipFailed:
		return normalized, true
	default:
		return "", false
	}
}

// CreditType categorizes a ledger row for display aggregation.
type CreditType string

const (
	CreditUsage    CreditType = "usage"
	CreditPurchase CreditType = "purchase"
	CreditBonus    CreditType = "bonus"
)
