// Package views derives display projections over cached rows: substring
// filters, status filters, comparator sorts, and per-project grouping. All
// functions are pure; output is always a permutation or partition of input.
package views

import (
	"sort"
	"strings"
	"time"

	"cineforge/internal/models"
)

// SortKey selects a clip comparator.
type SortKey string

const (
	SortRecent    SortKey = "recent"
	SortDuration  SortKey = "duration"
	SortShotOrder SortKey = "shot"
)

// ParseSortKey validates a user-supplied sort key.
func ParseSortKey(value string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(value))) {
	case SortRecent:
		return SortRecent, true
	case SortDuration:
		return SortDuration, true
	case SortShotOrder:
		return SortShotOrder, true
	case "":
		return SortRecent, true
	default:
		return "", false
	}
}

// FilterProjects keeps projects whose title or prompt contains the query
// (case-insensitive). An empty query keeps everything.
func FilterProjects(projects []models.Project, query string) []models.Project {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]models.Project(nil), projects...)
	}
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Prompt), query) {
			out = append(out, p)
		}
	}
	return out
}

// FilterProjectsByStatus keeps projects matching any of the given statuses.
// An empty status set keeps everything.
func FilterProjectsByStatus(projects []models.Project, statuses []models.ProjectStatus) []models.Project {
	if len(statuses) == 0 {
		return append([]models.Project(nil), projects...)
	}
	allowed := make(map[models.ProjectStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if _, ok := allowed[p.Status]; ok {
			out = append(out, p)
		}
	}
	return out
}

// FilterClipsByStatus keeps clips matching any of the given statuses. An
// empty status set keeps everything.
func FilterClipsByStatus(clips []models.Clip, statuses []models.ClipStatus) []models.Clip {
	if len(statuses) == 0 {
		return append([]models.Clip(nil), clips...)
	}
	allowed := make(map[models.ClipStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	out := make([]models.Clip, 0, len(clips))
	for _, c := range clips {
		if _, ok := allowed[c.Status]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SortClips returns a sorted copy. Recent is newest-first, duration is
// longest-first, shot order is ascending by index.
func SortClips(clips []models.Clip, key SortKey) []models.Clip {
	out := append([]models.Clip(nil), clips...)
	switch key {
	case SortDuration:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DurationSeconds > out[j].DurationSeconds
		})
	case SortShotOrder:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ShotIndex < out[j].ShotIndex
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return clipActivity(out[i]).After(clipActivity(out[j]))
		})
	}
	return out
}

// clipActivity is the timestamp recency sorting keys on. Clips that have
// never been updated fall back to their creation time.
func clipActivity(clip models.Clip) time.Time {
	if clip.UpdatedAt.IsZero() {
		return clip.CreatedAt
	}
	return clip.UpdatedAt
}

// SortProjectsRecent returns a newest-first copy.
func SortProjectsRecent(projects []models.Project) []models.Project {
	out := append([]models.Project(nil), projects...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ClipGroup is the per-project reduction over a clip list.
type ClipGroup struct {
	ProjectID string
	Clips     []models.Clip
	Completed int
	Failed    int
	LatestAt  time.Time
}

// GroupClipsByProject partitions clips by project id and accumulates per-group
// counts and the running latest-update max. Every clip lands in exactly one
// group; groups are ordered by most recent activity.
func GroupClipsByProject(clips []models.Clip) []ClipGroup {
	index := make(map[string]int)
	groups := make([]ClipGroup, 0)
	for _, clip := range clips {
		i, ok := index[clip.ProjectID]
		if !ok {
			i = len(groups)
			index[clip.ProjectID] = i
			groups = append(groups, ClipGroup{ProjectID: clip.ProjectID})
		}
		g := &groups[i]
		g.Clips = append(g.Clips, clip)
		switch clip.Status {
		case models.ClipCompleted:
			g.Completed++
		case models.ClipFailed:
			g.Failed++
		}
		if clip.UpdatedAt.After(g.LatestAt) {
			g.LatestAt = clip.UpdatedAt
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LatestAt.After(groups[j].LatestAt)
	})
	return groups
}
