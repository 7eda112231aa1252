package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cineforge/internal/models"
	"cineforge/internal/views"
)

func newClipsCommand(ctx *commandContext) *cobra.Command {
	var filterStatuses []string
	var sortFlag string
	var grouped bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "clips [project-id]",
		Short: "List clips for one project, or all mirrored clips grouped by project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}

			sortKey, ok := views.ParseSortKey(sortFlag)
			if !ok {
				return fmt.Errorf("unknown sort key %q (recent, duration, shot)", sortFlag)
			}
			statuses, err := parseClipStatuses(filterStatuses)
			if err != nil {
				return err
			}

			var clips []models.Clip
			if len(args) == 1 {
				clips, err = client.ListClips(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
			} else {
				grouped = true
				projects, err := client.ListProjects(cmd.Context(), client.Session().UserID, ctx.configValue().Backend.RowLimit)
				if err != nil {
					return err
				}
				for _, project := range projects {
					projectClips, err := client.ListClips(cmd.Context(), project.ID)
					if err != nil {
						return err
					}
					clips = append(clips, projectClips...)
				}
			}

			clips = views.FilterClipsByStatus(clips, statuses)
			clips = views.SortClips(clips, sortKey)

			stdout := cmd.OutOrStdout()
			if len(clips) == 0 {
				fmt.Fprintln(stdout, "No clips")
				return nil
			}

			if grouped {
				groups := views.GroupClipsByProject(clips)
				if jsonOut {
					return writeJSON(cmd, groups)
				}
				colorize := shouldColorize(stdout)
				for i, group := range groups {
					if i > 0 {
						fmt.Fprintln(stdout)
					}
					header := fmt.Sprintf("Project %s (%d done, %d failed)",
						shortID(group.ProjectID), group.Completed, group.Failed)
					for _, line := range renderSectionHeader(header, colorize) {
						fmt.Fprintln(stdout, line)
					}
					fmt.Fprintln(stdout, renderClipTable(group.Clips))
				}
				return nil
			}

			if jsonOut {
				return writeJSON(cmd, clips)
			}
			fmt.Fprintln(stdout, renderClipTable(clips))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&filterStatuses, "status", nil, "Only show clips with these statuses")
	cmd.Flags().StringVar(&sortFlag, "sort", string(views.SortShotOrder), "Sort order: recent, duration, shot")
	cmd.Flags().BoolVar(&grouped, "group", false, "Group output by project")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderClipTable(clips []models.Clip) string {
	rows := make([][]string, 0, len(clips))
	for _, clip := range clips {
		detail := clip.VideoURL
		if clip.Status == models.ClipFailed && clip.ErrorMessage != "" {
			detail = clip.ErrorMessage
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", clip.ShotIndex),
			displayStatus(string(clip.Status)),
			formatClipDuration(clip.DurationSeconds),
			formatAge(clip.UpdatedAt),
			truncate(detail, 48),
		})
	}
	return renderTable(
		[]string{"Shot", "Status", "Duration", "Updated", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func parseClipStatuses(values []string) ([]models.ClipStatus, error) {
	statuses := make([]models.ClipStatus, 0, len(values))
	for _, value := range values {
		status, ok := models.ParseClipStatus(strings.TrimSpace(value))
		if !ok {
			return nil, fmt.Errorf("unknown clip status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
