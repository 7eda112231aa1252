package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cineforge/internal/backend"
	"cineforge/internal/cache"
	"cineforge/internal/models"
	"cineforge/internal/views"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect and manage movie projects",
	}

	projectsCmd.AddCommand(newProjectsListCommand(ctx))
	projectsCmd.AddCommand(newProjectsShowCommand(ctx))
	projectsCmd.AddCommand(newProjectsDeleteCommand(ctx))

	return projectsCmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	var filterQuery string
	var filterStatuses []string
	var jsonOut bool
	var offline bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, fromMirror, err := loadProjects(cmd.Context(), ctx, offline)
			if err != nil {
				return err
			}

			statuses, err := parseProjectStatuses(filterStatuses)
			if err != nil {
				return err
			}
			projects = views.FilterProjects(projects, filterQuery)
			projects = views.FilterProjectsByStatus(projects, statuses)
			projects = views.SortProjectsRecent(projects)

			if jsonOut {
				return writeJSON(cmd, projects)
			}

			stdout := cmd.OutOrStdout()
			if fromMirror {
				fmt.Fprintln(stdout, "Backend unreachable; showing local mirror")
			}
			if len(projects) == 0 {
				fmt.Fprintln(stdout, "No projects")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{
					shortID(p.ID),
					truncate(p.Title, 40),
					displayStatus(string(p.Status)),
					formatClipCount(p.Progress().ClipsDone, p.ExpectedClipCount),
					formatAge(p.CreatedAt),
				})
			}
			table := renderTable(
				[]string{"ID", "Title", "Status", "Clips", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	cmd.Flags().StringVar(&filterQuery, "filter", "", "Substring match on title or prompt")
	cmd.Flags().StringSliceVar(&filterStatuses, "status", nil, "Only show projects with these statuses")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Read the local mirror instead of the backend")
	return cmd
}

func newProjectsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project with its clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			project, err := client.GetProject(cmd.Context(), projectID)
			if err != nil {
				if errors.Is(err, backend.ErrNotFound) {
					return fmt.Errorf("project %s not found", projectID)
				}
				return err
			}
			clips, err := client.ListClips(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, struct {
					Project models.Project `json:"project"`
					Clips   []models.Clip  `json:"clips"`
				}{project, clips})
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range renderSectionHeader("Project", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintf(stdout, "  ID:      %s\n", project.ID)
			fmt.Fprintf(stdout, "  Title:   %s\n", project.Title)
			fmt.Fprintf(stdout, "  Mode:    %s\n", project.Mode)
			fmt.Fprintf(stdout, "  Status:  %s\n", displayStatus(string(project.Status)))
			progress := project.Progress()
			if idx := models.StageIndex(progress.Stage); idx >= 0 {
				fmt.Fprintf(stdout, "  Stage:   %s\n", formatStageProgress(idx, models.StageCount()))
			}
			if progress.Message != "" {
				fmt.Fprintf(stdout, "  Detail:  %s\n", progress.Message)
			}
			if project.FinalVideoURL != "" {
				fmt.Fprintf(stdout, "  Video:   %s\n", project.FinalVideoURL)
			}
			if project.ErrorMessage != "" {
				fmt.Fprintf(stdout, "  Error:   %s\n", project.ErrorMessage)
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Clips", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if len(clips) == 0 {
				fmt.Fprintln(stdout, "No clips yet")
				return nil
			}
			fmt.Fprintln(stdout, renderClipTable(clips))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newProjectsDeleteCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			if !force {
				project, err := client.GetProject(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				if project.Status.IsActive() {
					return fmt.Errorf("project %q is still in production; pass --force to delete it anyway", project.Title)
				}
			}
			if err := client.DeleteProject(cmd.Context(), projectID); err != nil {
				return err
			}
			if store, err := cache.Open(ctx.configValue()); err == nil {
				_ = store.DeleteProject(cmd.Context(), projectID)
				_ = store.Close()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", projectID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even while the project is in production")
	return cmd
}

// loadProjects fetches from the backend, mirroring rows locally; when offline
// is set or the backend is unreachable it falls back to the mirror.
func loadProjects(cmdCtx context.Context, ctx *commandContext, offline bool) ([]models.Project, bool, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, false, err
	}

	if !offline {
		client, err := ctx.apiClient(cmdCtx)
		if err == nil {
			projects, listErr := client.ListProjects(cmdCtx, client.Session().UserID, cfg.Backend.RowLimit)
			if listErr == nil {
				if store, openErr := cache.Open(cfg); openErr == nil {
					_ = store.UpsertProjects(cmdCtx, projects)
					_ = store.Close()
				}
				return projects, false, nil
			}
			err = listErr
		}
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, false, err
		}
	}

	store, err := cache.Open(cfg)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()
	projects, err := store.ListProjects(cmdCtx, cfg.Backend.RowLimit)
	if err != nil {
		return nil, false, err
	}
	return projects, !offline, nil
}

func parseProjectStatuses(values []string) ([]models.ProjectStatus, error) {
	statuses := make([]models.ProjectStatus, 0, len(values))
	for _, value := range values {
		status, ok := models.ParseProjectStatus(strings.TrimSpace(value))
		if !ok {
			return nil, fmt.Errorf("unknown project status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
