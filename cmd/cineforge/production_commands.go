package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cineforge/internal/ipc"
)

func newProductionCommand(ctx *commandContext) *cobra.Command {
	productionCmd := &cobra.Command{
		Use:   "production",
		Short: "Follow and control in-flight productions",
	}

	productionCmd.AddCommand(newProductionStatusCommand(ctx))
	productionCmd.AddCommand(newProductionWatchCommand(ctx))
	productionCmd.AddCommand(newProductionStitchCommand(ctx))
	productionCmd.AddCommand(newProductionRetryCommand(ctx))

	return productionCmd
}

func newProductionStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var showEvents bool

	cmd := &cobra.Command{
		Use:   "status [project-id]",
		Short: "Show reconciled production state from the daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				if len(args) == 0 {
					resp, err := client.WatchList()
					if err != nil {
						return err
					}
					if jsonOut {
						return writeJSON(cmd, resp)
					}
					if len(resp.Watches) == 0 {
						fmt.Fprintln(stdout, "No watched productions")
						return nil
					}
					rows := make([][]string, 0, len(resp.Watches))
					for _, watch := range resp.Watches {
						rows = append(rows, []string{
							shortID(watch.ProjectID),
							truncate(watch.Title, 36),
							displayStatus(watch.Status),
							formatStageProgress(watch.StageIndex, watch.StageCount),
							formatClipCount(watch.CompletedClips, watch.ExpectedClips),
							yesNo(watch.StitchRequested),
						})
					}
					table := renderTable(
						[]string{"ID", "Title", "Status", "Stage", "Clips", "Stitch"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					)
					fmt.Fprintln(stdout, table)
					return nil
				}

				resp, err := client.ProductionStatus(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}
				watch := resp.Watch
				for _, line := range renderSectionHeader("Production", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Project", statusInfo, fmt.Sprintf("%s (%s)", watch.Title, shortID(watch.ProjectID)), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Status", productionStatusKind(watch), displayStatus(watch.Status), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Stage", statusInfo, formatStageProgress(watch.StageIndex, watch.StageCount), colorize))
				if watch.StagePercent > 0 {
					fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%.0f%%", watch.StagePercent), colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Clips", statusInfo, formatClipCount(watch.CompletedClips, watch.ExpectedClips), colorize))
				if watch.StitchRequested {
					fmt.Fprintln(stdout, renderStatusLine("Stitch", statusOK, "requested", colorize))
				}
				if watch.FinalVideoURL != "" {
					fmt.Fprintln(stdout, renderStatusLine("Video", statusOK, watch.FinalVideoURL, colorize))
				}
				if watch.ErrorMessage != "" {
					fmt.Fprintln(stdout, renderStatusLine("Error", statusError, watch.ErrorMessage, colorize))
				}

				if showEvents && len(resp.Events) > 0 {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Events", colorize) {
						fmt.Fprintln(stdout, line)
					}
					for _, event := range resp.Events {
						fmt.Fprintf(stdout, "  %s  %s\n", event.At.Local().Format("15:04:05"), event.Message)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showEvents, "events", false, "Include recent reconciler events")
	return cmd
}

func newProductionWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <project-id>",
		Short: "Ask the daemon to watch a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Watch(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newProductionStitchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stitch <project-id>",
		Short: "Request final assembly of a project's completed clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := client.TriggerStitch(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Stitch accepted, status: %s\n", displayStatus(string(resp.Status)))
			if resp.FinalVideoURL != "" {
				fmt.Fprintf(stdout, "Final video: %s\n", resp.FinalVideoURL)
			}
			return nil
		},
	}
}

func newProductionRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <project-id> <clip-id>",
		Short: "Ask the orchestrator to regenerate a failed clip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.RetryClip(cmd.Context(), strings.TrimSpace(args[0]), strings.TrimSpace(args[1])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Retry requested")
			return nil
		},
	}
}

func productionStatusKind(watch ipc.WatchSummary) statusKind {
	switch watch.Status {
	case "completed":
		return statusOK
	case "failed", "stitching_failed":
		return statusError
	default:
		return statusInfo
	}
}
