package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cineforge/internal/backend"
	"cineforge/internal/ipc"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var req backend.CreateProjectRequest
	var watch bool

	cmd := &cobra.Command{
		Use:   "create <prompt>",
		Short: "Start a new movie project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Prompt = strings.TrimSpace(strings.Join(args, " "))

			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}

			projectID, err := client.CreateProject(cmd.Context(), req)
			if err != nil {
				var active *backend.ActiveProjectError
				if errors.As(err, &active) {
					return fmt.Errorf("a project is already in production (%s); wait for it to finish or delete it with `cineforge projects delete %s`",
						shortID(active.ProjectID), active.ProjectID)
				}
				if errors.Is(err, backend.ErrInsufficientCredits) {
					return errors.New("not enough credits; check `cineforge credits`")
				}
				return err
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Project created: %s\n", projectID)

			if !watch {
				fmt.Fprintf(stdout, "Follow progress with `cineforge production status %s`\n", shortID(projectID))
				return nil
			}
			return ctx.withClient(func(ipcClient *ipc.Client) error {
				resp, err := ipcClient.Watch(projectID)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, resp.Message)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Mode, "mode", "movie", "Production mode (movie, short, trailer)")
	cmd.Flags().StringVar(&req.AspectRatio, "aspect", "", "Aspect ratio, e.g. 16:9 or 9:16")
	cmd.Flags().IntVar(&req.ClipCount, "clips", 0, "Number of clips to produce")
	cmd.Flags().IntVar(&req.ClipDurationSec, "clip-duration", 0, "Seconds per clip")
	cmd.Flags().BoolVar(&req.Narration, "narration", false, "Include narration")
	cmd.Flags().BoolVar(&req.Music, "music", false, "Include a music track")
	cmd.Flags().StringVar(&req.UniverseID, "universe", "", "Universe id to reuse characters and style from")
	cmd.Flags().StringSliceVar(&req.MediaURLs, "media", nil, "Reference media URLs")
	cmd.Flags().BoolVar(&watch, "watch", false, "Ask the daemon to watch the new project")
	return cmd
}
