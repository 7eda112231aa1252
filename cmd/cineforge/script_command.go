package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cineforge/internal/backend"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	var promptFlag string

	cmd := &cobra.Command{
		Use:   "script <project-id>",
		Short: "Generate a fresh script draft for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			script, err := client.GenerateScript(cmd.Context(), backend.GenerateScriptRequest{
				ProjectID: strings.TrimSpace(args[0]),
				Prompt:    strings.TrimSpace(promptFlag),
			})
			if err != nil {
				return err
			}
			if strings.TrimSpace(script) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No script returned")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), script)
			return nil
		},
	}

	cmd.Flags().StringVar(&promptFlag, "prompt", "", "Override the project prompt for this draft")
	return cmd
}
