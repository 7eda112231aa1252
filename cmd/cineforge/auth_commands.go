package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cineforge/internal/backend"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var emailFlag string
	var passwordFlag string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			email := strings.TrimSpace(emailFlag)
			if email == "" {
				email, err = promptLine(cmd, "Email: ")
				if err != nil {
					return err
				}
			}
			password := passwordFlag
			if password == "" {
				password, err = promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			client := ctx.anonClient(cfg)
			session, err := client.SignIn(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			if err := backend.SaveSession(cfg.Session.Path, session); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&emailFlag, "email", "", "Account email")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			session, err := backend.LoadSession(cfg.Session.Path)
			if err != nil {
				return err
			}
			if session == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			client := ctx.anonClient(cfg)
			client.SetSession(session)
			if err := client.SignOut(cmd.Context()); err != nil {
				return err
			}
			if err := backend.SaveSession(cfg.Session.Path, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			session := client.Session()
			profile, err := client.GetProfile(cmd.Context(), session.UserID)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, profile)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email:        %s\n", profile.Email)
			if profile.DisplayName != "" {
				fmt.Fprintf(out, "Display name: %s\n", profile.DisplayName)
			}
			fmt.Fprintf(out, "User ID:      %s\n", profile.ID)
			fmt.Fprintf(out, "Onboarded:    %s\n", yesNo(profile.Onboarded))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	stdin, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(stdin.Fd())) {
		return promptLine(cmd, prompt)
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	raw, err := term.ReadPassword(int(stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
