package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cineforge/internal/cache"
	"cineforge/internal/models"
)

func newCreditsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var showAll bool

	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Show credit balance and recent transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			transactions, err := client.ListCredits(cmd.Context(), client.Session().UserID, cfg.Backend.RowLimit)
			if err != nil {
				return err
			}
			if store, openErr := cache.Open(cfg); openErr == nil {
				_ = store.ReplaceCredits(cmd.Context(), transactions)
				_ = store.Close()
			}

			summary := models.SummarizeCredits(transactions)
			if jsonOut {
				return writeJSON(cmd, struct {
					Summary      models.CreditSummary       `json:"summary"`
					Transactions []models.CreditTransaction `json:"transactions"`
				}{summary, transactions})
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range renderSectionHeader("Credits", colorize) {
				fmt.Fprintln(stdout, line)
			}
			balanceKind := statusOK
			if summary.Balance <= 0 {
				balanceKind = statusWarn
			}
			fmt.Fprintln(stdout, renderStatusLine("Balance", balanceKind, fmt.Sprintf("%d", summary.Balance), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Purchased", statusInfo, fmt.Sprintf("%d", summary.Purchased), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Bonus", statusInfo, fmt.Sprintf("%d", summary.Bonus), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Spent", statusInfo, fmt.Sprintf("%d", summary.Spent), colorize))

			if !showAll || len(transactions) == 0 {
				return nil
			}
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Transactions", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := make([][]string, 0, len(transactions))
			for _, tx := range transactions {
				rows = append(rows, []string{
					displayStatus(string(tx.Type)),
					fmt.Sprintf("%+d", tx.Amount),
					formatAge(tx.CreatedAt),
				})
			}
			table := renderTable(
				[]string{"Type", "Amount", "When"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showAll, "transactions", false, "List individual transactions")
	return cmd
}
