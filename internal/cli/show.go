package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"drawdown-scan/internal/app"
)

var (
	showLimit int
	showRunID int64
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display archived runs or one run's ranked reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			RunID: showRunID,
			Limit: showLimit,
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of runs to display")
	showCmd.Flags().Int64Var(&showRunID, "run", 0, "Show the ranked reports of one run id")
}
