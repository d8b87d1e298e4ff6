package cli

import (
	"github.com/spf13/cobra"

	"drawdown-scan/internal/app"
)

var watchCSVPath string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the analysis batch on a fixed cadence",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.AnalyzeOptions{CSVPath: watchCSVPath}
		return getApp().Watch(cmd.Context(), opts)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchCSVPath, "csv", "", "Path to rewrite the ranked results CSV each cycle")
}
