package cli

import (
	"github.com/spf13/cobra"

	"drawdown-scan/internal/app"
)

var (
	analyzeDays      int
	analyzeTarget    string
	analyzeMax       int
	analyzeProvider  string
	analyzeCSVPath   string
	analyzeNoArchive bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one drawdown analysis batch over the universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		if err := applyAnalyzeOverrides(a); err != nil {
			return err
		}

		opts := app.AnalyzeOptions{
			CSVPath:   analyzeCSVPath,
			NoArchive: analyzeNoArchive,
		}
		return a.Analyze(cmd.Context(), opts)
	},
}

func applyAnalyzeOverrides(a *app.App) error {
	if analyzeDays > 0 {
		a.Config.Analysis.WindowDays = analyzeDays
	}
	if analyzeTarget != "" {
		a.Config.Analysis.TargetDate = analyzeTarget
	}
	if analyzeMax > 0 {
		a.Config.Analysis.MaxAssets = analyzeMax
	}
	if analyzeProvider != "" {
		a.Config.Provider.Name = analyzeProvider
	}
	return a.Config.Validate()
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "Window length in days (defaults to config)")
	analyzeCmd.Flags().StringVar(&analyzeTarget, "target", "", "Target date (YYYY-MM-DD) for anchored metrics")
	analyzeCmd.Flags().IntVar(&analyzeMax, "limit", 0, "Maximum number of analyzed assets (defaults to config)")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "Price series provider: coingecko or binance")
	analyzeCmd.Flags().StringVar(&analyzeCSVPath, "csv", "", "Path to write the ranked results CSV")
	analyzeCmd.Flags().BoolVar(&analyzeNoArchive, "no-archive", false, "Skip writing the run to the database archive")
}
