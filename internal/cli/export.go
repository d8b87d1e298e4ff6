package cli

import (
	"github.com/spf13/cobra"

	"drawdown-scan/internal/app"
)

var (
	exportRunID    int64
	exportCSVPath  string
	exportPNGPath  string
	exportChartTop int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an archived run as CSV and/or PNG drawdown chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			RunID:    exportRunID,
			CSVPath:  exportCSVPath,
			PNGPath:  exportPNGPath,
			ChartTop: exportChartTop,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportRunID, "run", 0, "Run id to export (defaults to the latest run)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().IntVar(&exportChartTop, "top", 0, "Number of bars in the chart (defaults to config)")
}
