package cli

import (
	"github.com/spf13/cobra"

	"drawdown-scan/internal/app"
)

var (
	fetchUniverseTop int
	fetchUniverseOut string
)

var fetchUniverseCmd = &cobra.Command{
	Use:   "fetch-universe",
	Short: "Snapshot the top assets by market cap into the universe CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.FetchUniverseOptions{
			Top:     fetchUniverseTop,
			OutPath: fetchUniverseOut,
		}
		return getApp().FetchUniverse(cmd.Context(), opts)
	},
}

func init() {
	fetchUniverseCmd.Flags().IntVar(&fetchUniverseTop, "top", 0, "Number of assets to fetch, max 250 (defaults to config)")
	fetchUniverseCmd.Flags().StringVar(&fetchUniverseOut, "out", "", "Output CSV path (defaults to config)")
}
