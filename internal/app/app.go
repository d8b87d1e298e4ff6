package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"drawdown-scan/internal/alerting"
	"drawdown-scan/internal/config"
	"drawdown-scan/internal/fetcher"
	"drawdown-scan/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newProvider() fetcher.Provider {
	p := a.Config.Provider
	if p.Name == "coingecko" {
		return fetcher.NewCoinGecko(fetcher.CoinGeckoOptions{
			BaseURL:   p.BaseURL,
			Timeout:   p.RequestTimeout,
			UserAgent: p.UserAgent,
		}, a.Logger)
	}
	return fetcher.NewBinance(fetcher.BinanceOptions{
		BaseURL:     p.BaseURL,
		Timeout:     p.RequestTimeout,
		UserAgent:   p.UserAgent,
		QuoteSuffix: p.QuoteSuffix,
	}, a.Logger)
}

// newUniverseSource always speaks to CoinGecko: the markets endpoint is the
// one place that serves a cap-ranked universe, regardless of which provider
// later serves the price series.
func (a *App) newUniverseSource() fetcher.UniverseSource {
	p := a.Config.Provider
	baseURL := ""
	if p.Name == "coingecko" {
		baseURL = p.BaseURL
	}
	return fetcher.NewCoinGecko(fetcher.CoinGeckoOptions{
		BaseURL:   baseURL,
		Timeout:   p.RequestTimeout,
		UserAgent: p.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// AnalyzeOptions configure one analysis batch.
type AnalyzeOptions struct {
	CSVPath   string
	NoArchive bool
}

// FetchUniverseOptions configure the universe snapshot command.
type FetchUniverseOptions struct {
	Top     int
	OutPath string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	RunID int64
	Limit int
}

// ExportOptions hold parameters for exporting an archived run.
type ExportOptions struct {
	RunID    int64
	CSVPath  string
	PNGPath  string
	ChartTop int
}
