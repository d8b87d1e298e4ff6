package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"drawdown-scan/internal/logging"
)

// StartPriceBasis selects which field of the earliest candle anchors the
// window's start price. The source data supports both conventions; the
// choice must stay consistent across every return column of one run.
const (
	BasisOpen  = "open"
	BasisClose = "close"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Universe UniverseConfig `mapstructure:"universe"`
	Provider ProviderConfig `mapstructure:"provider"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Export   ExportConfig   `mapstructure:"export"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the run archive.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// UniverseConfig locates and filters the asset universe.
type UniverseConfig struct {
	File           string   `mapstructure:"file"`
	Top            int      `mapstructure:"top"`
	ExcludeSymbols []string `mapstructure:"exclude_symbols"`
	ExcludeNames   []string `mapstructure:"exclude_names"`
}

// ProviderConfig captures market-data provider connectivity.
type ProviderConfig struct {
	Name              string        `mapstructure:"name"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestDelay      time.Duration `mapstructure:"request_delay"`
	RateLimitCooldown time.Duration `mapstructure:"rate_limit_cooldown"`
	QuoteSuffix       string        `mapstructure:"quote_suffix"`
}

// AnalysisConfig governs the drawdown computation window and anchors.
type AnalysisConfig struct {
	WindowDays      int    `mapstructure:"window_days"`
	TargetDate      string `mapstructure:"target_date"`
	StartPriceBasis string `mapstructure:"start_price_basis"`
	MaxAssets       int    `mapstructure:"max_assets"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	CSVPath   string `mapstructure:"csv_path"`
	ChartPath string `mapstructure:"chart_path"`
	ChartTop  int    `mapstructure:"chart_top"`
}

// AlertingConfig defines run-summary alert thresholds and routing.
type AlertingConfig struct {
	Enabled                  bool           `mapstructure:"enabled"`
	MeanDrawdownThresholdPct float64        `mapstructure:"mean_drawdown_threshold_pct"`
	Telegram                 TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// WatchConfig drives the periodic re-analysis loop.
type WatchConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DRAWDOWNSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "drawdownscan")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("universe.file", "data/universe.csv")
	v.SetDefault("universe.top", 250)
	// Pegged stable assets and wrapped/liquid-staking derivatives do not
	// trade on their own supply and demand; their drawdowns are noise.
	v.SetDefault("universe.exclude_symbols", []string{
		"usdt", "usdc", "fdusd", "dai", "busd", "tusd",
		"usde", "usd1", "susds", "pyusd", "usds", "syrupusdt",
		"usdt0", "usdtf", "syrupusdc", "usdtb", "bfusd", "rlusd", "usdg", "usyc", "bsc-usd",
		"reth", "steth", "wsteth", "wbeth", "weth", "weeth", "rseth",
		"wbtc", "cbbtc", "fbtc",
		"jitosol", "bnsol",
		"wbnb",
	})
	v.SetDefault("universe.exclude_names", []string{"Wrapped SOL"})

	v.SetDefault("provider.name", "binance")
	v.SetDefault("provider.request_timeout", "10s")
	v.SetDefault("provider.user_agent", "drawdownscan/1.0")
	v.SetDefault("provider.request_delay", "300ms")
	v.SetDefault("provider.rate_limit_cooldown", "60s")
	v.SetDefault("provider.quote_suffix", "USDT")

	v.SetDefault("analysis.window_days", 100)
	v.SetDefault("analysis.start_price_basis", BasisClose)
	v.SetDefault("analysis.max_assets", 100)

	v.SetDefault("export.chart_top", 20)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.mean_drawdown_threshold_pct", 30.0)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("watch.interval", "12h")
	v.SetDefault("watch.startup_delay", "0s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "coingecko", "binance":
	default:
		return fmt.Errorf("provider.name must be coingecko or binance, got %q", c.Provider.Name)
	}
	if c.Analysis.WindowDays <= 0 {
		return fmt.Errorf("analysis.window_days must be greater than zero")
	}
	if c.Analysis.MaxAssets <= 0 {
		return fmt.Errorf("analysis.max_assets must be greater than zero")
	}
	if b := c.Analysis.StartPriceBasis; b != BasisOpen && b != BasisClose {
		return fmt.Errorf("analysis.start_price_basis must be %q or %q", BasisOpen, BasisClose)
	}
	if c.Analysis.TargetDate != "" {
		if _, err := time.Parse("2006-01-02", c.Analysis.TargetDate); err != nil {
			return fmt.Errorf("analysis.target_date must be YYYY-MM-DD: %w", err)
		}
	}
	if c.Provider.RequestDelay < 0 {
		return fmt.Errorf("provider.request_delay cannot be negative")
	}
	if c.Universe.Top <= 0 || c.Universe.Top > 250 {
		return fmt.Errorf("universe.top must be in (0, 250]")
	}
	if c.Export.ChartTop <= 0 {
		return fmt.Errorf("export.chart_top must be greater than zero")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// TargetDay parses the configured target date, nil when unset.
func (c *AnalysisConfig) TargetDay() *time.Time {
	if c.TargetDate == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", c.TargetDate)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
