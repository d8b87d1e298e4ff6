package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading without a config file must fall back to defaults: %v", err)
	}

	if cfg.Provider.Name != "binance" {
		t.Fatalf("provider.name = %s, want binance", cfg.Provider.Name)
	}
	if cfg.Analysis.WindowDays != 100 {
		t.Fatalf("analysis.window_days = %d, want 100", cfg.Analysis.WindowDays)
	}
	if cfg.Analysis.StartPriceBasis != BasisClose {
		t.Fatalf("analysis.start_price_basis = %s, want close", cfg.Analysis.StartPriceBasis)
	}
	if cfg.Provider.RateLimitCooldown != 60*time.Second {
		t.Fatalf("rate_limit_cooldown = %s, want 60s", cfg.Provider.RateLimitCooldown)
	}
	if len(cfg.Universe.ExcludeSymbols) == 0 {
		t.Fatal("default stable/wrapped exclusion list must not be empty")
	}
	if cfg.Analysis.TargetDay() != nil {
		t.Fatal("target day must be unset by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider:
  name: coingecko
  request_delay: 2s
analysis:
  window_days: 30
  target_date: "2025-06-01"
  start_price_basis: open
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider.Name != "coingecko" {
		t.Fatalf("provider.name = %s, want coingecko", cfg.Provider.Name)
	}
	if cfg.Provider.RequestDelay != 2*time.Second {
		t.Fatalf("request_delay = %s, want 2s", cfg.Provider.RequestDelay)
	}
	if cfg.Analysis.WindowDays != 30 {
		t.Fatalf("window_days = %d, want 30", cfg.Analysis.WindowDays)
	}

	day := cfg.Analysis.TargetDay()
	if day == nil || !day.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("target day = %v, want 2025-06-01", day)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Provider.Name = "binance"
		cfg.Analysis.WindowDays = 100
		cfg.Analysis.MaxAssets = 100
		cfg.Analysis.StartPriceBasis = BasisClose
		cfg.Universe.Top = 250
		cfg.Export.ChartTop = 20
		cfg.Watch.Interval = 12 * time.Hour
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("baseline config must validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider.Name = "kraken" }},
		{"zero window", func(c *Config) { c.Analysis.WindowDays = 0 }},
		{"zero max assets", func(c *Config) { c.Analysis.MaxAssets = 0 }},
		{"bad basis", func(c *Config) { c.Analysis.StartPriceBasis = "typical" }},
		{"bad target date", func(c *Config) { c.Analysis.TargetDate = "06/01/2025" }},
		{"negative delay", func(c *Config) { c.Provider.RequestDelay = -time.Second }},
		{"oversized universe", func(c *Config) { c.Universe.Top = 500 }},
		{"zero chart top", func(c *Config) { c.Export.ChartTop = 0 }},
		{"zero watch interval", func(c *Config) { c.Watch.Interval = 0 }},
		{"telegram missing token", func(c *Config) {
			c.Alerting.Telegram.Enabled = true
			c.Alerting.Telegram.ChatID = "123"
		}},
		{"telegram missing chat id", func(c *Config) {
			c.Alerting.Telegram.Enabled = true
			c.Alerting.Telegram.BotToken = "token"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("配置校验应当失败")
			}
		})
	}
}

func TestTargetDayIgnoresUnparseable(t *testing.T) {
	cfg := AnalysisConfig{TargetDate: "not-a-date"}
	if cfg.TargetDay() != nil {
		t.Fatal("unparseable date must yield nil, validation catches it earlier")
	}
}
