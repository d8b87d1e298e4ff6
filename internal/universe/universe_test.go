package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"drawdown-scan/internal/analysis"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "universe.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"), noopLogger()); err == nil {
		t.Fatal("missing universe file must be an error")
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeFile(t, "symbol,name\nBTC,Bitcoin\n")
	if _, err := LoadCSV(path, noopLogger()); err == nil {
		t.Fatal("a file without market_cap must be rejected")
	}
}

func TestLoadCSVSkipsMalformedRows(t *testing.T) {
	path := writeFile(t, `id,symbol,name,market_cap
bitcoin,BTC,Bitcoin,1000000
ethereum,ETH,Ethereum,not-a-number
,,"Missing Symbol",5
solana,SOL,Solana,300000
`)

	assets, err := LoadCSV(path, noopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assets) != 2 {
		t.Fatalf("loaded %d assets, want 2 (malformed rows skipped)", len(assets))
	}
	if assets[0].Symbol != "BTC" || assets[1].Symbol != "SOL" {
		t.Fatalf("unexpected symbols: %s, %s", assets[0].Symbol, assets[1].Symbol)
	}
	if !assets[0].MarketCap.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("market cap = %s, want 1000000", assets[0].MarketCap)
	}
}

func TestLoadCSVColumnOrderIndependent(t *testing.T) {
	path := writeFile(t, "market_cap,name,symbol\n42,Bitcoin,BTC\n")

	assets, err := LoadCSV(path, noopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 1 || assets[0].Name != "Bitcoin" || assets[0].ID != "" {
		t.Fatalf("unexpected assets: %+v", assets)
	}
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "universe.csv")
	in := []analysis.Asset{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCap: decimal.NewFromInt(1000000)},
		{ID: "solana", Symbol: "SOL", Name: "Solana", MarketCap: decimal.RequireFromString("123.45")},
	}

	if err := WriteCSV(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := LoadCSV(path, noopLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("loaded %d assets, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].Symbol != in[i].Symbol || !out[i].MarketCap.Equal(in[i].MarketCap) {
			t.Fatalf("asset %d mismatch: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestFilterExcludesSymbolsCaseInsensitive(t *testing.T) {
	f := NewFilter([]string{"usdt", "wbtc"}, []string{"Wrapped SOL"})

	assets := []analysis.Asset{
		{Symbol: "BTC", Name: "Bitcoin"},
		{Symbol: "USDT", Name: "Tether"},
		{Symbol: "WBTC", Name: "Wrapped Bitcoin"},
		{Symbol: "SOL", Name: "Wrapped SOL"},
		{Symbol: "ETH", Name: "Ethereum"},
	}

	kept := f.Apply(assets)

	if len(kept) != 2 {
		t.Fatalf("kept %d assets, want 2", len(kept))
	}
	if kept[0].Symbol != "BTC" || kept[1].Symbol != "ETH" {
		t.Fatalf("unexpected survivors: %+v", kept)
	}
}

func TestFilterNameMatchIsExact(t *testing.T) {
	f := NewFilter(nil, []string{"Wrapped SOL"})

	if f.Excluded(analysis.Asset{Symbol: "X", Name: "wrapped sol"}) {
		t.Fatal("name exclusion must be exact, not case-folded")
	}
	if !f.Excluded(analysis.Asset{Symbol: "X", Name: "Wrapped SOL"}) {
		t.Fatal("exact name must be excluded")
	}
}
