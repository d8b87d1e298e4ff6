package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"drawdown-scan/internal/analysis"
)

// LoadCSV reads the universe file produced by fetch-universe. The file is
// header-addressed and must carry at least symbol, name and market_cap
// columns; id is optional (Binance lookups key on symbol alone).
//
// A malformed row is logged and skipped; a missing or headerless file is an
// error and aborts the run before any network activity.
func LoadCSV(path string, logger zerolog.Logger) ([]analysis.Asset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read universe header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "name", "market_cap"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("universe file missing %q column", required)
		}
	}

	assets := make([]analysis.Asset, 0, 256)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping malformed universe row")
			continue
		}

		asset, err := assetFromRecord(record, cols)
		if err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping malformed universe row")
			continue
		}
		assets = append(assets, asset)
	}

	return assets, nil
}

func assetFromRecord(record []string, cols map[string]int) (analysis.Asset, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	symbol := field("symbol")
	if symbol == "" {
		return analysis.Asset{}, fmt.Errorf("empty symbol")
	}

	capStr := field("market_cap")
	marketCap, err := decimal.NewFromString(capStr)
	if err != nil {
		return analysis.Asset{}, fmt.Errorf("parse market_cap %q: %w", capStr, err)
	}

	return analysis.Asset{
		ID:        field("id"),
		Symbol:    symbol,
		Name:      field("name"),
		MarketCap: marketCap,
	}, nil
}

// WriteCSV persists a fetched universe in the layout LoadCSV expects.
func WriteCSV(path string, assets []analysis.Asset) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"id", "symbol", "name", "market_cap"}); err != nil {
		return err
	}
	for _, a := range assets {
		record := []string{a.ID, a.Symbol, a.Name, a.MarketCap.String()}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}
