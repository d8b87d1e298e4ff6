package universe

import (
	"strings"

	"drawdown-scan/internal/analysis"
)

// Filter drops assets whose price dynamics make drawdown analysis
// meaningless: pegged stable assets and wrapped or liquid-staking
// derivatives tracking another asset's price.
type Filter struct {
	symbols map[string]struct{}
	names   map[string]struct{}
}

// NewFilter builds a filter from excluded symbols (case-insensitive) and
// excluded names (exact match).
func NewFilter(symbols, names []string) *Filter {
	f := &Filter{
		symbols: make(map[string]struct{}, len(symbols)),
		names:   make(map[string]struct{}, len(names)),
	}
	for _, s := range symbols {
		f.symbols[strings.ToLower(s)] = struct{}{}
	}
	for _, n := range names {
		f.names[n] = struct{}{}
	}
	return f
}

// Apply returns the assets not excluded, preserving the input order.
func (f *Filter) Apply(assets []analysis.Asset) []analysis.Asset {
	kept := make([]analysis.Asset, 0, len(assets))
	for _, a := range assets {
		if f.Excluded(a) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// Excluded reports whether one asset matches the exclusion sets.
func (f *Filter) Excluded(a analysis.Asset) bool {
	if _, ok := f.symbols[strings.ToLower(a.Symbol)]; ok {
		return true
	}
	_, ok := f.names[a.Name]
	return ok
}
