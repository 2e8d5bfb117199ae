package rates

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Table is the rate lookup capability. Rates are INR per whole token.
type Table interface {
	Rate(symbol string) (decimal.Decimal, bool)
}

// StaticTable is an in-memory Table refreshed by an external process.
// Readers never block each other; Replace swaps the whole table.
type StaticTable struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewStaticTable copies rates into a table keyed by normalized symbol
func NewStaticTable(rates map[string]decimal.Decimal) *StaticTable {
	t := &StaticTable{}
	t.Replace(rates)
	return t
}

// NewStaticTableFromFloats is a convenience for config-driven tables
func NewStaticTableFromFloats(rates map[string]float64) *StaticTable {
	converted := make(map[string]decimal.Decimal, len(rates))
	for symbol, rate := range rates {
		converted[symbol] = decimal.NewFromFloat(rate)
	}
	return NewStaticTable(converted)
}

// Rate implements Table
func (t *StaticTable) Rate(symbol string) (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rate, ok := t.rates[NormalizeSymbol(symbol)]
	return rate, ok
}

// Set updates a single rate
func (t *StaticTable) Set(symbol string, rate decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[NormalizeSymbol(symbol)] = rate
}

// Replace swaps in a fresh rate set
func (t *StaticTable) Replace(rates map[string]decimal.Decimal) {
	next := make(map[string]decimal.Decimal, len(rates))
	for symbol, rate := range rates {
		next[NormalizeSymbol(symbol)] = rate
	}
	t.mu.Lock()
	t.rates = next
	t.mu.Unlock()
}

// Snapshot returns a copy of the current rates
func (t *StaticTable) Snapshot() map[string]decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(t.rates))
	for symbol, rate := range t.rates {
		out[symbol] = rate
	}
	return out
}
