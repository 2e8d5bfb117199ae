// Package rates holds the token registry, chain table and INR conversion.
package rates

import (
	"sort"
	"strings"
)

// Token describes a transferable token and its on-chain precision
type Token struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
}

// Registry is the fixed set of tokens a payment may use
type Registry struct {
	tokens map[string]Token
}

var aliases = map[string]string{
	"weth":  "eth",
	"wbnb":  "bnb",
	"pol":   "matic",
	"wflow": "flow",
}

// DefaultRegistry returns the tokens the wallet can pay with
func DefaultRegistry() *Registry {
	return NewRegistry(
		Token{ID: "eth", Symbol: "ETH", Name: "Ethereum", Decimals: 18},
		Token{ID: "matic", Symbol: "MATIC", Name: "Polygon", Decimals: 18},
		Token{ID: "bnb", Symbol: "BNB", Name: "Binance Coin", Decimals: 18},
		Token{ID: "flow", Symbol: "FLOW", Name: "Flow", Decimals: 8},
	)
}

// NewRegistry builds a registry keyed by lowercase token id
func NewRegistry(tokens ...Token) *Registry {
	r := &Registry{tokens: make(map[string]Token, len(tokens))}
	for _, t := range tokens {
		t.ID = NormalizeSymbol(t.ID)
		r.tokens[t.ID] = t
	}
	return r
}

// Lookup finds a token by id or display symbol, case-insensitively
func (r *Registry) Lookup(symbol string) (Token, bool) {
	t, ok := r.tokens[NormalizeSymbol(symbol)]
	return t, ok
}

// Tokens lists registered tokens ordered by id
func (r *Registry) Tokens() []Token {
	out := make([]Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NormalizeSymbol lowercases a symbol and resolves wrapped-token aliases
func NormalizeSymbol(symbol string) string {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if canonical, ok := aliases[symbol]; ok {
		return canonical
	}
	return symbol
}
