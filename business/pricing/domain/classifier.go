package domain

import "strings"

// Contract-ID substrings recognized as LP token naming conventions.
var lpContractPatterns = []string{"lp-token", "amm-lp", "pool-token"}

// Symbol substrings recognized as LP token naming conventions.
var lpSymbolPatterns = []string{"lp", "pool", "amm"}

// Classifier decides whether a token is a pool liquidity token.
type Classifier func(tokenID, symbol string) bool

// NewClassifier builds the default LP classifier over the set of pool
// contract IDs from the vault registry.
//
// Priority order: the registry is authoritative; naming-pattern matching on
// the contract ID and then on the symbol is a heuristic safety net for
// tokens the registry snapshot misses. The patterns are deliberately
// narrow, so a pool token named outside these conventions (e.g. one using
// "liquidity" in its name) is a known false negative.
func NewClassifier(poolContracts map[string]bool) Classifier {
	return func(tokenID, symbol string) bool {
		if poolContracts[tokenID] {
			return true
		}

		id := strings.ToLower(tokenID)
		for _, p := range lpContractPatterns {
			if strings.Contains(id, p) {
				return true
			}
		}

		sym := strings.ToLower(symbol)
		for _, p := range lpSymbolPatterns {
			if strings.Contains(sym, p) {
				return true
			}
		}
		return false
	}
}

// StablecoinSet is a symbol-keyed membership set for the fixed-price
// shortcut. Symbols are matched case-insensitively.
type StablecoinSet map[string]bool

// NewStablecoinSet builds a set from configured symbols.
func NewStablecoinSet(symbols []string) StablecoinSet {
	set := make(StablecoinSet, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = true
	}
	return set
}

// Contains reports whether symbol is a known stablecoin.
func (s StablecoinSet) Contains(symbol string) bool {
	return s[strings.ToUpper(symbol)]
}
