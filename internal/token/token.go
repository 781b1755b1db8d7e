// Package token holds token identity and decimal-aware conversion math.
package token

import "strings"

// DefaultDecimals is assumed when a token's metadata is unknown.
// Most SIP-010 tokens on the network use 6.
const DefaultDecimals int32 = 6

// MaxDecimals is the sanity bound for token precision.
const MaxDecimals int32 = 30

// Token is the metadata of a fungible token. It is a reference entity whose
// identity is the fully qualified contract ID; the symbol is display metadata.
type Token struct {
	ContractID string
	Symbol     string
	Decimals   int32
}

// ID returns the unique identifier for this token.
func (t Token) ID() string {
	return t.ContractID
}

// String returns a human-readable representation.
func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.ContractID
}

// ContractName returns the contract-name part of the contract ID
// (everything after the first dot), or the whole ID if there is none.
func (t Token) ContractName() string {
	if i := strings.IndexByte(t.ContractID, '.'); i >= 0 {
		return t.ContractID[i+1:]
	}
	return t.ContractID
}

// DecimalsFor looks up a token's precision in a metadata map, defaulting to
// DefaultDecimals when the token is unknown or carries invalid precision.
func DecimalsFor(tokenID string, tokens map[string]Token) int32 {
	t, ok := tokens[tokenID]
	if !ok || !ValidDecimals(t.Decimals) {
		return DefaultDecimals
	}
	return t.Decimals
}

// ValidDecimals reports whether a decimal count is usable for ratio math.
func ValidDecimals(d int32) bool {
	return d >= 0 && d <= MaxDecimals
}
