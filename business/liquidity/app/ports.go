package app

import (
	"context"

	"github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/internal/token"
)

// VaultRegistry is the upstream pool/vault metadata service.
type VaultRegistry interface {
	// ListVaults returns the current snapshot of every known vault.
	ListVaults(ctx context.Context) ([]domain.Vault, error)

	// ListVaultTokens returns every token appearing in any vault.
	ListVaultTokens(ctx context.Context) ([]token.Token, error)
}
