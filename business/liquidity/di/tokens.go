// Package di contains dependency injection tokens for the liquidity context.
package di

import (
	"github.com/stxdex/price-engine/business/liquidity/app"
	"github.com/stxdex/price-engine/internal/di"
)

// Public service tokens - exposed to other modules
var (
	LiquidityService = di.NewToken[*app.LiquidityService]("liquidity.LiquidityService")
)

// Private dependency tokens - internal to the liquidity module
var (
	VaultRegistry = di.NewToken[app.VaultRegistry]("liquidity:vaultRegistry")
)

// GetLiquidityService resolves the public liquidity service.
func GetLiquidityService(c di.ServiceRegistry) *app.LiquidityService {
	return di.GetToken(c, LiquidityService)
}

// GetVaultRegistry resolves the vault registry port.
func GetVaultRegistry(c di.ServiceRegistry) app.VaultRegistry {
	return di.GetToken(c, VaultRegistry)
}
