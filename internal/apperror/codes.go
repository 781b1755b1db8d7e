package apperror

// Code represents a unique error code for the application.
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Pricing-specific error codes
const (
	// Upstream collaborators
	CodeOracleUnavailable   Code = "ORACLE_UNAVAILABLE"
	CodeRegistryUnavailable Code = "REGISTRY_UNAVAILABLE"
	CodeQuoteFailed         Code = "QUOTE_FAILED"

	// Graph and path discovery
	CodeTokenNotFound Code = "TOKEN_NOT_FOUND"
	CodeNoRoute       Code = "NO_ROUTE"

	// LP valuation
	CodeVaultNotFound        Code = "VAULT_NOT_FOUND"
	CodeIntrinsicUnavailable Code = "INTRINSIC_UNAVAILABLE"

	// Calculation
	CodePriceCalculationFailed Code = "PRICE_CALCULATION_FAILED"
	CodeInsufficientLiquidity  Code = "INSUFFICIENT_LIQUIDITY"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
