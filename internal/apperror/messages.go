package apperror

// messages maps error codes to human-readable default messages.
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	CodeOracleUnavailable:   "Failed to get BTC price",
	CodeRegistryUnavailable: "Failed to fetch vault registry",
	CodeQuoteFailed:         "Remove-liquidity quote failed",

	CodeTokenNotFound: "Token not found in liquidity graph",
	CodeNoRoute:       "No price path to the anchor token",

	CodeVaultNotFound:        "Vault not found in registry",
	CodeIntrinsicUnavailable: "Intrinsic value unavailable",

	CodePriceCalculationFailed: "Price calculation failed",
	CodeInsufficientLiquidity:  "Insufficient liquidity",

	CodeCircuitOpen: "Circuit breaker is open",
}
