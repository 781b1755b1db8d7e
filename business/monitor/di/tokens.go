// Package di contains dependency injection tokens for the monitor context.
package di

import (
	"github.com/stxdex/price-engine/business/monitor/app"
	"github.com/stxdex/price-engine/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Monitor = di.NewToken[*app.Monitor]("monitor.Monitor")
)

// Private dependency tokens - internal to the monitor module
var (
	Reporter = di.NewToken[app.Reporter]("monitor:reporter")
)

// GetMonitor resolves the public monitor service.
func GetMonitor(c di.ServiceRegistry) *app.Monitor {
	return di.GetToken(c, Monitor)
}

// GetReporter resolves the reporter port.
func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
