// Package infra contains infrastructure adapters for the monitor context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stxdex/price-engine/business/monitor/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Arbitrage Monitor Started")
	fmt.Fprintln(r.out, "=========================")
	return nil
}

// Report outputs a market/intrinsic divergence signal to the console.
func (r *ConsoleReporter) Report(signal *domain.Signal) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintln(r.out, "LP PRICE DIVERGENCE DETECTED")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Token:          %s (%s)\n", signal.Symbol, signal.TokenID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", signal.DetectedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Direction:      %s\n", signal.Direction())
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PRICES")
	fmt.Fprintf(r.out, "  Market:         $%s\n", signal.MarketPrice.StringFixed(6))
	fmt.Fprintf(r.out, "  Intrinsic:      $%s\n", signal.IntrinsicValue.StringFixed(6))
	fmt.Fprintf(r.out, "  Deviation:      %.2f%%\n", signal.DeviationPct)
	fmt.Fprintf(r.out, "  Confidence:     %.2f\n", signal.Confidence)
	fmt.Fprintln(r.out, "================================================================================")
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Arbitrage Monitor Stopped")
	return nil
}
