// Package app implements the arbitrage monitor's scan loop.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stxdex/price-engine/business/monitor/domain"
	"github.com/stxdex/price-engine/internal/logger"
)

const (
	tracerName = "arbitrage-monitor"
	meterName  = "arbitrage-monitor"
)

// Config holds monitor parameters.
type Config struct {
	Interval           time.Duration
	SignalThresholdPct float64
}

type monitorMetrics struct {
	scans   metric.Int64Counter
	signals metric.Int64Counter
}

// Monitor periodically reprices every registered token and reports LP
// tokens whose market price has drifted from intrinsic value.
type Monitor struct {
	config   Config
	scanner  PriceScanner
	reporter Reporter
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *monitorMetrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewMonitor creates the monitor.
func NewMonitor(cfg Config, scanner PriceScanner, reporter Reporter, log logger.LoggerInterface) (*Monitor, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("monitor interval must be positive, got %s", cfg.Interval)
	}

	m := &Monitor{
		config:   cfg,
		scanner:  scanner,
		reporter: reporter,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return m, nil
}

func (m *Monitor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &monitorMetrics{}

	m.metrics.scans, err = meter.Int64Counter(
		"monitor_scans_total",
		metric.WithDescription("Total market-wide repricing scans"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return err
	}

	m.metrics.signals, err = meter.Int64Counter(
		"monitor_signals_total",
		metric.WithDescription("Arbitrage signals emitted"),
		metric.WithUnit("{signal}"),
	)
	return err
}

// Start launches the scan loop. The first scan runs one interval after
// start, not immediately, so startup isn't serialized behind a full
// market repricing.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("monitor already started")
	}

	if err := m.reporter.Start(ctx); err != nil {
		return fmt.Errorf("start reporter: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true

	m.logger.Info(ctx, "arbitrage monitor started",
		"interval", m.config.Interval,
		"threshold_pct", m.config.SignalThresholdPct)

	go m.run(loopCtx)
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info(ctx, "monitor loop stopping")
			return
		case <-ticker.C:
			m.Scan(ctx)
		}
	}
}

// Scan reprices every registered token once and reports the signals
// found. Exposed for one-shot use alongside the periodic loop.
func (m *Monitor) Scan(ctx context.Context) []domain.Signal {
	ctx, span := m.tracer.Start(ctx, "Monitor.Scan")
	defer span.End()

	m.metrics.scans.Add(ctx, 1)

	results, err := m.scanner.WarmCache(ctx)
	if err != nil {
		span.RecordError(err)
		m.logger.Warn(ctx, "market scan failed", "error", err)
		return nil
	}

	now := time.Now().UTC()
	var signals []domain.Signal
	for _, data := range results {
		signal, ok := domain.FromPriceData(data, m.config.SignalThresholdPct, now)
		if !ok {
			continue
		}
		signals = append(signals, *signal)
		m.reporter.Report(signal)
		m.metrics.signals.Add(ctx, 1,
			metric.WithAttributes(attribute.String("direction", signal.Direction())))
	}

	span.SetAttributes(
		attribute.Int("tokens", len(results)),
		attribute.Int("signals", len(signals)),
	)
	if len(signals) > 0 {
		m.logger.Info(ctx, "scan complete", "tokens", len(results), "signals", len(signals))
	} else {
		m.logger.Debug(ctx, "scan complete", "tokens", len(results))
	}

	return signals
}

// Stop halts the loop and shuts the reporter down.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}

	m.cancel()
	<-m.done
	m.started = false
	return m.reporter.Stop()
}
