package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Hard defaults returned when every other tier fails.
const (
	DefaultTempC  = 20.0
	DefaultRainMM = 50.0
)

// liveHorizon bounds tier 1: historical data can only cover months starting
// no more than this far in the future.
const liveHorizon = 30 * 24 * time.Hour

// Resolver produces a temperature/rainfall estimate for a region and month.
// It is the only component allowed to block on network I/O; everything
// downstream consumes the already-resolved pair.
type Resolver struct {
	source      HistorySource // nil disables the live tier
	climatology *Climatology  // nil disables the climatology tier
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewResolver wires the fallback tiers. Any of source and climatology may be
// nil; a nil clock defaults to real time.
func NewResolver(source HistorySource, climatology *Climatology, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Resolver{
		source:      source,
		climatology: climatology,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// Resolve returns a (temperature, rainfall) estimate for the region and
// month. It never fails: live history, then climatology, then the hard
// default. Upstream errors are logged and swallowed.
func (r *Resolver) Resolve(ctx context.Context, region string, year int, month time.Month) (tempC, rainMM float64) {
	if summary, ok := r.resolveLive(ctx, region, year, month); ok {
		r.metrics.WeatherResolutions.WithLabelValues("live").Inc()
		return summary.MeanTempC, summary.TotalRainMM
	}

	if t, rain, ok := r.climatology.Lookup(region, month); ok {
		r.metrics.WeatherResolutions.WithLabelValues("climatology").Inc()
		return t, rain
	}

	r.metrics.WeatherResolutions.WithLabelValues("default").Inc()
	r.logger.Debug("weather resolution fell through to defaults",
		"region", region, "year", year, "month", int(month))
	return DefaultTempC, DefaultRainMM
}

// resolveLive attempts tier 1. A month starting beyond the live horizon has
// no archive data yet, so the tier is skipped outright.
func (r *Resolver) resolveLive(ctx context.Context, region string, year int, month time.Month) (MonthlySummary, bool) {
	if r.source == nil {
		return MonthlySummary{}, false
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if monthStart.After(r.clock.Now().Add(liveHorizon)) {
		return MonthlySummary{}, false
	}

	coords, err := r.source.Geocode(ctx, region)
	if err != nil {
		r.logger.Warn("geocode failed, falling back to climatology", "region", region, "error", err)
		return MonthlySummary{}, false
	}

	start := r.clock.Now()
	summary, err := r.source.MonthlyHistory(ctx, coords, year, month)
	r.metrics.WeatherAPIDuration.Observe(r.clock.Since(start).Seconds())
	if err != nil {
		r.logger.Warn("weather history fetch failed, falling back to climatology",
			"region", region, "year", year, "month", int(month), "error", err)
		return MonthlySummary{}, false
	}
	return summary, true
}
