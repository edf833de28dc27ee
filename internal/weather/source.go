// Package weather resolves a temperature and rainfall estimate for any
// region and month from three tiers: live historical data, learned regional
// climatology, and a hard default. Resolve never fails.
package weather

import (
	"context"
	"time"
)

// Coords is a WGS-84 latitude/longitude pair for a geocoded region.
type Coords struct {
	Lat float64
	Lon float64
}

// MonthlySummary aggregates one month of daily history: mean daily
// temperature and total rainfall.
type MonthlySummary struct {
	MeanTempC   float64
	TotalRainMM float64
	Days        int
}

// HistorySource provides geocoding and historical weather lookups.
// Implementations may block on network I/O and must honor the context.
type HistorySource interface {
	// Geocode resolves a region name to coordinates.
	Geocode(ctx context.Context, region string) (Coords, error)

	// MonthlyHistory fetches the daily history for one month and aggregates it.
	MonthlyHistory(ctx context.Context, c Coords, year int, month time.Month) (MonthlySummary, error)
}
