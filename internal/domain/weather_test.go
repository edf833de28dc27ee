package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestDefaultWeather(t *testing.T) {
	frozen := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	w := DefaultWeather("Setif")
	assert.Equal(t, "Setif", w.Location)
	assert.Equal(t, frozen, w.Date)
	assert.Equal(t, 50.0, w.RainfallMM)
	assert.Equal(t, 20.0, w.TemperatureC)
	assert.Equal(t, 65.0, w.HumidityPct)
	assert.Equal(t, 8.0, w.SunshineHours)
}

func TestSupplyDemandRatio(t *testing.T) {
	tests := []struct {
		name     string
		obs      MarketObservation
		expected float64
	}{
		{"balanced", MarketObservation{DemandIndex: 1.0, SupplyVolumeTons: 1000}, 1.0},
		{"oversupplied", MarketObservation{DemandIndex: 1.0, SupplyVolumeTons: 1800}, 1.8},
		{"strong demand absorbs supply", MarketObservation{DemandIndex: 2.0, SupplyVolumeTons: 1800}, 0.9},
		{"zero demand treated as normal", MarketObservation{DemandIndex: 0, SupplyVolumeTons: 500}, 0.5},
		{"negative demand treated as normal", MarketObservation{DemandIndex: -1, SupplyVolumeTons: 500}, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.obs.SupplyDemandRatio(), 1e-9)
		})
	}
}
