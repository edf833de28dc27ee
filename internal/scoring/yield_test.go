package scoring

import (
	"testing"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRainfallScore(t *testing.T) {
	crop := domain.Crop{WaterRequirementMM: 500}

	tests := []struct {
		name     string
		rainMM   float64
		expected float64
	}{
		{"exact match", 500, 100},
		{"ratio 0.9 still optimal", 450, 100},
		{"ratio 1.1 still optimal", 550, 100},
		{"ratio 0.8 acceptable", 400, 85},
		{"ratio 1.25 acceptable", 625, 85},
		{"ratio 0.6 stressed", 300, 60},
		{"ratio 1.5 stressed", 750, 60},
		{"ratio 0.3 severe", 150, 25},
		{"ratio 2.0 waterlogged", 1000, 25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, rainfallScore(crop, tc.rainMM), 1e-9)
		})
	}

	t.Run("no requirement means no constraint", func(t *testing.T) {
		assert.InDelta(t, 100, rainfallScore(domain.Crop{}, 0), 1e-9)
	})
}

func TestTemperatureScore(t *testing.T) {
	tests := []struct {
		name     string
		tempC    float64
		expected float64
	}{
		{"inside the optimal band", 20, 100},
		{"at the band edge", 25, 100},
		{"two degrees over", 27, 80},
		{"five degrees over", 30, 55},
		{"eight degrees under", 10, 35},
		{"saharan summer", 42, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, temperatureScore(tc.tempC), 1e-9)
		})
	}
}

func TestSeasonScore(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		expected float64
	}{
		{"short season crop", 90, 100},
		{"just under 90% of available", 162, 100},
		{"fills the season", 180, 85},
		{"slightly over", 195, 60},
		{"well over", 220, 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, seasonScore(tc.days), 1e-9)
		})
	}
}

func TestHumiditySunshineScore(t *testing.T) {
	t.Run("optimal humidity and full sunshine", func(t *testing.T) {
		assert.InDelta(t, 100, humiditySunshineScore(65, 10), 1e-9)
	})
	t.Run("dry air and half sunshine", func(t *testing.T) {
		// humidity 45 -> 60, sunshine 5h -> 50
		assert.InDelta(t, 55, humiditySunshineScore(45, 5), 1e-9)
	})
	t.Run("sunshine contribution capped at 100", func(t *testing.T) {
		assert.InDelta(t, 100, humiditySunshineScore(65, 14), 1e-9)
	})
}

func TestYieldScore(t *testing.T) {
	crop := domain.Crop{Name: "Onion", WaterRequirementMM: 450, GrowingDays: 120}

	t.Run("near ideal conditions", func(t *testing.T) {
		// rainfall 100, temperature 100, season 100, humidity/sunshine 90
		score := YieldScore(crop, testWeather(20, 450))
		assert.InDelta(t, 99, score, 1e-9)
	})

	t.Run("bounded under hostile conditions", func(t *testing.T) {
		score := YieldScore(crop, domain.WeatherObservation{TemperatureC: 45, RainfallMM: 5, HumidityPct: 10, SunshineHours: 12})
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	})

	t.Run("better rainfall fit scores higher", func(t *testing.T) {
		assert.Greater(t, YieldScore(crop, testWeather(20, 450)), YieldScore(crop, testWeather(20, 150)))
	})
}
