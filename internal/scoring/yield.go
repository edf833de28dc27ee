package scoring

import (
	"math"

	"github.com/fellahtech/agri-advisor/internal/domain"
)

// Fixed yield-model constants: the assumed optimal temperature band and the
// available growing season length.
const (
	optimalTempMin     = 18.0
	optimalTempMax     = 25.0
	availableSeasonDay = 180
)

// YieldScore forecasts relative yield potential in [0,100] as a weighted sum:
// rainfall fit 0.4, temperature fit 0.3, growing-season adequacy 0.2,
// humidity/sunshine composite 0.1.
func YieldScore(crop domain.Crop, weather domain.WeatherObservation) float64 {
	score := 0.4*rainfallScore(crop, weather.RainfallMM) +
		0.3*temperatureScore(weather.TemperatureC) +
		0.2*seasonScore(crop.GrowingDays) +
		0.1*humiditySunshineScore(weather.HumidityPct, weather.SunshineHours)
	return clamp(score, 0, 100)
}

// rainfallScore steps down with distance of the rainfall/requirement ratio
// from 1.0. The floor outside [0.5,1.5] reflects near-certain crop stress.
func rainfallScore(crop domain.Crop, rainfallMM float64) float64 {
	if crop.WaterRequirementMM <= 0 {
		return 100
	}
	ratio := rainfallMM / crop.WaterRequirementMM
	switch {
	case ratio >= 0.9 && ratio <= 1.1:
		return 100
	case ratio >= 0.75 && ratio <= 1.25:
		return 85
	case ratio >= 0.5 && ratio <= 1.5:
		return 60
	default:
		return 25
	}
}

func temperatureScore(tempC float64) float64 {
	dist := math.Max(optimalTempMin-tempC, tempC-optimalTempMax)
	switch {
	case dist <= 0:
		return 100
	case dist <= 3:
		return 80
	case dist <= 6:
		return 55
	case dist <= 10:
		return 35
	default:
		return 20
	}
}

// seasonScore checks the crop's required days against the available season,
// stepping at the 90%, 100%, and 110% thresholds.
func seasonScore(growingDays int) float64 {
	req := float64(growingDays)
	switch {
	case req <= 0.9*availableSeasonDay:
		return 100
	case req <= availableSeasonDay:
		return 85
	case req <= 1.1*availableSeasonDay:
		return 60
	default:
		return 30
	}
}

// humiditySunshineScore averages a humidity score (distance from the 65%
// optimum) and a sunshine score (linear up to 10 hours).
func humiditySunshineScore(humidityPct, sunshineHours float64) float64 {
	humidity := clamp(100-2*math.Abs(humidityPct-65), 0, 100)
	sunshine := min(100, 10*sunshineHours)
	return (humidity + sunshine) / 2
}
