package domain

import "time"

// WeatherObservation is resolved or stored weather for a location and date.
type WeatherObservation struct {
	Location      string    `json:"location"`
	Date          time.Time `json:"date"`
	RainfallMM    float64   `json:"rainfall_mm"`
	TemperatureC  float64   `json:"temperature_c"`
	HumidityPct   float64   `json:"humidity_pct"`
	SunshineHours float64   `json:"sunshine_hours"`
}

// DefaultWeather returns average conditions for agricultural regions, used
// when no resolved or stored weather exists for a location.
func DefaultWeather(location string) WeatherObservation {
	return WeatherObservation{
		Location:      location,
		Date:          clock.Now(),
		RainfallMM:    50.0,
		TemperatureC:  20.0,
		HumidityPct:   65.0,
		SunshineHours: 8.0,
	}
}
