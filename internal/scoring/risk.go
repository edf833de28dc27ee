package scoring

import (
	"github.com/fellahtech/agri-advisor/internal/domain"
)

// MarketRiskScore estimates oversupply risk in [0,100] from a market
// snapshot. Used only when no trained model is available; the model path
// reports the calibrated oversupply probability directly. Higher is worse.
//
// Weighting: supply/demand ratio 0.6, price-volatility signal 0.25,
// demand-trend signal 0.15, plus a flat penalty for habitually over-planted
// crops once supply already exceeds demand. High prices during a glut are a
// cobweb-cycle signal: they pull in next season's planting and deepen the
// oversupply.
func MarketRiskScore(crop string, m domain.MarketObservation) float64 {
	ratio := m.SupplyDemandRatio()

	var base float64
	switch {
	case ratio > 1.5:
		base = 95
	case ratio > 1.3:
		base = 85
	case ratio > 1.2:
		base = 75
	case ratio > 1.0:
		base = 55
	case ratio > 0.8:
		base = 25
	default:
		base = 10
	}

	volatility := 20.0
	if ratio > 1.0 {
		switch {
		case m.PricePerKg > 150:
			volatility = 80
		case m.PricePerKg > 100:
			volatility = 50
		}
	}

	trend := 15.0
	switch {
	case m.DemandIndex < 0.75:
		trend = 90
	case m.DemandIndex < 0.9:
		trend = 70
	}

	score := 0.6*base + 0.25*volatility + 0.15*trend
	if domain.IsOverPlanted(crop) && ratio > 1.05 {
		score += 10
	}
	return clamp(score, 0, 100)
}
