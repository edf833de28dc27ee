package scoring

import (
	"testing"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMarketRiskScore(t *testing.T) {
	obs := func(supplyTons, demandIdx, priceKg float64) domain.MarketObservation {
		return domain.MarketObservation{
			SupplyVolumeTons: supplyTons,
			DemandIndex:      demandIdx,
			PricePerKg:       priceKg,
		}
	}

	tests := []struct {
		name     string
		crop     string
		obs      domain.MarketObservation
		expected float64
	}{
		// ratio 1.8: base 95, calm price -> volatility 20, steady demand -> trend 15
		{"severe glut", "Wheat", obs(1800, 1.0, 80), 64.25},
		// same glut on an over-planted crop takes the flat penalty
		{"severe glut over-planted", "Potato", obs(1800, 1.0, 80), 74.25},
		// ratio 1.4 with a high price: the cobweb signal lifts volatility to 80
		{"glut with high price", "Wheat", obs(1400, 1.0, 160), 73.25},
		// ratio 0.7: undersupply, price signal ignored below ratio 1
		{"undersupply", "Wheat", obs(700, 1.0, 160), 13.25},
		// ratio 2.0 with weak demand (index 0.7 -> trend 90)
		{"glut with collapsing demand", "Wheat", obs(1400, 0.7, 80), 75.5},
		// zero demand defaults the ratio to 1.0: base 25, trend 90
		{"zero demand index", "Wheat", obs(500, 0, 80), 33.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, MarketRiskScore(tc.crop, tc.obs), 1e-9)
		})
	}

	t.Run("clamped to 100", func(t *testing.T) {
		// every signal maxed plus the over-planted penalty exceeds 100 raw
		score := MarketRiskScore("Potato", obs(2000, 0.5, 200))
		assert.InDelta(t, 100, score, 1e-9)
	})

	t.Run("over-planted penalty needs an actual glut", func(t *testing.T) {
		balanced := obs(1000, 1.0, 80)
		assert.Equal(t, MarketRiskScore("Wheat", balanced), MarketRiskScore("Potato", balanced))
	})
}
