package scoring

import (
	"testing"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCostPerHa(t *testing.T) {
	tests := []struct {
		name     string
		crop     domain.Crop
		expected float64
	}{
		{"base cost only", domain.Crop{WaterRequirementMM: 350, GrowingDays: 130}, 50000},
		{"irrigation surcharge", domain.Crop{WaterRequirementMM: 600, GrowingDays: 130}, 65000},
		{"long season surcharge", domain.Crop{WaterRequirementMM: 250, GrowingDays: 200}, 60000},
		{"both surcharges", domain.Crop{WaterRequirementMM: 600, GrowingDays: 160}, 75000},
		{"thresholds are exclusive", domain.Crop{WaterRequirementMM: 500, GrowingDays: 150}, 50000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, CostPerHa(tc.crop), 1e-9)
		})
	}
}

func TestProfitScore(t *testing.T) {
	// Barley-like crop: base cost 50000 DA/ha.
	crop := domain.Crop{Name: "Barley", WaterRequirementMM: 350, GrowingDays: 130}

	tests := []struct {
		name          string
		yieldPerHa    float64
		pricePerKg    float64
		expectedScore float64
	}{
		// revenue 300000, profit 250000, ROI 500%
		{"exceptional return", 3, 100, 100},
		// revenue 125000, profit 75000, ROI 150%
		{"strong return at band edge", 1.25, 100, 90},
		// revenue 110000, profit 60000, ROI 120%
		{"good return", 1.1, 100, 80},
		// revenue 80000, profit 30000, ROI 60%
		{"moderate return", 0.8, 100, 65},
		// revenue 65000, profit 15000, ROI 30%
		{"thin return", 0.65, 100, 50},
		// revenue 60000, profit 10000, ROI 20%
		{"marginal return", 1, 60, 35},
		// revenue 45000, profit -5000, ROI -10%
		{"small loss", 0.45, 100, 10},
		// revenue 20000, profit -30000, ROI -60%
		{"deep loss floors at zero", 0.2, 100, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score, _, _ := ProfitScore(crop, tc.yieldPerHa, tc.pricePerKg)
			assert.InDelta(t, tc.expectedScore, score, 1e-9)
		})
	}

	t.Run("reports profit and cost per hectare", func(t *testing.T) {
		score, profit, cost := ProfitScore(crop, 3, 100)
		assert.InDelta(t, 100, score, 1e-9)
		assert.InDelta(t, 250000, profit, 1e-9)
		assert.InDelta(t, 50000, cost, 1e-9)
	})
}
