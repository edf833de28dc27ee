package scoring

import (
	"github.com/fellahtech/agri-advisor/internal/domain"
)

// Per-hectare cost model in DA. The base covers seed, labor, and fuel;
// surcharges cover irrigation for thirsty crops and the carrying cost of
// long seasons.
const (
	baseCostPerHa      = 50000.0
	irrigationSurcharg = 15000.0 // water requirement > 500 mm
	longSeasonSurcharg = 10000.0 // growing season > 150 days
)

// CostPerHa returns the estimated production cost per hectare for a crop.
func CostPerHa(crop domain.Crop) float64 {
	cost := baseCostPerHa
	if crop.WaterRequirementMM > 500 {
		cost += irrigationSurcharg
	}
	if crop.GrowingDays > 150 {
		cost += longSeasonSurcharg
	}
	return cost
}

// ProfitScore maps per-hectare return on investment to [0,100].
// yieldPerHa is tons/ha, pricePerKg is DA/kg. Returns the score along with
// the per-hectare profit and cost used to derive it.
func ProfitScore(crop domain.Crop, yieldPerHa, pricePerKg float64) (score, profitPerHa, costPerHa float64) {
	costPerHa = CostPerHa(crop)
	revenue := yieldPerHa * 1000 * pricePerKg
	profitPerHa = revenue - costPerHa
	roi := profitPerHa / costPerHa * 100

	switch {
	case roi >= 200:
		score = 100
	case roi >= 150:
		score = 90
	case roi >= 100:
		score = 80
	case roi >= 50:
		score = 65
	case roi >= 25:
		score = 50
	case roi >= 0:
		score = 35
	default:
		score = max(0, 20+roi)
	}
	return score, profitPerHa, costPerHa
}
