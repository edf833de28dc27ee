package scoring

import (
	"github.com/fellahtech/agri-advisor/internal/domain"
)

// waterTier buckets a crop's seasonal water requirement.
type waterTier int

const (
	waterLow    waterTier = iota // < 300 mm
	waterMedium                  // 300–500 mm
	waterHigh                    // > 500 mm
)

func tierForRequirement(mm float64) waterTier {
	switch {
	case mm < 300:
		return waterLow
	case mm <= 500:
		return waterMedium
	default:
		return waterHigh
	}
}

// textureFit scores texture against water-need tier. Sand collapses for
// thirsty crops; loam is near-universal.
var textureFit = map[domain.SoilTexture][3]float64{
	domain.TextureLoam: {90, 95, 90},
	domain.TextureClay: {75, 85, 90},
	domain.TextureSilt: {85, 90, 85},
	domain.TextureSand: {80, 55, 30},
}

// waterRetention is the fraction of seasonal water a texture holds available.
var waterRetention = map[domain.SoilTexture]float64{
	domain.TextureClay: 0.80,
	domain.TextureLoam: 0.65,
	domain.TextureSilt: 0.55,
	domain.TextureSand: 0.30,
}

// SoilScore rates how well the soil and climate suit the crop, in [0,100].
//
// The climate-constraint penalty dominates: a crop grown outside its hard
// tolerances loses more than any later factor can recover. pH fit applies at
// full weight alongside it; texture fit, water retention, and nutrients blend
// in afterwards at 30%, 20%, and 10% weight respectively. Nutrient
// adjustment only applies to measured samples; the synthetic default profile
// carries no information about the real field.
func SoilScore(crop domain.Crop, profile domain.SoilProfile, climate domain.RegionClimate, weather domain.WeatherObservation) float64 {
	soil := profile.Sample
	score := 100.0

	score -= climatePenalty(crop, soil, climate, weather)
	score += phAdjustment(crop, soil.PHLevel)

	tier := tierForRequirement(crop.WaterRequirementMM)
	if fit, ok := textureFit[soil.Texture]; ok {
		score = 0.7*score + 0.3*fit[tier]
	}

	score = 0.8*score + 0.2*retentionScore(soil.Texture, crop.WaterRequirementMM)

	if profile.Measured {
		score = 0.9*score + 0.1*nutrientScore(soil)
	}

	return clamp(score, 0, 100)
}

// climatePenalty computes the heaviest soil-score factor. Crops with known
// strict requirements are checked against them; the rest fall under the
// generic desert rules.
func climatePenalty(crop domain.Crop, soil domain.SoilSample, climate domain.RegionClimate, weather domain.WeatherObservation) float64 {
	req := crop.Requirements
	if req == nil {
		var penalty float64
		if climate.IsArid() && crop.WaterRequirementMM > 400 {
			penalty += 50
			if soil.Texture == domain.TextureSand && crop.WaterRequirementMM > 300 {
				penalty += 30
			}
		}
		return penalty
	}

	var penalty float64
	if climate.IsArid() && !req.DesertSuitable {
		penalty += 60
	}
	if over := weather.TemperatureC - req.MaxTempC; over > 0 {
		penalty += min(40, 5*over)
	}
	if req.MinRainMM > 0 && weather.RainfallMM < req.MinRainMM {
		deficit := (req.MinRainMM - weather.RainfallMM) / req.MinRainMM
		penalty += min(50, 50*deficit)
	}
	if !req.PrefersTexture(soil.Texture) {
		if soil.Texture == domain.TextureSand {
			penalty += 40
		} else {
			penalty += 20
		}
	}
	return penalty
}

// phAdjustment penalizes up to 40 points at 15 points per pH unit outside the
// ideal range, and grants a +5 bonus when the measured pH sits at least 0.5
// inside both bounds.
func phAdjustment(crop domain.Crop, ph float64) float64 {
	var dist float64
	switch {
	case ph < crop.IdealPHMin:
		dist = crop.IdealPHMin - ph
	case ph > crop.IdealPHMax:
		dist = ph - crop.IdealPHMax
	}
	if dist > 0 {
		return -min(40, 15*dist)
	}
	if ph >= crop.IdealPHMin+0.5 && ph <= crop.IdealPHMax-0.5 {
		return 5
	}
	return 0
}

// retentionScore compares the texture's water-holding capacity against the
// crop's normalized need (600 mm/season treated as full need).
func retentionScore(texture domain.SoilTexture, requirementMM float64) float64 {
	coeff, ok := waterRetention[texture]
	if !ok {
		coeff = waterRetention[domain.TextureLoam]
	}
	need := min(1.0, requirementMM/600.0)
	deficit := need - coeff
	if deficit <= 0 {
		return 100
	}
	return clamp(100-deficit*200, 0, 100)
}

// nutrientScore is a simple N/P/K sufficiency average on the 0–100 scale.
func nutrientScore(soil domain.SoilSample) float64 {
	avg := (clamp(soil.Nitrogen, 0, 100) + clamp(soil.Phosphorus, 0, 100) + clamp(soil.Potassium, 0, 100)) / 3
	return avg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
