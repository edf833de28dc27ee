package domain

import "time"

// Confidence is the coarse consistency indicator attached to a recommendation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ScoreBreakdown holds the four sub-scores, each in [0,100].
// Risk is oversupply badness: higher is worse.
type ScoreBreakdown struct {
	Soil   float64 `json:"soil_suitability"`
	Yield  float64 `json:"yield_forecast"`
	Risk   float64 `json:"oversupply_risk"`
	Profit float64 `json:"profitability"`
}

// ModelPrediction is the trained-model output for one crop, already converted
// to reporting units (risk percentage, DA/kg, tons/ha).
type ModelPrediction struct {
	RiskPct    float64 `json:"risk_pct"`
	PricePerKg float64 `json:"price_per_kg"`
	YieldPerHa float64 `json:"yield_per_ha"`
}

// CropRecommendation is one ranked entry of a scoring pass. Created fresh per
// pass and never persisted by the engine.
type CropRecommendation struct {
	Crop              string          `json:"crop"`
	FinalScore        float64         `json:"final_score"` // reported as computed, may be negative
	Recommended       bool            `json:"recommended"` // final score >= 60
	Confidence        Confidence      `json:"confidence"`
	Scores            ScoreBreakdown  `json:"scores"`
	Prediction        ModelPrediction `json:"prediction"`
	RecommendedAreaHa float64         `json:"recommended_area_ha"`
	ExpectedYieldTons float64         `json:"expected_yield_tons"`
	ExpectedRevenueDA float64         `json:"expected_revenue_da"`
	ExpectedProfitDA  float64         `json:"expected_profit_da"`
}

// IntendedCropAnalysis evaluates the farmer's chosen crop against computed
// alternatives. The Proceed gate is model-estimated oversupply risk below 50%,
// independent of the final score.
type IntendedCropAnalysis struct {
	Intended     CropRecommendation   `json:"intended"`
	Proceed      bool                 `json:"proceed"`
	Alternatives []CropRecommendation `json:"alternatives,omitempty"`
}

// ScoringResult is the full output of one scoring pass, the payload published
// to the recommendation event sink.
type ScoringResult struct {
	PassID          string               `json:"pass_id"`
	Farm            Farm                 `json:"farm"`
	Weather         WeatherObservation   `json:"weather"`
	Recommendations []CropRecommendation `json:"recommendations"`
	SkippedCrops    []string             `json:"skipped_crops,omitempty"` // absent from the model schema
	ScoredAt        time.Time            `json:"scored_at"`
}
