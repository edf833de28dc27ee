package domain

import "context"

// AdviceCategory tags an advice item. Kept as a flat tagged list rather than
// category buckets so ordering survives serialization.
type AdviceCategory string

const (
	AdviceCritical       AdviceCategory = "critical"
	AdviceWarning        AdviceCategory = "warning"
	AdviceRecommendation AdviceCategory = "recommendation"
	AdviceOpportunity    AdviceCategory = "opportunity"
	AdviceInfo           AdviceCategory = "info"
)

// AdviceItem is one structured advice record. Priority 1 is highest.
type AdviceItem struct {
	Category AdviceCategory `json:"category"`
	Priority int            `json:"priority"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Action   string         `json:"action"`
	Impact   string         `json:"impact"`
}

// CropAnalysis is the per-crop input contract handed to an advice generator:
// the full score breakdown plus the agronomic and model context it was
// computed from.
type CropAnalysis struct {
	Crop       Crop               `json:"crop"`
	Farm       Farm               `json:"farm"`
	Scores     ScoreBreakdown     `json:"scores"`
	FinalScore float64            `json:"final_score"`
	Weather    WeatherObservation `json:"weather"`
	Prediction ModelPrediction    `json:"prediction"`
}

// AdviceGenerator produces structured advice from a crop analysis. The
// implementation is an external collaborator; scoring proceeds with an empty
// advice list when none is wired in or generation fails.
type AdviceGenerator interface {
	GenerateAdvice(ctx context.Context, analysis CropAnalysis) ([]AdviceItem, error)
}
