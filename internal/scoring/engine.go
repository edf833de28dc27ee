// Package scoring implements the multi-factor crop decision engine: four
// sub-scores per crop blended into a ranked recommendation, with confidence
// and planting-area guidance. The engine is a pure function of its inputs;
// no state survives a pass.
package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/fellahtech/agri-advisor/internal/model"
	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrNoData is the hard precondition failure: neither a model bundle nor
// market observations are available to score against.
var ErrNoData = errors.New("no model bundle or market data available")

// ErrNoIntendedCrop is returned when intended-crop analysis is requested for
// a farm that declares none.
var ErrNoIntendedCrop = errors.New("farm has no intended crop")

// Thresholds for the final-score regimes and the recommendation gates.
const (
	soilCrisisThreshold = 40.0
	riskCrisisThreshold = 70.0
	recommendThreshold  = 60.0
	intendedRiskGatePct = 50.0
)

// Engine computes crop recommendations. It holds no mutable state; the model
// store it reads through swaps bundles atomically between passes.
type Engine struct {
	store   *model.Store // nil disables the model path
	catalog *domain.Catalog
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEngine builds an engine over a bundle store and crop catalog. A nil
// store restricts scoring to the market-observation fallback path.
func NewEngine(store *model.Store, catalog *domain.Catalog, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		store:   store,
		catalog: catalog,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Input carries everything one scoring pass needs. Weather must already be
// resolved; the engine performs no I/O. A nil Sample substitutes the neutral
// default soil profile for the farm's declared texture.
type Input struct {
	Farm    domain.Farm
	Sample  *domain.SoilSample
	Weather domain.WeatherObservation
	Market  []domain.MarketObservation
	Year    int
	Month   time.Month
}

// Recommend scores every candidate crop for the farm and returns them ranked
// by final score. Crops absent from the model schema are skipped and listed,
// never fatal. Fails only when no model and no market data exist.
func (e *Engine) Recommend(_ context.Context, in Input) (domain.ScoringResult, error) {
	start := e.clock.Now()
	pass := e.preparePass(in)

	var recs []domain.CropRecommendation
	var skipped []string

	if bundle, ok := e.currentBundle(); ok {
		recs, skipped = e.scoreWithModel(bundle, pass, "")
	} else if len(in.Market) > 0 {
		recs = e.scoreWithMarket(pass, in.Market)
	} else {
		return domain.ScoringResult{}, ErrNoData
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].FinalScore > recs[j].FinalScore
	})

	e.metrics.ScoringPasses.Inc()
	e.metrics.CropsScored.Add(float64(len(recs)))
	e.metrics.ScoringDuration.Observe(e.clock.Since(start).Seconds())

	return domain.ScoringResult{
		PassID:          passID(pass.farm, pass.year, pass.month),
		Farm:            pass.farm,
		Weather:         pass.weather,
		Recommendations: recs,
		SkippedCrops:    skipped,
		ScoredAt:        e.clock.Now(),
	}, nil
}

// AnalyzeIntended evaluates the farm's declared crop directly. Unlike
// ranking, a crop missing from the model schema is reported as an explicit
// error here, and the sole proceed gate is model oversupply risk below 50%.
func (e *Engine) AnalyzeIntended(_ context.Context, in Input) (domain.IntendedCropAnalysis, error) {
	if in.Farm.IntendedCrop == "" {
		return domain.IntendedCropAnalysis{}, ErrNoIntendedCrop
	}
	bundle, ok := e.currentBundle()
	if !ok {
		return domain.IntendedCropAnalysis{}, fmt.Errorf("intended-crop analysis for %s: %w", in.Farm.IntendedCrop, ErrNoData)
	}

	pass := e.preparePass(in)
	crop, ok := e.catalog.Lookup(in.Farm.IntendedCrop)
	if !ok {
		return domain.IntendedCropAnalysis{}, fmt.Errorf("unknown crop %q", in.Farm.IntendedCrop)
	}

	predictor := model.NewPredictor(bundle, e.logger, e.clock, e.metrics)
	pred, err := predictor.Predict(crop.Name, pass.farm.Region, pass.soilType,
		pass.farm.SizeHectares, pass.weather.TemperatureC, pass.weather.RainfallMM, pass.year, pass.month)
	if err != nil {
		return domain.IntendedCropAnalysis{}, err
	}

	intended := e.buildRecommendation(crop, pass, pred)

	analysis := domain.IntendedCropAnalysis{
		Intended: intended,
		Proceed:  pred.RiskPct < intendedRiskGatePct,
	}

	// Alternatives: the rest of the soil pool, filtered by each crop's
	// weather acceptance range, re-scored with the same formula. A crop
	// without a published range cannot be vouched for and is excluded. Only
	// crops that beat the intended score qualify.
	candidates, _ := e.scoreWithModel(bundle, pass, crop.Name)
	var better []domain.CropRecommendation
	for _, alt := range candidates {
		wr, ok := predictor.WeatherRange(alt.Crop)
		if !ok || !wr.Contains(pass.weather.TemperatureC, pass.weather.RainfallMM) {
			continue
		}
		if alt.FinalScore > intended.FinalScore {
			better = append(better, alt)
		}
	}
	sort.SliceStable(better, func(i, j int) bool { return better[i].FinalScore > better[j].FinalScore })
	if len(better) > 3 {
		better = better[:3]
	}
	analysis.Alternatives = better

	return analysis, nil
}

// passContext is the normalized per-pass input shared by both paths.
type passContext struct {
	farm     domain.Farm
	soil     domain.SoilProfile
	soilType string
	climate  domain.RegionClimate
	weather  domain.WeatherObservation
	year     int
	month    time.Month
}

func (e *Engine) preparePass(in Input) passContext {
	year, month := in.Year, in.Month
	if year == 0 || month == 0 {
		now := e.clock.Now()
		year, month = now.Year(), now.Month()
	}

	soilType := in.Farm.SoilType
	if soilType == "" {
		if bundle, ok := e.currentBundle(); ok {
			soilType = model.NewPredictor(bundle, e.logger, e.clock, e.metrics).RegionSoil(in.Farm.Region)
		} else {
			soilType = string(domain.TextureLoam)
		}
	}

	var profile domain.SoilProfile
	if in.Sample != nil {
		profile = domain.MeasuredSoil(*in.Sample)
	} else {
		profile = domain.DefaultSoil(domain.ParseTexture(soilType))
	}

	// The resolver supplies temperature and rainfall only; backfill the
	// remaining observation fields with regional averages.
	weather := in.Weather
	if weather.HumidityPct == 0 {
		weather.HumidityPct = 65
	}
	if weather.SunshineHours == 0 {
		weather.SunshineHours = 8
	}

	return passContext{
		farm:     in.Farm,
		soil:     profile,
		soilType: soilType,
		climate:  domain.ClassifyRegion(in.Farm.Region),
		weather:  weather,
		year:     year,
		month:    month,
	}
}

func (e *Engine) currentBundle() (*model.Bundle, bool) {
	if e.store == nil {
		return nil, false
	}
	return e.store.Current()
}

// scoreWithModel scores the soil pool against the trained model, skipping
// crops without a schema column. exclude drops one crop from the pool (used
// by intended-crop analysis).
func (e *Engine) scoreWithModel(bundle *model.Bundle, pass passContext, exclude string) (recs []domain.CropRecommendation, skipped []string) {
	predictor := model.NewPredictor(bundle, e.logger, e.clock, e.metrics)

	pool := predictor.SoilCropPool(pass.soilType)
	if len(pool) == 0 {
		pool = predictor.Crops()
	}

	for _, name := range pool {
		if name == exclude {
			continue
		}
		crop, ok := e.catalog.Lookup(name)
		if !ok {
			e.logger.Debug("crop in soil pool has no catalog entry, skipping", "crop", name)
			continue
		}

		pred, err := predictor.Predict(name, pass.farm.Region, pass.soilType,
			pass.farm.SizeHectares, pass.weather.TemperatureC, pass.weather.RainfallMM, pass.year, pass.month)
		if err != nil {
			if errors.Is(err, model.ErrCropNotInSchema) {
				skipped = append(skipped, name)
				e.metrics.CropsSkipped.Inc()
				continue
			}
			e.logger.Warn("prediction failed, skipping crop", "crop", name, "error", err)
			continue
		}

		recs = append(recs, e.buildRecommendation(crop, pass, pred))
	}
	return recs, skipped
}

// scoreWithMarket is the no-model fallback: risk from supply/demand, price
// from the observation, yield from the agronomic forecast.
func (e *Engine) scoreWithMarket(pass passContext, market []domain.MarketObservation) []domain.CropRecommendation {
	recs := make([]domain.CropRecommendation, 0, len(market))
	for _, obs := range market {
		crop, ok := e.catalog.Lookup(obs.Crop)
		if !ok {
			e.logger.Debug("market observation for unknown crop, skipping", "crop", obs.Crop)
			continue
		}

		yieldScore := YieldScore(crop, pass.weather)
		pred := domain.ModelPrediction{
			RiskPct:    MarketRiskScore(crop.Name, obs),
			PricePerKg: obs.PricePerKg,
			YieldPerHa: crop.BaseYieldPerHa * yieldScore / 100,
		}
		recs = append(recs, e.buildRecommendation(crop, pass, pred))
	}
	return recs
}

// buildRecommendation assembles one ranked entry from the sub-scores.
func (e *Engine) buildRecommendation(crop domain.Crop, pass passContext, pred domain.ModelPrediction) domain.CropRecommendation {
	scores := domain.ScoreBreakdown{
		Soil:   SoilScore(crop, pass.soil, pass.climate, pass.weather),
		Yield:  YieldScore(crop, pass.weather),
		Risk:   clamp(pred.RiskPct, 0, 100),
		Profit: 0,
	}
	profitScore, profitPerHa, costPerHa := ProfitScore(crop, pred.YieldPerHa, pred.PricePerKg)
	scores.Profit = profitScore

	final := FinalScore(scores)
	area := RecommendedArea(pass.farm.SizeHectares, final, scores.Risk, profitPerHa)

	expectedYield := area * pred.YieldPerHa
	revenue := expectedYield * 1000 * pred.PricePerKg
	profit := revenue - costPerHa*area

	return domain.CropRecommendation{
		Crop:              crop.Name,
		FinalScore:        round1(final),
		Recommended:       final >= recommendThreshold,
		Confidence:        ConfidenceLabel(scores),
		Scores:            scores,
		Prediction:        pred,
		RecommendedAreaHa: round2(area),
		ExpectedYieldTons: round2(expectedYield),
		ExpectedRevenueDA: round2(revenue),
		ExpectedProfitDA:  round2(profit),
	}
}

// FinalScore combines the sub-scores under one of three mutually exclusive
// regimes, evaluated in order: soil crisis (soil < 40) halves the soil term
// and amplifies risk 1.5x; risk crisis (risk > 70) amplifies risk 1.8x; the
// default regime weighs all four terms at 0.25.
func FinalScore(s domain.ScoreBreakdown) float64 {
	switch {
	case s.Soil < soilCrisisThreshold:
		return 0.25*(s.Soil/2) + 0.25*s.Yield + 0.25*s.Profit - 0.25*1.5*s.Risk
	case s.Risk > riskCrisisThreshold:
		return 0.25*s.Soil + 0.25*s.Yield + 0.25*s.Profit - 0.25*1.8*s.Risk
	default:
		return 0.25*s.Soil + 0.25*s.Yield + 0.25*s.Profit - 0.25*s.Risk
	}
}

// ConfidenceLabel derives the coarse confidence from the mean, risk, and
// spread of the positive sub-scores.
func ConfidenceLabel(s domain.ScoreBreakdown) domain.Confidence {
	mean := (s.Soil + s.Yield + s.Profit) / 3
	variance := (sq(s.Soil-mean) + sq(s.Yield-mean) + sq(s.Profit-mean)) / 3

	switch {
	case mean >= 80 && s.Risk < 30 && variance < 400:
		return domain.ConfidenceHigh
	case mean >= 65 && s.Risk < 50:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// RecommendedArea converts the final score into hectares to plant: 70% of
// the farm stepped down with the score, cut under risk, nudged by per-hectare
// profit, scaled by the score again, and clamped to [0.1 ha, 90% of farm].
func RecommendedArea(sizeHa, finalScore, risk, profitPerHa float64) float64 {
	pct := 0.7
	switch {
	case finalScore >= 80:
		// full base
	case finalScore >= 70:
		pct *= 0.85
	case finalScore >= 60:
		pct *= 0.70
	case finalScore >= 50:
		pct *= 0.50
	default:
		pct *= 0.30
	}

	if risk > 70 {
		pct *= 0.5
	} else if risk > 50 {
		pct *= 0.75
	}

	if profitPerHa > 200000 {
		pct = min(0.9, pct*1.1)
	} else if profitPerHa < 20000 {
		pct *= 0.8
	}

	area := sizeHa * pct * (finalScore / 100)
	hi := 0.9 * sizeHa
	if hi < 0.1 {
		hi = 0.1
	}
	return clamp(area, 0.1, hi)
}

// passID is a deterministic identifier for a scoring pass over the same farm
// and target month.
func passID(farm domain.Farm, year int, month time.Month) string {
	input := fmt.Sprintf("%s|%s|%d|%d|%.2f", farm.Name, farm.Region, year, int(month), farm.SizeHectares)
	hash := sha256.Sum256([]byte(input))
	return "pass-" + hex.EncodeToString(hash[:8])
}

func sq(v float64) float64 { return v * v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
