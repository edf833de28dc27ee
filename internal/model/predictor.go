package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrCropNotInSchema marks the one hard prediction failure: a crop with no
// one-hot column in the model schema. Callers skip the crop during ranking
// and surface the error only for direct intended-crop requests.
var ErrCropNotInSchema = errors.New("crop not present in model schema")

// Predictor wraps an immutable Bundle and produces crop-level predictions.
type Predictor struct {
	bundle  *Bundle
	logger  *slog.Logger
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewPredictor creates a Predictor over a loaded bundle. Pass a nil clock to
// use real time for the year/month defaults.
func NewPredictor(bundle *Bundle, logger *slog.Logger, clock clockwork.Clock, metrics *observability.Metrics) *Predictor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Predictor{bundle: bundle, logger: logger, clock: clock, metrics: metrics}
}

// Bundle returns the wrapped artifact bundle.
func (p *Predictor) Bundle() *Bundle { return p.bundle }

// Predict runs all three models for one crop under the given conditions.
// Zero year/month default to the current date. An unknown region or soil type
// silently contributes no one-hot signal; an unknown crop fails with
// ErrCropNotInSchema.
func (p *Predictor) Predict(crop, region, soilType string, farmSizeHa, tempC, rainMM float64, year int, month time.Month) (domain.ModelPrediction, error) {
	if !p.bundle.HasCrop(crop) {
		return domain.ModelPrediction{}, fmt.Errorf("predict %s: %w", crop, ErrCropNotInSchema)
	}

	if year == 0 || month == 0 {
		now := p.clock.Now()
		year, month = now.Year(), now.Month()
	}

	row := p.bundle.newFeatureRow()
	p.setNumeric(row, ColYear, float64(year))
	p.setNumeric(row, ColMonth, float64(month))
	p.setNumeric(row, ColPlantedArea, farmSizeHa)
	p.setNumeric(row, ColTemperature, tempC)
	p.setNumeric(row, ColRainfall, rainMM)

	// Region and soil one-hots are best effort: a value the model never saw
	// in training simply stays zero.
	p.setOneHot(row, CategoryRegion, region)
	p.setOneHot(row, CategorySoil, soilType)
	if i, ok := p.bundle.ColumnIndex(CategoryCrop, crop); ok {
		row[i] = 1
	}

	// Each model scales its own copy of the row; the scalers were fit
	// independently and their means differ.
	xCls := append([]float64(nil), row...)
	p.bundle.ScalerCls.Apply(xCls, p.bundle.numericIdx)
	riskPct := p.bundle.Classifier.PredictProba(xCls) * 100

	xPrice := append([]float64(nil), row...)
	p.bundle.ScalerPrice.Apply(xPrice, p.bundle.numericIdx)
	pricePerKg := p.bundle.PriceRegressor.Predict(xPrice) / 1000 // DA/ton -> DA/kg

	xYield := append([]float64(nil), row...)
	p.bundle.ScalerYield.Apply(xYield, p.bundle.numericIdx)
	yieldPerHa := p.bundle.YieldRegressor.Predict(xYield)
	if yieldPerHa < 0 {
		// Known training artifact on sparse crop/region pairs.
		p.logger.Warn("model predicted negative yield, using absolute value",
			"crop", crop, "region", region, "yield", yieldPerHa)
		p.metrics.NegativeYields.Inc()
		yieldPerHa = math.Abs(yieldPerHa)
	}

	p.metrics.Predictions.Inc()
	return domain.ModelPrediction{
		RiskPct:    riskPct,
		PricePerKg: pricePerKg,
		YieldPerHa: yieldPerHa,
	}, nil
}

func (p *Predictor) setNumeric(row []float64, col string, v float64) {
	if i, ok := p.bundle.NumericIndex(col); ok {
		row[i] = v
	}
}

func (p *Predictor) setOneHot(row []float64, category, value string) {
	if i, ok := p.bundle.ColumnIndex(category, value); ok {
		row[i] = 1
	}
}

// Crops lists the crops the model can predict.
func (p *Predictor) Crops() []string { return p.bundle.Crops() }

// SoilCropPool returns the crops empirically grown on the given soil type in
// training data, or nil if the soil type is unknown.
func (p *Predictor) SoilCropPool(soilType string) []string {
	return p.bundle.SoilCropPool[soilType]
}

// WeatherRange returns the crop's acceptance envelope.
func (p *Predictor) WeatherRange(crop string) (WeatherRange, bool) {
	r, ok := p.bundle.WeatherRanges[crop]
	return r, ok
}

// RegionSoil returns the dominant soil type learned for a region, with a
// Loam fallback for regions absent from training data.
func (p *Predictor) RegionSoil(region string) string {
	if soil, ok := p.bundle.RegionSoilMap[region]; ok {
		return soil
	}
	return string(domain.TextureLoam)
}
