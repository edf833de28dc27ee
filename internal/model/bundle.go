// Package model loads and serves the trained artifact bundle: a classifier,
// two regressors, their scalers, the feature schema, and the lookup tables
// learned at training time. The bundle is immutable after load; hot swaps go
// through [Store].
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// Feature column categories. One-hot columns are named "<category>_<value>",
// matching the training pipeline's encoding.
const (
	CategoryRegion = "region"
	CategorySoil   = "soil_type"
	CategoryCrop   = "crop"
)

// Numeric feature column names. Order within the schema is arbitrary; the
// column index map resolves positions at load time.
const (
	ColYear        = "year"
	ColMonth       = "month"
	ColPlantedArea = "planted_area"
	ColTemperature = "temperature_c"
	ColRainfall    = "rainfall_mm"
)

// LinearModel is a dense linear form over the full feature vector.
// The classifier applies a sigmoid on top; the regressors use it raw.
type LinearModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Predict computes w·x + b.
func (m *LinearModel) Predict(x []float64) float64 {
	sum := m.Bias
	for i, w := range m.Weights {
		sum += w * x[i]
	}
	return sum
}

// PredictProba squashes the linear form to a probability in [0,1].
func (m *LinearModel) PredictProba(x []float64) float64 {
	return 1.0 / (1.0 + math.Exp(-m.Predict(x)))
}

// Scaler standardizes the numeric feature columns. Mean and Scale are indexed
// parallel to the bundle's numerical column list. Each model carries its own
// scaler because each was fit on a separately scaled copy of the feature matrix.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Apply standardizes x in place at the given column indices.
func (s *Scaler) Apply(x []float64, numericIdx []int) {
	for i, col := range numericIdx {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		x[col] = (x[col] - s.Mean[i]) / scale
	}
}

// WeatherRange is a crop's acceptable temperature and rainfall envelope,
// the 5th–95th percentile of training observations for that crop.
type WeatherRange struct {
	TMin float64 `json:"t_min"`
	TMax float64 `json:"t_max"`
	RMin float64 `json:"r_min"`
	RMax float64 `json:"r_max"`
}

// Contains reports whether the observed temperature and rainfall fall inside
// the envelope.
func (r WeatherRange) Contains(tempC, rainMM float64) bool {
	return tempC >= r.TMin && tempC <= r.TMax && rainMM >= r.RMin && rainMM <= r.RMax
}

// Bundle is the immutable in-memory model artifact. All fields are read-only
// after Load; concurrent readers share one instance.
type Bundle struct {
	Version   string
	TrainedAt time.Time

	FeatureCols   []string
	NumericalCols []string

	Classifier     LinearModel
	ScalerCls      Scaler
	PriceRegressor LinearModel
	ScalerPrice    Scaler
	YieldRegressor LinearModel
	ScalerYield    Scaler

	RegionSoilMap map[string]string
	SoilCropPool  map[string][]string
	WeatherRanges map[string]WeatherRange
	RiskThreshold float64

	// Derived at load.
	colIndex   map[string]int
	numericIdx []int
	crops      []string
}

// bundleFile mirrors the on-disk artifact. Core keys are pointers so a missing
// key is distinguishable from an empty value; every missing core key is fatal.
type bundleFile struct {
	Version   string    `json:"version"`
	TrainedAt time.Time `json:"trained_at"`

	FeatureCols   *[]string `json:"feature_cols"`
	NumericalCols *[]string `json:"numerical_cols"`

	Classifier     *LinearModel `json:"classifier"`
	ScalerCls      *Scaler      `json:"scaler_cls"`
	PriceRegressor *LinearModel `json:"price_regressor"`
	ScalerPrice    *Scaler      `json:"scaler_price"`
	YieldRegressor *LinearModel `json:"yield_regressor"`
	ScalerYield    *Scaler      `json:"scaler_yield"`

	RegionSoilMap *map[string]string       `json:"region_soil_map"`
	SoilCropPool  *map[string][]string     `json:"soil_crop_pool"`
	WeatherRanges *map[string]WeatherRange `json:"weather_ranges"`
	RiskThreshold *float64                 `json:"risk_threshold"`
}

// Load reads and validates a model artifact file.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return Parse(data)
}

// Parse builds a Bundle from raw artifact JSON.
func Parse(data []byte) (*Bundle, error) {
	var f bundleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}

	for key, present := range map[string]bool{
		"feature_cols":    f.FeatureCols != nil,
		"numerical_cols":  f.NumericalCols != nil,
		"classifier":      f.Classifier != nil,
		"scaler_cls":      f.ScalerCls != nil,
		"price_regressor": f.PriceRegressor != nil,
		"scaler_price":    f.ScalerPrice != nil,
		"yield_regressor": f.YieldRegressor != nil,
		"scaler_yield":    f.ScalerYield != nil,
		"region_soil_map": f.RegionSoilMap != nil,
		"soil_crop_pool":  f.SoilCropPool != nil,
		"weather_ranges":  f.WeatherRanges != nil,
		"risk_threshold":  f.RiskThreshold != nil,
	} {
		if !present {
			return nil, fmt.Errorf("model artifact missing key %q", key)
		}
	}

	b := &Bundle{
		Version:        f.Version,
		TrainedAt:      f.TrainedAt,
		FeatureCols:    *f.FeatureCols,
		NumericalCols:  *f.NumericalCols,
		Classifier:     *f.Classifier,
		ScalerCls:      *f.ScalerCls,
		PriceRegressor: *f.PriceRegressor,
		ScalerPrice:    *f.ScalerPrice,
		YieldRegressor: *f.YieldRegressor,
		ScalerYield:    *f.ScalerYield,
		RegionSoilMap:  *f.RegionSoilMap,
		SoilCropPool:   *f.SoilCropPool,
		WeatherRanges:  *f.WeatherRanges,
		RiskThreshold:  *f.RiskThreshold,
	}

	if err := b.validate(); err != nil {
		return nil, err
	}
	b.buildIndex()
	return b, nil
}

// validate checks internal consistency: every model sized to the schema,
// every scaler sized to the numeric column list.
func (b *Bundle) validate() error {
	n := len(b.FeatureCols)
	if n == 0 {
		return fmt.Errorf("model artifact has an empty feature schema")
	}
	for name, m := range map[string]*LinearModel{
		"classifier":      &b.Classifier,
		"price_regressor": &b.PriceRegressor,
		"yield_regressor": &b.YieldRegressor,
	} {
		if len(m.Weights) != n {
			return fmt.Errorf("%s has %d weights, schema has %d columns", name, len(m.Weights), n)
		}
	}
	k := len(b.NumericalCols)
	for name, s := range map[string]*Scaler{
		"scaler_cls":   &b.ScalerCls,
		"scaler_price": &b.ScalerPrice,
		"scaler_yield": &b.ScalerYield,
	} {
		if len(s.Mean) != k || len(s.Scale) != k {
			return fmt.Errorf("%s sized %d/%d, expected %d numeric columns", name, len(s.Mean), len(s.Scale), k)
		}
	}
	return nil
}

// buildIndex precomputes the (column name -> position) map and the positions
// of the numeric columns, so feature rows assemble without string scans.
func (b *Bundle) buildIndex() {
	b.colIndex = make(map[string]int, len(b.FeatureCols))
	for i, col := range b.FeatureCols {
		b.colIndex[col] = i
	}
	b.numericIdx = make([]int, len(b.NumericalCols))
	for i, col := range b.NumericalCols {
		b.numericIdx[i] = b.colIndex[col]
	}
	cropPrefix := CategoryCrop + "_"
	for _, col := range b.FeatureCols {
		if name, ok := strings.CutPrefix(col, cropPrefix); ok {
			b.crops = append(b.crops, name)
		}
	}
}

// ColumnIndex resolves a one-hot column position for (category, value).
// A missing column is a defined no-op for the caller, not an error.
func (b *Bundle) ColumnIndex(category, value string) (int, bool) {
	i, ok := b.colIndex[category+"_"+value]
	return i, ok
}

// NumericIndex resolves a numeric column position by name.
func (b *Bundle) NumericIndex(name string) (int, bool) {
	i, ok := b.colIndex[name]
	return i, ok
}

// Crops lists every crop with a schema column, in schema order.
func (b *Bundle) Crops() []string {
	out := make([]string, len(b.crops))
	copy(out, b.crops)
	return out
}

// HasCrop reports whether the crop has a schema column. Prediction is
// impossible for crops without one.
func (b *Bundle) HasCrop(crop string) bool {
	_, ok := b.colIndex[CategoryCrop+"_"+crop]
	return ok
}

// newFeatureRow returns a zeroed feature vector sized to the schema.
func (b *Bundle) newFeatureRow() []float64 {
	return make([]float64, len(b.FeatureCols))
}
