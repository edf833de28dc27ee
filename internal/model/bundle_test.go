package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validArtifact returns a complete artifact document as a mutable map so
// tests can knock out or corrupt individual keys.
func validArtifact() map[string]any {
	return map[string]any{
		"version":    "v1",
		"trained_at": "2025-03-01T00:00:00Z",
		"feature_cols": []string{
			"year", "month", "planted_area", "temperature_c", "rainfall_mm",
			"region_Algiers", "soil_type_Clay", "crop_Wheat", "crop_Barley",
		},
		"numerical_cols":  []string{"year", "month", "planted_area", "temperature_c", "rainfall_mm"},
		"classifier":      map[string]any{"weights": make([]float64, 9), "bias": 0.0},
		"scaler_cls":      map[string]any{"mean": make([]float64, 5), "scale": []float64{1, 1, 1, 1, 1}},
		"price_regressor": map[string]any{"weights": make([]float64, 9), "bias": 0.0},
		"scaler_price":    map[string]any{"mean": make([]float64, 5), "scale": []float64{1, 1, 1, 1, 1}},
		"yield_regressor": map[string]any{"weights": make([]float64, 9), "bias": 0.0},
		"scaler_yield":    map[string]any{"mean": make([]float64, 5), "scale": []float64{1, 1, 1, 1, 1}},
		"region_soil_map": map[string]string{"Algiers": "Clay"},
		"soil_crop_pool":  map[string][]string{"Clay": {"Wheat", "Barley"}},
		"weather_ranges": map[string]any{
			"Wheat": map[string]float64{"t_min": 5, "t_max": 35, "r_min": 10, "r_max": 800},
		},
		"risk_threshold": 50.0,
	}
}

func marshalArtifact(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func TestParse_Valid(t *testing.T) {
	b, err := Parse(marshalArtifact(t, validArtifact()))
	require.NoError(t, err)

	assert.Equal(t, "v1", b.Version)
	assert.Equal(t, []string{"Wheat", "Barley"}, b.Crops())
	assert.True(t, b.HasCrop("Wheat"))
	assert.False(t, b.HasCrop("Potato"))

	i, ok := b.ColumnIndex(CategoryRegion, "Algiers")
	require.True(t, ok)
	assert.Equal(t, 5, i)
	_, ok = b.ColumnIndex(CategoryRegion, "Oran")
	assert.False(t, ok)

	i, ok = b.NumericIndex(ColRainfall)
	require.True(t, ok)
	assert.Equal(t, 4, i)
}

func TestParse_MissingCoreKeys(t *testing.T) {
	keys := []string{
		"feature_cols", "numerical_cols",
		"classifier", "scaler_cls",
		"price_regressor", "scaler_price",
		"yield_regressor", "scaler_yield",
		"region_soil_map", "soil_crop_pool", "weather_ranges", "risk_threshold",
	}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			doc := validArtifact()
			delete(doc, key)

			_, err := Parse(marshalArtifact(t, doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing key")
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Run("not JSON", func(t *testing.T) {
		_, err := Parse([]byte("{truncated"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse model artifact")
	})

	t.Run("empty feature schema", func(t *testing.T) {
		doc := validArtifact()
		doc["feature_cols"] = []string{}
		doc["numerical_cols"] = []string{}
		for _, key := range []string{"classifier", "price_regressor", "yield_regressor"} {
			doc[key] = map[string]any{"weights": []float64{}, "bias": 0.0}
		}
		for _, key := range []string{"scaler_cls", "scaler_price", "scaler_yield"} {
			doc[key] = map[string]any{"mean": []float64{}, "scale": []float64{}}
		}
		_, err := Parse(marshalArtifact(t, doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty feature schema")
	})

	t.Run("weight count mismatch", func(t *testing.T) {
		doc := validArtifact()
		doc["classifier"] = map[string]any{"weights": make([]float64, 3), "bias": 0.0}
		_, err := Parse(marshalArtifact(t, doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "classifier")
	})

	t.Run("scaler size mismatch", func(t *testing.T) {
		doc := validArtifact()
		doc["scaler_yield"] = map[string]any{"mean": make([]float64, 2), "scale": make([]float64, 2)}
		_, err := Parse(marshalArtifact(t, doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scaler_yield")
	})
}

func TestLinearModel(t *testing.T) {
	m := LinearModel{Weights: []float64{2, -1}, Bias: 0.5}
	assert.InDelta(t, 3.5, m.Predict([]float64{2, 1}), 1e-9)

	// sigmoid(0) = 0.5
	zero := LinearModel{Weights: []float64{0, 0}, Bias: 0}
	assert.InDelta(t, 0.5, zero.PredictProba([]float64{1, 1}), 1e-9)
}

func TestScaler_Apply(t *testing.T) {
	s := Scaler{Mean: []float64{10, 0}, Scale: []float64{2, 0}}
	x := []float64{14, 3, 99}
	s.Apply(x, []int{0, 1})

	assert.InDelta(t, 2, x[0], 1e-9)
	// zero scale treated as 1 to avoid division blowups
	assert.InDelta(t, 3, x[1], 1e-9)
	// untouched column
	assert.InDelta(t, 99, x[2], 1e-9)
}

func TestWeatherRange_Contains(t *testing.T) {
	r := WeatherRange{TMin: 5, TMax: 35, RMin: 10, RMax: 800}
	assert.True(t, r.Contains(20, 400))
	assert.True(t, r.Contains(5, 10))
	assert.False(t, r.Contains(40, 400))
	assert.False(t, r.Contains(20, 5))
}
