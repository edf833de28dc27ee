package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/fellahtech/agri-advisor/internal/feedback"
	"github.com/fellahtech/agri-advisor/internal/model"
	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/fellahtech/agri-advisor/internal/scoring"
	"github.com/fellahtech/agri-advisor/internal/weather"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArtifact = `{
  "version": "test-1",
  "trained_at": "2025-03-01T00:00:00Z",
  "feature_cols": ["year","month","planted_area","temperature_c","rainfall_mm","region_Algiers","soil_type_Loam","crop_Potato","crop_Tomato"],
  "numerical_cols": ["year","month","planted_area","temperature_c","rainfall_mm"],
  "classifier": {"weights": [0,0,0,0,0,0,0,-2,2], "bias": 0},
  "scaler_cls": {"mean": [0,0,0,0,0], "scale": [1,1,1,1,1]},
  "price_regressor": {"weights": [0,0,0,0,0,0,0,0,0], "bias": 50000},
  "scaler_price": {"mean": [0,0,0,0,0], "scale": [1,1,1,1,1]},
  "yield_regressor": {"weights": [0,0,0,0,0,0,0,0,0], "bias": 20},
  "scaler_yield": {"mean": [0,0,0,0,0], "scale": [1,1,1,1,1]},
  "region_soil_map": {"Algiers": "Loam"},
  "soil_crop_pool": {"Loam": ["Potato", "Tomato"]},
  "weather_ranges": {
    "Potato": {"t_min": 0, "t_max": 45, "r_min": 0, "r_max": 1000},
    "Tomato": {"t_min": 0, "t_max": 45, "r_min": 0, "r_max": 1000}
  },
  "risk_threshold": 50
}`

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error {
	return m.err
}

type mockSink struct {
	published []domain.ScoringResult
	err       error
}

func (m *mockSink) Publish(_ context.Context, result domain.ScoringResult) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, result)
	return nil
}

type mockAdvisor struct {
	items []domain.AdviceItem
	err   error
}

func (m *mockAdvisor) GenerateAdvice(_ context.Context, _ domain.CropAnalysis) ([]domain.AdviceItem, error) {
	return m.items, m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *model.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(testArtifact), 0o644))

	store := model.NewStore(path, testLogger(), observability.NewMetricsForTesting())
	require.NoError(t, store.LoadInitial())
	return store
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Engine == nil {
		store := deps.Store
		if store == nil {
			store = newTestStore(t)
		}
		clock := clockwork.NewFakeClockAt(time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC))
		deps.Engine = scoring.NewEngine(store, domain.DefaultCatalog(), clock, testLogger(), observability.NewMetricsForTesting())
	}
	return NewServer(":0", deps, testLogger())
}

func scoreBody(t *testing.T, mutate func(*scoreRequest)) *bytes.Reader {
	t.Helper()
	req := scoreRequest{
		Farm: domain.Farm{
			Name:         "Ferme Benali",
			Region:       "Algiers",
			SoilType:     "Loam",
			SizeHectares: 10,
		},
		Weather: &domain.WeatherObservation{Location: "Algiers", TemperatureC: 20, RainfallMM: 450},
		Year:    2025,
		Month:   4,
	}
	if mutate != nil {
		mutate(&req)
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func doRequest(s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := doRequest(s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s := newTestServer(t, Deps{Ready: &mockReadiness{}})
		rec := doRequest(s, http.MethodGet, "/readyz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		s := newTestServer(t, Deps{Ready: &mockReadiness{err: errors.New("model bundle not loaded")}})
		rec := doRequest(s, http.MethodGet, "/readyz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "model bundle not loaded")
	})

	t.Run("no checker wired", func(t *testing.T) {
		s := newTestServer(t, Deps{})
		rec := doRequest(s, http.MethodGet, "/readyz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRecommend(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Result.Recommendations, 2)
	assert.Equal(t, "Potato", resp.Result.Recommendations[0].Crop)
	assert.True(t, resp.Result.Recommendations[0].Recommended)
	assert.NotEmpty(t, resp.Result.PassID)

	// No generator wired: advice is present and empty, never null.
	assert.NotNil(t, resp.Advice)
	assert.Empty(t, resp.Advice)
}

func TestRecommend_OmittedPeriodUsesClockMonth(t *testing.T) {
	// A request with no weather and no year or month must resolve weather
	// for the clock's current month, not for month zero. The climatology
	// carries an Algiers April entry; falling through to the hard defaults
	// would return 20/50 instead.
	clim, err := weather.ReadClimatology(strings.NewReader(
		"region,month,temperature_c,rainfall_mm\nAlgiers,4,17.5,88\n"))
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC))
	resolver := weather.NewResolver(nil, clim, clock, testLogger(), observability.NewMetricsForTesting())
	s := newTestServer(t, Deps{Resolver: resolver, Clock: clock})

	rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, func(r *scoreRequest) {
		r.Weather = nil
		r.Year = 0
		r.Month = 0
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 17.5, resp.Result.Weather.TemperatureC, 1e-9)
	assert.InDelta(t, 88, resp.Result.Weather.RainfallMM, 1e-9)
}

func TestRecommend_BadRequests(t *testing.T) {
	s := newTestServer(t, Deps{})

	t.Run("invalid body", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/v1/recommend", bytes.NewReader([]byte("{not json")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid request body")
	})

	t.Run("missing region", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, func(r *scoreRequest) {
			r.Farm.Region = ""
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "farm.region")
	})

	t.Run("zero farm size", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, func(r *scoreRequest) {
			r.Farm.SizeHectares = 0
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "size_hectares")
	})
}

func TestRecommend_PublishesToSink(t *testing.T) {
	sink := &mockSink{}
	s := newTestServer(t, Deps{Sink: sink})

	rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, sink.published, 1)
	assert.Equal(t, "Algiers", sink.published[0].Farm.Region)
}

func TestRecommend_SinkFailureDoesNotFailRequest(t *testing.T) {
	sink := &mockSink{err: errors.New("broker unreachable")}
	s := newTestServer(t, Deps{Sink: sink})

	rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecommend_AdviceFromGenerator(t *testing.T) {
	advisor := &mockAdvisor{items: []domain.AdviceItem{
		{Category: domain.AdviceRecommendation, Priority: 1, Title: "Irrigation", Message: "Drip irrigation suits this rainfall."},
	}}
	s := newTestServer(t, Deps{Advice: advisor})

	rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Advice, 1)
	assert.Equal(t, "Irrigation", resp.Advice[0].Title)
}

func TestRecommend_AdviceFailureDegrades(t *testing.T) {
	s := newTestServer(t, Deps{Advice: &mockAdvisor{err: errors.New("generator offline")}})

	rec := doRequest(s, http.MethodPost, "/v1/recommend", scoreBody(t, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Advice)
}

func TestIntended(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := doRequest(s, http.MethodPost, "/v1/intended", scoreBody(t, func(r *scoreRequest) {
		r.Farm.IntendedCrop = "Potato"
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var analysis domain.IntendedCropAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, "Potato", analysis.Intended.Crop)
	assert.True(t, analysis.Proceed)
}

func TestIntended_MissingCrop(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := doRequest(s, http.MethodPost, "/v1/intended", scoreBody(t, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "intended crop")
}

func TestIntended_NoBundle(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC))
	engine := scoring.NewEngine(nil, domain.DefaultCatalog(), clock, testLogger(), observability.NewMetricsForTesting())
	s := newTestServer(t, Deps{Engine: engine})

	rec := doRequest(s, http.MethodPost, "/v1/intended", scoreBody(t, func(r *scoreRequest) {
		r.Farm.IntendedCrop = "Potato"
	}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFeedback(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC))
	store := feedback.NewStore(filepath.Join(t.TempDir(), "feedback.csv"), clock, testLogger(), observability.NewMetricsForTesting())
	s := newTestServer(t, Deps{Feedback: store})

	body := func() *bytes.Reader {
		data, err := json.Marshal(feedbackRequest{
			FarmerID:      "farmer-7",
			FarmName:      "Ferme Benali",
			Region:        "Algiers",
			SoilType:      "Loam",
			Crop:          "Potato",
			Year:          2025,
			Month:         4,
			PlantedAreaHa: 5,
			YieldPerHa:    28,
			PricePerKg:    45,
			RiskPct:       22.5,
			TemperatureC:  20,
			RainfallMM:    450,
		})
		require.NoError(t, err)
		return bytes.NewReader(data)
	}

	rec := doRequest(s, http.MethodPost, "/v1/feedback", body())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"saved"}`, rec.Body.String())

	// Same observation again is reported as a duplicate, not an error.
	rec = doRequest(s, http.MethodPost, "/v1/feedback", body())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"duplicate"}`, rec.Body.String())
}

func TestFeedback_Rejections(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC))
	store := feedback.NewStore(filepath.Join(t.TempDir(), "feedback.csv"), clock, testLogger(), observability.NewMetricsForTesting())
	s := newTestServer(t, Deps{Feedback: store})

	t.Run("invalid body", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/v1/feedback", bytes.NewReader([]byte("nope")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing crop", func(t *testing.T) {
		data, err := json.Marshal(feedbackRequest{Region: "Algiers"})
		require.NoError(t, err)
		rec := doRequest(s, http.MethodPost, "/v1/feedback", bytes.NewReader(data))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store not configured", func(t *testing.T) {
		bare := newTestServer(t, Deps{})
		data, err := json.Marshal(feedbackRequest{Region: "Algiers", Crop: "Potato"})
		require.NoError(t, err)
		rec := doRequest(bare, http.MethodPost, "/v1/feedback", bytes.NewReader(data))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestReload(t *testing.T) {
	store := newTestStore(t)
	s := newTestServer(t, Deps{Store: store})

	rec := doRequest(s, http.MethodPost, "/v1/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reloaded"`)
	assert.Contains(t, rec.Body.String(), `"test-1"`)
}

func TestReload_NoStore(t *testing.T) {
	s := newTestServer(t, Deps{})

	rec := doRequest(s, http.MethodPost, "/v1/reload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReload_BadArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(testArtifact), 0o644))

	store := model.NewStore(path, testLogger(), observability.NewMetricsForTesting())
	require.NoError(t, store.LoadInitial())

	// Corrupt the file after the initial load; reload must fail and the
	// previously published bundle must survive.
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	s := newTestServer(t, Deps{Store: store})
	rec := doRequest(s, http.MethodPost, "/v1/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	_, ok := store.Current()
	assert.True(t, ok)
}
