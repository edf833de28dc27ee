// Command genmock generates a deterministic mock model bundle and a matching
// training dataset CSV for local development and test fixtures. The bundle is
// round-tripped through the real artifact parser and exercised with the real
// predictor, so the fixtures always match current scoring behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -bundle-out models/bundle.json \
//	  -dataset-out data/agri_dataset.csv
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fellahtech/agri-advisor/internal/model"
	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/jonboulle/clockwork"
)

var baseDate = time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)

// regionDef drives both the bundle projection maps and the synthetic dataset.
type regionDef struct {
	name     string
	soil     string
	meanTemp float64 // annual mean, degrees C
	meanRain float64 // monthly mean, mm
}

var regions = []regionDef{
	{name: "Algiers", soil: "Loam", meanTemp: 18, meanRain: 60},
	{name: "Oran", soil: "Clay", meanTemp: 18, meanRain: 35},
	{name: "Constantine", soil: "Clay", meanTemp: 15, meanRain: 50},
	{name: "Biskra", soil: "Sand", meanTemp: 23, meanRain: 12},
	{name: "Adrar", soil: "Sand", meanTemp: 26, meanRain: 2},
}

// cropDef carries the per-crop constants the synthetic rows are derived from.
type cropDef struct {
	name       string
	soils      []string
	basePrice  float64 // DA/ton
	baseYield  float64 // tons/ha
	riskWeight float64 // classifier one-hot weight
	tMin, tMax float64
	rMin, rMax float64
}

var crops = []cropDef{
	{name: "Potato", soils: []string{"Loam", "Clay"}, basePrice: 45000, baseYield: 28, riskWeight: -1.5, tMin: 10, tMax: 28, rMin: 20, rMax: 150},
	{name: "Tomato", soils: []string{"Loam", "Clay"}, basePrice: 60000, baseYield: 40, riskWeight: 1.2, tMin: 15, tMax: 32, rMin: 20, rMax: 120},
	{name: "Wheat", soils: []string{"Loam", "Clay"}, basePrice: 35000, baseYield: 3.5, riskWeight: -0.8, tMin: 5, tMax: 30, rMin: 30, rMax: 200},
	{name: "Barley", soils: []string{"Clay", "Sand"}, basePrice: 30000, baseYield: 3, riskWeight: -0.4, tMin: 5, tMax: 32, rMin: 15, rMax: 180},
	{name: "Dates", soils: []string{"Sand"}, basePrice: 120000, baseYield: 8, riskWeight: -1.0, tMin: 20, tMax: 45, rMin: 0, rMax: 40},
	{name: "Olives", soils: []string{"Loam", "Sand"}, basePrice: 90000, baseYield: 5, riskWeight: 0.6, tMin: 10, tMax: 38, rMin: 10, rMax: 100},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	bundleOut := flag.String("bundle-out", "", "output path for the mock bundle JSON")
	datasetOut := flag.String("dataset-out", "", "output path for the mock training dataset CSV")
	flag.Parse()

	if *bundleOut == "" || *datasetOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -bundle-out, -dataset-out")
	}

	doc := buildArtifact()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	data = append(data, '\n')

	// Round-trip through the real parser before anything touches disk.
	bundle, err := model.Parse(data)
	if err != nil {
		return fmt.Errorf("generated bundle failed to parse: %w", err)
	}

	if err := writeFile(*bundleOut, data); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}
	log.Printf("wrote bundle: %s (%d features, %d crops)", *bundleOut, len(bundle.FeatureCols), len(bundle.Crops()))

	rows := buildDataset()
	if err := writeDataset(*datasetOut, rows); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	log.Printf("wrote dataset: %s (%d rows)", *datasetOut, len(rows))

	printStats(bundle)
	return nil
}

// ── Bundle construction ──

func featureCols() []string {
	cols := []string{"year", "month", "planted_area", "temperature_c", "rainfall_mm"}
	for _, r := range regions {
		cols = append(cols, "region_"+r.name)
	}
	for _, s := range []string{"Clay", "Loam", "Sand"} {
		cols = append(cols, "soil_type_"+s)
	}
	for _, c := range crops {
		cols = append(cols, "crop_"+c.name)
	}
	return cols
}

func buildArtifact() map[string]any {
	cols := featureCols()
	n := len(cols)
	numeric := 5

	clsWeights := make([]float64, n)
	priceWeights := make([]float64, n)
	yieldWeights := make([]float64, n)
	for i, c := range crops {
		idx := n - len(crops) + i
		clsWeights[idx] = c.riskWeight
		priceWeights[idx] = c.basePrice - 50000
		yieldWeights[idx] = c.baseYield - 10
	}
	// Mild numeric signal: warmer and drier months lean toward oversupply of
	// the irrigated crops in the synthetic data.
	clsWeights[3] = 0.05  // temperature_c
	clsWeights[4] = -0.02 // rainfall_mm

	mean := []float64{2023, 6.5, 50, 19, 40}
	scale := []float64{2, 3.5, 30, 6, 35}

	regionSoil := map[string]string{}
	for _, r := range regions {
		regionSoil[r.name] = r.soil
	}

	soilCropPool := map[string][]string{}
	for _, c := range crops {
		for _, s := range c.soils {
			soilCropPool[s] = append(soilCropPool[s], c.name)
		}
	}

	weatherRanges := map[string]any{}
	for _, c := range crops {
		weatherRanges[c.name] = map[string]float64{
			"t_min": c.tMin, "t_max": c.tMax, "r_min": c.rMin, "r_max": c.rMax,
		}
	}

	return map[string]any{
		"version":         "mock-1",
		"trained_at":      baseDate.Format(time.RFC3339),
		"feature_cols":    cols,
		"numerical_cols":  cols[:numeric],
		"classifier":      map[string]any{"weights": clsWeights, "bias": -0.5},
		"scaler_cls":      map[string]any{"mean": mean, "scale": scale},
		"price_regressor": map[string]any{"weights": priceWeights, "bias": 50000.0},
		"scaler_price":    map[string]any{"mean": mean, "scale": scale},
		"yield_regressor": map[string]any{"weights": yieldWeights, "bias": 10.0},
		"scaler_yield":    map[string]any{"mean": mean, "scale": scale},
		"region_soil_map": regionSoil,
		"soil_crop_pool":  soilCropPool,
		"weather_ranges":  weatherRanges,
		"risk_threshold":  45.0,
	}
}

// ── Dataset construction ──

var datasetHeader = []string{
	"region", "soil_type", "crop", "month", "year", "planted_area",
	"harvested_quantity", "avg_price", "yield_per_ha", "oversupply_pct",
	"temperature_c", "rainfall_mm",
}

type datasetRow struct {
	region        string
	soil          string
	crop          string
	month         int
	year          int
	plantedArea   float64
	avgPrice      float64
	yieldPerHa    float64
	oversupplyPct float64
	temperatureC  float64
	rainfallMM    float64
}

// buildDataset emits three years of monthly rows per region and crop, with
// seasonal temperature and rainfall derived from the region constants. All
// variation is a deterministic function of the row key.
func buildDataset() []datasetRow {
	var rows []datasetRow
	for _, r := range regions {
		for ci, c := range crops {
			if !contains(c.soils, r.soil) {
				continue
			}
			for year := 2022; year <= 2024; year++ {
				for month := 1; month <= 12; month++ {
					// Seasonal swing peaks in July (month 7).
					seasonal := 1.0 - absf(float64(month)-7)/6.0
					temp := r.meanTemp + 10*seasonal - 5
					rain := r.meanRain * (1.3 - seasonal)

					jitter := float64((ci*7+month*3+year)%10) / 10.0
					area := 50 + 20*jitter
					yield := c.baseYield * (0.85 + 0.3*jitter)
					price := c.basePrice * (0.9 + 0.2*(1-jitter))
					oversupply := 10 + 60*jitter

					rows = append(rows, datasetRow{
						region:        r.name,
						soil:          r.soil,
						crop:          c.name,
						month:         month,
						year:          year,
						plantedArea:   area,
						avgPrice:      price,
						yieldPerHa:    yield,
						oversupplyPct: oversupply,
						temperatureC:  temp,
						rainfallMM:    rain,
					})
				}
			}
		}
	}
	return rows
}

func writeDataset(path string, rows []datasetRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(datasetHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.region, r.soil, r.crop,
			strconv.Itoa(r.month), strconv.Itoa(r.year),
			ff(r.plantedArea),
			ff(r.plantedArea * r.yieldPerHa),
			ff(r.avgPrice),
			ff(r.yieldPerHa),
			ff(r.oversupplyPct),
			ff(r.temperatureC),
			ff(r.rainfallMM),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ── Stats ──

// printStats runs the real predictor over every region/crop pair so test
// assertions can be updated from the output.
func printStats(b *model.Bundle) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(baseDate)
	predictor := model.NewPredictor(b, logger, clock, observability.NewMetrics())

	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, r := range regions {
		fmt.Printf("%s (%s):\n", r.name, r.soil)
		for _, crop := range b.SoilCropPool[r.soil] {
			pred, err := predictor.Predict(crop, r.name, r.soil, 10, r.meanTemp, r.meanRain, baseDate.Year(), baseDate.Month())
			if err != nil {
				fmt.Printf("  %-10s error: %v\n", crop, err)
				continue
			}
			fmt.Printf("  %-10s risk=%5.1f%%  price=%6.1f DA/kg  yield=%5.1f t/ha\n",
				crop, pred.RiskPct, pred.PricePerKg, pred.YieldPerHa)
		}
	}
}

// ── Helpers ──

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
