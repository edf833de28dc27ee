// Command validate performs integrity checks on a trained model artifact
// bundle: schema shape, projection map consistency, prediction sanity across
// every region/soil/crop combination, and optional alignment against the
// training dataset and crop catalog.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -bundle models/bundle.json \
//	  -dataset data/agri_dataset.csv \
//	  -catalog configs/crops.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fellahtech/agri-advisor/internal/domain"
	"github.com/fellahtech/agri-advisor/internal/model"
	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/fellahtech/agri-advisor/internal/weather"
	"github.com/jonboulle/clockwork"
)

// Fixed date so prediction sanity checks are reproducible across runs.
var baseDate = time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	bundlePath := flag.String("bundle", "", "path to the model artifact bundle JSON")
	datasetPath := flag.String("dataset", "", "optional path to the training dataset CSV")
	catalogPath := flag.String("catalog", "", "optional path to the crop catalog YAML")
	flag.Parse()

	if *bundlePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*bundlePath, *datasetPath, *catalogPath); code != 0 {
		os.Exit(code)
	}
}

func run(bundlePath, datasetPath, catalogPath string) int {
	fmt.Println("=== Model Bundle Integrity Validation ===")
	fmt.Println()

	bundle, err := model.Load(bundlePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load bundle: %v\n", err)
		return 1
	}
	fmt.Printf("Bundle: version=%s features=%d crops=%d\n",
		bundle.Version, len(bundle.FeatureCols), len(bundle.Crops()))

	phases := []*phase{
		validateSchema(bundle),
		validateProjections(bundle),
		validatePredictions(bundle),
	}
	if datasetPath != "" {
		phases = append(phases, validateDataset(bundle, datasetPath))
	}
	if catalogPath != "" {
		phases = append(phases, validateCatalog(bundle, catalogPath))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Schema ──
// Parse already rejects structural errors; this phase checks the semantic
// shape of the column set.

func validateSchema(b *model.Bundle) *phase {
	p := &phase{name: "Phase 1: Schema shape"}

	for _, col := range []string{model.ColYear, model.ColMonth, model.ColPlantedArea, model.ColTemperature, model.ColRainfall} {
		if _, ok := b.NumericIndex(col); !ok {
			p.errorf("numeric column %q missing from schema", col)
		}
	}

	if len(b.Crops()) == 0 {
		p.errorf("schema has no crop one-hot columns")
	}

	seen := map[string]int{}
	for _, col := range b.FeatureCols {
		seen[col]++
	}
	for col, n := range seen {
		if n > 1 {
			p.errorf("feature column %q appears %d times", col, n)
		}
	}

	if b.RiskThreshold <= 0 || b.RiskThreshold >= 100 {
		p.errorf("risk_threshold %.1f outside (0, 100)", b.RiskThreshold)
	}
	return p
}

// ── Phase 2: Projection maps ──
// region_soil_map, soil_crop_pool, and weather_ranges must agree with the
// schema and each other.

func validateProjections(b *model.Bundle) *phase {
	p := &phase{name: "Phase 2: Projection maps"}

	if len(b.RegionSoilMap) == 0 {
		p.errorf("region_soil_map is empty")
	}
	if len(b.SoilCropPool) == 0 {
		p.errorf("soil_crop_pool is empty")
	}

	for region, soil := range b.RegionSoilMap {
		if _, ok := b.SoilCropPool[soil]; !ok {
			p.errorf("region %q maps to soil %q with no crop pool", region, soil)
		}
	}

	// Pool crops without a schema column are allowed (the engine skips
	// them), but a pool with no scoreable crop at all is useless.
	for soil, crops := range b.SoilCropPool {
		scoreable := 0
		var missing []string
		for _, crop := range crops {
			if b.HasCrop(crop) {
				scoreable++
			} else {
				missing = append(missing, crop)
			}
		}
		if scoreable == 0 {
			p.errorf("soil %q: no crop in pool %v has a schema column", soil, crops)
		}
		if len(missing) > 0 {
			fmt.Printf("  Note: soil %q pool crops outside schema (skipped at scoring time): %s\n",
				soil, strings.Join(missing, ", "))
		}
	}

	for crop, r := range b.WeatherRanges {
		if r.TMin > r.TMax {
			p.errorf("weather range for %q: t_min %.1f > t_max %.1f", crop, r.TMin, r.TMax)
		}
		if r.RMin > r.RMax {
			p.errorf("weather range for %q: r_min %.1f > r_max %.1f", crop, r.RMin, r.RMax)
		}
	}
	return p
}

// ── Phase 3: Prediction sanity ──
// Every region x pool crop combination must produce finite predictions with
// risk in [0, 100] and non-negative price and yield.

func validatePredictions(b *model.Bundle) *phase {
	p := &phase{name: "Phase 3: Prediction sanity"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClockAt(baseDate)
	predictor := model.NewPredictor(b, logger, clock, observability.NewMetrics())

	for region, soil := range b.RegionSoilMap {
		for _, crop := range b.SoilCropPool[soil] {
			if !b.HasCrop(crop) {
				continue
			}
			pred, err := predictor.Predict(crop, region, soil, 10, 20, 100, baseDate.Year(), baseDate.Month())
			if err != nil {
				p.errorf("%s/%s/%s: %v", region, soil, crop, err)
				continue
			}
			if math.IsNaN(pred.RiskPct) || pred.RiskPct < 0 || pred.RiskPct > 100 {
				p.errorf("%s/%s/%s: risk %.2f outside [0, 100]", region, soil, crop, pred.RiskPct)
			}
			if math.IsNaN(pred.PricePerKg) || pred.PricePerKg < 0 {
				p.errorf("%s/%s/%s: price %.2f DA/kg is negative or NaN", region, soil, crop, pred.PricePerKg)
			}
			if math.IsNaN(pred.YieldPerHa) || pred.YieldPerHa < 0 {
				p.errorf("%s/%s/%s: yield %.2f t/ha is negative or NaN", region, soil, crop, pred.YieldPerHa)
			}
		}
	}
	return p
}

// ── Phase 4: Dataset alignment ──
// The climatology table built from the training CSV must cover the regions
// the bundle was trained on.

func validateDataset(b *model.Bundle, path string) *phase {
	p := &phase{name: "Phase 4: Dataset alignment"}

	clim, err := weather.LoadClimatology(path)
	if err != nil {
		p.errorf("load dataset: %v", err)
		return p
	}
	if clim.Len() == 0 {
		p.errorf("climatology table is empty")
		return p
	}

	for region := range b.RegionSoilMap {
		covered := false
		for m := time.January; m <= time.December; m++ {
			if _, _, ok := clim.Lookup(region, m); ok {
				covered = true
				break
			}
		}
		if !covered {
			p.errorf("region %q has no climatology rows in the dataset", region)
		}
	}
	return p
}

// ── Phase 5: Catalog alignment ──
// Schema crops missing from the catalog fall back to market-free defaults at
// scoring time; flag them so the catalog can be extended.

func validateCatalog(b *model.Bundle, path string) *phase {
	p := &phase{name: "Phase 5: Catalog alignment"}

	catalog, err := domain.LoadCatalog(path)
	if err != nil {
		p.errorf("load catalog: %v", err)
		return p
	}

	for _, crop := range b.Crops() {
		if _, ok := catalog.Lookup(crop); !ok {
			p.errorf("schema crop %q missing from catalog", crop)
		}
	}
	return p
}
