// Package feedback appends confirmed scoring outcomes to a CSV in the
// training-data schema, so the next retraining run can consume them directly.
// Appends never block scoring; retraining itself happens out of band and
// reaches the service only through a bundle reload.
package feedback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrDuplicate marks a record dropped by the dedup rule. Callers may treat it
// as success; the row simply adds no information.
var ErrDuplicate = errors.New("duplicate feedback record")

// dedupTolerance is the relative difference under which two predictions are
// considered the same observation.
const dedupTolerance = 0.01

// header is the file schema: the training columns plus provenance.
var header = []string{
	"farmer_id", "farm_name",
	"region", "soil_type", "crop", "month", "year",
	"planted_area", "harvested_quantity", "avg_price", "yield_per_ha",
	"oversupply_pct", "temperature_c", "rainfall_mm",
	"saved_at",
}

// Record is one confirmed outcome. Price is DA/kg as reported by the
// predictor; the store converts back to DA/ton for the training schema.
type Record struct {
	FarmerID string
	FarmName string

	Region        string
	SoilType      string
	Crop          string
	Year          int
	Month         time.Month
	PlantedAreaHa float64

	YieldPerHa   float64
	PricePerKg   float64
	RiskPct      float64
	TemperatureC float64
	RainfallMM   float64
}

// Store appends feedback records to a CSV file, dropping near-duplicates.
// Safe for concurrent use; appends are serialized.
type Store struct {
	path    string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu sync.Mutex
}

// NewStore creates a feedback store writing to path. The file and its header
// are created on first append. A nil clock defaults to real time.
func NewStore(path string, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{path: path, clock: clock, logger: logger, metrics: metrics}
}

// Append writes the record unless an existing row for the same farmer, farm,
// crop, and month carries predictions within 1% of it, in which case
// ErrDuplicate is returned and nothing is written.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup, err := s.hasDuplicate(rec)
	if err != nil {
		return err
	}
	if dup {
		s.metrics.FeedbackRows.WithLabelValues("duplicate").Inc()
		s.logger.Debug("feedback record dropped as duplicate",
			"farmer", rec.FarmerID, "farm", rec.FarmName, "crop", rec.Crop)
		return ErrDuplicate
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat feedback file: %w", err)
	}
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write feedback header: %w", err)
		}
	}

	row := []string{
		rec.FarmerID, rec.FarmName,
		rec.Region, rec.SoilType, rec.Crop,
		strconv.Itoa(int(rec.Month)), strconv.Itoa(rec.Year),
		formatFloat(rec.PlantedAreaHa),
		formatFloat(rec.PlantedAreaHa * rec.YieldPerHa),
		formatFloat(rec.PricePerKg * 1000), // DA/kg -> DA/ton
		formatFloat(rec.YieldPerHa),
		formatFloat(rec.RiskPct),
		formatFloat(rec.TemperatureC),
		formatFloat(rec.RainfallMM),
		s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write feedback row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush feedback row: %w", err)
	}

	s.metrics.FeedbackRows.WithLabelValues("appended").Inc()
	return nil
}

// hasDuplicate scans the file for a row matching the dedup key with all three
// predictions inside the tolerance. A missing file has no duplicates.
func (s *Store) hasDuplicate(rec Record) (bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open feedback file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	head, err := r.Read()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read feedback header: %w", err)
	}
	col := make(map[string]int, len(head))
	for i, name := range head {
		col[name] = i
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read feedback row: %w", err)
		}

		if field(row, col, "farmer_id") != rec.FarmerID ||
			field(row, col, "farm_name") != rec.FarmName ||
			field(row, col, "crop") != rec.Crop ||
			field(row, col, "month") != strconv.Itoa(int(rec.Month)) ||
			field(row, col, "year") != strconv.Itoa(rec.Year) {
			continue
		}

		price, errP := strconv.ParseFloat(field(row, col, "avg_price"), 64)
		yield, errY := strconv.ParseFloat(field(row, col, "yield_per_ha"), 64)
		risk, errR := strconv.ParseFloat(field(row, col, "oversupply_pct"), 64)
		if errP != nil || errY != nil || errR != nil {
			continue
		}

		if withinTolerance(rec.PricePerKg*1000, price) &&
			withinTolerance(rec.YieldPerHa, yield) &&
			withinTolerance(rec.RiskPct, risk) {
			return true, nil
		}
	}
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// withinTolerance reports whether a and b differ by at most 1% of the larger
// magnitude.
func withinTolerance(a, b float64) bool {
	if a == b {
		return true
	}
	denom := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b)/denom <= dedupTolerance
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
