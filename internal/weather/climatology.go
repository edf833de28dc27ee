package weather

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Climatology is the per-(region, month) historical mean of temperature and
// rainfall, computed from the training dataset at startup. It is the second
// resolution tier, consulted when live history is unavailable.
type Climatology struct {
	table map[climKey]climEntry
}

type climKey struct {
	region string
	month  time.Month
}

type climEntry struct {
	tempSum float64
	rainSum float64
	count   int
}

// LoadClimatology builds the climatology table from a training CSV. The file
// must carry at least the region, month, temperature_c, and rainfall_mm
// columns; rows with malformed values are skipped.
func LoadClimatology(path string) (*Climatology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadClimatology(f)
}

// ReadClimatology parses climatology from CSV data.
func ReadClimatology(r io.Reader) (*Climatology, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"region", "month", "temperature_c", "rainfall_mm"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("dataset missing column %q", required)
		}
	}

	c := &Climatology{table: make(map[climKey]climEntry)}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row: %w", err)
		}

		month, errM := strconv.Atoi(rec[col["month"]])
		temp, errT := strconv.ParseFloat(rec[col["temperature_c"]], 64)
		rain, errR := strconv.ParseFloat(rec[col["rainfall_mm"]], 64)
		if errM != nil || errT != nil || errR != nil || month < 1 || month > 12 {
			continue
		}

		key := climKey{region: rec[col["region"]], month: time.Month(month)}
		e := c.table[key]
		e.tempSum += temp
		e.rainSum += rain
		e.count++
		c.table[key] = e
	}
	return c, nil
}

// Lookup returns the mean temperature and rainfall for (region, month).
func (c *Climatology) Lookup(region string, month time.Month) (tempC, rainMM float64, ok bool) {
	if c == nil {
		return 0, 0, false
	}
	e, found := c.table[climKey{region: region, month: month}]
	if !found || e.count == 0 {
		return 0, 0, false
	}
	n := float64(e.count)
	return e.tempSum / n, e.rainSum / n, true
}

// Len returns the number of (region, month) keys in the table.
func (c *Climatology) Len() int {
	if c == nil {
		return 0
	}
	return len(c.table)
}
