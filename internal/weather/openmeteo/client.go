// Package openmeteo implements weather.HistorySource against the Open-Meteo
// geocoding and archive APIs. No API key is required; failures are soft and
// the resolver degrades to its next tier.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fellahtech/agri-advisor/internal/weather"
)

// Client queries the Open-Meteo geocoding and archive endpoints.
type Client struct {
	httpClient *http.Client
	geocodeURL string
	archiveURL string
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client with the given request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		geocodeURL: "https://geocoding-api.open-meteo.com/v1/search",
		archiveURL: "https://archive-api.open-meteo.com/v1/archive",
		logger:     logger,
	}
}

// Geocode resolves a region name to coordinates using the first search result.
func (c *Client) Geocode(ctx context.Context, region string) (weather.Coords, error) {
	params := url.Values{
		"name":     {region},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}

	var resp geocodeResponse
	if err := c.get(ctx, c.geocodeURL+"?"+params.Encode(), &resp); err != nil {
		return weather.Coords{}, fmt.Errorf("geocode %q: %w", region, err)
	}
	if len(resp.Results) == 0 {
		return weather.Coords{}, fmt.Errorf("geocode %q: no results", region)
	}
	return weather.Coords{Lat: resp.Results[0].Latitude, Lon: resp.Results[0].Longitude}, nil
}

// MonthlyHistory fetches daily mean temperature and rain sums for the month
// and aggregates them: temperatures averaged, rainfall summed. Null daily
// entries are dropped; a month with no usable temperatures is an error.
func (c *Client) MonthlyHistory(ctx context.Context, coords weather.Coords, year int, month time.Month) (weather.MonthlySummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC) // last day of month

	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", coords.Lat)},
		"longitude":  {fmt.Sprintf("%.4f", coords.Lon)},
		"start_date": {start.Format("2006-01-02")},
		"end_date":   {end.Format("2006-01-02")},
		"daily":      {"temperature_2m_mean,rain_sum"},
		"timezone":   {"auto"},
	}

	var resp archiveResponse
	if err := c.get(ctx, c.archiveURL+"?"+params.Encode(), &resp); err != nil {
		return weather.MonthlySummary{}, fmt.Errorf("archive %d-%02d: %w", year, month, err)
	}

	var tempSum float64
	var days int
	for _, t := range resp.Daily.TemperatureMean {
		if t == nil {
			continue
		}
		tempSum += *t
		days++
	}
	if days == 0 {
		return weather.MonthlySummary{}, fmt.Errorf("archive %d-%02d: no temperature data", year, month)
	}

	var rainSum float64
	for _, r := range resp.Daily.RainSum {
		if r != nil {
			rainSum += *r
		}
	}

	return weather.MonthlySummary{
		MeanTempC:   tempSum / float64(days),
		TotalRainMM: rainSum,
		Days:        days,
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Open-Meteo API response types.

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type archiveResponse struct {
	Daily struct {
		Time            []string   `json:"time"`
		TemperatureMean []*float64 `json:"temperature_2m_mean"`
		RainSum         []*float64 `json:"rain_sum"`
	} `json:"daily"`
}
