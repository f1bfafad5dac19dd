package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agroclima/crop-risk-etl/internal/domain"
	"github.com/agroclima/crop-risk-etl/internal/observability"
)

// ErrStationNotFound is returned when the registry has no record for a
// station ID.
var ErrStationNotFound = errors.New("station not found")

// Client implements domain.StationDirectory against the station registry's
// HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a station registry client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Lookup fetches station metadata by ID.
func (c *Client) Lookup(ctx context.Context, stationID string) (domain.StationInfo, error) {
	u := fmt.Sprintf("%s/v1/stations/%s", c.baseURL, url.PathEscape(stationID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.StationInfo{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.StationAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.StationLookups.WithLabelValues("error").Inc()
		return domain.StationInfo{}, fmt.Errorf("station registry request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.StationLookups.WithLabelValues("not_found").Inc()
		return domain.StationInfo{}, fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		c.metrics.StationLookups.WithLabelValues("error").Inc()
		return domain.StationInfo{}, fmt.Errorf("station registry error: status %d: %s", resp.StatusCode, body)
	}

	var rec stationRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		c.metrics.StationLookups.WithLabelValues("error").Inc()
		return domain.StationInfo{}, fmt.Errorf("decode response: %w", err)
	}

	c.metrics.StationLookups.WithLabelValues("success").Inc()
	return domain.StationInfo{Name: rec.Name, Region: rec.Region}, nil
}

// Station registry API response type.

type stationRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
}
