// Package gridstatus is the HTTP client for a hosted gridstatus-style API.
// It is the one concrete GridProvider; everything above it sees typed rows.
package gridstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/gridpulse/gridpulse/internal/platform/http"
	"github.com/gridpulse/gridpulse/models"
)

// Client is the gridstatus API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new gridstatus client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new gridstatus API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.gridstatus.io"
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "gridstatus_client").Logger(),
	}
}

var _ models.GridProvider = (*Client)(nil)

type fuelMixResponse struct {
	Rows []struct {
		IntervalStart time.Time      `json:"interval_start"`
		Sources       map[string]int `json:"sources"`
	} `json:"rows"`
}

type loadResponse struct {
	Rows []struct {
		IntervalStart time.Time `json:"interval_start"`
		LoadMW        int       `json:"load_mw"`
	} `json:"rows"`
}

type lmpResponse struct {
	Rows []struct {
		IntervalStart time.Time `json:"interval_start"`
		Location      string    `json:"location"`
		LMP           float64   `json:"lmp"`
	} `json:"rows"`
}

type statusResponse struct {
	Status   string  `json:"status"`
	Reserves *string `json:"reserves"`
	Time     *string `json:"time"`
}

// FetchFuelMix fetches the latest generation mix rows for iso
func (c *Client) FetchFuelMix(ctx context.Context, iso string) ([]models.FuelMixRow, error) {
	var data fuelMixResponse
	path := fmt.Sprintf("/v1/isos/%s/fuel_mix/latest", strings.ToLower(iso))
	if err := c.getJSON(ctx, path, nil, &data); err != nil {
		return nil, err
	}

	rows := make([]models.FuelMixRow, 0, len(data.Rows))
	for _, r := range data.Rows {
		rows = append(rows, models.FuelMixRow{Timestamp: r.IntervalStart, Sources: r.Sources})
	}
	c.logger.Debug().Str("iso", iso).Int("count", len(rows)).Msg("Fetched fuel mix")
	return rows, nil
}

// FetchLoad fetches the latest load rows for iso
func (c *Client) FetchLoad(ctx context.Context, iso string) ([]models.LoadRow, error) {
	var data loadResponse
	path := fmt.Sprintf("/v1/isos/%s/load/latest", strings.ToLower(iso))
	if err := c.getJSON(ctx, path, nil, &data); err != nil {
		return nil, err
	}

	rows := make([]models.LoadRow, 0, len(data.Rows))
	for _, r := range data.Rows {
		rows = append(rows, models.LoadRow{Timestamp: r.IntervalStart, LoadMW: r.LoadMW})
	}
	c.logger.Debug().Str("iso", iso).Int("count", len(rows)).Msg("Fetched load")
	return rows, nil
}

// FetchLMP fetches LMP rows for iso. A zero Start/End in the query selects the
// latest dispatch interval; otherwise the day window [Start, End] is requested.
func (c *Client) FetchLMP(ctx context.Context, iso string, q models.LMPQuery) ([]models.LMPRow, error) {
	params := url.Values{}
	params.Set("market", q.Market)
	params.Set("locations", strings.Join(q.Locations, ","))

	path := fmt.Sprintf("/v1/isos/%s/lmp/latest", strings.ToLower(iso))
	if !q.Start.IsZero() {
		path = fmt.Sprintf("/v1/isos/%s/lmp", strings.ToLower(iso))
		params.Set("start", q.Start.UTC().Format(time.RFC3339))
		params.Set("end", q.End.UTC().Format(time.RFC3339))
	}

	var data lmpResponse
	if err := c.getJSON(ctx, path, params, &data); err != nil {
		return nil, err
	}

	rows := make([]models.LMPRow, 0, len(data.Rows))
	for _, r := range data.Rows {
		rows = append(rows, models.LMPRow{Timestamp: r.IntervalStart, Location: r.Location, LMP: r.LMP})
	}
	c.logger.Debug().Str("iso", iso).Int("count", len(rows)).Msg("Fetched LMP rows")
	return rows, nil
}

// FetchStatus fetches the grid operating status for iso
func (c *Client) FetchStatus(ctx context.Context, iso string) (models.StatusRow, error) {
	var data statusResponse
	path := fmt.Sprintf("/v1/isos/%s/status/latest", strings.ToLower(iso))
	if err := c.getJSON(ctx, path, nil, &data); err != nil {
		return models.StatusRow{}, err
	}
	return models.StatusRow{Status: data.Status, Reserves: data.Reserves, Time: data.Time}, nil
}

type datasetQueryResponse struct {
	Data []map[string]any `json:"data"`
}

// QueryDataset fetches rows from the hosted dataset endpoint. Rows are
// returned with their upstream column names intact.
func (c *Client) QueryDataset(ctx context.Context, datasetID, start, end string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if start != "" {
		params.Set("start_time", start)
	}
	if end != "" {
		params.Set("end_time", end)
	}

	var data datasetQueryResponse
	path := fmt.Sprintf("/v1/datasets/%s/query", datasetID)
	if err := c.getJSON(ctx, path, params, &data); err != nil {
		return nil, err
	}
	c.logger.Debug().Str("dataset", datasetID).Int("count", len(data.Data)).Msg("Fetched dataset rows")
	return data.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	c.logger.Debug().Str("url", u).Msg("Fetching grid data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		c.logger.Error().Str("response", string(body)).Msg("gridstatus API error")
		return fmt.Errorf("gridstatus API error: %s", apiErr.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}
