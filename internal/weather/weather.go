// Package weather fetches current conditions at an ISO's major load centers
// from open-meteo and averages them. Free API, no key required.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridpulse/gridpulse/internal/cache"
	"github.com/gridpulse/gridpulse/models"
)

const weatherTTL = 300 * time.Second

type loadCenter struct {
	lat, lon float64
	name     string
}

// Major load centers per ISO.
var isoLocations = map[string][]loadCenter{
	"CAISO": {
		{38.58, -121.49, "Sacramento"},
		{34.05, -118.24, "Los Angeles"},
		{37.77, -122.42, "San Francisco"},
	},
}

// Service fans out one GET per load center and averages what came back.
// Individual location failures are dropped, never fatal.
type Service struct {
	cache      *cache.Cache
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

func NewService(c *cache.Cache) *Service {
	return &Service{
		cache:      c,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.open-meteo.com/v1/forecast",
		logger:     log.With().Str("component", "weather").Logger(),
	}
}

// NewServiceWithBaseURL is for tests pointing at a local server.
func NewServiceWithBaseURL(c *cache.Cache, baseURL string) *Service {
	s := NewService(c)
	s.baseURL = baseURL
	return s
}

type openMeteoResponse struct {
	Current struct {
		Temperature2m      float64 `json:"temperature_2m"`
		WindSpeed10m       float64 `json:"wind_speed_10m"`
		RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

func (s *Service) fetchLocation(ctx context.Context, lc loadCenter) (*models.WeatherLocation, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.2f", lc.lat))
	params.Set("longitude", fmt.Sprintf("%.2f", lc.lon))
	params.Set("current", "temperature_2m,wind_speed_10m,relative_humidity_2m")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("wind_speed_unit", "mph")
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-meteo status %d", resp.StatusCode)
	}

	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	return &models.WeatherLocation{
		Location:     lc.name,
		TemperatureF: data.Current.Temperature2m,
		WindSpeedMPH: data.Current.WindSpeed10m,
		HumidityPct:  data.Current.RelativeHumidity2m,
	}, nil
}

// Conditions returns averaged current weather for iso's load centers.
func (s *Service) Conditions(ctx context.Context, iso string) (*models.WeatherSnapshot, error) {
	iso = strings.ToUpper(iso)

	key := "weather:" + iso
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.WeatherSnapshot), nil
	}

	centers, ok := isoLocations[iso]
	if !ok {
		return nil, fmt.Errorf("no weather locations configured for %s", iso)
	}

	results := make([]*models.WeatherLocation, len(centers))
	var wg sync.WaitGroup
	for i, lc := range centers {
		wg.Add(1)
		go func(i int, lc loadCenter) {
			defer wg.Done()
			loc, err := s.fetchLocation(ctx, lc)
			if err != nil {
				s.logger.Warn().Err(err).Str("location", lc.name).Msg("Weather fetch failed")
				return
			}
			results[i] = loc
		}(i, lc)
	}
	wg.Wait()

	snap := &models.WeatherSnapshot{ISO: iso, Locations: []models.WeatherLocation{}}
	var tempSum, windSum float64
	for _, r := range results {
		if r == nil {
			continue
		}
		snap.Locations = append(snap.Locations, *r)
		tempSum += r.TemperatureF
		windSum += r.WindSpeedMPH
	}
	if n := len(snap.Locations); n > 0 {
		avgTemp := round1(tempSum / float64(n))
		avgWind := round1(windSum / float64(n))
		snap.AvgTemperatureF = &avgTemp
		snap.AvgWindSpeedMPH = &avgWind
	}

	s.cache.Set(key, snap, weatherTTL)
	return snap, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
