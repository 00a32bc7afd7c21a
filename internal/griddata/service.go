// Package griddata normalizes raw provider rows into typed snapshots and owns
// the cache-key and TTL policy per data kind.
package griddata

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridpulse/gridpulse/internal/cache"
	"github.com/gridpulse/gridpulse/models"
)

// CAISO trading hubs for LMP queries.
// NP15 = Northern CA, SP15 = Southern CA, ZP26 = Central CA.
var caisoHubs = []string{"TH_NP15_GEN-APND", "TH_SP15_GEN-APND", "TH_ZP26_GEN-APND"}

// SupportedISOs have real-time data through the provider.
var SupportedISOs = []string{"CAISO"}

const realTimeMarket = "REAL_TIME_5_MIN"

// TTLs per data kind. Live kinds move every dispatch interval; a past day
// window never changes.
const (
	TTLFuelMix    = 60 * time.Second
	TTLLoad       = 60 * time.Second
	TTLPrices     = 60 * time.Second
	TTLStatus     = 60 * time.Second
	TTLHistorical = time.Hour
)

// MetricsRecorder observes cache effectiveness. May be nil.
type MetricsRecorder interface {
	CacheHit()
	CacheMiss()
}

// Service resolves snapshots through the cache, falling back to the provider.
// The read-fetch-store sequence is deliberately unlocked: concurrent misses on
// one key may both hit the provider, and the later store wins.
type Service struct {
	cache    *cache.Cache
	provider models.GridProvider
	metrics  MetricsRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(c *cache.Cache, p models.GridProvider, m MetricsRecorder) *Service {
	return &Service{
		cache:    c,
		provider: p,
		metrics:  m,
		logger:   log.With().Str("component", "griddata").Logger(),
		now:      time.Now,
	}
}

// ValidateISO normalizes the identifier and rejects anything outside the
// supported set before any fetch happens.
func ValidateISO(iso string) (string, error) {
	iso = strings.ToUpper(iso)
	for _, s := range SupportedISOs {
		if iso == s {
			return iso, nil
		}
	}
	return "", &models.UnsupportedISOError{ISO: iso, Supported: SupportedISOs}
}

func (s *Service) lookup(key string) (any, bool) {
	v, ok := s.cache.Get(key)
	if s.metrics != nil {
		if ok {
			s.metrics.CacheHit()
		} else {
			s.metrics.CacheMiss()
		}
	}
	return v, ok
}

// FuelMix returns the latest generation mix for iso.
func (s *Service) FuelMix(ctx context.Context, iso string) (*models.FuelMixSnapshot, error) {
	iso, err := ValidateISO(iso)
	if err != nil {
		return nil, err
	}

	key := "fuel_mix:" + iso
	if v, ok := s.lookup(key); ok {
		return v.(*models.FuelMixSnapshot), nil
	}

	rows, err := s.provider.FetchFuelMix(ctx, iso)
	if err != nil {
		return nil, &models.ProviderError{Kind: "fuel_mix", Err: err}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fuel mix for %s: %w", iso, models.ErrNoData)
	}

	row := rows[0]
	snap := &models.FuelMixSnapshot{
		Timestamp: row.Timestamp.Format(time.RFC3339),
		Sources:   row.Sources,
	}
	s.cache.Set(key, snap, TTLFuelMix)
	return snap, nil
}

// Load returns the latest system demand for iso.
func (s *Service) Load(ctx context.Context, iso string) (*models.LoadSnapshot, error) {
	iso, err := ValidateISO(iso)
	if err != nil {
		return nil, err
	}

	key := "load:" + iso
	if v, ok := s.lookup(key); ok {
		return v.(*models.LoadSnapshot), nil
	}

	rows, err := s.provider.FetchLoad(ctx, iso)
	if err != nil {
		return nil, &models.ProviderError{Kind: "load", Err: err}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("load for %s: %w", iso, models.ErrNoData)
	}

	snap := &models.LoadSnapshot{
		Timestamp: rows[0].Timestamp.Format(time.RFC3339),
		CurrentMW: rows[0].LoadMW,
	}
	s.cache.Set(key, snap, TTLLoad)
	return snap, nil
}

// Prices returns the latest hub LMPs for iso with their unweighted average.
func (s *Service) Prices(ctx context.Context, iso string) (*models.PriceSnapshot, error) {
	iso, err := ValidateISO(iso)
	if err != nil {
		return nil, err
	}

	key := "prices:" + iso
	if v, ok := s.lookup(key); ok {
		return v.(*models.PriceSnapshot), nil
	}

	rows, err := s.provider.FetchLMP(ctx, iso, models.LMPQuery{
		Market:    realTimeMarket,
		Locations: caisoHubs,
	})
	if err != nil {
		return nil, &models.ProviderError{Kind: "lmp", Err: err}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("prices for %s: %w", iso, models.ErrNoData)
	}

	byHub := make(map[string]float64, len(rows))
	for _, row := range rows {
		byHub[row.Location] = round2(row.LMP)
	}

	var sum float64
	for _, lmp := range byHub {
		sum += lmp
	}
	avg := 0.0
	if len(byHub) > 0 {
		avg = round2(sum / float64(len(byHub)))
	}

	snap := &models.PriceSnapshot{
		Timestamp:  rows[0].Timestamp.Format(time.RFC3339),
		AverageLMP: avg,
		ByHub:      byHub,
		Unit:       "$/MWh",
	}
	s.cache.Set(key, snap, TTLPrices)
	return snap, nil
}

// Status returns the grid operating status for iso. A failed status fetch
// degrades to an "unavailable" snapshot instead of an error.
func (s *Service) Status(ctx context.Context, iso string) (*models.StatusSnapshot, error) {
	iso, err := ValidateISO(iso)
	if err != nil {
		return nil, err
	}

	key := "status:" + iso
	if v, ok := s.lookup(key); ok {
		return v.(*models.StatusSnapshot), nil
	}

	var snap *models.StatusSnapshot
	row, err := s.provider.FetchStatus(ctx, iso)
	if err != nil {
		s.logger.Warn().Err(err).Str("iso", iso).Msg("Grid status unavailable")
		snap = &models.StatusSnapshot{Status: "unavailable"}
	} else {
		snap = &models.StatusSnapshot{
			Status:   row.Status,
			Reserves: row.Reserves,
			Time:     row.Time,
		}
	}

	s.cache.Set(key, snap, TTLStatus)
	return snap, nil
}

// HistoricalPrices fetches the LMP series for the trailing days window.
// Returns (nil, nil) when the provider fails; callers treat the series as
// best-effort.
func (s *Service) HistoricalPrices(ctx context.Context, iso string, days int) ([]models.HistoricalPrice, error) {
	iso, err := ValidateISO(iso)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("hist_prices:%s:%d", iso, days)
	if v, ok := s.lookup(key); ok {
		return v.([]models.HistoricalPrice), nil
	}

	end := s.now()
	start := end.AddDate(0, 0, -days)

	rows, err := s.provider.FetchLMP(ctx, iso, models.LMPQuery{
		Market:    realTimeMarket,
		Locations: caisoHubs,
		Start:     start,
		End:       end,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("iso", iso).Int("days", days).Msg("Historical price fetch failed")
		return nil, nil
	}

	series := make([]models.HistoricalPrice, 0, len(rows))
	for _, row := range rows {
		series = append(series, models.HistoricalPrice{
			Timestamp: row.Timestamp,
			Hub:       row.Location,
			LMP:       row.LMP,
		})
	}

	s.cache.Set(key, series, TTLHistorical)
	return series, nil
}

// GridSnapshot bundles the four live snapshots for one ISO.
type GridSnapshot struct {
	FuelMix *models.FuelMixSnapshot
	Load    *models.LoadSnapshot
	Prices  *models.PriceSnapshot
	Status  *models.StatusSnapshot
}

// Snapshot resolves fuel mix, load, prices and status concurrently. Fuel mix,
// load and price failures propagate; status degrades on its own.
func (s *Service) Snapshot(ctx context.Context, iso string) (*GridSnapshot, error) {
	iso, err := ValidateISO(iso)
	if err != nil {
		return nil, err
	}

	var (
		wg                               sync.WaitGroup
		snap                             GridSnapshot
		mixErr, loadErr, priceErr, stErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		snap.FuelMix, mixErr = s.FuelMix(ctx, iso)
	}()
	go func() {
		defer wg.Done()
		snap.Load, loadErr = s.Load(ctx, iso)
	}()
	go func() {
		defer wg.Done()
		snap.Prices, priceErr = s.Prices(ctx, iso)
	}()
	go func() {
		defer wg.Done()
		snap.Status, stErr = s.Status(ctx, iso)
	}()
	wg.Wait()

	for _, err := range []error{mixErr, loadErr, priceErr, stErr} {
		if err != nil {
			return nil, err
		}
	}
	return &snap, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
