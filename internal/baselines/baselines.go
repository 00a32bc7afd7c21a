// Package baselines scores prices against typical behavior: a static per-hour
// table as the primary yardstick, plus an advisory rolling baseline computed
// live from recent history.
package baselines

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridpulse/gridpulse/models"
)

// rollingMinSamples is the floor below which a rolling baseline is withheld.
const rollingMinSamples = 10

// Hourly baselines for CAISO (mean $/MWh, std $/MWh).
// Sourced from CAISO real-time LMP data, January 2026.
// Production: compute from 90-day rolling history per hour-of-day.
var caisoHourly = map[int]models.HourlyBaseline{
	0:  {Mean: 22.5, Std: 12.3},
	1:  {Mean: 19.8, Std: 10.1},
	2:  {Mean: 18.2, Std: 9.5},
	3:  {Mean: 17.5, Std: 8.8},
	4:  {Mean: 18.9, Std: 9.2},
	5:  {Mean: 22.1, Std: 11.5},
	6:  {Mean: 28.4, Std: 14.2},
	7:  {Mean: 32.7, Std: 15.8},
	8:  {Mean: 30.1, Std: 16.5},
	9:  {Mean: 25.3, Std: 14.0},
	10: {Mean: 20.8, Std: 12.8},
	11: {Mean: 18.5, Std: 11.2},
	12: {Mean: 16.2, Std: 10.5},
	13: {Mean: 15.8, Std: 10.0},
	14: {Mean: 17.3, Std: 11.5},
	15: {Mean: 22.6, Std: 14.8},
	16: {Mean: 32.5, Std: 18.2},
	17: {Mean: 45.8, Std: 22.5},
	18: {Mean: 52.3, Std: 25.0},
	19: {Mean: 48.7, Std: 23.5},
	20: {Mean: 42.1, Std: 20.8},
	21: {Mean: 35.6, Std: 17.5},
	22: {Mean: 28.9, Std: 14.2},
	23: {Mean: 24.3, Std: 12.8},
}

var defaultBaseline = models.HourlyBaseline{Mean: 30.0, Std: 15.0, Description: "Default baseline"}

// HistoricalSource supplies the LMP series the rolling baseline is computed
// from. A (nil, nil) return means history is unavailable right now.
type HistoricalSource interface {
	HistoricalPrices(ctx context.Context, iso string, days int) ([]models.HistoricalPrice, error)
}

// Store resolves baselines and scores prices for one process.
type Store struct {
	history HistoricalSource
	loc     *time.Location
	logger  zerolog.Logger
	now     func() time.Time
}

func NewStore(history HistoricalSource) *Store {
	// CAISO operates on Pacific time; hour-of-day baselines are local hours.
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		loc = time.UTC
	}
	return &Store{
		history: history,
		loc:     loc,
		logger:  log.With().Str("component", "baselines").Logger(),
		now:     time.Now,
	}
}

// HourlyBaseline returns the typical price stats for hour (0-23) in iso.
// Unknown hours and unsupported ISOs fall back to the default.
func (s *Store) HourlyBaseline(iso string, hour int) models.HourlyBaseline {
	if iso == "CAISO" {
		if b, ok := caisoHourly[hour]; ok {
			b.Description = fmt.Sprintf("Typical for hour %d:00 (CAISO Jan 2026)", hour)
			return b
		}
	}
	return defaultBaseline
}

// RollingBaseline computes mean/std of the LMP column over the trailing days
// window. Returns nil when history is unavailable or holds fewer than
// rollingMinSamples valid rows.
func (s *Store) RollingBaseline(ctx context.Context, iso string, days int) *models.RollingBaseline {
	series, err := s.history.HistoricalPrices(ctx, iso, days)
	if err != nil {
		s.logger.Warn().Err(err).Str("iso", iso).Msg("Rolling baseline computation failed")
		return nil
	}

	samples := make([]float64, 0, len(series))
	for _, row := range series {
		if !math.IsNaN(row.LMP) {
			samples = append(samples, row.LMP)
		}
	}
	if len(samples) < rollingMinSamples {
		return nil
	}

	mean, std := meanStd(samples)
	return &models.RollingBaseline{
		Mean:        round2(mean),
		Std:         round2(std),
		SampleSize:  len(samples),
		Description: fmt.Sprintf("Rolling %d-day average across trading hubs", days),
	}
}

// meanStd returns the sample mean and sample standard deviation (n-1).
func meanStd(samples []float64) (float64, float64) {
	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(samples)-1))
	return mean, std
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
