package baselines

import (
	"context"
	"fmt"
	"math"

	"github.com/gridpulse/gridpulse/models"
)

// AnalyzePrice scores currentPrice against the hourly baseline for the current
// local hour. The rolling 7-day baseline is attached as advisory context when
// available but never affects the score.
func (s *Store) AnalyzePrice(ctx context.Context, iso string, currentPrice float64) *models.AnomalyResult {
	hour := s.now().In(s.loc).Hour()

	hourly := s.HourlyBaseline(iso, hour)
	rolling := s.RollingBaseline(ctx, iso, 7)

	sigma := 0.0
	if hourly.Std != 0 {
		sigma = round1((currentPrice - hourly.Mean) / hourly.Std)
	}

	severity, isUnusual := classify(sigma)

	return &models.AnomalyResult{
		CurrentPrice: currentPrice,
		Unit:         "$/MWh",
		Sigma:        sigma,
		Percentile:   sigmaToPercentile(sigma),
		Severity:     severity,
		IsUnusual:    isUnusual,
		Verdict:      verdict(currentPrice, sigma, hour, hourly),
		Baselines: models.PriceBaselines{
			HourOfDay: hourly,
			Rolling7d: rolling,
		},
	}
}

// classify maps |sigma| onto the severity bands. Boundaries land in the higher
// band: 1.0 is mild, 2.0 moderate, 3.0 extreme.
func classify(sigma float64) (models.Severity, bool) {
	abs := math.Abs(sigma)
	switch {
	case abs < 1.0:
		return models.SeverityNormal, false
	case abs < 2.0:
		return models.SeverityMild, false
	case abs < 3.0:
		return models.SeverityModerate, true
	default:
		return models.SeverityExtreme, true
	}
}

func verdict(price, sigma float64, hour int, hourly models.HourlyBaseline) string {
	direction := "below"
	if sigma > 0 {
		direction = "above"
	}
	abs := math.Abs(sigma)

	_, isUnusual := classify(sigma)
	if !isUnusual {
		return fmt.Sprintf(
			"Price of $%.2f/MWh is within normal range — %.1fσ %s typical for this hour (%.0f ± %.0f).",
			price, abs, direction, hourly.Mean, hourly.Std,
		)
	}
	return fmt.Sprintf(
		"Price of $%.2f/MWh is elevated at %.1fσ %s typical for hour %d:00 (baseline: $%.0f/MWh). "+
			"Likely driven by specific grid conditions.",
		price, abs, direction, hour, hourly.Mean,
	)
}

// sigmaToPercentile approximates the percentile of a z-score under a standard
// normal distribution.
func sigmaToPercentile(sigma float64) int {
	return int(math.Round(50 * (1 + math.Erf(sigma/math.Sqrt2))))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
