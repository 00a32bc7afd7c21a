// Package highlights derives rule-based observations from live snapshots.
// Pure and deterministic: same snapshots in, same lines out.
package highlights

import (
	"fmt"

	"github.com/gridpulse/gridpulse/models"
)

// Thresholds, in rule precedence order. All advisory and non-exclusive.
const (
	solarDominantPct   = 30.0
	solarMinimalPct    = 5.0
	batteryChargeMW    = -1000
	batteryDischargeMW = 1000
	windLowPct         = 5.0
	windStrongPct      = 20.0
	gasHeavyPct        = 40.0
	priceElevated      = 80.0
)

// Generate evaluates the highlight rules over the three live snapshots.
// Total generation counts only strictly positive sources; negative flows
// (battery charging) are checked on their own.
func Generate(fuelMix *models.FuelMixSnapshot, load *models.LoadSnapshot, prices *models.PriceSnapshot) []string {
	var out []string

	sources := map[string]int{}
	if fuelMix != nil {
		sources = fuelMix.Sources
	}

	totalGen := 0
	for _, mw := range sources {
		if mw > 0 {
			totalGen += mw
		}
	}

	if totalGen == 0 {
		return []string{"Generation data unavailable"}
	}

	pct := func(mw int) float64 {
		return float64(mw) / float64(totalGen) * 100
	}

	if solar := sources["Solar"]; solar > 0 {
		solarPct := pct(solar)
		if solarPct > solarDominantPct {
			out = append(out, fmt.Sprintf("Solar dominant at %.0f%% of generation (%d MW)", solarPct, solar))
		} else if solarPct < solarMinimalPct {
			out = append(out, fmt.Sprintf("Minimal solar generation (%.0f%%)", solarPct))
		}
	}

	if batteries := sources["Batteries"]; batteries < batteryChargeMW {
		out = append(out, fmt.Sprintf("Batteries charging at %d MW (absorbing excess generation)", batteries))
	} else if batteries > batteryDischargeMW {
		out = append(out, fmt.Sprintf("Batteries discharging %d MW (supporting evening demand)", batteries))
	}

	if wind := sources["Wind"]; wind > 0 {
		windPct := pct(wind)
		if windPct < windLowPct {
			out = append(out, fmt.Sprintf("Low wind generation at %.0f%% (%d MW)", windPct, wind))
		} else if windPct > windStrongPct {
			out = append(out, fmt.Sprintf("Strong wind at %.0f%% of generation (%d MW)", windPct, wind))
		}
	}

	if gas := sources["Natural Gas"]; gas > 0 {
		if gasPct := pct(gas); gasPct > gasHeavyPct {
			out = append(out, fmt.Sprintf("Heavy gas reliance at %.0f%% (%d MW)", gasPct, gas))
		}
	}

	avgPrice := 0.0
	if prices != nil {
		avgPrice = prices.AverageLMP
	}
	if avgPrice > priceElevated {
		out = append(out, fmt.Sprintf("Elevated prices at $%.2f/MWh", avgPrice))
	} else if avgPrice < 0 {
		out = append(out, fmt.Sprintf("Negative prices at $%.2f/MWh (oversupply)", avgPrice))
	}

	if len(out) == 0 {
		out = append(out, "Grid operating within normal parameters")
	}
	return out
}
