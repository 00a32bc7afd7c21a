package highlights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/gridpulse/models"
)

func mix(sources map[string]int) *models.FuelMixSnapshot {
	return &models.FuelMixSnapshot{Timestamp: "2026-01-15T14:35:00Z", Sources: sources}
}

func prices(avg float64) *models.PriceSnapshot {
	return &models.PriceSnapshot{AverageLMP: avg, Unit: "$/MWh"}
}

var load = &models.LoadSnapshot{CurrentMW: 24501}

func TestZeroGenerationShortCircuits(t *testing.T) {
	tests := []struct {
		name    string
		sources map[string]int
	}{
		{name: "empty mix", sources: map[string]int{}},
		{name: "all negative", sources: map[string]int{"Batteries": -2000, "Imports": -300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(mix(tt.sources), load, prices(120))
			assert.Equal(t, []string{"Generation data unavailable"}, got,
				"zero generation yields exactly one line, no price rule")
		})
	}
}

func TestSolarDominanceAndGasReliance(t *testing.T) {
	got := Generate(mix(map[string]int{"Solar": 400, "Natural Gas": 600}), load, prices(30))

	require.Len(t, got, 2)
	assert.Equal(t, "Solar dominant at 40% of generation (400 MW)", got[0])
	assert.Equal(t, "Heavy gas reliance at 60% (600 MW)", got[1])
}

func TestMinimalSolar(t *testing.T) {
	got := Generate(mix(map[string]int{"Solar": 30, "Natural Gas": 970}), load, prices(30))

	assert.Contains(t, got, "Minimal solar generation (3%)")
}

func TestBatteryFlows(t *testing.T) {
	charging := Generate(mix(map[string]int{"Solar": 12000, "Batteries": -1500}), load, prices(20))
	assert.Contains(t, charging, "Batteries charging at -1500 MW (absorbing excess generation)")

	discharging := Generate(mix(map[string]int{"Natural Gas": 9000, "Batteries": 1800}), load, prices(45))
	assert.Contains(t, discharging, "Batteries discharging 1800 MW (supporting evening demand)")

	idle := Generate(mix(map[string]int{"Natural Gas": 5000, "Batteries": 500}), load, prices(45))
	for _, line := range idle {
		assert.NotContains(t, line, "Batteries")
	}
}

func TestWindRules(t *testing.T) {
	low := Generate(mix(map[string]int{"Natural Gas": 9800, "Wind": 200}), load, prices(40))
	assert.Contains(t, low, "Low wind generation at 2% (200 MW)")

	strong := Generate(mix(map[string]int{"Natural Gas": 7000, "Wind": 3000}), load, prices(40))
	assert.Contains(t, strong, "Strong wind at 30% of generation (3000 MW)")
}

func TestPriceRules(t *testing.T) {
	elevated := Generate(mix(map[string]int{"Natural Gas": 3000, "Nuclear": 7000}), load, prices(95.5))
	assert.Contains(t, elevated, "Elevated prices at $95.50/MWh")

	negative := Generate(mix(map[string]int{"Solar": 2000, "Nuclear": 8000}), load, prices(-4.25))
	assert.Contains(t, negative, "Negative prices at $-4.25/MWh (oversupply)")
}

func TestQuietGridFallback(t *testing.T) {
	// Every rule stays quiet: shares inside all bands, price unremarkable.
	got := Generate(mix(map[string]int{
		"Solar":       2000, // 20%
		"Wind":        1000, // 10%
		"Natural Gas": 3000, // 30%
		"Nuclear":     4000, // 40%
	}), load, prices(35))

	assert.Equal(t, []string{"Grid operating within normal parameters"}, got)
}

func TestDeterministic(t *testing.T) {
	sources := map[string]int{"Solar": 5000, "Wind": 300, "Natural Gas": 6000, "Batteries": 1200}
	first := Generate(mix(sources), load, prices(88))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Generate(mix(sources), load, prices(88)))
	}
}
