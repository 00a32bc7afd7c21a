package models

import (
	"time"
)

// FuelMixSnapshot is the latest generation breakdown by source.
// MW values may be negative (batteries charging, net imports).
type FuelMixSnapshot struct {
	Timestamp string         `json:"timestamp"`
	Sources   map[string]int `json:"sources"` // source name -> MW
}

// LoadSnapshot is the latest system demand.
type LoadSnapshot struct {
	Timestamp string `json:"timestamp"`
	CurrentMW int    `json:"current_mw"`
}

// PriceSnapshot holds the latest LMP per trading hub plus the unweighted average.
type PriceSnapshot struct {
	Timestamp  string             `json:"timestamp"`
	AverageLMP float64            `json:"average_lmp"`
	ByHub      map[string]float64 `json:"by_hub"`
	Unit       string             `json:"unit"`
}

// StatusSnapshot is the grid operating status. Status is "unavailable" when
// the upstream endpoint fails; this snapshot never carries an error.
type StatusSnapshot struct {
	Status   string  `json:"status"`
	Reserves *string `json:"reserves"`
	Time     *string `json:"time"`
}

// HistoricalPrice is one row of an LMP series over a day window.
type HistoricalPrice struct {
	Timestamp time.Time `json:"timestamp"`
	Hub       string    `json:"hub"`
	LMP       float64   `json:"lmp"`
}

// HourlyBaseline holds typical price stats for one hour of day.
type HourlyBaseline struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Description string  `json:"description"`
}

// RollingBaseline holds stats computed live from a trailing price series.
type RollingBaseline struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	SampleSize  int     `json:"sample_size"`
	Description string  `json:"description"`
}

// Severity classifies how anomalous a price is, from |sigma|.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityExtreme  Severity = "extreme"
)

// PriceBaselines groups the baselines an analysis was scored against.
// Rolling7d is advisory context only and may be nil.
type PriceBaselines struct {
	HourOfDay HourlyBaseline   `json:"hour_of_day"`
	Rolling7d *RollingBaseline `json:"rolling_7d,omitempty"`
}

// AnomalyResult is the calibrated verdict for a single price observation.
type AnomalyResult struct {
	CurrentPrice float64        `json:"current_price"`
	Unit         string         `json:"unit"`
	Sigma        float64        `json:"sigma"`
	Percentile   int            `json:"percentile"`
	Severity     Severity       `json:"severity"`
	IsUnusual    bool           `json:"is_unusual"`
	Verdict      string         `json:"verdict"`
	Baselines    PriceBaselines `json:"baselines"`
}

// WeatherLocation is current conditions at one load center.
type WeatherLocation struct {
	Location     string  `json:"location"`
	TemperatureF float64 `json:"temperature_f"`
	WindSpeedMPH float64 `json:"wind_speed_mph"`
	HumidityPct  float64 `json:"humidity_pct"`
}

// WeatherSnapshot averages current conditions across an ISO's load centers.
type WeatherSnapshot struct {
	ISO             string            `json:"iso"`
	AvgTemperatureF *float64          `json:"average_temperature_f"`
	AvgWindSpeedMPH *float64          `json:"average_wind_speed_mph"`
	Locations       []WeatherLocation `json:"locations"`
}

// ContributingFactor is one driver named by the LLM explanation.
type ContributingFactor struct {
	Factor string `json:"factor"`
	Impact string `json:"impact"` // high|medium|low|mitigating
	Detail string `json:"detail"`
}

// GridExplanation is the parsed LLM synthesis of current conditions.
type GridExplanation struct {
	Explanation         string               `json:"explanation"`
	ContributingFactors []ContributingFactor `json:"contributing_factors"`
}
