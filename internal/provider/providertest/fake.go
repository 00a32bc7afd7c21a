// Package providertest contains a deterministic in-memory GridProvider for
// tests.
package providertest

import (
	"context"
	"sync"
	"time"

	"github.com/gridpulse/gridpulse/models"
)

// Fake returns canned rows and records every call. Any Err field set makes the
// matching fetch fail.
type Fake struct {
	mu sync.Mutex

	FuelMixRows []models.FuelMixRow
	LoadRows    []models.LoadRow
	LMPRows     []models.LMPRow
	StatusRow   models.StatusRow

	FuelMixErr error
	LoadErr    error
	LMPErr     error
	StatusErr  error

	Calls []string
}

var _ models.GridProvider = (*Fake)(nil)

// Default builds a fake with a plausible CAISO afternoon.
func Default() *Fake {
	ts := time.Date(2026, 1, 15, 14, 35, 0, 0, time.UTC)
	reserves := "8.2%"
	statusTime := ts.Format(time.RFC3339)
	return &Fake{
		FuelMixRows: []models.FuelMixRow{{
			Timestamp: ts,
			Sources: map[string]int{
				"Solar":       11240,
				"Natural Gas": 6120,
				"Wind":        2310,
				"Batteries":   -640,
				"Nuclear":     2250,
			},
		}},
		LoadRows: []models.LoadRow{{Timestamp: ts, LoadMW: 24501}},
		LMPRows: []models.LMPRow{
			{Timestamp: ts, Location: "TH_NP15_GEN-APND", LMP: 31.419},
			{Timestamp: ts, Location: "TH_SP15_GEN-APND", LMP: 29.872},
			{Timestamp: ts, Location: "TH_ZP26_GEN-APND", LMP: 30.505},
		},
		StatusRow: models.StatusRow{Status: "Normal", Reserves: &reserves, Time: &statusTime},
	}
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	f.mu.Unlock()
}

// CallCount reports how many calls matched name (or all calls for "").
func (f *Fake) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		return len(f.Calls)
	}
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *Fake) FetchFuelMix(_ context.Context, iso string) ([]models.FuelMixRow, error) {
	f.record("fuel_mix")
	if f.FuelMixErr != nil {
		return nil, f.FuelMixErr
	}
	return f.FuelMixRows, nil
}

func (f *Fake) FetchLoad(_ context.Context, iso string) ([]models.LoadRow, error) {
	f.record("load")
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	return f.LoadRows, nil
}

func (f *Fake) FetchLMP(_ context.Context, iso string, q models.LMPQuery) ([]models.LMPRow, error) {
	if q.Start.IsZero() {
		f.record("lmp")
	} else {
		f.record("lmp_window")
	}
	if f.LMPErr != nil {
		return nil, f.LMPErr
	}
	return f.LMPRows, nil
}

func (f *Fake) FetchStatus(_ context.Context, iso string) (models.StatusRow, error) {
	f.record("status")
	if f.StatusErr != nil {
		return models.StatusRow{}, f.StatusErr
	}
	return f.StatusRow, nil
}
