package griddata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/gridpulse/internal/cache"
	"github.com/gridpulse/gridpulse/internal/provider/providertest"
	"github.com/gridpulse/gridpulse/models"
)

func newService(fake *providertest.Fake) *Service {
	return NewService(cache.New(), fake, nil)
}

func TestValidateISO(t *testing.T) {
	tests := []struct {
		name    string
		iso     string
		want    string
		wantErr bool
	}{
		{name: "exact", iso: "CAISO", want: "CAISO"},
		{name: "lowercase normalized", iso: "caiso", want: "CAISO"},
		{name: "unsupported", iso: "XX", wantErr: true},
		{name: "empty", iso: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateISO(tt.iso)
			if tt.wantErr {
				var unsupported *models.UnsupportedISOError
				require.ErrorAs(t, err, &unsupported)
				assert.Contains(t, err.Error(), "CAISO", "error enumerates supported ISOs")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnsupportedISOSkipsProvider(t *testing.T) {
	fake := providertest.Default()
	svc := newService(fake)

	_, err := svc.FuelMix(context.Background(), "XX")
	var unsupported *models.UnsupportedISOError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 0, fake.CallCount(""), "no provider call before validation")
}

func TestFuelMixNormalization(t *testing.T) {
	fake := providertest.Default()
	svc := newService(fake)

	snap, err := svc.FuelMix(context.Background(), "caiso")
	require.NoError(t, err)
	assert.Equal(t, 11240, snap.Sources["Solar"])
	assert.Equal(t, -640, snap.Sources["Batteries"])
	assert.NotEmpty(t, snap.Timestamp)
}

func TestFuelMixCachedOnSecondCall(t *testing.T) {
	fake := providertest.Default()
	svc := newService(fake)

	first, err := svc.FuelMix(context.Background(), "CAISO")
	require.NoError(t, err)
	second, err := svc.FuelMix(context.Background(), "CAISO")
	require.NoError(t, err)

	assert.Same(t, first, second, "cache hit returns the snapshot unchanged")
	assert.Equal(t, 1, fake.CallCount("fuel_mix"))
}

func TestFuelMixEmptyResult(t *testing.T) {
	fake := providertest.Default()
	fake.FuelMixRows = nil
	svc := newService(fake)

	_, err := svc.FuelMix(context.Background(), "CAISO")
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestFuelMixProviderFailure(t *testing.T) {
	fake := providertest.Default()
	fake.FuelMixErr = errors.New("connection reset")
	svc := newService(fake)

	_, err := svc.FuelMix(context.Background(), "CAISO")
	var provider *models.ProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, "fuel_mix", provider.Kind)
}

func TestPricesRoundingAndAverage(t *testing.T) {
	fake := providertest.Default()
	svc := newService(fake)

	snap, err := svc.Prices(context.Background(), "CAISO")
	require.NoError(t, err)

	assert.Equal(t, 31.42, snap.ByHub["TH_NP15_GEN-APND"])
	assert.Equal(t, 29.87, snap.ByHub["TH_SP15_GEN-APND"])
	assert.Equal(t, 30.51, snap.ByHub["TH_ZP26_GEN-APND"])
	// Unweighted mean of the rounded hub values.
	assert.InDelta(t, 30.6, snap.AverageLMP, 0.001)
	assert.Equal(t, "$/MWh", snap.Unit)
}

func TestPricesEmptyResult(t *testing.T) {
	fake := providertest.Default()
	fake.LMPRows = nil
	svc := newService(fake)

	_, err := svc.Prices(context.Background(), "CAISO")
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestStatusDegradesOnFailure(t *testing.T) {
	fake := providertest.Default()
	fake.StatusErr = errors.New("scrape blocked")
	svc := newService(fake)

	snap, err := svc.Status(context.Background(), "CAISO")
	require.NoError(t, err, "status fetch never propagates provider failure")
	assert.Equal(t, "unavailable", snap.Status)
	assert.Nil(t, snap.Reserves)
	assert.Nil(t, snap.Time)
}

func TestStatusHappyPath(t *testing.T) {
	fake := providertest.Default()
	svc := newService(fake)

	snap, err := svc.Status(context.Background(), "CAISO")
	require.NoError(t, err)
	assert.Equal(t, "Normal", snap.Status)
	require.NotNil(t, snap.Reserves)
	assert.Equal(t, "8.2%", *snap.Reserves)
}

func TestHistoricalPricesFailureIsSoft(t *testing.T) {
	fake := providertest.Default()
	fake.LMPErr = errors.New("window too large")
	svc := newService(fake)

	series, err := svc.HistoricalPrices(context.Background(), "CAISO", 7)
	assert.NoError(t, err)
	assert.Nil(t, series)
}

func TestHistoricalPricesCached(t *testing.T) {
	fake := providertest.Default()
	svc := newService(fake)

	first, err := svc.HistoricalPrices(context.Background(), "CAISO", 7)
	require.NoError(t, err)
	require.Len(t, first, 3)

	_, err = svc.HistoricalPrices(context.Background(), "CAISO", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.CallCount("lmp_window"))

	// A different window is a different cache key.
	_, err = svc.HistoricalPrices(context.Background(), "CAISO", 30)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.CallCount("lmp_window"))
}

func TestSnapshotFanOut(t *testing.T) {
	fake := providertest.Default()
	svc := newService(fake)

	snap, err := svc.Snapshot(context.Background(), "CAISO")
	require.NoError(t, err)
	assert.NotNil(t, snap.FuelMix)
	assert.NotNil(t, snap.Load)
	assert.NotNil(t, snap.Prices)
	assert.NotNil(t, snap.Status)
}

func TestSnapshotPropagatesRequiredFailures(t *testing.T) {
	fake := providertest.Default()
	fake.LoadErr = errors.New("timeout")
	svc := newService(fake)

	_, err := svc.Snapshot(context.Background(), "CAISO")
	var provider *models.ProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, "load", provider.Kind)
}

func TestSnapshotToleratesStatusFailure(t *testing.T) {
	fake := providertest.Default()
	fake.StatusErr = errors.New("scrape blocked")
	svc := newService(fake)

	snap, err := svc.Snapshot(context.Background(), "CAISO")
	require.NoError(t, err)
	assert.Equal(t, "unavailable", snap.Status.Status)
}
