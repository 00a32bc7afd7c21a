package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpulse/gridpulse/models"
)

// stubQuerier returns canned records and captures the last query.
type stubQuerier struct {
	records []map[string]any
	err     error

	datasetID string
	start     string
	end       string
	limit     int
	calls     int
}

func (s *stubQuerier) QueryDataset(_ context.Context, datasetID, start, end string, limit int) ([]map[string]any, error) {
	s.calls++
	s.datasetID = datasetID
	s.start = start
	s.end = end
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestQueryResolvesDatasetID(t *testing.T) {
	tests := []struct {
		iso     string
		dataset string
		wantID  string
	}{
		{iso: "CAISO", dataset: "lmp", wantID: "caiso_lmp_real_time_15_min"},
		{iso: "caiso", dataset: "fuel_mix", wantID: "caiso_fuel_mix"},
		{iso: "ercot", dataset: "load", wantID: "ercot_load"},
		{iso: "PJM", dataset: "lmp", wantID: "pjm_lmp_real_time_5_min"},
	}

	for _, tt := range tests {
		t.Run(tt.iso+"/"+tt.dataset, func(t *testing.T) {
			q := &stubQuerier{records: []map[string]any{{"lmp": 31.4}}}
			svc := NewService(q)

			res, err := svc.Query(context.Background(), tt.iso, tt.dataset, "", "", 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.DatasetID)
			assert.Equal(t, tt.wantID, q.datasetID)
			assert.Len(t, res.Records, 1)
		})
	}
}

func TestQueryUnsupportedISO(t *testing.T) {
	q := &stubQuerier{}
	svc := NewService(q)

	_, err := svc.Query(context.Background(), "BONNEVILLE", "lmp", "", "", 0)
	var unsupported *models.UnsupportedISOError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, err.Error(), "ERCOT", "error enumerates the hosted set")
	assert.Equal(t, 0, q.calls, "no fetch before validation")
}

func TestQueryUnknownDataset(t *testing.T) {
	q := &stubQuerier{}
	svc := NewService(q)

	_, err := svc.Query(context.Background(), "CAISO", "weather", "", "", 0)
	var unknown *UnknownDatasetError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), `unknown dataset "weather" for CAISO`)
	assert.Contains(t, err.Error(), "fuel_mix")
	assert.Equal(t, 0, q.calls)
}

func TestQueryLimitBounds(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero falls back to default", limit: 0, want: 100},
		{name: "negative falls back to default", limit: -5, want: 100},
		{name: "in range passes through", limit: 250, want: 250},
		{name: "oversized clamps to cap", limit: 5000, want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubQuerier{}
			svc := NewService(q)

			_, err := svc.Query(context.Background(), "CAISO", "lmp", "", "", tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.limit)
		})
	}
}

func TestQueryPassesWindowThrough(t *testing.T) {
	q := &stubQuerier{}
	svc := NewService(q)

	res, err := svc.Query(context.Background(), "NYISO", "load", "2026-01-08", "2026-01-15", 10)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-08", q.start)
	assert.Equal(t, "2026-01-15", q.end)
	assert.NotNil(t, res.Records, "empty result is a list, never nil")
	assert.Empty(t, res.Records)
}

func TestQueryUpstreamFailure(t *testing.T) {
	q := &stubQuerier{err: errors.New("quota exceeded")}
	svc := NewService(q)

	_, err := svc.Query(context.Background(), "CAISO", "lmp", "", "", 0)
	var provider *models.ProviderError
	require.ErrorAs(t, err, &provider)
	assert.Equal(t, "history", provider.Kind)
}

func TestSupportedISOsSorted(t *testing.T) {
	got := SupportedISOs()
	assert.Equal(t, []string{"CAISO", "ERCOT", "ISONE", "MISO", "NYISO", "PJM", "SPP"}, got)
}
