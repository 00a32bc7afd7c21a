// Package history queries the hosted dataset API for past grid data. Unlike
// the live snapshot path, which scrapes a single ISO in real time, the hosted
// datasets cover every major US ISO with filtering and row limits.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gridpulse/gridpulse/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Hosted dataset IDs keyed by ISO and friendly dataset name.
var datasetMap = map[string]map[string]string{
	"CAISO": {"lmp": "caiso_lmp_real_time_15_min", "load": "caiso_load", "fuel_mix": "caiso_fuel_mix"},
	"ERCOT": {"lmp": "ercot_spp_real_time_15_min", "load": "ercot_load", "fuel_mix": "ercot_fuel_mix"},
	"PJM":   {"lmp": "pjm_lmp_real_time_5_min", "load": "pjm_load", "fuel_mix": "pjm_fuel_mix"},
	"MISO":  {"lmp": "miso_lmp_real_time_5_min", "load": "miso_load", "fuel_mix": "miso_fuel_mix"},
	"NYISO": {"lmp": "nyiso_lmp_real_time_5_min", "load": "nyiso_load", "fuel_mix": "nyiso_fuel_mix"},
	"ISONE": {"lmp": "isone_lmp_real_time_5_min", "load": "isone_load", "fuel_mix": "isone_fuel_mix"},
	"SPP":   {"lmp": "spp_lmp_real_time_5_min", "load": "spp_load", "fuel_mix": "spp_fuel_mix"},
}

// DatasetQuerier fetches raw rows for one hosted dataset. Rows keep their
// upstream column names; callers treat them as opaque records.
type DatasetQuerier interface {
	QueryDataset(ctx context.Context, datasetID, start, end string, limit int) ([]map[string]any, error)
}

// UnknownDatasetError is returned before any fetch when the dataset name has
// no hosted ID for the requested ISO.
type UnknownDatasetError struct {
	Dataset   string
	ISO       string
	Available []string
}

func (e *UnknownDatasetError) Error() string {
	available := append([]string(nil), e.Available...)
	sort.Strings(available)
	return fmt.Sprintf("unknown dataset %q for %s. Available: %s", e.Dataset, e.ISO, strings.Join(available, ", "))
}

// Result is one resolved historical query.
type Result struct {
	ISO       string
	Dataset   string
	DatasetID string
	Records   []map[string]any
}

// Service resolves friendly dataset names to hosted IDs and runs queries.
type Service struct {
	querier DatasetQuerier
	logger  zerolog.Logger
}

func NewService(q DatasetQuerier) *Service {
	return &Service{
		querier: q,
		logger:  log.With().Str("component", "history").Logger(),
	}
}

// SupportedISOs lists every ISO with hosted datasets, sorted.
func SupportedISOs() []string {
	out := make([]string, 0, len(datasetMap))
	for iso := range datasetMap {
		out = append(out, iso)
	}
	sort.Strings(out)
	return out
}

// Query fetches up to limit rows of the named dataset over [start, end].
// Start and end are passed through as-is (YYYY-MM-DD); empty means unbounded.
// A non-positive limit falls back to the default and oversized limits clamp.
func (s *Service) Query(ctx context.Context, iso, dataset, start, end string, limit int) (*Result, error) {
	iso = strings.ToUpper(iso)
	datasets, ok := datasetMap[iso]
	if !ok {
		return nil, &models.UnsupportedISOError{ISO: iso, Supported: SupportedISOs()}
	}
	id, ok := datasets[dataset]
	if !ok {
		available := make([]string, 0, len(datasets))
		for name := range datasets {
			available = append(available, name)
		}
		return nil, &UnknownDatasetError{Dataset: dataset, ISO: iso, Available: available}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	s.logger.Info().
		Str("dataset", id).
		Int("limit", limit).
		Str("start", start).
		Str("end", end).
		Msg("Querying hosted dataset")

	records, err := s.querier.QueryDataset(ctx, id, start, end, limit)
	if err != nil {
		return nil, &models.ProviderError{Kind: "history", Err: err}
	}
	if records == nil {
		// Serializes as an empty list, not null.
		records = []map[string]any{}
	}

	return &Result{ISO: iso, Dataset: dataset, DatasetID: id, Records: records}, nil
}
