package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoData means the upstream returned an empty result for a required kind.
var ErrNoData = errors.New("no data returned")

// UnsupportedISOError is returned before any fetch when the ISO identifier is
// not in the supported set.
type UnsupportedISOError struct {
	ISO       string
	Supported []string
}

func (e *UnsupportedISOError) Error() string {
	supported := append([]string(nil), e.Supported...)
	sort.Strings(supported)
	return fmt.Sprintf("unsupported ISO: %s. Supported: %s", e.ISO, strings.Join(supported, ", "))
}

// ProviderError wraps a failed upstream call with the data kind it served.
type ProviderError struct {
	Kind string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s fetch failed: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
