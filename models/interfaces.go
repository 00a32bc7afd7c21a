package models

import (
	"context"
	"time"
)

// FuelMixRow is one raw fuel-mix row from the provider.
type FuelMixRow struct {
	Timestamp time.Time
	Sources   map[string]int
}

// LoadRow is one raw load row from the provider.
type LoadRow struct {
	Timestamp time.Time
	LoadMW    int
}

// LMPRow is one raw price row from the provider.
type LMPRow struct {
	Timestamp time.Time
	Location  string
	LMP       float64
}

// StatusRow is the raw grid status from the provider.
type StatusRow struct {
	Status   string
	Reserves *string
	Time     *string
}

// LMPQuery selects which LMP rows to fetch. A zero Start/End means "latest".
type LMPQuery struct {
	Market    string
	Locations []string
	Start     time.Time
	End       time.Time
}

// GridProvider is the upstream grid-data source. Implementations may scrape
// public ISO sites or call a hosted API; callers only see typed rows.
type GridProvider interface {
	FetchFuelMix(ctx context.Context, iso string) ([]FuelMixRow, error)
	FetchLoad(ctx context.Context, iso string) ([]LoadRow, error)
	FetchLMP(ctx context.Context, iso string, q LMPQuery) ([]LMPRow, error)
	FetchStatus(ctx context.Context, iso string) (StatusRow, error)
}

// ChatMessage is one turn of a completion conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionClient produces text from prepared messages. Fallible, no retry.
type CompletionClient interface {
	Complete(ctx context.Context, messages []ChatMessage, maxTokens int) (string, error)
}
