package models

import (
	"errors"
	"time"
)

// WatchEntry is a ticker under observation. The open price is captured once at
// insertion and is never refreshed; percent moves are always measured against
// it.
type WatchEntry struct {
	Symbol    string    `json:"symbol"`
	OpenPrice float64   `json:"open_price"`
	Headline  string    `json:"headline"`
	FirstSeen time.Time `json:"first_seen"`
}

// Validate checks watch entry field constraints.
func (e *WatchEntry) Validate() error {
	if e.Symbol == "" {
		return errors.New("symbol must not be empty")
	}
	if len(e.Symbol) > 5 {
		return errors.New("symbol must be at most 5 characters")
	}
	for _, c := range e.Symbol {
		if c < 'A' || c > 'Z' {
			return errors.New("symbol must be uppercase alphabetic")
		}
	}
	if e.OpenPrice <= 0 {
		return errors.New("open price must be positive")
	}
	if e.FirstSeen.IsZero() {
		return errors.New("first seen timestamp must be set")
	}
	return nil
}

// Tier is the severity class of a price-move signal.
type Tier int

const (
	// TierPump needs both a large percent move and heavy volume.
	TierPump Tier = iota + 1
	// TierLong needs only a moderate percent move.
	TierLong
)

func (t Tier) String() string {
	switch t {
	case TierPump:
		return "pump"
	case TierLong:
		return "long"
	default:
		return "unknown"
	}
}

// Alert is a dispatched price-move signal for a previously watched symbol.
type Alert struct {
	ID           string
	Symbol       string
	Tier         Tier
	OpenPrice    float64
	CurrentPrice float64
	Percent      float64
	Volume       float64
	Exchange     string
	Headline     string
	NewsAt       time.Time
	DetectedAt   time.Time
}
