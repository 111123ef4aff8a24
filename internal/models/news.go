// Package models defines the core domain entities: news items, quotes, watch
// entries, and alerts.
package models

import (
	"time"
)

// NewsItem is a single entry from the Finnhub general-news feed. The Related
// field is a comma-joined list of raw ticker symbols and may be empty.
type NewsItem struct {
	ID       int64  `json:"id"`
	Datetime int64  `json:"datetime"` // epoch seconds
	Headline string `json:"headline"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	URL      string `json:"url"`
}

// Time returns the item timestamp as a time.Time.
func (n NewsItem) Time() time.Time {
	return time.Unix(n.Datetime, 0)
}

// Quote is a point-in-time quote from the Finnhub quote endpoint. Absent
// fields decode to zero; callers must check HasPrices/HasVolume before
// trusting the values.
type Quote struct {
	Current float64 `json:"c"`
	Open    float64 `json:"o"`
	Volume  float64 `json:"v"`
}

// HasPrices reports whether both the current and the day-open price are
// present and strictly positive.
func (q Quote) HasPrices() bool {
	return q.Current > 0 && q.Open > 0
}

// HasVolume reports whether the day volume is present and strictly positive.
func (q Quote) HasVolume() bool {
	return q.Volume > 0
}
