// Package tracker implements the news-driven signal pipeline: candidate
// extraction, the watch-list, per-cycle evaluation, and alert dedup.
package tracker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mkrutov/stockpulse/internal/logger"
	"github.com/mkrutov/stockpulse/internal/models"
)

const maxSymbolLen = 5

// QuoteProvider supplies live quotes and listing venues for symbols.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
	FetchExchange(ctx context.Context, symbol string) (string, error)
}

// Notifier delivers a formatted alert to the outside world.
type Notifier interface {
	SendAlert(alert models.Alert) error
}

type Config struct {
	NewsLimit       int
	StalenessWindow time.Duration
	PumpThreshold   float64
	LongThreshold   float64
	VolumeFloor     float64
	PriceCap        float64
	Exchanges       []string
	MaxWatchAge     time.Duration // 0 disables age-based expiry
}

func DefaultConfig() Config {
	return Config{
		NewsLimit:       25,
		StalenessWindow: 30 * time.Minute,
		PumpThreshold:   10.0,
		LongThreshold:   3.0,
		VolumeFloor:     1000000,
		PriceCap:        100.0,
		Exchanges:       []string{"NASDAQ", "NYSE"},
	}
}

// Summary reports the outcome of one evaluation pass.
type Summary struct {
	Alerts  []models.Alert // dispatched this cycle
	Expired []string       // removed without an alert
	Skipped int            // transient data gaps, retried next cycle
	Held    int            // no signal yet, still watched
}

// Tracker owns the watch-list and the sent set. Both are process-lifetime,
// in-memory state; a restart resets tracking. Access is strictly sequential:
// one Extract/Evaluate pass completes before the next begins.
type Tracker struct {
	quotes    QuoteProvider
	notifier  Notifier
	config    Config
	exchanges map[string]bool
	watch     map[string]*models.WatchEntry
	sent      map[string]struct{}
}

func New(quotes QuoteProvider, notifier Notifier, config Config) *Tracker {
	exchanges := make(map[string]bool, len(config.Exchanges))
	for _, ex := range config.Exchanges {
		exchanges[ex] = true
	}
	return &Tracker{
		quotes:    quotes,
		notifier:  notifier,
		config:    config,
		exchanges: exchanges,
		watch:     make(map[string]*models.WatchEntry),
		sent:      make(map[string]struct{}),
	}
}

// Extract turns raw news items into watch-list entries. Only the newest
// NewsLimit items are considered, items older than the staleness window are
// ignored entirely, and a symbol already watched or already alerted is never
// re-inserted. The open price is fixed at insertion time and the first-seen
// timestamp is the news timestamp, not the wall clock.
func (t *Tracker) Extract(ctx context.Context, items []models.NewsItem, now time.Time) []string {
	var added []string

	limit := t.config.NewsLimit
	if limit > len(items) {
		limit = len(items)
	}

	for _, item := range items[:limit] {
		if item.Related == "" {
			continue
		}
		if age := now.Sub(item.Time()); age > t.config.StalenessWindow {
			logger.Debug("Ignoring stale news item %d (age %v): %s", item.ID, age, item.Headline)
			continue
		}

		for _, token := range strings.Split(item.Related, ",") {
			symbol, ok := normalizeSymbol(token)
			if !ok {
				continue
			}
			if _, tracked := t.watch[symbol]; tracked {
				continue
			}
			if _, alerted := t.sent[symbol]; alerted {
				continue
			}

			quote, err := t.quotes.FetchQuote(ctx, symbol)
			if err != nil {
				logger.Debug("Quote lookup failed for candidate %s: %v", symbol, err)
				continue
			}
			if !quote.HasPrices() {
				continue
			}

			exchange, err := t.quotes.FetchExchange(ctx, symbol)
			if err != nil {
				logger.Debug("Exchange lookup failed for candidate %s: %v", symbol, err)
				continue
			}
			if !t.exchanges[exchange] {
				continue
			}

			t.watch[symbol] = &models.WatchEntry{
				Symbol:    symbol,
				OpenPrice: quote.Open,
				Headline:  item.Headline,
				FirstSeen: item.Time(),
			}
			added = append(added, symbol)
			logger.Info("Watching %s (open %.2f, %s): %s", symbol, quote.Open, exchange, item.Headline)
		}
	}

	return added
}

// Evaluate re-prices every watched symbol and resolves it to one of: alert,
// expire, skip, or hold. Side effects per symbol are all-or-nothing: a
// dispatched alert always marks the symbol sent and removes the entry in the
// same step. Symbols are visited in sorted order so cycles are deterministic.
func (t *Tracker) Evaluate(ctx context.Context, now time.Time) Summary {
	var summary Summary

	symbols := make([]string, 0, len(t.watch))
	for s := range t.watch {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		entry := t.watch[symbol]

		if t.config.MaxWatchAge > 0 && now.Sub(entry.FirstSeen) > t.config.MaxWatchAge {
			delete(t.watch, symbol)
			summary.Expired = append(summary.Expired, symbol)
			logger.Debug("Expired %s: watched %v without a signal", symbol, now.Sub(entry.FirstSeen))
			continue
		}

		// Venue can become unavailable after insertion; a lookup failure maps
		// to an empty venue and the same expiry.
		exchange, err := t.quotes.FetchExchange(ctx, symbol)
		if err != nil {
			logger.Debug("Exchange lookup failed for %s: %v", symbol, err)
			exchange = ""
		}
		if !t.exchanges[exchange] {
			delete(t.watch, symbol)
			summary.Expired = append(summary.Expired, symbol)
			logger.Debug("Expired %s: venue %q no longer eligible", symbol, exchange)
			continue
		}

		quote, err := t.quotes.FetchQuote(ctx, symbol)
		if err != nil {
			logger.Debug("Quote lookup failed for %s, retrying next cycle: %v", symbol, err)
			summary.Skipped++
			continue
		}
		if quote.Current <= 0 || !quote.HasVolume() {
			summary.Skipped++
			continue
		}

		if quote.Current > t.config.PriceCap {
			delete(t.watch, symbol)
			summary.Expired = append(summary.Expired, symbol)
			logger.Debug("Expired %s: price %.2f above cap %.2f", symbol, quote.Current, t.config.PriceCap)
			continue
		}

		percent := (quote.Current - entry.OpenPrice) / entry.OpenPrice * 100

		tier, ok := t.classify(percent, quote.Volume)
		if !ok {
			summary.Held++
			continue
		}

		delete(t.watch, symbol)
		if _, alerted := t.sent[symbol]; alerted {
			// Should be unreachable: extraction never re-inserts an alerted
			// symbol. Suppress the send, keep the removal.
			logger.Warn("Suppressing duplicate %s alert for %s", tier, symbol)
			continue
		}
		t.sent[symbol] = struct{}{}

		alert := models.Alert{
			Symbol:       symbol,
			Tier:         tier,
			OpenPrice:    entry.OpenPrice,
			CurrentPrice: quote.Current,
			Percent:      percent,
			Volume:       quote.Volume,
			Exchange:     exchange,
			Headline:     entry.Headline,
			NewsAt:       entry.FirstSeen,
			DetectedAt:   now,
		}

		if t.notifier != nil {
			if err := t.notifier.SendAlert(alert); err != nil {
				// The symbol stays marked sent even when delivery fails, so a
				// flaky channel cannot turn into repeated alerts.
				logger.Error("Failed to dispatch %s alert for %s: %v", tier, symbol, err)
			}
		}
		summary.Alerts = append(summary.Alerts, alert)
	}

	return summary
}

// classify maps a percent move and volume to an alert tier, highest tier
// first. Both thresholds are inclusive.
func (t *Tracker) classify(percent, volume float64) (models.Tier, bool) {
	switch {
	case percent >= t.config.PumpThreshold && volume >= t.config.VolumeFloor:
		return models.TierPump, true
	case percent >= t.config.LongThreshold:
		return models.TierLong, true
	default:
		return 0, false
	}
}

// WatchCount returns the number of symbols currently under observation.
func (t *Tracker) WatchCount() int {
	return len(t.watch)
}

// AlertedCount returns the number of symbols that have alerted this process
// lifetime.
func (t *Tracker) AlertedCount() int {
	return len(t.sent)
}

// normalizeSymbol trims and uppercases a raw related-symbols token. Tokens
// that are empty, longer than five characters, or not purely alphabetic are
// rejected; that filters out non-equity instruments and garbled entries.
func normalizeSymbol(token string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(token))
	if len(symbol) == 0 || len(symbol) > maxSymbolLen {
		return "", false
	}
	for _, c := range symbol {
		if c < 'A' || c > 'Z' {
			return "", false
		}
	}
	return symbol, true
}
