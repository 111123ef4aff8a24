package models

import (
	"testing"
	"time"
)

func TestWatchEntryValidate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		entry   WatchEntry
		wantErr bool
	}{
		{
			name: "valid entry",
			entry: WatchEntry{
				Symbol:    "ABCD",
				OpenPrice: 2.00,
				Headline:  "ABCD announces merger",
				FirstSeen: now,
			},
			wantErr: false,
		},
		{
			name: "empty symbol",
			entry: WatchEntry{
				OpenPrice: 2.00,
				FirstSeen: now,
			},
			wantErr: true,
		},
		{
			name: "symbol too long",
			entry: WatchEntry{
				Symbol:    "ZZZZZZ",
				OpenPrice: 2.00,
				FirstSeen: now,
			},
			wantErr: true,
		},
		{
			name: "lowercase symbol",
			entry: WatchEntry{
				Symbol:    "abcd",
				OpenPrice: 2.00,
				FirstSeen: now,
			},
			wantErr: true,
		},
		{
			name: "non-alphabetic symbol",
			entry: WatchEntry{
				Symbol:    "AB12",
				OpenPrice: 2.00,
				FirstSeen: now,
			},
			wantErr: true,
		},
		{
			name: "zero open price",
			entry: WatchEntry{
				Symbol:    "ABCD",
				OpenPrice: 0,
				FirstSeen: now,
			},
			wantErr: true,
		},
		{
			name: "missing first seen",
			entry: WatchEntry{
				Symbol:    "ABCD",
				OpenPrice: 2.00,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("WatchEntry.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuotePresence(t *testing.T) {
	q := Quote{Current: 2.25, Open: 2.00, Volume: 1200000}
	if !q.HasPrices() {
		t.Error("expected prices present")
	}
	if !q.HasVolume() {
		t.Error("expected volume present")
	}

	// Missing fields decode to zero.
	partial := Quote{Current: 2.25}
	if partial.HasPrices() {
		t.Error("expected prices absent without open")
	}
	if partial.HasVolume() {
		t.Error("expected volume absent")
	}
}

func TestNewsItemTime(t *testing.T) {
	item := NewsItem{Datetime: 1700000000}
	if got := item.Time().Unix(); got != 1700000000 {
		t.Errorf("Time().Unix() = %d, want 1700000000", got)
	}
}

func TestTierString(t *testing.T) {
	if TierPump.String() != "pump" {
		t.Errorf("TierPump = %q", TierPump.String())
	}
	if TierLong.String() != "long" {
		t.Errorf("TierLong = %q", TierLong.String())
	}
	if Tier(0).String() != "unknown" {
		t.Errorf("Tier(0) = %q", Tier(0).String())
	}
}
