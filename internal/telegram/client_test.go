package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/mkrutov/stockpulse/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Price: $100.50", "Price: $100\\.50"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatAlert(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	c := &Client{location: loc}

	// 2023-11-14 17:13:20 EST
	newsAt := time.Unix(1700000000, 0)
	alert := models.Alert{
		Symbol:       "ABCD",
		Tier:         models.TierPump,
		OpenPrice:    2.00,
		CurrentPrice: 2.25,
		Percent:      12.5,
		Volume:       1200000,
		Exchange:     "NASDAQ",
		Headline:     "ABCD wins contract",
		NewsAt:       newsAt,
	}

	msg := c.formatAlert(alert)

	for _, want := range []string{
		"$ABCD",
		"PUMP",
		"$2\\.00 → $2\\.25",
		"\\+12\\.5%",
		"1\\.20M",
		"NASDAQ",
		"ABCD wins contract",
		"05:13 PM EST",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("formatAlert missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatAlert_LongTier(t *testing.T) {
	c := &Client{location: time.UTC}
	alert := models.Alert{
		Symbol:       "WXYZ",
		Tier:         models.TierLong,
		OpenPrice:    8.00,
		CurrentPrice: 8.30,
		Percent:      3.75,
		Volume:       250000,
		Exchange:     "NYSE",
		Headline:     "WXYZ raises guidance",
		NewsAt:       time.Unix(1700000000, 0),
	}

	msg := c.formatAlert(alert)
	if !strings.Contains(msg, "LONG SIGNAL") {
		t.Errorf("expected long-tier label in:\n%s", msg)
	}
	if strings.Contains(msg, "PUMP") {
		t.Errorf("long alert must not carry the pump label:\n%s", msg)
	}
	if !strings.Contains(msg, "0\\.25M") {
		t.Errorf("expected volume in millions in:\n%s", msg)
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// NewClient with non-numeric chatID should return an error
	// Note: This test exercises the chat ID parsing error path
	// The bot token validation happens first (network call), so we use a clearly
	// invalid format to test the error handling flow
	_, err := NewClient("", "not-a-number", time.UTC, 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}
