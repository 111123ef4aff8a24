package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(srv.URL, "test_key", 5*time.Second, ClientConfig{
		MaxRetries:     2,
		RetryDelayBase: time.Millisecond,
	})
	return c, srv
}

func TestFetchNews(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news" {
			t.Errorf("path = %s, want /news", r.URL.Path)
		}
		if r.URL.Query().Get("category") != "general" {
			t.Errorf("category = %s", r.URL.Query().Get("category"))
		}
		if r.URL.Query().Get("token") != "test_key" {
			t.Errorf("token = %s", r.URL.Query().Get("token"))
		}
		w.Write([]byte(`[
			{"id": 1, "datetime": 1700000000, "headline": "ABCD wins contract", "related": "ABCD,WXYZ"},
			{"id": 2, "datetime": 1700000100, "headline": "market wrap", "related": ""}
		]`))
	}))
	defer srv.Close()

	items, err := c.FetchNews(context.Background())
	if err != nil {
		t.Fatalf("FetchNews: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Headline != "ABCD wins contract" {
		t.Errorf("headline = %q", items[0].Headline)
	}
	if items[0].Related != "ABCD,WXYZ" {
		t.Errorf("related = %q", items[0].Related)
	}
	if items[0].Datetime != 1700000000 {
		t.Errorf("datetime = %d", items[0].Datetime)
	}
}

func TestFetchQuote(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %s, want /quote", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "ABCD" {
			t.Errorf("symbol = %s", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{"c": 2.25, "o": 2.00, "v": 1200000, "h": 2.30, "l": 1.95}`))
	}))
	defer srv.Close()

	quote, err := c.FetchQuote(context.Background(), "ABCD")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if quote.Current != 2.25 || quote.Open != 2.00 || quote.Volume != 1200000 {
		t.Errorf("quote = %+v", quote)
	}
}

func TestFetchQuote_MissingFields(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c": 2.25}`))
	}))
	defer srv.Close()

	quote, err := c.FetchQuote(context.Background(), "QQQ")
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if quote.HasPrices() {
		t.Error("expected prices incomplete without open")
	}
	if quote.HasVolume() {
		t.Error("expected volume absent")
	}
}

func TestFetchExchange(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/profile2" {
			t.Errorf("path = %s, want /stock/profile2", r.URL.Path)
		}
		w.Write([]byte(`{"exchange": "NASDAQ", "name": "ABCD Inc", "country": "US"}`))
	}))
	defer srv.Close()

	exchange, err := c.FetchExchange(context.Background(), "ABCD")
	if err != nil {
		t.Fatalf("FetchExchange: %v", err)
	}
	if exchange != "NASDAQ" {
		t.Errorf("exchange = %q, want NASDAQ", exchange)
	}
}

func TestFetchExchange_UnknownSymbol(t *testing.T) {
	// Finnhub returns an empty object for unknown symbols.
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	exchange, err := c.FetchExchange(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("FetchExchange: %v", err)
	}
	if exchange != "" {
		t.Errorf("exchange = %q, want empty", exchange)
	}
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var calls int
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"c": 2.25, "o": 2.00}`))
	}))
	defer srv.Close()

	quote, err := c.FetchQuote(context.Background(), "ABCD")
	if err != nil {
		t.Fatalf("FetchQuote after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !quote.HasPrices() {
		t.Errorf("quote = %+v", quote)
	}
}

func TestDoRequest_ClientErrorDoesNotRetry(t *testing.T) {
	var calls int
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := c.FetchQuote(context.Background(), "ABCD"); err == nil {
		t.Error("expected error for 401 response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on client errors)", calls)
	}
}
