// Package finnhub provides a client for the Finnhub stock API.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mkrutov/stockpulse/internal/models"
)

// Client provides access to the Finnhub API.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	config     ClientConfig
}

// ClientConfig tunes request retry and connection pooling behavior.
type ClientConfig struct {
	MaxRetries          int
	RetryDelayBase      time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// profileResponse is the subset of the stock/profile2 payload the tracker
// needs.
type profileResponse struct {
	Exchange string `json:"exchange"`
}

// NewClient creates a new Finnhub client.
func NewClient(apiURL, apiKey string, timeout time.Duration, config ClientConfig) *Client {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelayBase <= 0 {
		config.RetryDelayBase = time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
	}

	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		config: config,
	}
}

// FetchNews retrieves the recent general-news feed, most-recent-first.
func (c *Client) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	u, err := c.buildURL("/news", url.Values{"category": {"general"}})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	var items []models.NewsItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode news: %w", err)
	}
	return items, nil
}

// FetchQuote retrieves the current quote for a symbol. Fields absent from the
// provider response decode to zero; callers distinguish present-and-positive
// via the Quote accessors.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	u, err := c.buildURL("/quote", url.Values{"symbol": {symbol}})
	if err != nil {
		return models.Quote{}, err
	}

	resp, err := c.doRequest(ctx, u)
	if err != nil {
		return models.Quote{}, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	var quote models.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return models.Quote{}, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}
	return quote, nil
}

// FetchExchange retrieves the listing venue for a symbol from the company
// profile endpoint. An unknown symbol yields an empty string, not an error.
func (c *Client) FetchExchange(ctx context.Context, symbol string) (string, error) {
	u, err := c.buildURL("/stock/profile2", url.Values{"symbol": {symbol}})
	if err != nil {
		return "", err
	}

	resp, err := c.doRequest(ctx, u)
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	var profile profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("failed to decode profile for %s: %w", symbol, err)
	}
	return profile.Exchange, nil
}

func (c *Client) buildURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(c.apiURL + path)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	params.Set("token", c.apiKey)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// doRequest performs an HTTP request with retry logic.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.config.MaxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.config.RetryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.config.RetryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
