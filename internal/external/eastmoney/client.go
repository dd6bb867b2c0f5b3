package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/filterconfig"
	"github.com/wonny/fundscope/pkg/config"
	"github.com/wonny/fundscope/pkg/httputil"
	"github.com/wonny/fundscope/pkg/logger"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	referer   = "https://fundf10.eastmoney.com/"
)

// Client handles communication with Eastmoney fund and quote endpoints
// ⭐ SSOT: Eastmoney API 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	fundBaseURL  string
	quoteBaseURL string
	navPages     int
	rules        *filterconfig.Config
}

var _ contracts.MarketDataProvider = (*Client)(nil)

// NewClient creates a new Eastmoney client.
// Transport-level retry is disabled; provider.Resilient owns the retry policy.
func NewClient(httpClient *httputil.Client, cfg config.EastmoneyConfig, log *logger.Logger) *Client {
	navPages := cfg.NavPages
	if navPages <= 0 {
		navPages = 12
	}

	httpClient.DisableRetry().
		WithHeader("User-Agent", userAgent).
		WithHeader("Referer", referer)

	return &Client{
		httpClient:   httpClient,
		logger:       log.WithField("module", "eastmoney"),
		fundBaseURL:  cfg.FundBaseURL,
		quoteBaseURL: cfg.QuoteBaseURL,
		navPages:     navPages,
		rules:        filterconfig.Default(),
	}
}

// WithRules replaces the built-in candidate filter rules
func (c *Client) WithRules(rules *filterconfig.Config) *Client {
	if rules != nil {
		c.rules = rules
	}
	return c
}

// fetch performs a GET against base+path and returns the body.
// A 404 maps to contracts.ErrNotFound.
func (c *Client) fetch(ctx context.Context, base, path string, params url.Values) ([]byte, error) {
	fullURL := fmt.Sprintf("%s%s", base, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", path, contracts.ErrNotFound)
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return body, nil
}
