// Package attention fetches daily search-interest series from an HTTP
// index provider.
package attention

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/eventscope/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2
)

// Client is the attention index provider client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration // applied to a copy of httpClient, 0 keeps its own
	limiter    *rate.Limiter
	log        zerolog.Logger
}

var _ domain.AttentionProvider = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout. A client passed to WithHTTPClient is
// copied, never modified.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a client for the provider at baseURL.
func NewClient(baseURL string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        log.With().Str("client", "attention").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// point is one element of the provider response. Index arrives either as a
// number or as a string that may be blank.
type point struct {
	Date  string          `json:"date"`
	Index json.RawMessage `json:"index"`
}

// Fetch returns the keyword's attention series inside span. Blank values
// are omitted. Every failure wraps domain.ErrDataUnavailable.
func (c *Client) Fetch(ctx context.Context, keyword string, span domain.DateRange) (domain.AttentionSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrDataUnavailable, err)
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("start", span.Start.String())
	params.Set("end", span.End.String())
	reqURL := fmt.Sprintf("%s/series?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrDataUnavailable, err)
	}

	c.log.Debug().Str("keyword", keyword).Str("span", span.String()).Msg("Fetching attention series")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", domain.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: provider returned status %d: %s",
			domain.ErrDataUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var points []point
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrDataUnavailable, err)
	}

	series := make(domain.AttentionSeries, 0, len(points))
	for _, p := range points {
		d, err := domain.ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q in response", domain.ErrDataUnavailable, p.Date)
		}
		if !span.Contains(d) {
			continue
		}
		value, ok, err := parseIndex(p.Index)
		if err != nil {
			return nil, fmt.Errorf("%w: bad value for %s: %v", domain.ErrDataUnavailable, d, err)
		}
		if !ok {
			continue
		}
		series = append(series, domain.AttentionPoint{Date: d, Magnitude: value})
	}

	c.log.Debug().
		Str("keyword", keyword).
		Int("points", len(series)).
		Msg("Fetched attention series")

	return series, nil
}

// parseIndex reads a number, a numeric string, a blank string or null.
// ok is false for blank and null.
func parseIndex(raw json.RawMessage) (value float64, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, err
		}
		return v, true, nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false, err
	}
	return v, true, nil
}
