package fetch

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"mspro-labs/cellar-scout/internal/logger"
)

// DefaultHeaders is the static browser header set sent with every request.
// Accept-Encoding is left to the transport so gzip bodies are decoded for us.
var DefaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// StatusError is returned when a retailer answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %s", e.URL, e.Status)
}

// Options configures a Client. A Timeout of zero or less waits forever.
type Options struct {
	Timeout  time.Duration
	MinDelay time.Duration
	MaxDelay time.Duration
	Headers  map[string]string // merged over DefaultHeaders
	Logger   *logger.Logger
}

// Client fetches retailer pages over one pooled HTTP client. Close it when done.
type Client struct {
	http   *resty.Client
	opts   Options
	log    *logger.Logger
	jitter func(time.Duration) time.Duration
}

// New creates a Client.
func New(opts Options) *Client {
	client := resty.New()
	client.SetHeaders(DefaultHeaders)
	if len(opts.Headers) > 0 {
		client.SetHeaders(opts.Headers)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		http:   client,
		opts:   opts,
		log:    log,
		jitter: func(n time.Duration) time.Duration { return time.Duration(rand.Int63n(int64(n))) },
	}
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// Document waits a polite delay, GETs rawURL with optional query params and
// parses the body. Non-2xx answers are returned as *StatusError.
func (c *Client) Document(ctx context.Context, rawURL string, params url.Values) (*goquery.Document, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}

	res, err := req.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if !res.IsSuccess() {
		return nil, &StatusError{URL: rawURL, StatusCode: res.StatusCode(), Status: res.Status()}
	}
	c.log.Debug("fetched page",
		zap.String("url", rawURL),
		zap.Int("status", res.StatusCode()),
		zap.Int("bytes", len(res.Body())),
	)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}
	doc.Url = res.RawResponse.Request.URL
	return doc, nil
}

// delay picks a duration in [MinDelay, MaxDelay].
func (c *Client) delay() time.Duration {
	lo, hi := max(c.opts.MinDelay, 0), max(c.opts.MaxDelay, 0)
	if hi <= lo {
		return lo
	}
	return lo + c.jitter(hi-lo+1)
}

func (c *Client) wait(ctx context.Context) error {
	d := c.delay()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
