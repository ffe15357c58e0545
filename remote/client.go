// Package remote talks to the catalog backend's REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/library-desk/config"
	"github.com/aluiziolira/library-desk/models"
	"github.com/aluiziolira/library-desk/parser"
	"github.com/gocolly/colly/v2"
)

const (
	ctxStatus = "status"
	ctxBody   = "body"
)

// Client issues requests to the backend through colly collectors. Reads go
// through the request collector with retries; Ping uses a separate collector
// bounded by the probe timeout.
type Client struct {
	cfg       *config.Config
	base      string
	collector *colly.Collector
	probe     *colly.Collector
	retry     retrier
	Metrics   *Metrics
}

// NewClient builds a client for cfg.BaseURL. A nil metrics gets a private registry.
func NewClient(cfg *config.Config, metrics *Metrics) (*Client, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	c := &Client{
		cfg:     cfg,
		base:    strings.TrimSuffix(parsed.String(), "/"),
		Metrics: metrics,
		retry: retrier{
			maxRetries: cfg.MaxRetries,
			backoff:    cfg.RetryBackoff,
			backoffMax: cfg.RetryBackoffMax,
			metrics:    metrics,
		},
	}
	c.collector = newCollector(parsed.Hostname(), cfg.UserAgent, cfg.RequestTimeout)
	c.probe = newCollector(parsed.Hostname(), cfg.UserAgent, cfg.ProbeTimeout)
	return c, nil
}

func newCollector(host, userAgent string, timeout time.Duration) *colly.Collector {
	collector := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxStatus, r.StatusCode)
		r.Ctx.Put(ctxBody, r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		r.Ctx.Put(ctxStatus, r.StatusCode)
		r.Ctx.Put(ctxBody, r.Body)
		slog.Debug("backend request failed",
			slog.String("url", r.Request.URL.String()),
			slog.Int("status", r.StatusCode),
			slog.Any("error", err),
		)
	})
	return collector
}

// WithTransport swaps the HTTP transport of every collector, mainly for tests.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
	c.probe.WithTransport(rt)
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// Ping performs the single bounded connectivity read against /stats.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, c.probe, "ping", http.MethodGet, c.endpoint("/stats", nil), nil)
	return err
}

// Stats fetches the aggregate counts.
func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	body, err := c.get(ctx, "stats", "/stats", nil)
	if err != nil {
		return models.Stats{}, err
	}
	return parser.DecodeStats(body)
}

// Books lists the catalog.
func (c *Client) Books(ctx context.Context) ([]models.Book, error) {
	body, err := c.get(ctx, "books", "/books", nil)
	if err != nil {
		return nil, err
	}
	return parser.DecodeBooks(body)
}

// Users lists the members.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	body, err := c.get(ctx, "users", "/users", nil)
	if err != nil {
		return nil, err
	}
	return parser.DecodeUsers(body)
}

// Search queries the backend search endpoint.
func (c *Client) Search(ctx context.Context, query string, field models.SearchField) ([]models.Book, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", string(field))
	body, err := c.get(ctx, "search", "/search", params)
	if err != nil {
		return nil, err
	}
	return parser.DecodeSearchResults(body)
}

// BookDetails fetches a single book with its lending history.
func (c *Client) BookDetails(ctx context.Context, isbn string) (models.BookDetails, error) {
	body, err := c.get(ctx, "book_details", "/books/"+url.PathEscape(isbn), nil)
	if err != nil {
		return models.BookDetails{}, err
	}
	return parser.DecodeBookDetails(body)
}

// ShelfPath asks the backend for the shortest walk between two shelves.
func (c *Client) ShelfPath(ctx context.Context, from, to string) (models.ShelfPath, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	body, err := c.get(ctx, "path", "/path", params)
	if err != nil {
		return models.ShelfPath{}, err
	}
	return parser.DecodeShelfPath(body, from, to)
}

// Recommend lists books suggested for a member.
func (c *Client) Recommend(ctx context.Context, user string) ([]models.Book, error) {
	params := url.Values{}
	params.Set("user", user)
	body, err := c.get(ctx, "recommend", "/recommend", params)
	if err != nil {
		return nil, err
	}
	return parser.DecodeBooks(body)
}

// CreateBook catalogues a new book.
func (c *Client) CreateBook(ctx context.Context, draft models.BookDraft) error {
	return c.post(ctx, "create_book", "/books", draft)
}

// CreateUser registers a new member.
func (c *Client) CreateUser(ctx context.Context, draft models.UserDraft) error {
	return c.post(ctx, "create_user", "/users", draft)
}

// Borrow lends a book to a member.
func (c *Client) Borrow(ctx context.Context, userName, isbn string) error {
	return c.post(ctx, "borrow", "/borrow", map[string]string{"userName": userName, "isbn": isbn})
}

// Return checks a book back in.
func (c *Client) Return(ctx context.Context, isbn string) error {
	return c.post(ctx, "return", "/return", map[string]string{"isbn": isbn})
}

func (c *Client) endpoint(path string, params url.Values) string {
	target := c.base + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return target
}

func (c *Client) get(ctx context.Context, name, path string, params url.Values) ([]byte, error) {
	target := c.endpoint(path, params)
	var body []byte
	err := c.retry.do(ctx, func() error {
		var err error
		body, err = c.send(ctx, c.collector, name, http.MethodGet, target, nil)
		return err
	})
	return body, err
}

// Writes are not retried: the backend may have applied the first attempt.
func (c *Client) post(ctx context.Context, name, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", name, err)
	}
	_, err = c.send(ctx, c.collector, name, http.MethodPost, c.endpoint(path, nil), data)
	return err
}

func (c *Client) send(ctx context.Context, collector *colly.Collector, name, method, target string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyError(err, 0, nil)
	}

	hdr := http.Header{}
	hdr.Set("User-Agent", c.cfg.UserAgent)
	hdr.Set("Accept", "application/json")
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
		hdr.Set("Content-Type", "application/json")
	}

	c.Metrics.IncRequest(method, name)
	start := time.Now()
	rctx := colly.NewContext()
	done := make(chan error, 1)
	go func() {
		done <- collector.Request(method, target, reader, rctx, hdr)
	}()

	var reqErr error
	select {
	case reqErr = <-done:
	case <-ctx.Done():
		// the request goroutine finishes on its own within the collector timeout
		err := classifyError(ctx.Err(), 0, nil)
		c.Metrics.IncError(errorTypeLabel(err))
		return nil, err
	}
	c.Metrics.ObserveDuration(name, time.Since(start))

	status, _ := rctx.GetAny(ctxStatus).(int)
	body, _ := rctx.GetAny(ctxBody).([]byte)
	if reqErr == nil {
		return body, nil
	}

	err := classifyError(reqErr, status, body)
	c.Metrics.IncError(errorTypeLabel(err))
	slog.Debug("backend call failed",
		slog.String("endpoint", name),
		slog.String("category", errorTypeLabel(err)),
		slog.Any("error", err),
	)
	return nil, fmt.Errorf("%s: %w", name, err)
}

type retrier struct {
	maxRetries int
	backoff    time.Duration
	backoffMax time.Duration
	metrics    *Metrics
}

func (r retrier) delay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := r.backoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := r.backoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func (r retrier) do(ctx context.Context, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || attempt > r.maxRetries || !retryable(err) {
			return err
		}
		r.metrics.IncRetries()

		timer := time.NewTimer(r.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
