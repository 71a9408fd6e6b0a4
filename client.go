// Package struai is a Go client for the StruAI drawing-analysis and
// knowledge-graph API. It covers raw page detection (drawings), project
// sheet ingestion with asynchronous job polling, and DocQuery graph
// traversal including client-side crop extraction.
package struai

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/struai/struai-go/internal/metrics"
)

// Version is the client library version reported in the User-Agent header.
const Version = "0.3.0"

const (
	defaultBaseURL    = "https://api.stru.ai/v1"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 2
)

// Client talks to the StruAI API. Construct it with New; the zero value is
// not usable. A Client is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	userAgent  string
	logger     *slog.Logger

	// pageCacheDir is where crop auto-discovers rasterized pages by hash.
	pageCacheDir string

	// stats aggregates per-method request counts, retries, and latency.
	stats *metrics.Collector

	// Sub-resources, constructed once at New.
	Projects *ProjectsService
	Drawings *DrawingsService
}

// Stats returns a point-in-time snapshot of the client's request
// statistics since New.
func (c *Client) Stats() metrics.Snapshot {
	return c.stats.Snapshot()
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. A URL without a path gets /v1
// appended.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = normalizeBaseURL(u) }
}

// WithHTTPClient supplies a custom http.Client. Its timeout governs single
// requests; the job wait budget is separate (see Job.Wait).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries sets how many times transient failures are retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithLogger attaches a slog.Logger. Without it the client is silent.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithPageCacheDir sets the directory searched for cached page rasters
// during crop page-hash auto-discovery. Defaults to $STRUAI_PAGE_CACHE.
func WithPageCacheDir(dir string) Option {
	return func(c *Client) { c.pageCacheDir = dir }
}

// New creates a Client. The API key falls back to the STRUAI_API_KEY
// environment variable; a missing key is an error.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("STRUAI_API_KEY")
	}
	if apiKey == "" {
		return nil, validationErrorf("API key required: pass it to New or set STRUAI_API_KEY")
	}

	c := &Client{
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		maxRetries:   defaultMaxRetries,
		userAgent:    "struai-go/" + Version,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		pageCacheDir: os.Getenv("STRUAI_PAGE_CACHE"),
		stats:        metrics.NewCollector(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Projects = &ProjectsService{client: c}
	c.Drawings = &DrawingsService{client: c}
	return c, nil
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(raw, "/")
	if raw == "" {
		return defaultBaseURL
	}
	if u, err := url.Parse(raw); err == nil && (u.Path == "" || u.Path == "/") {
		return raw + "/v1"
	}
	return raw
}
