// Package httpsource provides a pager.Source that fetches pages of
// JSON-encoded items from an HTTP API.
//
// The endpoint is expected to return a JSON array of items and advertise
// the total item count in a response header (X-Total-Count by default).
// Endpoints without the header still work; completion is then detected by
// the controller through an empty terminal page.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pagekit/pagekit/pkg/pager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for HTTP source operations.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "httpsource_requests_total",
		Help: "Total HTTP page requests by status",
	}, []string{"status"})

	httpRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "httpsource_request_duration_seconds",
		Help:    "HTTP page request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
)

// Config holds the HTTP source configuration.
type Config struct {
	// BaseURL is the endpoint returning a JSON array of items (REQUIRED).
	BaseURL string

	// PageParam is the query parameter carrying the zero-based page index.
	PageParam string // default: "page"

	// PerPage is the page size requested via PerPageParam. Zero leaves the
	// page size to the server.
	PerPage int

	// PerPageParam is the query parameter carrying the page size.
	PerPageParam string // default: "per_page"

	// TotalHeader names the response header carrying the total item count.
	TotalHeader string // default: "X-Total-Count"

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout per request.
	Timeout time.Duration // default: 30s

	// HTTPClient overrides the default client (for testing).
	HTTPClient *http.Client
}

// Source fetches pages over HTTP and decodes them into items of type T.
type Source[T any] struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// StatusError reports a non-200 response from the page endpoint.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("page endpoint returned %s", e.Status)
}

// New creates an HTTP page source.
func New[T any](cfg Config) (*Source[T], error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.PerPage < 0 {
		return nil, fmt.Errorf("per_page must be >= 0 (got %d)", cfg.PerPage)
	}

	if cfg.PageParam == "" {
		cfg.PageParam = "page"
	}
	if cfg.PerPageParam == "" {
		cfg.PerPageParam = "per_page"
	}
	if cfg.TotalHeader == "" {
		cfg.TotalHeader = "X-Total-Count"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Source[T]{
		cfg:    cfg,
		client: client,
		logger: log.With().Str("component", "httpsource").Logger(),
	}, nil
}

// FetchPage implements pager.Source. It requests one page and decodes the
// response body as a JSON array of T.
func (s *Source[T]) FetchPage(ctx context.Context, page int) (pager.Page[T], error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return pager.Page[T]{}, fmt.Errorf("parse base URL: %w", err)
	}

	q := u.Query()
	q.Set(s.cfg.PageParam, strconv.Itoa(page))
	if s.cfg.PerPage > 0 {
		q.Set(s.cfg.PerPageParam, strconv.Itoa(s.cfg.PerPage))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return pager.Page[T]{}, fmt.Errorf("create request: %w", err)
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	httpRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		httpRequestsTotal.WithLabelValues("network_error").Inc()
		s.logger.Warn().Err(err).Int("page", page).Msg("Page request failed")
		return pager.Page[T]{}, fmt.Errorf("request page %d: %w", page, err)
	}
	defer resp.Body.Close()

	httpRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		s.logger.Warn().
			Int("page", page).
			Int("status", resp.StatusCode).
			Msg("Page request error")
		return pager.Page[T]{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var items []T
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return pager.Page[T]{}, fmt.Errorf("decode page %d: %w", page, err)
	}

	total := -1
	if h := resp.Header.Get(s.cfg.TotalHeader); h != "" {
		n, err := strconv.Atoi(h)
		if err != nil || n < 0 {
			s.logger.Warn().
				Str("header", s.cfg.TotalHeader).
				Str("value", h).
				Msg("Ignoring malformed total count header")
		} else {
			total = n
		}
	}

	s.logger.Debug().
		Int("page", page).
		Int("count", len(items)).
		Int("total", total).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return pager.Page[T]{Items: items, TotalCount: total}, nil
}
