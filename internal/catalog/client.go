package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"shelf-service/internal/model"
)

const maxSearchResults = 20

var (
	ErrNotFound    = errors.New("catalog: volume not found")
	ErrUnavailable = errors.New("catalog: upstream unavailable")
)

var catalogRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total number of external catalog requests by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// Catalog is the read-only view of the upstream book catalog.
type Catalog interface {
	Search(ctx context.Context, query string) ([]model.BookUpsert, error)
	Volume(ctx context.Context, id string) (*model.BookUpsert, error)
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	RPS     float64
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(opts Options) *Client {
	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing volume is an answer, not an upstream fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	burst := int(opts.RPS)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RPS), burst),
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *Client) Search(ctx context.Context, query string) ([]model.BookUpsert, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxSearchResults))

	body, err := c.get(ctx, "search", "/volumes", params)
	if err != nil {
		return nil, err
	}

	var resp volumeList
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	books := make([]model.BookUpsert, 0, len(resp.Items))
	for _, v := range resp.Items {
		if v.ID == "" {
			continue
		}
		books = append(books, v.toUpsert())
	}

	return books, nil
}

func (c *Client) Volume(ctx context.Context, id string) (*model.BookUpsert, error) {
	body, err := c.get(ctx, "volume", "/volumes/"+url.PathEscape(id), url.Values{})
	if err != nil {
		return nil, err
	}

	var v volume
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode volume response: %w", err)
	}
	if v.ID == "" {
		return nil, ErrNotFound
	}

	book := v.toUpsert()
	return &book, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		catalogRequestsTotal.WithLabelValues(operation, "throttled").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})

	switch {
	case err == nil:
		catalogRequestsTotal.WithLabelValues(operation, "ok").Inc()
	case errors.Is(err, ErrNotFound):
		catalogRequestsTotal.WithLabelValues(operation, "not_found").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		catalogRequestsTotal.WithLabelValues(operation, "circuit_open").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		catalogRequestsTotal.WithLabelValues(operation, "error").Inc()
	}

	return body, err
}
