// Package engine is the HTTP client for the Knowledge Engine service.
//
// It speaks two endpoints, GET /graph for the full corpus graph and POST /chat
// for a query answer. Concurrent /graph fetches share one request, and a
// circuit breaker fails fast while the service is down so the UI is not left
// waiting on timeouts. There is no retry: every failed attempt is reported once.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/metrics"
	"github.com/vanderheijden86/kgview/pkg/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// RequestIDHeader carries a per-request uuid.
const RequestIDHeader = "X-Request-ID"

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("knowledge engine unavailable (circuit open)")

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	MaxRequests         uint32        // probes allowed while half-open
	Interval            time.Duration // closed-state counter reset period
	Timeout             time.Duration // open-state duration before probing
	ConsecutiveFailures uint32        // failures that trip the breaker
}

// DefaultBreakerConfig trips after five straight failures and probes again
// after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to one Knowledge Engine instance. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	graphs     singleflight.Group
}

// NewClient returns a client for opts.BaseURL.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	bc := opts.Breaker
	if bc.ConsecutiveFailures == 0 {
		bc = DefaultBreakerConfig()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: hc,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "knowledge-engine",
			MaxRequests: bc.MaxRequests,
			Interval:    bc.Interval,
			Timeout:     bc.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= bc.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				debug.Warn("circuit breaker %q: %v -> %v", name, from, to)
			},
		}),
	}
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchGraph retrieves the full corpus graph. Callers arriving while a fetch
// is in flight share its result.
func (c *Client) FetchGraph(ctx context.Context) (model.Graph, error) {
	v, err, shared := c.graphs.Do("graph", func() (any, error) {
		defer metrics.Timer(metrics.GraphFetch)()
		var g model.Graph
		if err := c.do(ctx, http.MethodGet, "/graph", nil, &g); err != nil {
			return model.Graph{}, err
		}
		return g, nil
	})
	if shared {
		debug.Log("engine: /graph fetch shared with an in-flight request")
	}
	if err != nil {
		return model.Graph{}, fmt.Errorf("fetch graph: %w", err)
	}
	return v.(model.Graph).Clone(), nil
}

// Chat sends a query and returns the answer with its graph and evidence.
func (c *Client) Chat(ctx context.Context, query string) (model.ChatResponse, error) {
	defer metrics.Timer(metrics.ChatQuery)()
	var resp model.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", model.ChatRequest{Query: query}, &resp); err != nil {
		return model.ChatResponse{}, fmt.Errorf("chat: %w", err)
	}
	return resp, nil
}

// BreakerState reports the breaker state for the status line.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	debug.Log("engine: %s %s -> %d in %s (request %s)", method, path, resp.StatusCode, time.Since(start), reqID)

	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(data), 200)}
	}

	stop := metrics.Timer(metrics.JSONParsing)
	defer stop()
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// truncate keeps at most n bytes of s without splitting a rune.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
