// Package client implements the submit/poll side of the gateway protocol.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seantiz/lchgate/internal/model"
	"github.com/seantiz/lchgate/internal/payload"
)

const (
	DefaultCallTimeout        = time.Second
	DefaultPollRequestTimeout = 500 * time.Millisecond
	DefaultPollDeadline       = 2 * time.Second
	DefaultPollInterval       = 100 * time.Millisecond
	DefaultReportTimeout      = payload.DefaultReportTimeout

	maxResponseSize = 1 << 20
)

// ErrTimeout is returned when no result arrives before the poll deadline.
var ErrTimeout = errors.New("timed out waiting for result")

// StatusError is returned when the gateway answers with an unexpected status.
type StatusError struct {
	Route string
	Code  int
	Body  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Route, e.Code, strings.TrimSpace(e.Body))
}

// Client talks to one gateway.
type Client struct {
	baseURL            string
	http               *http.Client
	logger             *slog.Logger
	callTimeout        time.Duration
	pollRequestTimeout time.Duration
	pollDeadline       time.Duration
	pollInterval       time.Duration
	reportTimeout      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCallTimeout bounds each submit request.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithPollRequestTimeout bounds each poll request.
func WithPollRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.pollRequestTimeout = d }
}

// WithPollDeadline sets how long AwaitResult waits overall.
func WithPollDeadline(d time.Duration) Option {
	return func(c *Client) { c.pollDeadline = d }
}

// WithPollInterval sets the pause between polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithReportTimeout sets the report timeout embedded in wrapped payloads.
func WithReportTimeout(d time.Duration) Option {
	return func(c *Client) { c.reportTimeout = d }
}

// New creates a client for the gateway at baseURL, e.g. "http://127.0.0.1:9090".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:            strings.TrimRight(baseURL, "/"),
		http:               &http.Client{},
		logger:             slog.New(slog.DiscardHandler),
		callTimeout:        DefaultCallTimeout,
		pollRequestTimeout: DefaultPollRequestTimeout,
		pollDeadline:       DefaultPollDeadline,
		pollInterval:       DefaultPollInterval,
		reportTimeout:      DefaultReportTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run submits code and waits for its result.
func (c *Client) Run(ctx context.Context, code string) (string, error) {
	if err := c.Submit(ctx, code); err != nil {
		return "", err
	}
	return c.AwaitResult(ctx)
}

// Submit wraps code so that it reports back to this gateway, then queues it.
func (c *Client) Submit(ctx context.Context, code string) error {
	wrapped, err := payload.Wrap(code, payload.Target{
		ReportURL: c.baseURL + model.RouteSetResult,
		Timeout:   c.reportTimeout,
	})
	if err != nil {
		return err
	}
	return c.Call(ctx, wrapped)
}

// Call queues message as is. The host executes it without reporting a result.
func (c *Client) Call(ctx context.Context, message string) error {
	body, err := json.Marshal(model.CallRequest{Message: message})
	if err != nil {
		return fmt.Errorf("encode call: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	code, resp, err := c.do(ctx, http.MethodPost, model.RouteCall, body)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return &StatusError{Route: model.RouteCall, Code: code, Body: string(resp)}
	}
	c.logger.Debug("payload submitted", "bytes", len(message))
	return nil
}

// AwaitResult polls for the pending result until it arrives or the poll
// deadline passes. A 401 means not ready yet; any other failure ends the
// wait immediately. ErrTimeout is never returned before the deadline.
func (c *Client) AwaitResult(ctx context.Context) (string, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollDeadline)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(pollCtx); err != nil {
			// Wait refuses early when the next slot is past the deadline.
			<-pollCtx.Done()
			return "", c.pollDone(ctx)
		}

		result, ready, err := c.poll(pollCtx)
		if err != nil {
			if pollCtx.Err() != nil {
				return "", c.pollDone(ctx)
			}
			return "", err
		}
		if ready {
			c.logger.Debug("result received", "attempts", attempt)
			return result, nil
		}
	}
}

// pollDone reports why polling stopped once the poll context has ended.
func (c *Client) pollDone(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return ErrTimeout
}

// poll issues one GET for the result.
func (c *Client) poll(ctx context.Context) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollRequestTimeout)
	defer cancel()

	code, body, err := c.do(ctx, http.MethodGet, model.RouteGetResult, nil)
	if err != nil {
		return "", false, err
	}

	switch code {
	case http.StatusUnauthorized:
		return "", false, nil
	case http.StatusOK:
		var resp model.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", false, fmt.Errorf("decode result: %w", err)
		}
		if resp.Status != model.StatusOK || resp.Result == nil {
			return "", false, fmt.Errorf("%s: unexpected response %q", model.RouteGetResult, body)
		}
		return *resp.Result, true, nil
	default:
		return "", false, &StatusError{Route: model.RouteGetResult, Code: code, Body: string(body)}
	}
}

// Health checks that the gateway is up.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	code, body, err := c.do(ctx, http.MethodGet, model.RouteHealth, nil)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return &StatusError{Route: model.RouteHealth, Code: code, Body: string(body)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, route string, body []byte) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", route, err)
	}
	return resp.StatusCode, data, nil
}
