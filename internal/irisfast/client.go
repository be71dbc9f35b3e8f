package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client talks to the Iris REST API.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDialer replaces the TCP dialer, e.g. with an in-memory listener.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// GetConfig reads the bot configuration of the Iris instance. Safe to retry.
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/config", nil, &cfg, true); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SendMessage posts a text reply. Replies are not retried to avoid duplicates.
func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	req := ReplyRequest{Type: "text", Room: room, Data: message}
	return c.doJSON(ctx, fasthttp.MethodPost, "/reply", req, nil, false)
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	req := ImageReplyRequest{Type: "image", Room: room, Data: imageBase64}
	return c.doJSON(ctx, fasthttp.MethodPost, "/reply", req, nil, false)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = c.roundTrip(ctx, req, resp, out)
		if lastErr == nil {
			return nil
		}
		var se *statusError
		if errors.As(lastErr, &se) && !shouldRetryStatus(se.status) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		c.logger.Warn("iris_http_retry",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, out any) error {
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return &statusError{status: status, body: truncate(string(resp.Body()), 512)}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("iris api error: status=%d body=%s", e.status, e.body)
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDuration doubles from 100ms and caps at 3.2s.
func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
