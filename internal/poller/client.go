package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const maxResponseBodySize = 1 << 20 // 1MB

// a single stats endpoint never needs a large pool
const (
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second // conservative: matches common ALB defaults
)

// ErrTimeout is wrapped by [Response.Error] when a request exceeded its
// per-request timeout and was cancelled.
var ErrTimeout = errors.New("live stats request timed out")

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// RequestID is the X-Request-ID header value sent with the request.
	RequestID string

	// Error contains any error that occurred during the request.
	// It wraps [ErrTimeout] when the per-request timeout fired, and the
	// parent context's error when the caller cancelled.
	Error error
}

// Client is an HTTP client wrapper for polling the live stats endpoint.
//
// Client uses per-request timeouts via context rather than a global timeout.
// Every request carries "Cache-Control: no-cache" so intermediaries never
// serve a stale snapshot, and a fresh X-Request-ID.
type Client struct {
	transport *http.Transport
	rc        *resty.Client
}

// NewClient creates a new polling [Client]. Library-internal log lines from
// resty are forwarded to logger at debug level.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}

	rc := resty.New().
		SetTransport(transport).
		SetLogger(restyLogger{logger: logger}).
		SetRetryCount(0)

	return &Client{transport: transport, rc: rc}
}

// Fetch performs a GET request and returns a structured [Response].
//
// The timeout is applied via context cancellation derived from ctx.
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	requestID := uuid.NewString()

	resp, err := c.rc.R().
		SetContext(reqCtx).
		SetHeaders(headers).
		SetHeader("Cache-Control", "no-cache").
		SetHeader("X-Request-ID", requestID).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return Response{
			Latency:   time.Since(start),
			RequestID: requestID,
			Error:     classify(ctx, reqCtx, err, timeout, "request failed"),
		}
	}

	raw := resp.RawBody()
	defer func() { _ = raw.Close() }()

	body, err := io.ReadAll(io.LimitReader(raw, maxResponseBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode(),
			Latency:    time.Since(start),
			RequestID:  requestID,
			Error:      classify(ctx, reqCtx, err, timeout, "failed to read response body"),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode(),
		Latency:    time.Since(start),
		RequestID:  requestID,
	}
}

// classify distinguishes caller cancellation, the per-request timeout, and
// every other transport failure.
func classify(parent, reqCtx context.Context, err error, timeout time.Duration, op string) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s: %w", op, parent.Err())
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Close closes all idle connections in the client's connection pool.
// Safe to call multiple times and on a nil client.
func (c *Client) Close() {
	if c == nil || c.transport == nil {
		return
	}
	c.transport.CloseIdleConnections()
}

// restyLogger adapts slog to resty's logger interface.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Debug("resty", "level", "error", "message", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Debug("resty", "level", "warn", "message", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug("resty", "level", "debug", "message", fmt.Sprintf(format, v...))
}
