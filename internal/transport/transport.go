package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/multichat/multichat-go/internal/provider"
)

const (
	DefaultTimeout = 60 * time.Second
	// MaxResponseBytes caps how much of an upstream body is read.
	MaxResponseBytes = 8 << 20
)

var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// TransportError reports a failed outbound call. StatusCode is 0 when no
// response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Timeout reports whether the call ran past its deadline.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}

// Client sends request plans over HTTP.
type Client struct {
	http    *http.Client
	timeout time.Duration
	maxBody int64
	log     *zap.Logger
}

func New(timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: &http.Client{}, timeout: timeout, maxBody: MaxResponseBytes, log: log}
}

// Send performs plan and returns the raw body of a 2xx response.
func (c *Client) Send(ctx context.Context, plan *provider.RequestPlan) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := otel.Tracer("multichat/transport").Start(ctx, "transport.Send")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", plan.URL), attribute.String("http.method", plan.Method))

	start := time.Now()
	body, err := c.do(ctx, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("upstream call failed", zap.String("url", plan.URL), zap.Duration("latency", time.Since(start)), zap.Error(err))
		return nil, err
	}
	c.log.Debug("upstream call", zap.String("url", plan.URL), zap.Duration("latency", time.Since(start)), zap.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) do(ctx context.Context, plan *provider.RequestPlan) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, plan.Method, plan.URL, bytes.NewReader(plan.Body))
	if err != nil {
		return nil, &TransportError{URL: plan.URL, Cause: err}
	}
	for k, v := range plan.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: plan.URL, Cause: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug("close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{URL: plan.URL, Cause: err}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &TransportError{URL: plan.URL, Cause: ErrResponseTooLarge}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: plan.URL, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
