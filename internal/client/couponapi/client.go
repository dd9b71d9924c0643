// internal/client/couponapi/client.go
package couponapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"onecoupon-console/internal/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SuccessCode is the envelope code of a successful call.
const SuccessCode = "0"

const tracerName = "onecoupon-console/couponapi"

// DefaultBaseURL is the merchant-admin backend used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:10001/api/merchant-admin"

// Code is the envelope code. Some backend builds emit it as a number.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("envelope code: %w", err)
	}
	*c = Code(n.String())
	return nil
}

// Result is the envelope shared by all JSON endpoints.
type Result[T any] struct {
	Code Code   `json:"code"`
	Info string `json:"info"`
	Data T      `json:"data"`

	op string
}

func (r *Result[T]) Success() bool {
	return r.Code == SuccessCode
}

// Err returns an *APIError when the envelope reports a failure.
func (r *Result[T]) Err() error {
	if r.Success() {
		return nil
	}
	return &APIError{Op: r.op, Code: string(r.Code), Info: r.Info}
}

// PageResult is the envelope of the paged query.
type PageResult[T any] struct {
	Code  Code   `json:"code"`
	Info  string `json:"info"`
	Data  []T    `json:"data"`
	Total int64  `json:"total"`

	op string
}

func (r *PageResult[T]) Success() bool {
	return r.Code == SuccessCode
}

func (r *PageResult[T]) Err() error {
	if r.Success() {
		return nil
	}
	return &APIError{Op: r.op, Code: string(r.Code), Info: r.Info}
}

// Client issues single-attempt calls against the merchant-admin backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	metrics    *metrics.Metrics
	location   *time.Location
	logger     *zap.Logger
}

type Option func(*Client)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTracerProvider sets where call spans are recorded. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// WithTimeout bounds every call in addition to the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLocation sets the zone used to format wire timestamps.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.location = loc }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Calls are bounded by the caller's context unless WithTimeout is set.
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		tracer:   otel.Tracer(tracerName),
		location: time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one backend call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// send performs the call and returns the response of a 2xx status. The
// caller owns the body.
func (c *Client) send(ctx context.Context, r request) (resp *http.Response, err error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	ctx, span := c.tracer.Start(ctx, "couponapi."+r.op, trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case err == nil:
		case IsTransport(err):
			outcome = "transport_error"
		case errors.Is(err, context.Canceled):
			outcome = "canceled"
		default:
			outcome = "error"
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("backend call failed",
				zap.String("operation", r.op),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
		}
		c.metrics.ObserveBackend(r.op, outcome, time.Since(start))
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}
	req.Header.Set("Accept", "*/*")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	span.SetAttributes(
		attribute.String("http.method", r.method),
		attribute.String("http.url", target),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err = c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.op, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &TransportError{Op: r.op, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// sendJSON performs the call and decodes the JSON envelope into out.
func (c *Client) sendJSON(ctx context.Context, r request, out interface{}) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.op, err)
	}
	// A response that arrives after the caller gave up is discarded.
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
