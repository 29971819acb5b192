// Package backend is the client for the external portal REST API. Every
// call runs inside the circuit breaker; idempotent reads are retried with
// backoff, writes are attempted once, and uploads share a bulkhead.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/resilience"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("backend")

const serviceName = "backend"

// Client wraps HTTP calls to the portal API.
type Client struct {
	http    *resty.Client
	cb      *gobreaker.CircuitBreaker
	cfg     resilience.Config
	uploads *resilience.Bulkhead
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewClient creates a backend client. metrics may be nil.
func NewClient(baseURL string, timeout time.Duration, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	cfg.Retryable = IsUpstreamFailure
	return &Client{
		http:    rc,
		cb:      cb,
		cfg:     cfg,
		uploads: resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics: metrics,
		logger:  logger,
	}
}

// IsUpstreamFailure reports whether err means the backend itself is
// unhealthy (transport error or 5xx). Client errors (4xx) are answers,
// not failures: they are neither retried nor counted by the breaker.
func IsUpstreamFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var (
		unauth   *domain.ErrUnauthorized
		forbid   *domain.ErrForbidden
		notFound *domain.ErrNotFound
		conflict *domain.ErrConflict
		invalid  *domain.ErrValidation
		expired  *domain.ErrExpired
	)
	switch {
	case errors.As(err, &unauth), errors.As(err, &forbid), errors.As(err, &notFound),
		errors.As(err, &conflict), errors.As(err, &invalid), errors.As(err, &expired):
		return false
	}
	return true
}

// call describes one upstream request.
type call struct {
	op         string
	method     string
	path       string
	token      string
	query      url.Values
	body       any
	result     any
	idempotent bool
	resource   string
	id         string
	prepare    func(*resty.Request)
}

func (c *Client) do(ctx context.Context, cl call) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "Backend."+cl.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("backend.path", cl.path),
	)

	cfg := c.cfg
	if !cl.idempotent {
		cfg.MaxRetries = 0
	}

	var resp *resty.Response
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, cfg, func() error {
			req := c.http.R().SetContext(ctx)
			if cl.token != "" {
				req.SetAuthToken(cl.token)
			}
			if cl.query != nil {
				req.SetQueryParamsFromValues(cl.query)
			}
			if cl.body != nil {
				req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
			}
			if cl.result != nil {
				req.SetResult(cl.result)
			}
			if cl.prepare != nil {
				cl.prepare(req)
			}

			r, err := req.Execute(cl.method, cl.path)
			if err != nil {
				return err
			}
			resp = r
			return c.statusError(cl, r)
		})
	})

	if err != nil {
		err = c.mapError(ctx, cl, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	c.logger.Debug("backend: request OK",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode()),
	)
	return resp, nil
}

// apiError is the error body shape of the portal API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Field   string `json:"field"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Message, e.Error, e.Detail} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) statusError(cl call, r *resty.Response) error {
	status := r.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}

	var body apiError
	_ = json.Unmarshal(r.Body(), &body)
	msg := body.text()

	switch status {
	case http.StatusUnauthorized:
		if msg == "" {
			msg = "session expired, please log in again"
		}
		return &domain.ErrUnauthorized{Message: msg}
	case http.StatusForbidden:
		return &domain.ErrForbidden{Action: cl.op}
	case http.StatusNotFound:
		return &domain.ErrNotFound{Resource: cl.resource, ID: cl.id}
	case http.StatusConflict:
		if msg == "" {
			msg = "resource already exists"
		}
		return &domain.ErrConflict{Message: msg}
	case http.StatusGone:
		return &domain.ErrExpired{Resource: cl.resource}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		field := body.Field
		if field == "" {
			field = cl.resource
		}
		if msg == "" {
			msg = "rejected by server"
		}
		return &domain.ErrValidation{Field: field, Message: msg}
	}

	c.logger.Warn("backend: non-2xx response",
		zap.String("op", cl.op),
		zap.String("path", cl.path),
		zap.Int("status", status),
	)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &domain.ErrExternalService{Service: serviceName, Status: status, Err: errors.New(msg)}
}

func (c *Client) mapError(ctx context.Context, cl call, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.countFailure()
		return &domain.ErrCircuitOpen{Service: serviceName}
	}
	if !IsUpstreamFailure(err) {
		return err
	}
	c.countFailure()
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.ErrTimeout{Operation: cl.op}
	}
	var ext *domain.ErrExternalService
	if errors.As(err, &ext) {
		return ext
	}
	c.logger.Error("backend: request failed",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Error(err),
	)
	return &domain.ErrExternalService{Service: serviceName, Err: err}
}

func (c *Client) countFailure() {
	if c.metrics != nil {
		c.metrics.IncrExternalError(serviceName)
	}
}

// Ping checks the backend is reachable. Any HTTP answer counts as up.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.http.R().SetContext(ctx).Head("/")
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	return nil
}
