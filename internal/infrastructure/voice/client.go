// Package voice is the HTTP client for the outbound voice-call provider.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/infrastructure/config"
	"github.com/davidleathers/campaign-dialer/internal/service/dialer"
)

const (
	serviceName     = "voice"
	maxErrorBodyLen = 512
)

// RequestObserver receives the latency and result of every provider request
type RequestObserver interface {
	RecordVoiceRequest(ctx context.Context, d time.Duration, result string)
}

// Client places outbound calls through the provider's REST API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker
	observer   RequestObserver
	tracer     trace.Tracer
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver reports request metrics to o
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a provider client. A zero RequestsPerSecond disables the
// client-side rate limit.
func NewClient(cfg config.VoiceConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("voice base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
		tracer:     otel.Tracer("campaign-dialer/voice"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker.onStateChange = func(from, to BreakerState) {
		c.logger.Warn("Voice provider circuit changed state",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}
	return c, nil
}

type createCallRequest struct {
	AssistantID   string            `json:"assistantId"`
	PhoneNumberID string            `json:"phoneNumberId"`
	Customer      customer          `json:"customer"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type customer struct {
	Number string `json:"number"`
}

// PlaceCall creates an outbound call. Every failure is an external error.
func (c *Client) PlaceCall(ctx context.Context, req *dialer.CallRequest) (*dialer.CallResponse, error) {
	ctx, span := c.tracer.Start(ctx, "voice.PlaceCall", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if !c.breaker.acquire() {
		span.SetStatus(codes.Error, "circuit open")
		c.observe(ctx, 0, "circuit_open")
		return nil, errors.NewExternalError(serviceName, "circuit breaker is open")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.breaker.release()
		span.RecordError(err)
		return nil, errors.NewExternalError(serviceName, "rate limiter wait interrupted").WithCause(err)
	}

	start := time.Now()
	resp, status, err := c.post(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			c.breaker.release()
		case status >= 400 && status < 500 && status != http.StatusTooManyRequests:
			// the provider is healthy, the request was bad
			c.breaker.success()
		default:
			c.breaker.failure()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.observe(ctx, elapsed, "error")
		return nil, err
	}

	c.breaker.success()
	span.SetAttributes(attribute.String("voice.call_id", resp.ID), attribute.String("voice.status", resp.Status))
	c.observe(ctx, elapsed, "success")
	return resp, nil
}

// State returns the breaker state
func (c *Client) State() BreakerState {
	return c.breaker.current()
}

func (c *Client) post(ctx context.Context, req *dialer.CallRequest) (*dialer.CallResponse, int, error) {
	body, err := json.Marshal(createCallRequest{
		AssistantID:   req.AssistantID,
		PhoneNumberID: req.PhoneNumberID,
		Customer:      customer{Number: req.CustomerNumber},
		Metadata:      req.Metadata,
	})
	if err != nil {
		return nil, 0, errors.NewExternalError(serviceName, "failed to encode request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call", bytes.NewReader(body))
	if err != nil {
		return nil, 0, errors.NewExternalError(serviceName, "failed to build request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, errors.NewExternalError(serviceName, "request failed").WithCause(err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodyLen))
		c.logger.Warn("Voice provider rejected call",
			zap.Int("status_code", res.StatusCode),
			zap.String("body", string(snippet)))
		return nil, res.StatusCode, errors.NewExternalError(serviceName,
			fmt.Sprintf("%d %s", res.StatusCode, strings.TrimSpace(string(snippet)))).
			WithDetails(map[string]interface{}{"service": serviceName, "status_code": res.StatusCode})
	}

	var out dialer.CallResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, res.StatusCode, errors.NewExternalError(serviceName, "invalid response body").WithCause(err)
	}
	return &out, res.StatusCode, nil
}

func (c *Client) observe(ctx context.Context, d time.Duration, result string) {
	if c.observer != nil {
		c.observer.RecordVoiceRequest(ctx, d, result)
	}
}
