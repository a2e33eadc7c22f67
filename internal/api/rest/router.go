package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/infrastructure/cache"
)

// Dependencies wires the router. RateLimiter and HealthCheckers are optional.
type Dependencies struct {
	Executor   CampaignController
	Campaigns  CampaignReader
	Compliance ComplianceService

	HealthCheckers []HealthChecker
	RateLimiter    cache.RateLimiter
	RateLimit      int

	// Registry serves /metrics and receives the HTTP collectors
	Registry *prometheus.Registry

	JWTSecret string
	Logger    *zap.Logger

	// RunContext bounds campaign runs started through the API
	RunContext context.Context
}

// NewRouter builds the API handler
func NewRouter(deps Dependencies) (http.Handler, error) {
	switch {
	case deps.Executor == nil, deps.Campaigns == nil, deps.Compliance == nil:
		return nil, fmt.Errorf("executor, campaign reader and compliance service are required")
	case deps.JWTSecret == "":
		return nil, fmt.Errorf("jwt secret is required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.RunContext == nil {
		deps.RunContext = context.Background()
	}

	base := newBaseHandler(deps.Logger)
	metrics := NewHTTPMetrics(deps.Registry)
	auth := NewAuthMiddleware(deps.JWTSecret, base)

	campaigns := newCampaignHandler(base, deps.Executor, deps.Campaigns, deps.RunContext)
	comp := newComplianceHandler(base, deps.Compliance)
	health := newHealthHandler(base, deps.HealthCheckers)

	protected := func(h http.HandlerFunc) http.Handler {
		return Chain(h,
			auth.Middleware,
			RateLimitMiddleware(deps.RateLimiter, deps.RateLimit, base),
		)
	}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, metrics.Instrument(pattern, h))
	}

	handle("GET /healthz", http.HandlerFunc(health.Healthz))
	handle("GET /metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	handle("POST /v1/campaigns/{id}/start", protected(campaigns.Start))
	handle("POST /v1/campaigns/{id}/pause", protected(campaigns.Pause))
	handle("POST /v1/campaigns/{id}/resume", protected(campaigns.Resume))
	handle("POST /v1/campaigns/{id}/stop", protected(campaigns.Stop))
	handle("GET /v1/campaigns/{id}/state", protected(campaigns.State))

	handle("POST /v1/dnc", protected(comp.AddDNC))
	handle("POST /v1/dnc/scrub", protected(comp.Scrub))
	handle("GET /v1/dnc/{phone}", protected(comp.CheckDNC))
	handle("DELETE /v1/dnc/{phone}", protected(comp.RemoveDNC))

	handle("POST /v1/consents", protected(comp.RecordConsent))
	handle("GET /v1/consents/{phone}", protected(comp.CheckConsent))
	handle("DELETE /v1/consents/{phone}", protected(comp.RevokeConsent))

	handle("POST /v1/opt-outs", protected(comp.OptOut))

	return Chain(mux,
		RecoveryMiddleware(base),
		RequestIDMiddleware(),
		LoggingMiddleware(deps.Logger),
	), nil
}
