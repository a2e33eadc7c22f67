package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the dialer's domain instruments
type Registry struct {
	meter metric.Meter

	// Campaign run metrics
	RunsStarted       metric.Int64Counter
	RunsFinished      metric.Int64Counter
	RunDuration       metric.Float64Histogram
	ActiveRuns        metric.Int64ObservableGauge
	ContactsProcessed metric.Int64Counter

	// Compliance metrics
	ComplianceBlocks metric.Int64Counter

	// Voice provider metrics
	VoiceRequestDuration metric.Float64Histogram
	VoiceRequestCounter  metric.Int64Counter

	// State for observable metrics
	mu         sync.RWMutex
	activeRuns int64
}

// NewRegistry creates a registry on the global meter provider
func NewRegistry(meterName string) (*Registry, error) {
	return NewRegistryWithMeter(otel.Meter(meterName))
}

// NewRegistryWithMeter creates a registry on an explicit meter
func NewRegistryWithMeter(meter metric.Meter) (*Registry, error) {
	r := &Registry{meter: meter}

	if err := r.initCampaignMetrics(); err != nil {
		return nil, err
	}

	if err := r.initComplianceMetrics(); err != nil {
		return nil, err
	}

	if err := r.initVoiceMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) initCampaignMetrics() error {
	var err error

	r.RunsStarted, err = r.meter.Int64Counter(
		"dialer.campaign.runs_started_total",
		metric.WithDescription("Total number of campaign runs started"),
	)
	if err != nil {
		return err
	}

	r.RunsFinished, err = r.meter.Int64Counter(
		"dialer.campaign.runs_finished_total",
		metric.WithDescription("Total number of campaign runs finished, by halt reason"),
	)
	if err != nil {
		return err
	}

	r.RunDuration, err = r.meter.Float64Histogram(
		"dialer.campaign.run_duration",
		metric.WithDescription("Wall-clock duration of campaign runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 10, 60, 300, 900, 1800, 3600, 7200, 14400),
	)
	if err != nil {
		return err
	}

	r.ActiveRuns, err = r.meter.Int64ObservableGauge(
		"dialer.campaign.active_runs",
		metric.WithDescription("Number of campaign runs executing on this instance"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.activeRuns)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	r.ContactsProcessed, err = r.meter.Int64Counter(
		"dialer.campaign.contacts_processed_total",
		metric.WithDescription("Total number of contacts processed, by outcome"),
	)
	return err
}

func (r *Registry) initComplianceMetrics() error {
	var err error

	r.ComplianceBlocks, err = r.meter.Int64Counter(
		"dialer.compliance.blocks_total",
		metric.WithDescription("Total number of contacts skipped by a compliance check"),
	)
	return err
}

func (r *Registry) initVoiceMetrics() error {
	var err error

	r.VoiceRequestDuration, err = r.meter.Float64Histogram(
		"dialer.voice.request_duration",
		metric.WithDescription("Duration of voice provider requests in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	)
	if err != nil {
		return err
	}

	r.VoiceRequestCounter, err = r.meter.Int64Counter(
		"dialer.voice.request_total",
		metric.WithDescription("Total number of voice provider requests, by result"),
	)
	return err
}

// RunStarted records a campaign run starting
func (r *Registry) RunStarted(ctx context.Context) {
	r.mu.Lock()
	r.activeRuns++
	r.mu.Unlock()

	r.RunsStarted.Add(ctx, 1)
}

// RunFinished records a campaign run ending
func (r *Registry) RunFinished(ctx context.Context, haltReason string, d time.Duration) {
	r.mu.Lock()
	if r.activeRuns > 0 {
		r.activeRuns--
	}
	r.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("halt_reason", haltReason))
	r.RunsFinished.Add(ctx, 1, attrs)
	r.RunDuration.Record(ctx, d.Seconds(), attrs)
}

// ContactProcessed records one contact outcome. Skipped contacts also count
// as a compliance block under their category.
func (r *Registry) ContactProcessed(ctx context.Context, outcome, category string) {
	r.ContactsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("category", category),
	))

	if outcome == "skipped" {
		r.ComplianceBlocks.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check", category),
		))
	}
}

// RecordVoiceRequest records a voice provider round trip
func (r *Registry) RecordVoiceRequest(ctx context.Context, d time.Duration, result string) {
	attrs := metric.WithAttributes(attribute.String("result", result))
	r.VoiceRequestDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	r.VoiceRequestCounter.Add(ctx, 1, attrs)
}

// ActiveRunCount returns the current active run count
func (r *Registry) ActiveRunCount() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeRuns
}
