package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/api/rest"
	"github.com/davidleathers/campaign-dialer/internal/domain/audit"
	"github.com/davidleathers/campaign-dialer/internal/domain/geo"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
	"github.com/davidleathers/campaign-dialer/internal/infrastructure/cache"
	"github.com/davidleathers/campaign-dialer/internal/infrastructure/config"
	"github.com/davidleathers/campaign-dialer/internal/infrastructure/database"
	"github.com/davidleathers/campaign-dialer/internal/infrastructure/telemetry"
	"github.com/davidleathers/campaign-dialer/internal/infrastructure/voice"
	"github.com/davidleathers/campaign-dialer/internal/metrics"
	"github.com/davidleathers/campaign-dialer/internal/service/campaign"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
	"github.com/davidleathers/campaign-dialer/internal/service/dialer"
	"github.com/davidleathers/campaign-dialer/internal/service/usage"
)

const serviceName = "campaign-dialer"

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control API and campaign executor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if migrateFirst {
				if err := withMigrator(cmd, func(m *database.Migrator) error { return m.Up() }); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, logger *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required to serve the API")
	}

	tel := telemetry.DefaultConfig()
	tel.ServiceName = serviceName
	tel.ServiceVersion = version
	tel.Environment = cfg.Environment
	tel.Enabled = cfg.Telemetry.Enabled
	tel.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tel.SamplingRate = cfg.Telemetry.SamplingRate

	provider, err := telemetry.InitializeOpenTelemetry(ctx, tel)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(sctx); err != nil {
			logger.Warn("Failed to shut down telemetry", zap.Error(err))
		}
	}()

	domainMetrics, err := metrics.NewRegistry(serviceName)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	windows, err := cfg.Compliance.Windows()
	if err != nil {
		return err
	}

	clock := values.RealClock{}
	checkers := []rest.HealthChecker{rest.NewPingChecker("postgres", pool.Ping)}

	campaigns := database.NewCampaignRepository(pool)
	contacts := database.NewContactRepository(pool)
	calls := database.NewCallRepository(pool)

	// redis backs the shared pieces; without it the instance runs standalone
	var (
		leases      campaign.LeaseStore = campaign.NewMemoryLeaseStore(clock)
		bus         campaign.ControlBus
		dncCache    compliance.DNCCache
		rateLimiter cache.RateLimiter
	)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		leases = cache.NewLeaseStore(rdb, logger)
		bus = cache.NewControlBus(rdb, logger)
		dncCache = cache.NewDNCCache(rdb, cfg.Redis.DNCTTL, logger)
		rateLimiter = cache.NewRedisRateLimiter(rdb, logger)
		checkers = append(checkers, rest.NewPingChecker("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	} else {
		logger.Warn("Redis not configured, leases and control signals are local to this instance")
	}

	publisher := audit.NewPublisher(logger.Named("audit"), database.NewAuditRepository(pool), audit.PublisherConfig{
		QueueSize:    cfg.Audit.QueueSize,
		BatchSize:    cfg.Audit.BatchSize,
		BatchTimeout: cfg.Audit.BatchTimeout,
	})
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to flush audit events", zap.Error(err))
		}
	}()

	gate := compliance.NewGate(
		database.NewDNCRepository(pool),
		database.NewConsentRepository(pool),
		contacts,
		dncCache,
		publisher,
		compliance.NewHoursPolicy(clock, windows),
		clock,
		logger.Named("compliance"),
	)

	plans := usage.NewStaticPlanLookup(database.NewOrganizationRepository(pool), cfg.Plans.Minutes, cfg.Plans.DefaultPlan, logger)
	limiter := usage.NewLimiter(calls, plans, clock, logger.Named("usage"))

	voiceClient, err := voice.NewClient(cfg.Voice, logger.Named("voice"), voice.WithObserver(domainMetrics))
	if err != nil {
		return err
	}
	dispatcher := dialer.NewDispatcher(contacts, calls, voiceClient, clock, logger.Named("dialer"))

	executor, err := campaign.NewExecutor(campaign.Dependencies{
		Campaigns:  campaigns,
		Contacts:   contacts,
		Agents:     database.NewAgentRepository(pool),
		Calls:      calls,
		Compliance: gate,
		Usage:      limiter,
		Dispatcher: dispatcher,
		Geo:        geo.NewResolver(),
		Leases:     leases,
		Bus:        bus,
		Metrics:    domainMetrics,
		Tracer:     otel.Tracer(serviceName + "/executor"),
		Clock:      clock,
		Logger:     logger.Named("executor"),
	}, campaign.Config{
		CallInterval: cfg.Executor.CallInterval,
		LeaseTTL:     cfg.Executor.LeaseTTL,
		InstanceID:   cfg.Executor.InstanceID,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := executor.Listen(ctx); err != nil {
			logger.Error("Control signal listener stopped", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := rest.NewRouter(rest.Dependencies{
		Executor:       executor,
		Campaigns:      campaigns,
		Compliance:     gate,
		HealthCheckers: checkers,
		RateLimiter:    rateLimiter,
		RateLimit:      cfg.Server.RateLimitPerMinute,
		Registry:       registry,
		JWTSecret:      cfg.Security.JWTSecret,
		Logger:         logger.Named("api"),
		RunContext:     ctx,
	})
	if err != nil {
		return err
	}

	server := rest.NewServer(cfg.Server, handler, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			stop()
			executor.Wait()
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Strings("running_campaigns", uuidStrings(executor.Running())))

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	shutdownErr := server.Shutdown(sctx)

	// runs observe ctx cancellation, persist their state and release leases
	stop()
	executor.Wait()

	if shutdownErr != nil && !errors.Is(shutdownErr, context.DeadlineExceeded) {
		return shutdownErr
	}
	logger.Info("Shutdown complete")
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
