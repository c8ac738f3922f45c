package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bibbank/loan-origination/internal/application/usecase"
	"github.com/bibbank/loan-origination/internal/domain/service"
	"github.com/bibbank/loan-origination/internal/infrastructure/clock"
	"github.com/bibbank/loan-origination/internal/infrastructure/config"
	"github.com/bibbank/loan-origination/internal/infrastructure/idgen"
	"github.com/bibbank/loan-origination/internal/infrastructure/messaging"
	"github.com/bibbank/loan-origination/internal/infrastructure/scheduler"
	"github.com/bibbank/loan-origination/internal/presentation/rest"
	"github.com/bibbank/loan-origination/pkg/auth"
	pkgkafka "github.com/bibbank/loan-origination/pkg/kafka"
	"github.com/bibbank/loan-origination/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("loan-origination exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()
	cfg.Validate()

	logger := observability.InitLogger(cfg.Log)
	logger.Info("starting loan-origination",
		"http_port", cfg.HTTPPort,
		"storage", cfg.Storage.Driver,
		"kafka_enabled", cfg.Kafka.Enabled,
		"timezone", cfg.TimeZone,
	)

	// Tracing and metrics.
	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort
	}
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck // best-effort

	// Storage.
	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	// Domain services.
	policy := service.DefaultPolicy()
	policy.L1Threshold = cfg.Workflow.L1Threshold
	policy.L2Threshold = cfg.Workflow.L2Threshold
	workflow, err := service.NewWorkflow(policy)
	if err != nil {
		return fmt.Errorf("workflow policy: %w", err)
	}
	ledgerPolicy := service.DefaultLedgerPolicy()
	ledgerPolicy.DailyLateFee = cfg.Workflow.DailyLateFee

	clk := clock.NewSystemClock(cfg.Location())
	numbers := idgen.NewRandomNumbers()

	// Use cases.
	markOverdue := usecase.NewMarkOverdueUseCase(store.schedules, clk, cfg.Scheduler.OverdueBatchSize, logger)
	registerActor := usecase.NewRegisterActorUseCase(store.actors, clk, logger)
	if cfg.Auth.BootstrapAdminEmail != "" {
		if _, err := registerActor.Bootstrap(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminName); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	api := rest.NewOriginationHandler(rest.UseCases{
		Submit:        usecase.NewSubmitApplicationUseCase(store.apps, numbers, service.NewEligibilityScorer(), clk, logger),
		Decide:        usecase.NewProcessStageDecisionUseCase(store.apps, store.actors, workflow, clk, logger),
		Cancel:        usecase.NewCancelApplicationUseCase(store.apps, store.schedules, store.actors, workflow, clk, logger),
		IssueOffer:    usecase.NewGenerateOfferScheduleUseCase(store.apps, store.schedules, store.actors, workflow, service.NewAmortizationEngine(), service.DefaultOfferPolicy(), numbers, clk, logger),
		ApplyPayment:  usecase.NewApplyPaymentUseCase(store.schedules, ledgerPolicy, clk, logger),
		MarkOverdue:   markOverdue,
		Get:           usecase.NewGetApplicationUseCase(store.apps),
		List:          usecase.NewListApplicationsByStatusUseCase(store.apps),
		History:       usecase.NewGetHistoryUseCase(store.apps),
		Schedule:      usecase.NewGetScheduleUseCase(store.schedules),
		Ledger:        usecase.NewLedgerSummaryUseCase(store.schedules, clk),
		RegisterActor: registerActor,
	}, logger)

	// Event relay and overdue commands.
	var publisher messaging.EntryPublisher = messaging.NewLogPublisher(logger)
	var consumer *pkgkafka.Consumer
	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(cfg.Kafka.Client)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }() //nolint:errcheck // best-effort
		publisher = messaging.NewPublisher(producer, cfg.Kafka.EventsTopic)

		consumer, err = pkgkafka.NewConsumer(cfg.Kafka.Client, cfg.Kafka.CommandsTopic,
			messaging.NewOverdueCommandHandler(markOverdue, logger), logger)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer func() { _ = consumer.Close() }() //nolint:errcheck // best-effort
	}
	relay := messaging.NewOutboxRelay(store.outbox, publisher, clk,
		cfg.Scheduler.OutboxPollInterval, cfg.Scheduler.OutboxBatchSize, logger)
	sweeper := scheduler.NewOverdueSweeper(markOverdue, cfg.Scheduler.OverdueSweepInterval, logger)

	// Staff identity.
	verifier, err := newVerifier(cfg.Auth, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	health := rest.NewHealthHandler(cfg.ServiceName, map[string]rest.ReadinessCheck{"database": store.ready}, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           rest.NewRouter(api, health, metricsHandler, verifier, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start workers and servers.
	workCtx, stopWork := context.WithCancel(ctx)
	defer stopWork()
	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() { defer wg.Done(); relay.Run(workCtx) }()
	go func() { defer wg.Done(); sweeper.Run(workCtx) }()
	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(workCtx); err != nil {
				errCh <- fmt.Errorf("command consumer: %w", err)
			}
		}()
	}

	go func() {
		logger.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown: stop taking requests, then stop workers.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	stopWork()
	wg.Wait()

	// One last pass so events written by in-flight requests are not left behind.
	if n, err := relay.Drain(shutdownCtx); err != nil {
		logger.Warn("final outbox drain failed", "error", err)
	} else if n > 0 {
		logger.Info("final outbox drain", "published", n)
	}

	logger.Info("loan-origination stopped")
	return runErr
}

// newVerifier returns nil when no key is configured, leaving identity to the
// X-Actor-Email header.
func newVerifier(cfg config.AuthConfig, logger *slog.Logger) (rest.TokenVerifier, error) {
	if !cfg.Enabled() {
		logger.Warn("no JWT key configured, trusting the X-Actor-Email header")
		return nil, nil
	}
	var publicKey string
	if cfg.JWTPublicKeyFile != "" {
		pem, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		publicKey = string(pem)
	}
	svc, err := auth.NewJWTService(cfg.JWT(publicKey))
	if err != nil {
		return nil, fmt.Errorf("jwt service: %w", err)
	}
	return svc, nil
}
