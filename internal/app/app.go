package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpapp "github.com/tumbleweedd/two_services_system/metrics_sync/internal/app/http"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/cache_impl"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/analytics"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/auth"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/rest"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/shiprocket"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/config"
	metrics_sync_http "github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/batchsync"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/status"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/webhook"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/failure_producer"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/resilience"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/signature"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/metrics"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/repository/syncrun"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/batch"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/pipeline"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/transformer"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/brokers/kafka/producer"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/databases/postgres"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

// Publisher is the Kafka side of the failure sink; it is closed on shutdown.
type Publisher interface {
	failure_producer.Sender
	Close() error
}

type App struct {
	log logger.Logger
	cfg *config.Config

	HTTPServer *httpapp.App
	Pipeline   *pipeline.Service
	Batch      *batch.Service
	Analytics  *analytics.Client
	Shiprocket *shiprocket.Client
	Collector  *metrics.Collector

	closers []func() error
}

// Options tune NewApp for the process that embeds it.
type Options struct {
	// Publisher overrides the Kafka producer built from config.
	Publisher Publisher
	// HTTPClient is shared by all outbound clients; nil uses per-client defaults.
	HTTPClient *http.Client
}

// NewApp wires every component from cfg. Postgres and Kafka are optional and
// only connected when configured.
func NewApp(ctx context.Context, log logger.Logger, cfg *config.Config, opts Options) (*App, error) {
	const op = "app.NewApp"

	a := &App{log: log, cfg: cfg}

	a.Collector = metrics.New(time.Now)

	retry := resilience.RetryOptions{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
	}

	a.Analytics = analytics.New(
		rest.New(
			rest.Config{Name: "analytics", BaseURL: cfg.Analytics.BaseURL, Timeout: cfg.Analytics.Timeout, Retry: retry},
			opts.HTTPClient,
			analyticsAuth(cfg.Analytics, opts.HTTPClient),
			a.newBreaker("analytics", cfg.Breaker),
			log,
		),
		analytics.Config{ChunkSize: cfg.Analytics.ChunkSize},
		log,
	)

	a.Shiprocket = shiprocket.New(
		rest.New(
			rest.Config{Name: "shiprocket", BaseURL: cfg.Shiprocket.BaseURL, Timeout: cfg.Shiprocket.Timeout, Retry: retry},
			opts.HTTPClient,
			auth.NewProviderLogin(
				opts.HTTPClient,
				cfg.Shiprocket.BaseURL+shiprocket.LoginPath,
				cfg.Shiprocket.Email,
				cfg.Shiprocket.Password,
			),
			a.newBreaker("shiprocket", cfg.Breaker),
			log,
		),
		cfg.Shiprocket.PerPage,
		log,
	)

	deps := pipeline.Deps{
		Verifier:    signature.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.SkipVerification),
		Transformer: transformer.New(time.Now),
		Pusher:      a.Analytics,
		Dedupe:      cache_impl.NewLRU(cfg.Webhook.DedupeSize, cfg.Webhook.DedupeTTL, log),
		Recorder:    a.Collector,
	}
	if cfg.Webhook.SkipVerification {
		log.Warn("webhook signature verification is disabled")
	}

	publisher, err := a.setupPublisher(cfg.Kafka, opts.Publisher)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if publisher != nil {
		deps.Failures = failure_producer.New(publisher, cfg.Kafka.FailedEventsTopic, log)
	}

	a.Pipeline = pipeline.New(log, deps)

	runs, err := a.setupRunRecorder(ctx, cfg.Postgres)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.Batch = batch.New(log, a.Shiprocket, a.Pipeline, runs)

	handler := metrics_sync_http.NewHandler(
		log,
		webhook.NewHandler(log, a.Pipeline),
		batchsync.NewHandler(log, a.Batch),
		status.NewHandler(
			log,
			a.Collector,
			[]status.HealthChecker{a.Analytics, a.Shiprocket},
			[]status.BreakerSource{a.Analytics.Breaker(), a.Shiprocket.Breaker()},
		),
		a.Collector.Handler(),
	)

	a.HTTPServer = httpapp.NewApp(log, handler.InitRoutes(), cfg.HTTP)

	return a, nil
}

func (a *App) newBreaker(name string, cfg config.BreakerConfig) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.BreakerOptions{
		Name:             name,
		FailureThreshold: cfg.FailureThreshold,
		ResetTimeout:     cfg.ResetTimeout,
		OnStateChange: func(name string, from, to models.BreakerStateValue) {
			a.Collector.BreakerStateChanged(name, from, to)
			a.log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", string(from)),
				logger.String("to", string(to)),
			)
		},
	})
}

func analyticsAuth(cfg config.AnalyticsConfig, httpClient *http.Client) auth.Authenticator {
	if cfg.OAuth.Enabled() {
		return auth.NewClientCredentials(
			httpClient,
			cfg.OAuth.TokenURL,
			cfg.OAuth.ClientID,
			cfg.OAuth.ClientSecret,
			cfg.OAuth.Scope,
		)
	}
	if cfg.APIKey != "" {
		return auth.NewAPIKey(cfg.APIKeyHeader, cfg.APIKey)
	}

	return auth.None{}
}

func (a *App) setupPublisher(cfg config.KafkaConfig, override Publisher) (Publisher, error) {
	if override != nil {
		a.closers = append(a.closers, override.Close)
		return override, nil
	}
	if !cfg.Enabled() {
		a.log.Info("kafka is not configured, failed batches will only be logged")
		return nil, nil
	}

	asyncProducer, err := producer.NewAsyncProducer(a.log, cfg.BrokerList)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, asyncProducer.Close)

	return asyncProducer, nil
}

func (a *App) setupRunRecorder(ctx context.Context, cfg config.PostgresConfig) (batch.RunRecorder, error) {
	if !cfg.Enabled() {
		a.log.Info("postgres is not configured, sync runs are kept in memory")
		return nil, nil
	}

	db, err := postgres.NewPostgresDB(ctx, a.log, postgres.Options{
		Host:     cfg.Host,
		Port:     cfg.Port,
		DBName:   cfg.DbName,
		User:     cfg.User,
		Password: cfg.Pwd,
		SSLMode:  cfg.SslMode,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	return syncrun.NewRepository(a.log, db.GetDB()), nil
}

// RunScheduler blocks running catch-up syncs until ctx is done. It returns at
// once when the scheduler is disabled.
func (a *App) RunScheduler(ctx context.Context) {
	a.Batch.Schedule(ctx, a.cfg.Sync.Interval, a.cfg.Sync.Lookback)
}

// Stop shuts the HTTP server down and releases Kafka and Postgres.
func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	if err := a.close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// close releases resources in reverse order of acquisition.
func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
