package analytics

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/rest"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/resilience"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

const (
	DefaultChunkSize   = 100
	defaultMetricsPath = "/v1/metrics"
	defaultHealthPath  = "/v1/health"
)

type Config struct {
	ChunkSize   int
	MetricsPath string
	HealthPath  string
}

// Client pushes metric records to the analytics platform.
type Client struct {
	transport *rest.Client
	cfg       Config

	log logger.Logger
}

func New(transport *rest.Client, cfg Config, log logger.Logger) *Client {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = defaultMetricsPath
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = defaultHealthPath
	}

	return &Client{
		transport: transport,
		cfg:       cfg,
		log:       log,
	}
}

// PushMetrics delivers records in chunks of ChunkSize. The first failed chunk
// stops delivery; the result then tells how much got through.
func (c *Client) PushMetrics(ctx context.Context, records []models.MetricRecord) (models.DeliveryResult, error) {
	const op = "clients.analytics.Client.PushMetrics"

	result := models.DeliveryResult{
		Requested: len(records),
		Chunks:    (len(records) + c.cfg.ChunkSize - 1) / c.cfg.ChunkSize,
	}

	for start := 0; start < len(records); start += c.cfg.ChunkSize {
		end := start + c.cfg.ChunkSize
		if end > len(records) {
			end = len(records)
		}

		if err := c.transport.Post(ctx, c.cfg.MetricsPath, records[start:end], nil); err != nil {
			c.log.ErrorContext(ctx, op,
				logger.Int("chunk_start", start),
				logger.Int("chunk_end", end),
				logger.Int("delivered", result.Delivered),
				logger.Err(err),
			)
			return result, fmt.Errorf("%s: records %d-%d: %w", op, start, end, err)
		}

		result.Delivered += end - start
		result.ChunksDelivered++
	}

	if result.Requested > 0 {
		c.log.DebugContext(ctx, op,
			logger.Int("delivered", result.Delivered),
			logger.Int("chunks", result.Chunks),
		)
	}

	return result, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.transport.Get(ctx, path, query, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.transport.Post(ctx, path, body, out)
}

func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.transport.Breaker()
}

// HealthCheck checks the platform through the breaker. It never returns an error.
func (c *Client) HealthCheck(ctx context.Context) models.HealthReport {
	report := c.transport.Ping(ctx, c.cfg.HealthPath)
	report.Name = "analytics"
	return report
}
