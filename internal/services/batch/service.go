// Package batch pulls orders and shipments from the provider for a time window
// and pushes their metrics through the pipeline.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

const (
	source          = "batch"
	maxSyncWindow   = 31 * 24 * time.Hour
	maxListRunLimit = 100
)

//go:generate mockgen -destination=mocks/mock.go -package=mocks . Source,Processor,RunRecorder

// Source lists provider records in a time window.
type Source interface {
	ListOrders(ctx context.Context, from, to time.Time) ([]map[string]any, error)
	ListShipments(ctx context.Context, from, to time.Time) ([]map[string]any, error)
}

type Processor interface {
	ProcessBatch(ctx context.Context, events []models.RawEvent) models.BatchOutcome
}

// RunRecorder keeps the ledger of sync runs.
type RunRecorder interface {
	Start(ctx context.Context, run models.SyncRun) error
	Finish(ctx context.Context, run models.SyncRun) error
	List(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type SyncRequest struct {
	From time.Time
	To   time.Time
	Type models.SyncType
}

type Service struct {
	log logger.Logger

	source    Source
	processor Processor
	runs      RunRecorder

	now func() time.Time
}

func New(log logger.Logger, source Source, processor Processor, runs RunRecorder) *Service {
	if runs == nil {
		runs = NewMemoryRecorder(maxListRunLimit)
	}
	return &Service{
		log:       log,
		source:    source,
		processor: processor,
		runs:      runs,
		now:       time.Now,
	}
}

func (r SyncRequest) validate() error {
	switch r.Type {
	case models.SyncOrders, models.SyncShipments, models.SyncAll:
	default:
		return fmt.Errorf("%w: %q", internalErrors.ErrUnknownSyncType, r.Type)
	}

	if r.From.IsZero() || r.To.IsZero() || !r.From.Before(r.To) {
		return fmt.Errorf("%w: from must be before to", internalErrors.ErrInvalidRange)
	}
	if r.To.Sub(r.From) > maxSyncWindow {
		return fmt.Errorf("%w: window longer than %s", internalErrors.ErrInvalidRange, maxSyncWindow)
	}

	return nil
}

// Run executes one sync for req and records it in the ledger. The returned run
// is filled in even when err is not nil.
func (s *Service) Run(ctx context.Context, req SyncRequest) (models.SyncRun, error) {
	const op = "services.batch.Service.Run"

	if err := req.validate(); err != nil {
		return models.SyncRun{}, fmt.Errorf("%s: %w", op, err)
	}

	run := models.SyncRun{
		ID:        uuid.New(),
		Type:      req.Type,
		From:      req.From,
		To:        req.To,
		Status:    models.SyncRunRunning,
		StartedAt: s.now(),
	}

	if err := s.runs.Start(ctx, run); err != nil {
		s.log.WarnContext(ctx, op, logger.String("run_id", run.ID.String()), logger.Err(err))
	}

	err := s.execute(ctx, req, &run)

	finished := s.now()
	run.FinishedAt = &finished
	run.Status = models.SyncRunSucceeded
	if err != nil {
		run.Status = models.SyncRunFailed
		run.Error = err.Error()
	}

	// the ledger write must survive a cancelled request
	if ledgerErr := s.runs.Finish(context.WithoutCancel(ctx), run); ledgerErr != nil {
		s.log.WarnContext(ctx, op, logger.String("run_id", run.ID.String()), logger.Err(ledgerErr))
	}

	s.log.InfoContext(ctx, op,
		logger.String("run_id", run.ID.String()),
		logger.String("type", string(run.Type)),
		logger.String("status", string(run.Status)),
		logger.Int("events", run.Events),
		logger.Int("metrics", run.Metrics),
		logger.Duration("took", finished.Sub(run.StartedAt)),
	)

	if err != nil {
		return run, fmt.Errorf("%s: %w", op, err)
	}
	return run, nil
}

func (s *Service) execute(ctx context.Context, req SyncRequest, run *models.SyncRun) error {
	var orders, shipments []map[string]any

	g, gctx := errgroup.WithContext(ctx)

	if req.Type == models.SyncOrders || req.Type == models.SyncAll {
		g.Go(func() error {
			var err error
			orders, err = s.source.ListOrders(gctx, req.From, req.To)
			return err
		})
	}
	if req.Type == models.SyncShipments || req.Type == models.SyncAll {
		g.Go(func() error {
			var err error
			shipments, err = s.source.ListShipments(gctx, req.From, req.To)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	events := make([]models.RawEvent, 0, len(orders)+len(shipments))
	for _, order := range orders {
		events = append(events, models.RawEvent{EventType: orderEventType(order), Data: order, Source: source})
	}
	for _, shipment := range shipments {
		events = append(events, models.RawEvent{EventType: shipmentEventType(shipment), Data: shipment, Source: source})
	}

	if len(events) == 0 {
		return nil
	}

	outcome := s.processor.ProcessBatch(ctx, events)
	run.Events = outcome.Events
	run.Metrics = outcome.Delivery.Delivered

	return outcome.Err
}

// Runs returns the most recent sync runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]models.SyncRun, error) {
	const op = "services.batch.Service.Runs"

	if limit <= 0 || limit > maxListRunLimit {
		limit = maxListRunLimit
	}

	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return runs, nil
}

// Schedule runs an "all" sync over the trailing lookback window every interval
// until ctx is done. Runs never overlap.
func (s *Service) Schedule(ctx context.Context, interval, lookback time.Duration) {
	const op = "services.batch.Service.Schedule"

	if interval <= 0 {
		return
	}
	if lookback <= 0 {
		lookback = interval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, op, logger.Duration("interval", interval), logger.Duration("lookback", lookback))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			to := s.now()
			if _, err := s.Run(ctx, SyncRequest{From: to.Add(-lookback), To: to, Type: models.SyncAll}); err != nil {
				s.log.ErrorContext(ctx, op, logger.Err(err))
			}
		}
	}
}

var orderStatusEvents = map[string]string{
	"canceled":  "order_cancelled",
	"cancelled": "order_cancelled",
}

func orderEventType(order map[string]any) string {
	status := strings.ToLower(models.TextField(order, "status"))
	if eventType, ok := orderStatusEvents[status]; ok {
		return eventType
	}
	return "order_created"
}

var shipmentStatusEvents = []struct {
	prefix    string
	eventType string
}{
	{prefix: "rto", eventType: "rto"},
	{prefix: "delivered", eventType: "order_delivered"},
	{prefix: "out for delivery", eventType: "out_for_delivery"},
	{prefix: "in transit", eventType: "in_transit"},
	{prefix: "picked up", eventType: "shipment_pickup"},
	{prefix: "undelivered", eventType: "failed_delivery"},
	{prefix: "canceled", eventType: "order_cancelled"},
	{prefix: "cancelled", eventType: "order_cancelled"},
}

func shipmentEventType(shipment map[string]any) string {
	status := strings.ToLower(models.TextField(shipment, "status", "current_status", "shipment_status"))
	status = strings.ReplaceAll(status, "_", " ")

	for _, candidate := range shipmentStatusEvents {
		if strings.HasPrefix(status, candidate.prefix) {
			return candidate.eventType
		}
	}
	return "order_shipped"
}
