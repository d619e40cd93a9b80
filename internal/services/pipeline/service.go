// Package pipeline runs provider events through verification, classification,
// transformation and delivery.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/classifier"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

const batchSource = "batch"

//go:generate mockgen -destination=mocks/mock.go -package=mocks . MetricsPusher,FailureSink,OutcomeRecorder

type MetricsPusher interface {
	PushMetrics(ctx context.Context, records []models.MetricRecord) (models.DeliveryResult, error)
}

// FailureSink keeps metrics that could not be delivered.
type FailureSink interface {
	PublishFailure(ctx context.Context, batch models.FailedBatch) error
}

type OutcomeRecorder interface {
	RecordOutcome(outcome models.ProcessingOutcome)
	RecordBatch(outcome models.BatchOutcome)
}

type signatureVerifier interface {
	Verify(body []byte, header string) bool
}

type metricTransformer interface {
	Transform(ev models.Event, payment models.PaymentStatus) []models.MetricRecord
}

// webhookDeduper tracks delivered webhook ids. Ids are marked only after
// delivery, so concurrent redeliveries of an in-flight event are processed twice.
type webhookDeduper interface {
	Seen(id string) bool
	Mark(id string)
}

// Deps are the collaborators of Service. Dedupe, Failures and Recorder are optional.
type Deps struct {
	Verifier    signatureVerifier
	Transformer metricTransformer
	Pusher      MetricsPusher
	Dedupe      webhookDeduper
	Failures    FailureSink
	Recorder    OutcomeRecorder
	Now         func() time.Time
}

type Service struct {
	log logger.Logger

	verifier    signatureVerifier
	transformer metricTransformer
	pusher      MetricsPusher
	dedupe      webhookDeduper
	failures    FailureSink
	recorder    OutcomeRecorder

	validate *validator.Validate
	now      func() time.Time
}

func New(log logger.Logger, deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}

	return &Service{
		log:         log,
		verifier:    deps.Verifier,
		transformer: deps.Transformer,
		pusher:      deps.Pusher,
		dedupe:      deps.Dedupe,
		failures:    deps.Failures,
		recorder:    deps.Recorder,
		validate:    validator.New(),
		now:         deps.Now,
	}
}

// Ingest handles one webhook delivery. Unless the delivery is rejected the
// returned AckResult is success-shaped; the real outcome rides along in it.
func (s *Service) Ingest(ctx context.Context, provider string, body []byte, signature string) models.AckResult {
	const op = "services.pipeline.Service.Ingest"

	started := s.now()
	outcome := s.ingest(ctx, provider, body, signature)
	outcome.Duration = s.now().Sub(started)

	s.recorder.RecordOutcome(outcome)
	s.logOutcome(ctx, op, provider, outcome)

	return models.AckResult{
		Success:          outcome.Stage != models.StageRejected,
		MetricsGenerated: outcome.MetricsGenerated,
		ProcessingTime:   fmt.Sprintf("%dms", outcome.Duration.Milliseconds()),
		Outcome:          outcome,
	}
}

func (s *Service) ingest(ctx context.Context, provider string, body []byte, signature string) models.ProcessingOutcome {
	outcome := models.ProcessingOutcome{Stage: models.StageReceived}

	if !s.verifier.Verify(body, signature) {
		outcome.Stage = models.StageRejected
		outcome.Err = internalErrors.ErrInvalidSign
		return outcome
	}
	outcome.Stage = models.StageVerified

	var raw models.RawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		outcome.Stage = models.StageRejected
		outcome.Err = internalErrors.Validation("malformed payload: %v", err)
		return outcome
	}
	raw.Source = provider
	outcome.EventType = raw.EventType

	if err := s.validateEvent(raw); err != nil {
		outcome.Stage = models.StageRejected
		outcome.Err = err
		return outcome
	}

	if s.dedupe != nil && s.dedupe.Seen(raw.WebhookID) {
		outcome.Stage = models.StageDuplicate
		return outcome
	}

	outcome = s.process(ctx, raw)
	if outcome.Stage == models.StageDelivered && s.dedupe != nil {
		s.dedupe.Mark(raw.WebhookID)
	}

	return outcome
}

// Process runs an already trusted event through the pipeline.
func (s *Service) Process(ctx context.Context, raw models.RawEvent) models.ProcessingOutcome {
	const op = "services.pipeline.Service.Process"

	started := s.now()

	outcome := models.ProcessingOutcome{Stage: models.StageVerified, EventType: raw.EventType}
	if err := s.validateEvent(raw); err != nil {
		outcome.Stage = models.StageRejected
		outcome.Err = err
	} else {
		outcome = s.process(ctx, raw)
	}
	outcome.Duration = s.now().Sub(started)

	s.recorder.RecordOutcome(outcome)
	s.logOutcome(ctx, op, raw.Source, outcome)

	return outcome
}

func (s *Service) process(ctx context.Context, raw models.RawEvent) models.ProcessingOutcome {
	outcome := models.ProcessingOutcome{Stage: models.StageVerified, EventType: raw.EventType}

	outcome.Payment = classifier.DeterminePaymentStatus(raw.Data)
	event := models.ParseEvent(raw)
	outcome.Stage = models.StageClassified

	records := s.transformer.Transform(event, outcome.Payment)
	outcome.MetricsGenerated = len(records)
	outcome.Stage = models.StageTransformed

	if len(records) == 0 {
		outcome.Stage = models.StageDelivered
		return outcome
	}

	delivery, err := s.pusher.PushMetrics(ctx, records)
	outcome.Delivery = delivery
	if err != nil {
		outcome.Stage = models.StageFailed
		outcome.Err = err
		s.publishFailure(ctx, raw.Source, raw.EventType, event.Header().OrderID, undelivered(records, delivery), err)
		return outcome
	}

	outcome.Stage = models.StageDelivered
	return outcome
}

// ProcessBatch transforms events and delivers all their metrics in one chunked push.
// Invalid events are skipped.
func (s *Service) ProcessBatch(ctx context.Context, events []models.RawEvent) models.BatchOutcome {
	const op = "services.pipeline.Service.ProcessBatch"

	var outcome models.BatchOutcome
	var records []models.MetricRecord

	for _, raw := range events {
		if err := s.validateEvent(raw); err != nil {
			outcome.Skipped++
			s.log.DebugContext(ctx, op, logger.String("event_type", raw.EventType), logger.Err(err))
			continue
		}
		outcome.Events++

		payment := classifier.DeterminePaymentStatus(raw.Data)
		records = append(records, s.transformer.Transform(models.ParseEvent(raw), payment)...)
	}
	outcome.Metrics = len(records)

	if len(records) > 0 {
		delivery, err := s.pusher.PushMetrics(ctx, records)
		outcome.Delivery = delivery
		if err != nil {
			outcome.Err = fmt.Errorf("%s: %w", op, err)
			s.publishFailure(ctx, batchSource, batchSource, "", undelivered(records, delivery), err)
		}
	}

	s.recorder.RecordBatch(outcome)

	s.log.InfoContext(ctx, op,
		logger.Int("events", outcome.Events),
		logger.Int("skipped", outcome.Skipped),
		logger.Int("metrics", outcome.Metrics),
		logger.Int("delivered", outcome.Delivery.Delivered),
		logger.Err(outcome.Err),
	)

	return outcome
}

func (s *Service) validateEvent(raw models.RawEvent) error {
	if err := s.validate.Struct(raw); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return internalErrors.Validation("field %s is %s", validationErrs[0].Field(), validationErrs[0].Tag())
		}
		return internalErrors.Validation("%v", err)
	}
	return nil
}

func (s *Service) publishFailure(
	ctx context.Context,
	source, eventType, orderID string,
	undelivered []models.MetricRecord,
	cause error,
) {
	const op = "services.pipeline.Service.publishFailure"

	if s.failures == nil || len(undelivered) == 0 {
		return
	}

	batch := models.FailedBatch{
		ID:        uuid.New(),
		Source:    source,
		EventType: eventType,
		OrderID:   orderID,
		Error:     cause.Error(),
		ErrorKind: internalErrors.Kind(cause),
		Metrics:   undelivered,
		FailedAt:  s.now(),
	}

	if err := s.failures.PublishFailure(ctx, batch); err != nil {
		s.log.ErrorContext(ctx, op,
			logger.String("batch_id", batch.ID.String()),
			logger.Int("metrics", len(undelivered)),
			logger.Err(err),
		)
	}
}

func (s *Service) logOutcome(ctx context.Context, op, source string, outcome models.ProcessingOutcome) {
	fields := []any{
		logger.String("source", source),
		logger.String("event_type", outcome.EventType),
		logger.String("stage", string(outcome.Stage)),
		logger.Int("metrics", outcome.MetricsGenerated),
		logger.Duration("duration", outcome.Duration),
	}

	switch outcome.Stage {
	case models.StageFailed:
		s.log.ErrorContext(ctx, op, append(fields, logger.String("kind", internalErrors.Kind(outcome.Err)), logger.Err(outcome.Err))...)
	case models.StageRejected:
		s.log.WarnContext(ctx, op, append(fields, logger.Err(outcome.Err))...)
	default:
		s.log.InfoContext(ctx, op, fields...)
	}
}

func undelivered(records []models.MetricRecord, delivery models.DeliveryResult) []models.MetricRecord {
	switch {
	case delivery.Delivered <= 0:
		return records
	case delivery.Delivered >= len(records):
		return nil
	}
	return records[delivery.Delivered:]
}

type noopRecorder struct{}

func (noopRecorder) RecordOutcome(models.ProcessingOutcome) {}
func (noopRecorder) RecordBatch(models.BatchOutcome)        {}
