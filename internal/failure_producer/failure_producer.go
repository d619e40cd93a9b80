package failure_producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

//go:generate mockgen -destination=mocks/mock.go -package=mocks . Sender

type Sender interface {
	Send(ctx context.Context, topic, key string, value []byte) error
}

// FailureProducer publishes undelivered metric batches to a Kafka topic so
// they can be replayed later.
type FailureProducer struct {
	sender Sender
	topic  string
	log    logger.Logger
}

func New(sender Sender, topic string, log logger.Logger) *FailureProducer {
	return &FailureProducer{
		sender: sender,
		topic:  topic,
		log:    log,
	}
}

func (fp *FailureProducer) PublishFailure(ctx context.Context, batch models.FailedBatch) error {
	const op = "failure_producer.FailureProducer.PublishFailure"

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = fp.sender.Send(ctx, fp.topic, batch.ID.String(), payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	fp.log.InfoContext(ctx, "failed batch published",
		logger.String("topic", fp.topic),
		logger.String("batch_id", batch.ID.String()),
		logger.Int("metrics", len(batch.Metrics)),
	)

	return nil
}
