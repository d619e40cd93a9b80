package producer

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

// SyncProducer waits for the broker to acknowledge each message. Used by
// short-lived processes that exit right after publishing.
type SyncProducer struct {
	producer sarama.SyncProducer
}

func NewSyncProducer(brokerAddress []string) (*SyncProducer, error) {
	const op = "brokers.kafka.producer.NewSyncProducer"

	cfg := NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokerAddress, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewSync(producer), nil
}

func NewSync(producer sarama.SyncProducer) *SyncProducer {
	return &SyncProducer{producer: producer}
}

func (p *SyncProducer) Send(_ context.Context, topic, key string, value []byte) error {
	const op = "brokers.kafka.producer.SyncProducer.Send"

	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *SyncProducer) Close() error {
	return p.producer.Close()
}
