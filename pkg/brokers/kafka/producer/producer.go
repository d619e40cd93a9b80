package producer

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

// Producer publishes messages through a sarama.AsyncProducer. Delivery errors
// are reported asynchronously and only logged.
type Producer struct {
	log logger.Logger

	producer sarama.AsyncProducer
	done     chan struct{}
}

func NewConfig() *sarama.Config {
	producerConfig := sarama.NewConfig()
	producerConfig.Producer.RequiredAcks = sarama.WaitForLocal
	producerConfig.Producer.Compression = sarama.CompressionSnappy
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.Return.Errors = true

	return producerConfig
}

func NewAsyncProducer(log logger.Logger, brokerAddress []string) (*Producer, error) {
	const op = "brokers.kafka.producer.NewAsyncProducer"

	producer, err := sarama.NewAsyncProducer(brokerAddress, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return New(log, producer), nil
}

// New wraps an existing producer, which must return both successes and errors.
func New(log logger.Logger, producer sarama.AsyncProducer) *Producer {
	p := &Producer{
		log:      log,
		producer: producer,
		done:     make(chan struct{}),
	}

	go p.drain()

	return p
}

func (p *Producer) drain() {
	defer close(p.done)

	errorsCh := p.producer.Errors()
	successesCh := p.producer.Successes()

	for errorsCh != nil || successesCh != nil {
		select {
		case sendErr, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			p.log.Warn("failed to send message",
				logger.String("topic", sendErr.Msg.Topic),
				logger.Err(sendErr.Err),
			)
		case success, ok := <-successesCh:
			if !ok {
				successesCh = nil
				continue
			}
			p.log.Debug("successfully sent message",
				logger.String("topic", success.Topic),
				logger.Int("partition", int(success.Partition)),
			)
		}
	}
}

// Send enqueues value for topic. It blocks only while the producer input is full.
func (p *Producer) Send(ctx context.Context, topic, key string, value []byte) error {
	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes buffered messages and waits for the report loop to finish.
func (p *Producer) Close() error {
	p.producer.AsyncClose()
	<-p.done
	return nil
}
