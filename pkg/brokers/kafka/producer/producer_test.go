package producer

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

func TestAsyncSend(t *testing.T) {
	mockProducer := mocks.NewAsyncProducer(t, NewConfig())
	mockProducer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "k1" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})
	mockProducer.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	p := New(logger.NewDiscard(), mockProducer)

	require.NoError(t, p.Send(context.Background(), "failed-metrics", "k1", []byte(`{}`)))
	require.NoError(t, p.Send(context.Background(), "failed-metrics", "k2", []byte(`{}`)))
	require.NoError(t, p.Close())
}

func TestSyncSend(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, NewConfig())
	mockProducer.ExpectSendMessageAndSucceed()
	mockProducer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := NewSync(mockProducer)

	require.NoError(t, p.Send(context.Background(), "failed-metrics", "k", []byte("v")))
	require.ErrorIs(t, p.Send(context.Background(), "failed-metrics", "k", []byte("v")), sarama.ErrNotLeaderForPartition)
	require.NoError(t, p.Close())
}
