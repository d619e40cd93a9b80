package failure_producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/failure_producer/mocks"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

func TestPublishFailure(t *testing.T) {
	batch := models.FailedBatch{
		ID:        uuid.New(),
		Source:    "webhook",
		EventType: "order_created",
		OrderID:   "SR-1",
		Error:     "analytics down",
		ErrorKind: "transient_remote",
		Metrics:   []models.MetricRecord{{MetricName: "orders_created", Value: 1}},
		FailedAt:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}

	type tCase struct {
		name    string
		sendErr error
		wantErr bool
	}

	tCases := []tCase{
		{name: "published"},
		{name: "sender error", sendErr: errors.New("kafka unavailable"), wantErr: true},
	}

	for _, tc := range tCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sender := mocks.NewMockSender(ctrl)

			sender.EXPECT().
				Send(gomock.Any(), "failed-metrics", batch.ID.String(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _, _ string, value []byte) error {
					var decoded models.FailedBatch
					require.NoError(t, json.Unmarshal(value, &decoded))
					require.Equal(t, batch.ID, decoded.ID)
					require.Equal(t, "SR-1", decoded.OrderID)
					require.Len(t, decoded.Metrics, 1)
					return tc.sendErr
				})

			err := New(sender, "failed-metrics", logger.NewDiscard()).PublishFailure(context.Background(), batch)
			if tc.wantErr {
				require.ErrorIs(t, err, tc.sendErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
