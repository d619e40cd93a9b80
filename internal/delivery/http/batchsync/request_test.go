package batchsync

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
)

func TestValidate(t *testing.T) {
	tCases := []struct {
		name     string
		input    *TriggerRequest
		wantFrom time.Time
		wantTo   time.Time
		wantType models.SyncType
	}{
		{
			name:     "dates_default_type",
			input:    &TriggerRequest{From: "2024-01-01", To: "2024-01-02"},
			wantFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			wantType: models.SyncAll,
		},
		{
			name:     "single_day",
			input:    &TriggerRequest{From: "2024-05-01", To: "2024-05-01", Type: "shipments"},
			wantFrom: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			wantType: models.SyncShipments,
		},
		{
			name:     "timestamps_orders",
			input:    &TriggerRequest{From: "2024-01-01T10:00:00Z", To: "2024-01-01T12:00:00Z", Type: "orders"},
			wantFrom: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			wantType: models.SyncOrders,
		},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			require.NoError(t, tCase.input.validate(validator.New()))

			dto := tCase.input.toDTO()
			require.True(t, tCase.wantFrom.Equal(dto.From))
			require.True(t, tCase.wantTo.Equal(dto.To))
			require.Equal(t, tCase.wantType, dto.Type)
		})
	}
}

func TestValidateError(t *testing.T) {
	tCases := []struct {
		name  string
		input *TriggerRequest
	}{
		{name: "missing_from", input: &TriggerRequest{To: "2024-01-02"}},
		{name: "missing_to", input: &TriggerRequest{From: "2024-01-02"}},
		{name: "bad_type", input: &TriggerRequest{From: "2024-01-01", To: "2024-01-02", Type: "returns"}},
		{name: "bad_from", input: &TriggerRequest{From: "yesterday", To: "2024-01-02"}},
		{name: "bad_to", input: &TriggerRequest{From: "2024-01-01", To: "01/02/2024"}},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			err := tCase.input.validate(validator.New())
			require.ErrorIs(t, err, internalErrors.ErrValidation)
		})
	}
}
