package batchsync

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/batch"
)

// TriggerRequest starts a manual sync. A date-only "to" covers that whole day.
type TriggerRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
	Type string `json:"type" validate:"omitempty,oneof=orders shipments all"`
}

func (req *TriggerRequest) validate(v *validator.Validate) error {
	if err := v.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", internalErrors.ErrValidation, err.Error())
	}

	if _, err := batch.ParseStart(req.From); err != nil {
		return fmt.Errorf("%w: from: %s", internalErrors.ErrValidation, err.Error())
	}
	if _, err := batch.ParseEnd(req.To); err != nil {
		return fmt.Errorf("%w: to: %s", internalErrors.ErrValidation, err.Error())
	}

	return nil
}

// toDTO must only be called after validate.
func (req *TriggerRequest) toDTO() batch.SyncRequest {
	from, _ := batch.ParseStart(req.From)
	to, _ := batch.ParseEnd(req.To)

	syncType := models.SyncAll
	if req.Type != "" {
		syncType = models.SyncType(req.Type)
	}

	return batch.SyncRequest{From: from, To: to, Type: syncType}
}
