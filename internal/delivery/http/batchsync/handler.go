package batchsync

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/render"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/batch"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

//go:generate mockgen -destination=mocks/mock.go -package=mocks . Runner

const defaultRunsLimit = 20

type Runner interface {
	Run(ctx context.Context, req batch.SyncRequest) (models.SyncRun, error)
	Runs(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type Handler struct {
	log logger.Logger

	runner   Runner
	validate *validator.Validate
}

func NewHandler(log logger.Logger, runner Runner) *Handler {
	return &Handler{
		log:      log,
		runner:   runner,
		validate: validator.New(),
	}
}

type triggerResponse struct {
	Run   models.SyncRun `json:"run"`
	Error string         `json:"error,omitempty"`
}

func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	var request TriggerRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.log.Warn("failed to decode sync request", logger.Err(err))
		render.Error(w, h.log, internalErrors.Validation("malformed request: %v", err))
		return
	}

	if err := request.validate(h.validate); err != nil {
		h.log.Warn("failed to validate sync request", logger.Err(err))
		render.Error(w, h.log, err)
		return
	}

	run, err := h.runner.Run(r.Context(), request.toDTO())
	if err != nil {
		h.log.Error("sync run failed", logger.String("run_id", run.ID.String()), logger.Err(err))
		if run.StartedAt.IsZero() {
			render.Error(w, h.log, err)
			return
		}
		render.JSON(w, h.log, internalErrors.HTTPStatus(err), triggerResponse{Run: run, Error: err.Error()})
		return
	}

	render.JSON(w, h.log, http.StatusOK, triggerResponse{Run: run})
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			render.Error(w, h.log, internalErrors.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	runs, err := h.runner.Runs(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to list sync runs", logger.Err(err))
		render.Error(w, h.log, err)
		return
	}

	if runs == nil {
		runs = []models.SyncRun{}
	}

	render.JSON(w, h.log, http.StatusOK, map[string]any{"runs": runs})
}
