package batchsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/batchsync/mocks"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/services/batch"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

func TestTrigger(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	run := models.SyncRun{
		ID:        uuid.New(),
		Type:      models.SyncOrders,
		Status:    models.SyncRunSucceeded,
		Events:    4,
		Metrics:   22,
		StartedAt: started,
	}

	type tCase struct {
		name       string
		body       string
		expectRun  bool
		run        models.SyncRun
		runErr     error
		wantStatus int
	}

	tCases := []tCase{
		{
			name:       "succeeded",
			body:       `{"from":"2024-01-14","to":"2024-01-15","type":"orders"}`,
			expectRun:  true,
			run:        run,
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed json",
			body:       `{"from":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid type",
			body:       `{"from":"2024-01-14","to":"2024-01-15","type":"returns"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "range rejected by service",
			body:       `{"from":"2024-01-15","to":"2024-01-01"}`,
			expectRun:  true,
			runErr:     fmt.Errorf("batch: %w", internalErrors.ErrInvalidRange),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "run failed upstream",
			body:      `{"from":"2024-01-14","to":"2024-01-15"}`,
			expectRun: true,
			run: models.SyncRun{
				ID: run.ID, Status: models.SyncRunFailed, StartedAt: started, Error: "circuit breaker is open",
			},
			runErr:     internalErrors.ErrBreakerOpen,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := mocks.NewMockRunner(ctrl)

			if tc.expectRun {
				runner.EXPECT().Run(gomock.Any(), gomock.AssignableToTypeOf(batch.SyncRequest{})).Return(tc.run, tc.runErr)
			}

			req := httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			NewHandler(logger.NewDiscard(), runner).Trigger(rec, req)
			require.Equal(t, tc.wantStatus, rec.Code)

			if tc.run.StartedAt.IsZero() {
				return
			}

			var resp triggerResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tc.run.ID, resp.Run.ID)
			require.Equal(t, tc.run.Status, resp.Run.Status)
			if tc.runErr != nil {
				require.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestListRuns(t *testing.T) {
	type tCase struct {
		name       string
		query      string
		wantLimit  int
		runs       []models.SyncRun
		listErr    error
		wantStatus int
		wantRuns   int
	}

	tCases := []tCase{
		{
			name:       "default limit",
			wantLimit:  defaultRunsLimit,
			runs:       []models.SyncRun{{ID: uuid.New()}, {ID: uuid.New()}},
			wantStatus: http.StatusOK,
			wantRuns:   2,
		},
		{
			name:       "explicit limit, empty ledger",
			query:      "?limit=5",
			wantLimit:  5,
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad limit",
			query:      "?limit=abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ledger error",
			wantLimit:  defaultRunsLimit,
			listErr:    errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := mocks.NewMockRunner(ctrl)

			if tc.wantLimit > 0 {
				runner.EXPECT().Runs(gomock.Any(), tc.wantLimit).Return(tc.runs, tc.listErr)
			}

			req := httptest.NewRequest(http.MethodGet, "/sync/runs"+tc.query, nil)
			rec := httptest.NewRecorder()

			NewHandler(logger.NewDiscard(), runner).ListRuns(rec, req)
			require.Equal(t, tc.wantStatus, rec.Code)

			if tc.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Runs []models.SyncRun `json:"runs"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Runs)
			require.Len(t, resp.Runs, tc.wantRuns)
		})
	}
}
