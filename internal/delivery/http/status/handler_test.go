package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/status/mocks"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/metrics"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

func TestHealth(t *testing.T) {
	type tCase struct {
		name       string
		reports    []models.HealthReport
		wantStatus int
		wantState  string
	}

	tCases := []tCase{
		{
			name: "all healthy",
			reports: []models.HealthReport{
				{Name: "analytics", Healthy: true},
				{Name: "shiprocket", Healthy: true},
			},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name: "one degraded",
			reports: []models.HealthReport{
				{Name: "analytics", Healthy: true},
				{Name: "shiprocket", Healthy: false, Error: "circuit breaker is open"},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
		},
	}

	for _, tc := range tCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			checkers := make([]HealthChecker, 0, len(tc.reports))
			for _, report := range tc.reports {
				checker := mocks.NewMockHealthChecker(ctrl)
				checker.EXPECT().HealthCheck(gomock.Any()).Return(report)
				checkers = append(checkers, checker)
			}

			rec := httptest.NewRecorder()
			NewHandler(logger.NewDiscard(), nil, checkers, nil).
				Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tc.wantStatus, rec.Code)

			var resp healthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tc.wantState, resp.Status)
			require.Len(t, resp.Services, len(tc.reports))
			for i, report := range tc.reports {
				require.Equal(t, report.Name, resp.Services[i].Name)
			}
		})
	}
}

func TestHealthChecksConcurrently(t *testing.T) {
	ctrl := gomock.NewController(t)

	var started sync.WaitGroup
	started.Add(2)

	checkers := make([]HealthChecker, 0, 2)
	for _, name := range []string{"analytics", "shiprocket"} {
		name := name
		checker := mocks.NewMockHealthChecker(ctrl)
		checker.EXPECT().HealthCheck(gomock.Any()).DoAndReturn(func(context.Context) models.HealthReport {
			// each check waits for the other one to start
			started.Done()
			started.Wait()
			return models.HealthReport{Name: name, Healthy: true}
		})
		checkers = append(checkers, checker)
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		NewHandler(logger.NewDiscard(), nil, checkers, nil).
			Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		done <- rec
	}()

	select {
	case rec := <-done:
		require.Equal(t, http.StatusOK, rec.Code)
	case <-time.After(5 * time.Second):
		t.Fatal("health checks ran sequentially")
	}
}

func TestMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)

	counters := mocks.NewMockCounterSource(ctrl)
	counters.EXPECT().Snapshot().Return(metrics.Snapshot{EventsProcessed: 7, MetricsSynced: 42, ErrorCount: 1})

	analytics := mocks.NewMockBreakerSource(ctrl)
	analytics.EXPECT().Snapshot().Return(models.BreakerState{Name: "analytics", State: models.BreakerOpen, FailureCount: 5})
	shiprocket := mocks.NewMockBreakerSource(ctrl)
	shiprocket.EXPECT().Snapshot().Return(models.BreakerState{Name: "shiprocket", State: models.BreakerClosed})

	rec := httptest.NewRecorder()
	NewHandler(logger.NewDiscard(), counters, nil, []BreakerSource{analytics, shiprocket}).
		Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp metricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Breakers, 2)
	require.Equal(t, models.BreakerOpen, resp.Breakers[0].State)
	require.Equal(t, 5, resp.Breakers[0].FailureCount)
	require.Equal(t, "shiprocket", resp.Breakers[1].Name)
	require.EqualValues(t, 7, resp.Counters.EventsProcessed)
	require.EqualValues(t, 42, resp.Counters.MetricsSynced)
}
