package metrics_sync_http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/batchsync"
	syncMocks "github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/batchsync/mocks"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/status"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/webhook"
	webhookMocks "github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/webhook/mocks"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/metrics"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

func TestRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.NewDiscard()

	ingester := webhookMocks.NewMockIngester(ctrl)
	ingester.EXPECT().Ingest(gomock.Any(), "shiprocket", gomock.Any(), gomock.Any()).
		Return(models.AckResult{Success: true, ProcessingTime: "1ms"})

	runner := syncMocks.NewMockRunner(ctrl)
	runner.EXPECT().Runs(gomock.Any(), gomock.Any()).Return(nil, nil)

	collector := metrics.New(nil)

	router := NewHandler(
		log,
		webhook.NewHandler(log, ingester),
		batchsync.NewHandler(log, runner),
		status.NewHandler(log, collector, nil, nil),
		collector.Handler(),
	).InitRoutes()

	type tCase struct {
		method string
		path   string
		body   string
		want   int
	}

	tCases := []tCase{
		{method: http.MethodPost, path: "/webhooks/shiprocket", body: `{}`, want: http.StatusOK},
		{method: http.MethodGet, path: "/sync/runs", want: http.StatusOK},
		{method: http.MethodGet, path: "/health", want: http.StatusOK},
		{method: http.MethodGet, path: "/metrics", want: http.StatusOK},
		{method: http.MethodGet, path: "/metrics/prometheus", want: http.StatusOK},
		{method: http.MethodGet, path: "/webhooks/shiprocket", want: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/unknown", want: http.StatusNotFound},
	}

	for _, tc := range tCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			require.Equal(t, tc.want, rec.Code)
		})
	}
}
