package shiprocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/auth"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/rest"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/resilience"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

func newTestClient(t *testing.T, mux *http.ServeMux, perPage int) *Client {
	t.Helper()

	mux.HandleFunc(LoginPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "sr-token"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	transport := rest.New(
		rest.Config{
			Name:    "shiprocket",
			BaseURL: server.URL,
			Retry:   resilience.RetryOptions{MaxAttempts: 2, BaseDelay: time.Millisecond, Sleep: func(context.Context, time.Duration) error { return nil }},
		},
		server.Client(),
		auth.NewProviderLogin(server.Client(), server.URL+LoginPath, "ops@example.com", "pw"),
		nil,
		logger.NewDiscard(),
	)

	return New(transport, perPage, logger.NewDiscard())
}

func TestListOrdersPaginates(t *testing.T) {
	var pages atomic.Int32
	mux := http.NewServeMux()

	mux.HandleFunc(ordersPath, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sr-token", r.Header.Get("Authorization"))
		require.Equal(t, "2024-05-01", r.URL.Query().Get("from"))
		require.Equal(t, "2024-05-01", r.URL.Query().Get("to"))

		pages.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		data := []map[string]any{
			{"id": fmt.Sprintf("%d-a", page)},
			{"id": fmt.Sprintf("%d-b", page)},
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": data,
			"meta": map[string]any{"pagination": map[string]any{"current_page": page, "total_pages": 3, "per_page": 2}},
		})
	})

	client := newTestClient(t, mux, 2)

	orders, err := client.ListOrders(context.Background(),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, orders, 6)
	require.Equal(t, "3-b", orders[5]["id"])
	require.Equal(t, int32(3), pages.Load())
}

func TestQueryWindow(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tCases := []struct {
		name     string
		from, to time.Time
		wantFrom string
		wantTo   string
	}{
		{
			name:     "single_day",
			from:     day,
			to:       day.Add(24 * time.Hour),
			wantFrom: "2024-05-01",
			wantTo:   "2024-05-01",
		},
		{
			name:     "two_days",
			from:     day,
			to:       day.Add(48 * time.Hour),
			wantFrom: "2024-05-01",
			wantTo:   "2024-05-02",
		},
		{
			name:     "ends_mid_day",
			from:     day.Add(-6 * time.Hour),
			to:       day.Add(10 * time.Hour),
			wantFrom: "2024-04-30",
			wantTo:   "2024-05-01",
		},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			gotFrom, gotTo := queryWindow(tCase.from, tCase.to)
			require.Equal(t, tCase.wantFrom, gotFrom)
			require.Equal(t, tCase.wantTo, gotTo)
		})
	}
}

func TestListShipmentsWithoutPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(shipmentsPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"awb": "A1"}}})
	})

	client := newTestClient(t, mux, 50)

	shipments, err := client.ListShipments(context.Background(), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, shipments, 1)
}

func TestGetOrderNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(orderShowPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == orderShowPath+"42" {
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": 42, "status": "DELIVERED"}})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	client := newTestClient(t, mux, 0)

	order, err := client.GetOrder(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "DELIVERED", order["status"])

	_, err = client.GetOrder(context.Background(), "7")
	require.Error(t, err)

	report := client.HealthCheck(context.Background())
	require.Equal(t, "shiprocket", report.Name)
}
