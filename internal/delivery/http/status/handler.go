package status

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/render"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/metrics"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

//go:generate mockgen -destination=mocks/mock.go -package=mocks . HealthChecker,BreakerSource,CounterSource

const healthTimeout = 10 * time.Second

type HealthChecker interface {
	HealthCheck(ctx context.Context) models.HealthReport
}

type BreakerSource interface {
	Snapshot() models.BreakerState
}

type CounterSource interface {
	Snapshot() metrics.Snapshot
}

type Handler struct {
	log logger.Logger

	checkers []HealthChecker
	breakers []BreakerSource
	counters CounterSource
	now      func() time.Time
}

func NewHandler(log logger.Logger, counters CounterSource, checkers []HealthChecker, breakers []BreakerSource) *Handler {
	return &Handler{
		log:      log,
		checkers: checkers,
		breakers: breakers,
		counters: counters,
		now:      time.Now,
	}
}

type healthResponse struct {
	Status    string                `json:"status"`
	Services  []models.HealthReport `json:"services"`
	CheckedAt time.Time             `json:"checked_at"`
}

// Health checks every dependency concurrently. Any unhealthy one degrades the
// service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	reports := make([]models.HealthReport, len(h.checkers))

	var wg sync.WaitGroup
	for i, checker := range h.checkers {
		wg.Add(1)
		go func(i int, checker HealthChecker) {
			defer wg.Done()
			reports[i] = checker.HealthCheck(ctx)
		}(i, checker)
	}
	wg.Wait()

	resp := healthResponse{Status: "healthy", Services: reports, CheckedAt: h.now().UTC()}
	code := http.StatusOK
	for _, report := range reports {
		if !report.Healthy {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			h.log.Warn("dependency unhealthy", logger.String("service", report.Name), logger.String("reason", report.Error))
		}
	}

	render.JSON(w, h.log, code, resp)
}

type metricsResponse struct {
	Breakers []models.BreakerState `json:"circuit_breakers"`
	Counters metrics.Snapshot      `json:"counters"`
}

func (h *Handler) Metrics(w http.ResponseWriter, _ *http.Request) {
	resp := metricsResponse{
		Breakers: make([]models.BreakerState, 0, len(h.breakers)),
		Counters: h.counters.Snapshot(),
	}
	for _, breaker := range h.breakers {
		resp.Breakers = append(resp.Breakers, breaker.Snapshot())
	}

	render.JSON(w, h.log, http.StatusOK, resp)
}
