package metrics_sync_http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/batchsync"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/status"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/webhook"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

type Handler struct {
	log logger.Logger

	webhook    *webhook.Handler
	sync       *batchsync.Handler
	status     *status.Handler
	prometheus http.Handler
}

func NewHandler(
	log logger.Logger,
	webhookHandler *webhook.Handler,
	syncHandler *batchsync.Handler,
	statusHandler *status.Handler,
	prometheusHandler http.Handler,
) *Handler {
	return &Handler{
		log:        log,
		webhook:    webhookHandler,
		sync:       syncHandler,
		status:     statusHandler,
		prometheus: prometheusHandler,
	}
}

func (h *Handler) InitRoutes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(h.logRequests)

	mux.Post("/webhooks/{provider}", h.webhook.Receive)

	mux.Route("/sync", func(r chi.Router) {
		r.Post("/", h.sync.Trigger)
		r.Get("/runs", h.sync.ListRuns)
	})

	mux.Get("/health", h.status.Health)
	mux.Get("/metrics", h.status.Metrics)
	if h.prometheus != nil {
		mux.Method(http.MethodGet, "/metrics/prometheus", h.prometheus)
	}

	return mux
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		h.log.DebugContext(r.Context(), "http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Duration("took", time.Since(started)),
		)
	})
}
