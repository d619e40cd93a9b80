package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/delivery/http/render"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

//go:generate mockgen -destination=mocks/mock.go -package=mocks . Ingester

const maxBodyBytes = 1 << 20

// Signature headers in order of preference.
var signatureHeaders = []string{"X-Shiprocket-Signature", "X-Webhook-Signature", "Authorization"}

type Ingester interface {
	Ingest(ctx context.Context, provider string, body []byte, signature string) models.AckResult
}

type Handler struct {
	log logger.Logger

	ingester Ingester
}

func NewHandler(log logger.Logger, ingester Ingester) *Handler {
	return &Handler{
		log:      log,
		ingester: ingester,
	}
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.log.Warn("failed to read webhook body", logger.String("provider", provider), logger.Err(err))
		render.Message(w, h.log, status, "unreadable body")
		return
	}

	ack := h.ingester.Ingest(r.Context(), provider, body, signatureFrom(r.Header))
	if ack.Rejected() {
		render.Message(w, h.log, internalErrors.HTTPStatus(ack.Outcome.Err), rejectReason(ack.Outcome.Err))
		return
	}

	render.JSON(w, h.log, http.StatusOK, ack)
}

func signatureFrom(header http.Header) string {
	for _, name := range signatureHeaders {
		value := strings.TrimSpace(header.Get(name))
		if value == "" {
			continue
		}
		if name == "Authorization" {
			value = strings.TrimSpace(strings.TrimPrefix(value, "Bearer "))
		}
		return value
	}

	return ""
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, internalErrors.ErrAuthentication):
		return "invalid signature"
	case err != nil:
		return err.Error()
	default:
		return "rejected"
	}
}
