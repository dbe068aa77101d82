package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/barbershop-booking/internal/application"
)

type catalogService interface {
	ListProviders(ctx context.Context) ([]application.Provider, error)
	ListServices(ctx context.Context) ([]application.Service, error)
	Quote(ctx context.Context, serviceIDs []int64) (application.Quote, error)
}

// CatalogHandler serves the read-only provider and service catalog.
type CatalogHandler struct {
	service   catalogService
	responder responder
	logger    *slog.Logger
}

func NewCatalogHandler(service catalogService, logger *slog.Logger) *CatalogHandler {
	base := defaultLogger(logger)
	return &CatalogHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.ListProviders(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]providerDTO, 0, len(providers))
	for _, p := range providers {
		out = append(out, toProviderDTO(p))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]serviceDTO, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Quote handles GET /quote?service_id=201&service_id=203.
func (h *CatalogHandler) Quote(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["service_id"]
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"service_id": "service ids must be integers"},
			})
			return
		}
		ids = append(ids, id)
	}

	quote, err := h.service.Quote(r.Context(), ids)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "CatalogHandler", "Quote").
			ErrorContext(r.Context(), "quote failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toQuoteDTO(quote))
}
