package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/barbershop-booking/internal/application"
)

type availabilityService interface {
	SetAvailability(ctx context.Context, params application.SetAvailabilityParams) (application.AvailabilitySlot, []application.OrphanedAppointment, error)
	DeclareHourRange(ctx context.Context, params application.DeclareHourRangeParams) (application.AvailabilitySlot, []application.OrphanedAppointment, error)
	ClearAvailability(ctx context.Context, principal application.Principal, providerID int64, date string) (application.AvailabilitySlot, []application.OrphanedAppointment, error)
	GetAvailability(ctx context.Context, providerID int64) ([]application.AvailabilitySlot, error)
	BookableDates(ctx context.Context, providerID int64) ([]string, error)
}

type hoursService interface {
	AvailableHours(ctx context.Context, providerID int64, date string) ([]string, error)
}

// AvailabilityHandler serves provider opening hours.
type AvailabilityHandler struct {
	service   availabilityService
	hours     hoursService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, hours hoursService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, hours: hours, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// List handles GET /providers/{providerID}/availability.
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.providerID(w, r)
	if !ok {
		return
	}
	slots, err := h.service.GetAvailability(r.Context(), providerID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Dates handles GET /providers/{providerID}/dates.
func (h *AvailabilityHandler) Dates(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.providerID(w, r)
	if !ok {
		return
	}
	dates, err := h.service.BookableDates(r.Context(), providerID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"provider_id": providerID, "dates": dates})
}

// Hours handles GET /providers/{providerID}/availability/{date}/hours.
func (h *AvailabilityHandler) Hours(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.providerID(w, r)
	if !ok {
		return
	}
	date := chi.URLParam(r, "date")
	open, err := h.hours.AvailableHours(r.Context(), providerID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotDTO{ProviderID: providerID, Date: date, Hours: open})
}

// Put handles PUT /providers/{providerID}/availability/{date}. The body carries
// either an explicit hour list or a start/end range.
func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.providerID(w, r)
	if !ok {
		return
	}
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	date := chi.URLParam(r, "date")
	logger := h.log(r.Context(), "Put", "provider_id", providerID, "date", date)

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode availability request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var (
		slot    application.AvailabilitySlot
		orphans []application.OrphanedAppointment
		err     error
	)
	if req.Hours == nil && (req.Start != "" || req.End != "") {
		slot, orphans, err = h.service.DeclareHourRange(r.Context(), application.DeclareHourRangeParams{
			Principal:  session.Principal,
			ProviderID: providerID,
			Date:       date,
			Start:      req.Start,
			End:        req.End,
		})
	} else {
		hours := req.Hours
		if hours == nil {
			hours = []string{}
		}
		slot, orphans, err = h.service.SetAvailability(r.Context(), application.SetAvailabilityParams{
			Principal:  session.Principal,
			ProviderID: providerID,
			Date:       date,
			Hours:      hours,
		})
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if len(orphans) > 0 {
		logger.WarnContext(r.Context(), "scheduled appointments no longer covered by declared hours", "orphan_count", len(orphans))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityWriteResponse(slot, orphans))
}

// Delete handles DELETE /providers/{providerID}/availability/{date}.
func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	providerID, ok := h.providerID(w, r)
	if !ok {
		return
	}
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}
	date := chi.URLParam(r, "date")

	slot, orphans, err := h.service.ClearAvailability(r.Context(), session.Principal, providerID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityWriteResponse(slot, orphans))
}

func (h *AvailabilityHandler) providerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "providerID"), 10, 64)
	if err != nil || id <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProviderID)
		return 0, false
	}
	return id, true
}

type availabilityRequest struct {
	Hours []string `json:"hours"`
	Start string   `json:"start"`
	End   string   `json:"end"`
}
