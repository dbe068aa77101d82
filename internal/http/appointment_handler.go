package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/barbershop-booking/internal/application"
)

type appointmentService interface {
	ListAppointments(ctx context.Context, filter application.AppointmentFilter) ([]application.Appointment, error)
}

type bookingService interface {
	BookServices(ctx context.Context, params application.BookServicesParams) ([]application.Appointment, error)
}

// AppointmentHandler serves appointment listings and bookings.
type AppointmentHandler struct {
	appointments appointmentService
	booking      bookingService
	responder    responder
	logger       *slog.Logger
}

func NewAppointmentHandler(appointments appointmentService, booking bookingService, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{appointments: appointments, booking: booking, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

// List handles GET /appointments?customer_id=&provider_id=&date=&status=.
//
// Callers only see their own appointments: without an explicit id filter the
// listing is scoped to the caller's role, and a filter naming someone else is
// rejected.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	filter, vErr := parseAppointmentFilter(r)
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	self := session.Principal.UserID
	switch {
	case filter.CustomerID == nil && filter.ProviderID == nil:
		if session.Role == application.RoleProvider {
			filter.ProviderID = &self
		} else {
			filter.CustomerID = &self
		}
	case filter.CustomerID != nil && *filter.CustomerID == self:
	case filter.ProviderID != nil && *filter.ProviderID == self:
	default:
		h.log(r.Context(), "List", "user_id", self).WarnContext(r.Context(), "appointment listing outside caller scope rejected")
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	appointments, err := h.appointments.ListAppointments(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTOs(appointments))
}

// Create handles POST /appointments. The customer defaults to the caller.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	customerID := req.CustomerID
	if customerID == 0 {
		customerID = session.Principal.UserID
	}

	logger := h.log(r.Context(), "Create", "customer_id", customerID, "provider_id", req.ProviderID)
	created, err := h.booking.BookServices(r.Context(), application.BookServicesParams{
		Principal:  session.Principal,
		CustomerID: customerID,
		ProviderID: req.ProviderID,
		Date:       req.Date,
		Time:       req.Time,
		ServiceIDs: req.ServiceIDs,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := bookingResponse{Appointments: toAppointmentDTOs(created)}
	if len(created) > 0 {
		resp.BookingRef = created[0].BookingRef
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resp)
}

func parseAppointmentFilter(r *http.Request) (application.AppointmentFilter, *application.ValidationError) {
	q := r.URL.Query()
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	var filter application.AppointmentFilter

	parseID := func(field string) *int64 {
		raw := q.Get(field)
		if raw == "" {
			return nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			vErr.FieldErrors[field] = "must be a positive integer"
			return nil
		}
		return &id
	}
	filter.CustomerID = parseID("customer_id")
	filter.ProviderID = parseID("provider_id")
	if date := q.Get("date"); date != "" {
		filter.Date = &date
	}
	if status := q.Get("status"); status != "" {
		s := application.Status(status)
		filter.Status = &s
	}
	return filter, vErr
}

type bookingRequest struct {
	CustomerID int64   `json:"customer_id"`
	ProviderID int64   `json:"provider_id"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	ServiceIDs []int64 `json:"service_ids"`
}

type bookingResponse struct {
	BookingRef   string           `json:"booking_ref"`
	Appointments []appointmentDTO `json:"appointments"`
}
