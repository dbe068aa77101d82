package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/scheduler"
)

// BookingService is the only path that creates appointments. It derives live
// availability and commits bookings under the no-double-booking invariant.
type BookingService struct {
	users        persistence.UserRepository
	catalog      persistence.CatalogRepository
	slots        persistence.AvailabilityRepository
	appointments persistence.AppointmentRepository
	newRef       func() string
	metrics      Metrics
	logger       *slog.Logger
}

// BookingStore is the storage a BookingService needs.
type BookingStore interface {
	persistence.UserRepository
	persistence.CatalogRepository
	persistence.AvailabilityRepository
	persistence.AppointmentRepository
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(store BookingStore) *BookingService {
	return NewBookingServiceWithLogger(store, nil, nil, nil)
}

// NewBookingServiceWithLogger wires dependencies with an explicit booking
// reference generator, metrics and logger. A nil generator uses random UUIDs.
func NewBookingServiceWithLogger(store BookingStore, newRef func() string, metrics Metrics, logger *slog.Logger) *BookingService {
	if newRef == nil {
		newRef = uuid.NewString
	}
	return &BookingService{
		users:        store,
		catalog:      store,
		slots:        store,
		appointments: store,
		newRef:       newRef,
		metrics:      metricsOrNoop(metrics),
		logger:       defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// AvailableHours returns the declared hours for (provider, date) minus the times
// of its Scheduled appointments, in declared order. A date without a record has
// no available hours.
func (s *BookingService) AvailableHours(ctx context.Context, providerID int64, date string) ([]string, error) {
	if s == nil || s.slots == nil {
		return nil, fmt.Errorf("booking service not configured")
	}

	vErr := &ValidationError{}
	validateDate(vErr, "date", date)
	if vErr.HasErrors() {
		return nil, vErr
	}
	if err := s.ensureProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.availableHours(ctx, providerID, date)
}

// BookServices books one slot for every requested service, in order. Each
// service becomes its own Scheduled appointment sharing one booking reference.
// Either every line is stored or none is.
func (s *BookingService) BookServices(ctx context.Context, params BookServicesParams) (created []Appointment, err error) {
	if s == nil || s.appointments == nil {
		return nil, fmt.Errorf("booking service not configured")
	}

	ctx, span := startSpan(ctx, "BookingService.BookServices",
		attribute.Int64("customer.id", params.CustomerID),
		attribute.Int64("provider.id", params.ProviderID),
		attribute.String("booking.date", params.Date),
		attribute.String("booking.time", params.Time),
		attribute.Int("booking.service_count", len(params.ServiceIDs)),
	)
	logger := s.loggerWith(ctx, "BookServices",
		"customer_id", params.CustomerID,
		"provider_id", params.ProviderID,
		"date", params.Date,
		"time", params.Time,
	)
	defer func() {
		s.metrics.BookingAttempt(outcome(err), len(created))
		endSpan(span, err)
		var ref string
		if len(created) > 0 {
			ref = created[0].BookingRef
		}
		logOutcome(ctx, logger, err, "booking committed", "booking failed",
			"booking_ref", ref, "line_count", len(created))
	}()

	vErr := &ValidationError{}
	validateDate(vErr, "date", params.Date)
	if !scheduler.ValidToken(params.Time) {
		vErr.add("time", "time must be an HH:MM token")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	if !params.Principal.IsSystem() && params.Principal.UserID != params.CustomerID {
		return nil, ErrUnauthorized
	}
	if err = s.ensureCustomer(ctx, params.CustomerID); err != nil {
		return nil, err
	}
	if err = s.ensureProvider(ctx, params.ProviderID); err != nil {
		return nil, err
	}

	open, err := s.availableHours(ctx, params.ProviderID, params.Date)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(open, params.Time) {
		return nil, fmt.Errorf("provider %d %s %s: %w", params.ProviderID, params.Date, params.Time, ErrConflict)
	}

	if len(params.ServiceIDs) == 0 {
		return nil, &ValidationError{FieldErrors: map[string]string{"service_ids": "at least one service is required"}}
	}
	if _, err = resolveServices(ctx, s.catalog, params.ServiceIDs); err != nil {
		return nil, err
	}

	ref := s.newRef()
	lines := make([]persistence.Appointment, 0, len(params.ServiceIDs))
	for _, serviceID := range params.ServiceIDs {
		lines = append(lines, persistence.Appointment{
			BookingRef: ref,
			CustomerID: params.CustomerID,
			ProviderID: params.ProviderID,
			ServiceID:  serviceID,
			Date:       params.Date,
			Time:       params.Time,
			Status:     persistence.StatusScheduled,
		})
	}

	records, err := s.appointments.CommitBooking(ctx, persistence.BookingCommit{
		ProviderID: params.ProviderID,
		Date:       params.Date,
		Time:       params.Time,
		Lines:      lines,
	})
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("provider %d %s %s", params.ProviderID, params.Date, params.Time))
	}

	created = make([]Appointment, 0, len(records))
	for _, r := range records {
		created = append(created, appointmentFromRecord(r))
	}
	return created, nil
}

func (s *BookingService) availableHours(ctx context.Context, providerID int64, date string) ([]string, error) {
	var declared []string
	slot, err := s.slots.GetAvailability(ctx, providerID, date)
	switch {
	case err == nil:
		declared = slot.Hours
	case !errors.Is(err, persistence.ErrNotFound):
		return nil, err
	}

	status := persistence.StatusScheduled
	scheduled, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		ProviderID: &providerID,
		Date:       &date,
		Status:     &status,
	})
	if err != nil {
		return nil, err
	}

	booked := make([]string, 0, len(scheduled))
	for _, a := range scheduled {
		booked = append(booked, a.Time)
	}
	return scheduler.AvailableHours(declared, booked), nil
}

func (s *BookingService) ensureCustomer(ctx context.Context, customerID int64) error {
	user, err := s.users.GetUser(ctx, customerID)
	if err != nil {
		return mapRepoError(err, fmt.Sprintf("customer %d", customerID))
	}
	if Role(user.Role) != RoleCustomer {
		return fmt.Errorf("user %d is not a customer: %w", customerID, ErrUnauthorized)
	}
	return nil
}

func (s *BookingService) ensureProvider(ctx context.Context, providerID int64) error {
	if _, err := s.catalog.GetProvider(ctx, providerID); err != nil {
		return mapRepoError(err, fmt.Sprintf("provider %d", providerID))
	}
	return nil
}
