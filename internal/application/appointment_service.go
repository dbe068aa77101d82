package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/scheduler"
)

// AppointmentService reads the appointment ledger and exposes its raw append.
type AppointmentService struct {
	appointments persistence.AppointmentRepository
	logger       *slog.Logger
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(appointments persistence.AppointmentRepository) *AppointmentService {
	return NewAppointmentServiceWithLogger(appointments, nil)
}

// NewAppointmentServiceWithLogger constructs an AppointmentService with a specified logger.
func NewAppointmentServiceWithLogger(appointments persistence.AppointmentRepository, logger *slog.Logger) *AppointmentService {
	return &AppointmentService{appointments: appointments, logger: defaultLogger(logger)}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// ListAppointments returns appointments matching every set filter field, in
// insertion order.
func (s *AppointmentService) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error) {
	if s == nil || s.appointments == nil {
		return nil, fmt.Errorf("appointment service not configured")
	}

	vErr := &ValidationError{}
	if filter.Date != nil {
		validateDate(vErr, "date", *filter.Date)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		vErr.add("status", "status must be Scheduled, Completed or Canceled")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	records, err := s.appointments.ListAppointments(ctx, filterToRecord(filter))
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(records))
	for _, r := range records {
		out = append(out, appointmentFromRecord(r))
	}
	return out, nil
}

// Append assigns the next id and stores the record without checking for
// conflicts. Bookings go through BookingService.BookServices instead.
func (s *AppointmentService) Append(ctx context.Context, appointment Appointment) (created Appointment, err error) {
	if s == nil || s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment service not configured")
	}

	logger := s.loggerWith(ctx, "Append", "provider_id", appointment.ProviderID, "date", appointment.Date, "time", appointment.Time)
	defer func() {
		logOutcome(ctx, logger, err, "appointment appended", "failed to append appointment", "appointment_id", created.ID)
	}()

	if appointment.Status == "" {
		appointment.Status = StatusScheduled
	}
	if !appointment.Status.Valid() {
		return Appointment{}, &ValidationError{FieldErrors: map[string]string{"status": "unknown status"}}
	}

	record, err := s.appointments.AppendAppointment(ctx, appointmentToRecord(appointment))
	if err != nil {
		return Appointment{}, err
	}
	return appointmentFromRecord(record), nil
}

// ProviderAgenda returns the provider's Scheduled appointments ordered by date, time and id.
func (s *AppointmentService) ProviderAgenda(ctx context.Context, providerID int64) ([]Appointment, error) {
	status := StatusScheduled
	appointments, err := s.ListAppointments(ctx, AppointmentFilter{ProviderID: &providerID, Status: &status})
	if err != nil {
		return nil, err
	}
	sortChronologically(appointments)
	return appointments, nil
}

// NextAppointment returns the customer's earliest Scheduled appointment.
func (s *AppointmentService) NextAppointment(ctx context.Context, customerID int64) (Appointment, bool, error) {
	status := StatusScheduled
	appointments, err := s.ListAppointments(ctx, AppointmentFilter{CustomerID: &customerID, Status: &status})
	if err != nil {
		return Appointment{}, false, err
	}
	if len(appointments) == 0 {
		return Appointment{}, false, nil
	}
	sortChronologically(appointments)
	return appointments[0], true, nil
}

func sortChronologically(appointments []Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		a, b := appointments[i], appointments[j]
		if c := scheduler.CompareSlot(a.Date, a.Time, b.Date, b.Time); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}
