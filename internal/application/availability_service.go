package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/recurrence"
	"github.com/example/barbershop-booking/internal/scheduler"
)

// AvailabilityService maintains the per-provider, per-date declared open hours.
type AvailabilityService struct {
	slots        persistence.AvailabilityRepository
	catalog      persistence.CatalogRepository
	appointments persistence.AppointmentRepository
	engine       *recurrence.Engine
	metrics      Metrics
	logger       *slog.Logger
}

// NewAvailabilityService wires dependencies for availability operations.
func NewAvailabilityService(slots persistence.AvailabilityRepository, catalog persistence.CatalogRepository, appointments persistence.AppointmentRepository) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(slots, catalog, appointments, nil, nil)
}

// NewAvailabilityServiceWithLogger wires dependencies with explicit metrics and logger.
func NewAvailabilityServiceWithLogger(slots persistence.AvailabilityRepository, catalog persistence.CatalogRepository, appointments persistence.AppointmentRepository, metrics Metrics, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{
		slots:        slots,
		catalog:      catalog,
		appointments: appointments,
		engine:       recurrence.NewEngine(),
		metrics:      metricsOrNoop(metrics),
		logger:       defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

func (s *AvailabilityService) configured() error {
	if s == nil || s.slots == nil || s.catalog == nil || s.appointments == nil {
		return fmt.Errorf("availability service not configured")
	}
	return nil
}

// SetAvailability replaces the hours for (provider, date), or appends a new
// record. An empty set clears the date. Scheduled appointments whose time is no
// longer declared are left untouched and returned as orphans.
func (s *AvailabilityService) SetAvailability(ctx context.Context, params SetAvailabilityParams) (slot AvailabilitySlot, orphans []OrphanedAppointment, err error) {
	if err = s.configured(); err != nil {
		return AvailabilitySlot{}, nil, err
	}

	ctx, span := startSpan(ctx, "AvailabilityService.SetAvailability",
		attribute.Int64("provider.id", params.ProviderID),
		attribute.String("availability.date", params.Date),
	)
	logger := s.loggerWith(ctx, "SetAvailability", "provider_id", params.ProviderID, "date", params.Date)
	defer func() {
		s.metrics.AvailabilityWrite(outcome(err), 1)
		endSpan(span, err)
		logOutcome(ctx, logger, err, "availability set", "failed to set availability",
			"hour_count", len(slot.Hours), "orphan_count", len(orphans))
	}()

	if err = authorizeProvider(params.Principal, params.ProviderID); err != nil {
		return AvailabilitySlot{}, nil, err
	}

	vErr := &ValidationError{}
	validateDate(vErr, "date", params.Date)
	hours := normalizeHours(vErr, params.Hours)
	if vErr.HasErrors() {
		return AvailabilitySlot{}, nil, vErr
	}

	if err = s.ensureProvider(ctx, params.ProviderID); err != nil {
		return AvailabilitySlot{}, nil, err
	}

	return s.write(ctx, params.ProviderID, params.Date, hours)
}

// DeclareHourRange declares top-of-hour openings from start (inclusive) to end (exclusive).
func (s *AvailabilityService) DeclareHourRange(ctx context.Context, params DeclareHourRangeParams) (AvailabilitySlot, []OrphanedAppointment, error) {
	hours, err := scheduler.HourRange(params.Start, params.End)
	if err != nil {
		vErr := &ValidationError{}
		switch {
		case errors.Is(err, scheduler.ErrInvalidRange):
			vErr.add("end", "end hour must be after start hour")
		case !scheduler.ValidToken(params.Start):
			vErr.add("start", "start must be an HH:MM time")
		default:
			vErr.add("end", "end must be an HH:MM time")
		}
		s.loggerWith(ctx, "DeclareHourRange", "provider_id", params.ProviderID).
			ErrorContext(ctx, "failed to declare hour range", "error", vErr, "error_kind", ErrorKind(vErr))
		return AvailabilitySlot{}, nil, vErr
	}

	return s.SetAvailability(ctx, SetAvailabilityParams{
		Principal:  params.Principal,
		ProviderID: params.ProviderID,
		Date:       params.Date,
		Hours:      hours,
	})
}

// ClearAvailability replaces the date's hours with the empty set.
func (s *AvailabilityService) ClearAvailability(ctx context.Context, principal Principal, providerID int64, date string) (AvailabilitySlot, []OrphanedAppointment, error) {
	return s.SetAvailability(ctx, SetAvailabilityParams{
		Principal:  principal,
		ProviderID: providerID,
		Date:       date,
		Hours:      []string{},
	})
}

// DeclareRecurring applies the same hours to every selected weekday in the
// inclusive window. Every date is written or none is.
func (s *AvailabilityService) DeclareRecurring(ctx context.Context, params DeclareRecurringParams) (slots []AvailabilitySlot, orphans []OrphanedAppointment, err error) {
	if err = s.configured(); err != nil {
		return nil, nil, err
	}

	ctx, span := startSpan(ctx, "AvailabilityService.DeclareRecurring",
		attribute.Int64("provider.id", params.ProviderID),
		attribute.String("availability.from", params.From),
		attribute.String("availability.until", params.Until),
	)
	logger := s.loggerWith(ctx, "DeclareRecurring", "provider_id", params.ProviderID, "from", params.From, "until", params.Until)
	defer func() {
		s.metrics.AvailabilityWrite(outcome(err), len(slots))
		endSpan(span, err)
		logOutcome(ctx, logger, err, "recurring availability declared", "failed to declare recurring availability",
			"date_count", len(slots), "orphan_count", len(orphans))
	}()

	if err = authorizeProvider(params.Principal, params.ProviderID); err != nil {
		return nil, nil, err
	}

	vErr := &ValidationError{}
	validateDate(vErr, "from", params.From)
	validateDate(vErr, "until", params.Until)
	if len(params.Weekdays) == 0 {
		vErr.add("weekdays", "at least one weekday is required")
	}
	hours := normalizeHours(vErr, params.Hours)
	if vErr.HasErrors() {
		return nil, nil, vErr
	}

	dates, expandErr := s.engine.ExpandDates(recurrence.Rule{
		Frequency: recurrence.FrequencyWeekly,
		Weekdays:  params.Weekdays,
		StartsOn:  params.From,
		EndsOn:    params.Until,
	})
	if expandErr != nil {
		vErr.add("until", expandErr.Error())
		return nil, nil, vErr
	}

	if err = s.ensureProvider(ctx, params.ProviderID); err != nil {
		return nil, nil, err
	}

	batch := make([]persistence.AvailabilitySlot, 0, len(dates))
	for _, date := range dates {
		batch = append(batch, persistence.AvailabilitySlot{ProviderID: params.ProviderID, Date: date, Hours: hours})
	}
	records, err := s.slots.UpsertAvailabilityBatch(ctx, batch)
	if err != nil {
		return nil, nil, err
	}

	written := make([]AvailabilitySlot, 0, len(records))
	var found []OrphanedAppointment
	for _, record := range records {
		dateOrphans, orphanErr := s.orphans(ctx, params.ProviderID, record.Date, record.Hours)
		if orphanErr != nil {
			err = orphanErr
			return nil, nil, err
		}
		written = append(written, slotFromRecord(record))
		found = append(found, dateOrphans...)
	}
	return written, found, nil
}

// GetAvailability returns the provider's records in insertion order.
func (s *AvailabilityService) GetAvailability(ctx context.Context, providerID int64) ([]AvailabilitySlot, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if err := s.ensureProvider(ctx, providerID); err != nil {
		return nil, err
	}

	records, err := s.slots.ListAvailability(ctx, providerID)
	if err != nil {
		return nil, err
	}
	out := make([]AvailabilitySlot, 0, len(records))
	for _, r := range records {
		out = append(out, slotFromRecord(r))
	}
	return out, nil
}

// BookableDates returns the distinct dates with at least one declared hour, ascending.
func (s *AvailabilityService) BookableDates(ctx context.Context, providerID int64) ([]string, error) {
	slots, err := s.GetAvailability(ctx, providerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(slots))
	dates := make([]string, 0, len(slots))
	for _, slot := range slots {
		if len(slot.Hours) == 0 {
			continue
		}
		if _, ok := seen[slot.Date]; ok {
			continue
		}
		seen[slot.Date] = struct{}{}
		dates = append(dates, slot.Date)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *AvailabilityService) write(ctx context.Context, providerID int64, date string, hours []string) (AvailabilitySlot, []OrphanedAppointment, error) {
	record, err := s.slots.UpsertAvailability(ctx, persistence.AvailabilitySlot{
		ProviderID: providerID,
		Date:       date,
		Hours:      hours,
	})
	if err != nil {
		return AvailabilitySlot{}, nil, err
	}

	orphans, err := s.orphans(ctx, providerID, date, record.Hours)
	if err != nil {
		return AvailabilitySlot{}, nil, err
	}
	return slotFromRecord(record), orphans, nil
}

func (s *AvailabilityService) orphans(ctx context.Context, providerID int64, date string, declared []string) ([]OrphanedAppointment, error) {
	status := persistence.StatusScheduled
	scheduled, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		ProviderID: &providerID,
		Date:       &date,
		Status:     &status,
	})
	if err != nil {
		return nil, err
	}

	bookings := make([]scheduler.Booking, 0, len(scheduled))
	customers := make(map[int64]int64, len(scheduled))
	for _, a := range scheduled {
		bookings = append(bookings, scheduler.Booking{AppointmentID: a.ID, BookingRef: a.BookingRef, ProviderID: a.ProviderID, Date: a.Date, Time: a.Time})
		customers[a.ID] = a.CustomerID
	}

	var out []OrphanedAppointment
	for _, b := range scheduler.DetectOrphans(declared, bookings) {
		out = append(out, OrphanedAppointment{AppointmentID: b.AppointmentID, CustomerID: customers[b.AppointmentID], Date: b.Date, Time: b.Time})
	}
	return out, nil
}

func (s *AvailabilityService) ensureProvider(ctx context.Context, providerID int64) error {
	if _, err := s.catalog.GetProvider(ctx, providerID); err != nil {
		return mapRepoError(err, fmt.Sprintf("provider %d", providerID))
	}
	return nil
}

func authorizeProvider(principal Principal, providerID int64) error {
	if principal.IsSystem() || principal.UserID == providerID {
		return nil
	}
	return ErrUnauthorized
}

func validateDate(vErr *ValidationError, field, date string) {
	if !scheduler.ValidDate(date) {
		vErr.add(field, "must be an ISO date (YYYY-MM-DD)")
	}
}

func normalizeHours(vErr *ValidationError, hours []string) []string {
	valid, invalid := scheduler.NormalizeHours(hours)
	if len(invalid) > 0 {
		vErr.add("hours", fmt.Sprintf("invalid time tokens: %v", invalid))
	}
	return valid
}
