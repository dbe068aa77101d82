package application_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/example/barbershop-booking/internal/application"
	"github.com/example/barbershop-booking/internal/testfixtures"
)

type recordedMetrics struct {
	mu       sync.Mutex
	bookings []string
	writes   []string
	auths    []string
}

func (m *recordedMetrics) AuthAttempt(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auths = append(m.auths, operation+":"+outcome)
}

func (m *recordedMetrics) AvailabilityWrite(outcome string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, outcome)
}

func (m *recordedMetrics) BookingAttempt(outcome string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, outcome)
}

func book(customerID, providerID int64, date, at string, services ...int64) application.BookServicesParams {
	return application.BookServicesParams{
		CustomerID: customerID,
		ProviderID: providerID,
		Date:       date,
		Time:       at,
		ServiceIDs: services,
	}
}

func TestBookingService_ScenariosBAndC(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()
		setHours(t, h, 2, "2025-06-01", "08:00", "09:00", "10:00")

		created, err := h.Booking.BookServices(ctx, book(1, 2, "2025-06-01", "09:00", 201))
		if err != nil {
			t.Fatalf("first booking failed: %v", err)
		}
		if len(created) != 1 || created[0].Status != application.StatusScheduled {
			t.Fatalf("unexpected booking result: %#v", created)
		}

		open, err := h.Booking.AvailableHours(ctx, 2, "2025-06-01")
		if err != nil {
			t.Fatalf("AvailableHours failed: %v", err)
		}
		if !slices.Equal(open, []string{"08:00", "10:00"}) {
			t.Fatalf("expected 09:00 to be taken, got %v", open)
		}

		_, err = h.Booking.BookServices(ctx, book(1, 2, "2025-06-01", "09:00", 203))
		if !errors.Is(err, application.ErrConflict) {
			t.Fatalf("expected ErrConflict on second booking, got %v", err)
		}

		list, err := h.Appointments.ListAppointments(ctx, application.AppointmentFilter{})
		if err != nil {
			t.Fatalf("ListAppointments failed: %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("expected 2 seeded and 1 new appointment, got %d", len(list))
		}
	})
}

func TestBookingService_MultiServiceBooking(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()
		setHours(t, h, 3, "2025-06-02", "14:00", "15:00")

		created, err := h.Booking.BookServices(ctx, application.BookServicesParams{
			Principal:  application.Principal{UserID: 1},
			CustomerID: 1,
			ProviderID: 3,
			Date:       "2025-06-02",
			Time:       "14:00",
			ServiceIDs: []int64{202, 203},
		})
		if err != nil {
			t.Fatalf("BookServices failed: %v", err)
		}
		if len(created) != 2 {
			t.Fatalf("expected one line per service, got %d", len(created))
		}
		if created[0].ServiceID != 202 || created[1].ServiceID != 203 {
			t.Fatalf("lines must follow request order: %#v", created)
		}
		if created[0].BookingRef != "booking-1" || created[1].BookingRef != "booking-1" {
			t.Fatalf("lines must share one booking reference: %#v", created)
		}
		if created[0].ID != 303 || created[1].ID != 304 {
			t.Fatalf("expected ids to continue after seed max 302, got %d and %d", created[0].ID, created[1].ID)
		}
		if !created[0].CreatedAt.Equal(testfixtures.ReferenceTime()) {
			t.Fatalf("expected creation time from the clock, got %v", created[0].CreatedAt)
		}

		open, err := h.Booking.AvailableHours(ctx, 3, "2025-06-02")
		if err != nil {
			t.Fatalf("AvailableHours failed: %v", err)
		}
		if !slices.Equal(open, []string{"15:00"}) {
			t.Fatalf("expected only 15:00 open, got %v", open)
		}

		next, err := h.Booking.BookServices(ctx, book(1, 3, "2025-06-02", "15:00", 204))
		if err != nil {
			t.Fatalf("second booking failed: %v", err)
		}
		if next[0].ID != 305 || next[0].BookingRef != "booking-2" {
			t.Fatalf("unexpected second booking: %#v", next[0])
		}
	})
}

func TestBookingService_SeedAppointmentBlocksSlot(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()

		open, err := h.Booking.AvailableHours(ctx, 2, "2025-05-24")
		if err != nil {
			t.Fatalf("AvailableHours failed: %v", err)
		}
		if slices.Contains(open, "10:00") || len(open) != 6 {
			t.Fatalf("seed appointment 301 must hold 10:00, got %v", open)
		}

		// Completed appointments do not hold their slot.
		open, err = h.Booking.AvailableHours(ctx, 3, "2025-05-24")
		if err != nil {
			t.Fatalf("AvailableHours failed: %v", err)
		}
		if len(open) != 7 {
			t.Fatalf("expected all seven declared hours for provider 3, got %v", open)
		}

		if _, err := h.Booking.BookServices(ctx, book(1, 2, "2025-05-24", "10:00", 201)); !errors.Is(err, application.ErrConflict) {
			t.Fatalf("expected ErrConflict for booked seed slot, got %v", err)
		}

		open, err = h.Booking.AvailableHours(ctx, 2, "2030-01-01")
		if err != nil {
			t.Fatalf("AvailableHours failed: %v", err)
		}
		if len(open) != 0 {
			t.Fatalf("undeclared date must have no hours, got %v", open)
		}
	})
}

func TestBookingService_Rejections(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()
		setHours(t, h, 2, "2025-06-01", "08:00", "09:00")

		cases := []struct {
			name   string
			params application.BookServicesParams
			check  func(error) bool
		}{
			{"undeclared time", book(1, 2, "2025-06-01", "13:00", 201), func(err error) bool { return errors.Is(err, application.ErrConflict) }},
			{"unknown service", book(1, 2, "2025-06-01", "08:00", 201, 999), func(err error) bool { return errors.Is(err, application.ErrNotFound) }},
			{"no services", book(1, 2, "2025-06-01", "08:00"), isValidation("service_ids")},
			{"malformed time", book(1, 2, "2025-06-01", "8:00", 201), isValidation("time")},
			{"malformed date", book(1, 2, "June 1", "08:00", 201), isValidation("date")},
			{"unknown provider", book(1, 42, "2025-06-01", "08:00", 201), func(err error) bool { return errors.Is(err, application.ErrNotFound) }},
			{"unknown customer", book(77, 2, "2025-06-01", "08:00", 201), func(err error) bool { return errors.Is(err, application.ErrNotFound) }},
			{"provider as customer", book(3, 2, "2025-06-01", "08:00", 201), func(err error) bool { return errors.Is(err, application.ErrUnauthorized) }},
			{"principal mismatch", application.BookServicesParams{
				Principal: application.Principal{UserID: 2}, CustomerID: 1, ProviderID: 2, Date: "2025-06-01", Time: "08:00", ServiceIDs: []int64{201},
			}, func(err error) bool { return errors.Is(err, application.ErrUnauthorized) }},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				created, err := h.Booking.BookServices(ctx, tc.params)
				if !tc.check(err) {
					t.Fatalf("unexpected error: %v", err)
				}
				if created != nil {
					t.Fatalf("expected no appointments, got %#v", created)
				}
			})
		}

		list, err := h.Appointments.ListAppointments(ctx, application.AppointmentFilter{})
		if err != nil {
			t.Fatalf("ListAppointments failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("rejected bookings must not write records, found %d", len(list))
		}
	})
}

func isValidation(field string) func(error) bool {
	return func(err error) bool {
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			return false
		}
		_, ok := vErr.FieldErrors[field]
		return ok
	}
}

func TestBookingService_ConcurrentBookingsForOneSlot(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()
		setHours(t, h, 2, "2025-06-01", "11:00")

		const attempts = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Booking.BookServices(ctx, book(1, 2, "2025-06-01", "11:00", 201, 203))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, application.ErrConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if wins != 1 || conflicts != attempts-1 {
			t.Fatalf("expected exactly one winner, got %d wins and %d conflicts", wins, conflicts)
		}

		date := "2025-06-01"
		lines, err := h.Appointments.ListAppointments(ctx, application.AppointmentFilter{Date: &date})
		if err != nil {
			t.Fatalf("ListAppointments failed: %v", err)
		}
		if len(lines) != 2 || lines[0].BookingRef != lines[1].BookingRef {
			t.Fatalf("expected the two lines of the winning booking, got %#v", lines)
		}
	})
}

func TestBookingService_RecordsOutcomes(t *testing.T) {
	metrics := &recordedMetrics{}
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory, testfixtures.WithMetrics(metrics))
	ctx := context.Background()

	setHours(t, h, 2, "2025-06-01", "09:00")
	if _, err := h.Booking.BookServices(ctx, book(1, 2, "2025-06-01", "09:00", 201)); err != nil {
		t.Fatalf("BookServices failed: %v", err)
	}
	_, _ = h.Booking.BookServices(ctx, book(1, 2, "2025-06-01", "09:00", 201))
	_, _ = h.Booking.BookServices(ctx, book(1, 2, "2025-06-01", "09:00"))

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if !slices.Equal(metrics.bookings, []string{"success", "conflict", "conflict"}) {
		t.Fatalf("unexpected booking outcomes: %v", metrics.bookings)
	}
	if !slices.Equal(metrics.writes, []string{"success"}) {
		t.Fatalf("unexpected availability outcomes: %v", metrics.writes)
	}
}
