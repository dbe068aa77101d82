package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/scheduler"
)

const appointmentColumns = `id, booking_ref, customer_id, provider_id, service_id, date, time, status, created_at`

// AppendAppointment assigns the next id and inserts the appointment without a conflict check.
func (s *Store) AppendAppointment(ctx context.Context, appointment persistence.Appointment) (persistence.Appointment, error) {
	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		appointment, err = s.appendAppointment(ctx, tx, appointment)
		return err
	})
	if err != nil {
		return persistence.Appointment{}, fmt.Errorf("sqlite: append appointment: %w", mapError(err))
	}
	return appointment, nil
}

// ListAppointments returns matching appointments in insertion order.
func (s *Store) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.CustomerID != nil {
		clauses = append(clauses, "customer_id = ?")
		args = append(args, *filter.CustomerID)
	}
	if filter.ProviderID != nil {
		clauses = append(clauses, "provider_id = ?")
		args = append(args, *filter.ProviderID)
	}
	if filter.Date != nil {
		clauses = append(clauses, "date = ?")
		args = append(args, *filter.Date)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *filter.Status)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY rowid`

	return listAppointments(ctx, s.pool.DB(), query, args...)
}

// CommitBooking re-validates the slot and inserts every line in one transaction.
// The pool holds a single connection, so concurrent commits are serialised.
func (s *Store) CommitBooking(ctx context.Context, commit persistence.BookingCommit) ([]persistence.Appointment, error) {
	var created []persistence.Appointment

	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var declared []string
		slot, err := getAvailability(ctx, tx, commit.ProviderID, commit.Date)
		switch {
		case err == nil:
			declared = slot.Hours
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		scheduled, err := listAppointments(ctx, tx,
			`SELECT `+appointmentColumns+` FROM appointments WHERE provider_id = ? AND date = ? AND status = ? ORDER BY rowid`,
			commit.ProviderID, commit.Date, persistence.StatusScheduled)
		if err != nil {
			return err
		}

		bookings := make([]scheduler.Booking, 0, len(scheduled))
		for _, a := range scheduled {
			bookings = append(bookings, scheduler.Booking{
				AppointmentID: a.ID,
				BookingRef:    a.BookingRef,
				ProviderID:    a.ProviderID,
				Date:          a.Date,
				Time:          a.Time,
			})
		}

		candidate := scheduler.Booking{ProviderID: commit.ProviderID, Date: commit.Date, Time: commit.Time}
		if conflicts := scheduler.DetectConflicts(declared, bookings, candidate); len(conflicts) > 0 {
			return fmt.Errorf("sqlite: provider %d %s %s (%s): %w",
				commit.ProviderID, commit.Date, commit.Time, conflicts[0].Type, persistence.ErrSlotUnavailable)
		}

		created = make([]persistence.Appointment, 0, len(commit.Lines))
		for _, line := range commit.Lines {
			appointment, err := s.appendAppointment(ctx, tx, line)
			if err != nil {
				return err
			}
			created = append(created, appointment)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, persistence.ErrSlotUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: commit booking: %w", mapError(err))
	}
	return created, nil
}

// InsertAppointment stores an appointment under its own id.
func (s *Store) InsertAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = s.now().UTC()
	}
	if err := insertAppointment(ctx, s.pool.DB(), appointment); err != nil {
		return fmt.Errorf("sqlite: insert appointment %d: %w", appointment.ID, mapError(err))
	}
	return nil
}

func (s *Store) appendAppointment(ctx context.Context, tx *sql.Tx, appointment persistence.Appointment) (persistence.Appointment, error) {
	id, err := nextID(ctx, tx, "appointments")
	if err != nil {
		return persistence.Appointment{}, err
	}
	appointment.ID = id
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = s.now().UTC()
	}
	if err := insertAppointment(ctx, tx, appointment); err != nil {
		return persistence.Appointment{}, err
	}
	return appointment, nil
}

func insertAppointment(ctx context.Context, q queryer, a persistence.Appointment) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO appointments (`+appointmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BookingRef, a.CustomerID, a.ProviderID, a.ServiceID, a.Date, a.Time, a.Status, formatTime(a.CreatedAt))
	return err
}

func listAppointments(ctx context.Context, q queryer, query string, args ...any) ([]persistence.Appointment, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list appointments: %w", err)
	}
	defer rows.Close()

	var out []persistence.Appointment
	for rows.Next() {
		var (
			a         persistence.Appointment
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.BookingRef, &a.CustomerID, &a.ProviderID, &a.ServiceID, &a.Date, &a.Time, &a.Status, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
