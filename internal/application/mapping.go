package application

import (
	"errors"
	"fmt"

	"github.com/example/barbershop-booking/internal/persistence"
)

func userFromRecord(r persistence.User) User {
	return User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      Role(r.Role),
		Phone:     r.Phone,
		PhotoURL:  r.PhotoURL,
		CreatedAt: r.CreatedAt,
	}
}

func providerFromRecord(r persistence.Provider) Provider {
	return Provider{ID: r.ID, Name: r.Name, PhotoURL: r.PhotoURL, Rating: r.Rating}
}

func serviceFromRecord(r persistence.Service) Service {
	return Service{ID: r.ID, Name: r.Name, PriceCents: r.PriceCents, DurationMinutes: r.DurationMinutes}
}

func slotFromRecord(r persistence.AvailabilitySlot) AvailabilitySlot {
	hours := make([]string, len(r.Hours))
	copy(hours, r.Hours)
	return AvailabilitySlot{ProviderID: r.ProviderID, Date: r.Date, Hours: hours, UpdatedAt: r.UpdatedAt}
}

func appointmentFromRecord(r persistence.Appointment) Appointment {
	return Appointment{
		ID:         r.ID,
		BookingRef: r.BookingRef,
		CustomerID: r.CustomerID,
		ProviderID: r.ProviderID,
		ServiceID:  r.ServiceID,
		Date:       r.Date,
		Time:       r.Time,
		Status:     Status(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

func appointmentToRecord(a Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:         a.ID,
		BookingRef: a.BookingRef,
		CustomerID: a.CustomerID,
		ProviderID: a.ProviderID,
		ServiceID:  a.ServiceID,
		Date:       a.Date,
		Time:       a.Time,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
	}
}

func filterToRecord(f AppointmentFilter) persistence.AppointmentFilter {
	out := persistence.AppointmentFilter{
		CustomerID: f.CustomerID,
		ProviderID: f.ProviderID,
		Date:       f.Date,
	}
	if f.Status != nil {
		status := string(*f.Status)
		out.Status = &status
	}
	return out
}

// mapRepoError translates persistence sentinels into the application taxonomy.
func mapRepoError(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	case errors.Is(err, persistence.ErrSlotUnavailable):
		return fmt.Errorf("%s: %w", subject, ErrConflict)
	default:
		return err
	}
}
