package persistence

import "time"

// User is a stored account for a customer or a provider.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Phone        *string
	PhotoURL     *string
	CreatedAt    time.Time
}

// Provider is the public catalog profile of a provider account.
type Provider struct {
	ID       int64
	Name     string
	PhotoURL *string
	Rating   float64
}

// Service is a catalog offering.
type Service struct {
	ID              int64
	Name            string
	PriceCents      int64
	DurationMinutes int
}

// AvailabilitySlot holds the declared open hours of one provider on one date.
type AvailabilitySlot struct {
	ProviderID int64
	Date       string
	Hours      []string
	UpdatedAt  time.Time
}

// Appointment is one service line booked in a provider slot.
type Appointment struct {
	ID         int64
	BookingRef string
	CustomerID int64
	ProviderID int64
	ServiceID  int64
	Date       string
	Time       string
	Status     string
	CreatedAt  time.Time
}

// AppointmentFilter narrows appointment listings. Nil fields match everything.
type AppointmentFilter struct {
	CustomerID *int64
	ProviderID *int64
	Date       *string
	Status     *string
}

// Matches reports whether the appointment satisfies every set field.
func (f AppointmentFilter) Matches(a Appointment) bool {
	if f.CustomerID != nil && a.CustomerID != *f.CustomerID {
		return false
	}
	if f.ProviderID != nil && a.ProviderID != *f.ProviderID {
		return false
	}
	if f.Date != nil && a.Date != *f.Date {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	return true
}

// BookingCommit describes the service lines of one booking that must be
// appended together after the slot is re-validated.
type BookingCommit struct {
	ProviderID int64
	Date       string
	Time       string
	Lines      []Appointment
}

// StatusScheduled is the only status a booking commit writes.
const StatusScheduled = "Scheduled"
