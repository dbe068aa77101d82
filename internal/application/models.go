package application

import "time"

// Role distinguishes the two kinds of account.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCanceled  Status = "Canceled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
// The zero Principal is the trusted in-process caller.
type Principal struct {
	UserID int64
}

// IsSystem reports whether the principal is the trusted in-process caller.
func (p Principal) IsSystem() bool {
	return p.UserID == 0
}

// User is an account as exposed to callers. The stored password never leaves the service.
type User struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	Phone     *string
	PhotoURL  *string
	CreatedAt time.Time
}

// RegisterParams carries the sign-up form.
type RegisterParams struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Provider is a catalog profile of a provider account.
type Provider struct {
	ID       int64
	Name     string
	PhotoURL *string
	Rating   float64
}

// Service is a catalog offering priced in minor currency units.
type Service struct {
	ID              int64
	Name            string
	PriceCents      int64
	DurationMinutes int
}

// Quote summarises a set of services before booking.
type Quote struct {
	Services             []Service
	TotalPriceCents      int64
	TotalDurationMinutes int
}

// AvailabilitySlot holds a provider's declared open hours on one date.
type AvailabilitySlot struct {
	ProviderID int64
	Date       string
	Hours      []string
	UpdatedAt  time.Time
}

// OrphanedAppointment is a Scheduled appointment whose time is no longer declared
// after an availability write. It is reported, never cancelled.
type OrphanedAppointment struct {
	AppointmentID int64
	CustomerID    int64
	Date          string
	Time          string
}

// SetAvailabilityParams replaces the hours of one (provider, date) pair.
type SetAvailabilityParams struct {
	Principal  Principal
	ProviderID int64
	Date       string
	Hours      []string
}

// DeclareHourRangeParams declares top-of-hour openings from Start (inclusive) to End (exclusive).
type DeclareHourRangeParams struct {
	Principal  Principal
	ProviderID int64
	Date       string
	Start      string
	End        string
}

// DeclareRecurringParams applies the same hours to every selected weekday in [From, Until].
type DeclareRecurringParams struct {
	Principal  Principal
	ProviderID int64
	From       string
	Until      string
	Weekdays   []time.Weekday
	Hours      []string
}

// Appointment is one booked service line.
type Appointment struct {
	ID         int64
	BookingRef string
	CustomerID int64
	ProviderID int64
	ServiceID  int64
	Date       string
	Time       string
	Status     Status
	CreatedAt  time.Time
}

// AppointmentFilter narrows appointment listings. Nil fields match everything.
type AppointmentFilter struct {
	CustomerID *int64
	ProviderID *int64
	Date       *string
	Status     *Status
}

// BookServicesParams requests one booking covering one or more services in a single slot.
type BookServicesParams struct {
	Principal  Principal
	CustomerID int64
	ProviderID int64
	Date       string
	Time       string
	ServiceIDs []int64
}
