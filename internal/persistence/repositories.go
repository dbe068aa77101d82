package persistence

import "context"

// UserRepository stores accounts in insertion order.
type UserRepository interface {
	// CreateUser assigns the next id (max existing + 1, or 1) and appends the user.
	// A duplicate email yields ErrDuplicate.
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// CatalogRepository exposes read-only provider and service reference data.
type CatalogRepository interface {
	ListProviders(ctx context.Context) ([]Provider, error)
	GetProvider(ctx context.Context, id int64) (Provider, error)
	ListServices(ctx context.Context) ([]Service, error)
	GetService(ctx context.Context, id int64) (Service, error)
}

// AvailabilityRepository stores declared hours keyed by (provider, date).
type AvailabilityRepository interface {
	// UpsertAvailability replaces the hours of an existing (provider, date) record
	// or appends a new one.
	UpsertAvailability(ctx context.Context, slot AvailabilitySlot) (AvailabilitySlot, error)
	// UpsertAvailabilityBatch applies every upsert or none of them. A batch that
	// names the same (provider, date) twice yields ErrDuplicate.
	UpsertAvailabilityBatch(ctx context.Context, slots []AvailabilitySlot) ([]AvailabilitySlot, error)
	GetAvailability(ctx context.Context, providerID int64, date string) (AvailabilitySlot, error)
	ListAvailability(ctx context.Context, providerID int64) ([]AvailabilitySlot, error)
}

// AppointmentRepository stores appointments in insertion order.
type AppointmentRepository interface {
	// AppendAppointment assigns the next id (max existing + 1, or 1) without any
	// conflict check.
	AppendAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	// CommitBooking re-validates the slot against the declared hours and the
	// scheduled appointments and appends every line in one critical section.
	// A closed or taken slot yields ErrSlotUnavailable and nothing is written.
	CommitBooking(ctx context.Context, commit BookingCommit) ([]Appointment, error)
}

// Seeder loads reference records with their ids preserved. Every method
// rejects an id (or provider/date key) that is already present with ErrDuplicate.
type Seeder interface {
	InsertUser(ctx context.Context, user User) error
	InsertProvider(ctx context.Context, provider Provider) error
	InsertService(ctx context.Context, service Service) error
	InsertAvailability(ctx context.Context, slot AvailabilitySlot) error
	InsertAppointment(ctx context.Context, appointment Appointment) error
}

// Store bundles every ledger behind one owned container.
type Store interface {
	UserRepository
	CatalogRepository
	AvailabilityRepository
	AppointmentRepository
	Seeder
	Close() error
}
