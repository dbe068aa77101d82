// Package memory implements the booking ledgers as a single owned, mutex guarded
// container living for the lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/scheduler"
)

type slotKey struct {
	providerID int64
	date       string
}

// Storage keeps every ledger in insertion order with map indexes for lookups.
type Storage struct {
	mu  sync.RWMutex
	now func() time.Time

	users      []persistence.User
	userIndex  map[int64]int
	emailIndex map[string]int64

	providers     []persistence.Provider
	providerIndex map[int64]int
	services      []persistence.Service
	serviceIndex  map[int64]int

	slots     []persistence.AvailabilitySlot
	slotIndex map[slotKey]int

	appointments     []persistence.Appointment
	appointmentIndex map[int64]int
	maxAppointmentID int64
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage. A nil now defaults to time.Now.
func New(now func() time.Time) *Storage {
	if now == nil {
		now = time.Now
	}
	return &Storage{
		now:              now,
		userIndex:        make(map[int64]int),
		emailIndex:       make(map[string]int64),
		providerIndex:    make(map[int64]int),
		serviceIndex:     make(map[int64]int),
		slotIndex:        make(map[slotKey]int),
		appointmentIndex: make(map[int64]int),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- UserRepository implementation ---

// CreateUser appends a user with the next free id.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emailIndex[user.Email]; ok {
		return persistence.User{}, fmt.Errorf("memory: email %s: %w", user.Email, persistence.ErrDuplicate)
	}

	var maxID int64
	for _, u := range s.users {
		maxID = max(maxID, u.ID)
	}
	user.ID = maxID + 1
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.appendUserLocked(user)
	return cloneUser(user), nil
}

// GetUser retrieves a user by id.
func (s *Storage) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.userIndex[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(s.users[idx]), nil
}

// ListUsers returns every user in insertion order.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	return users, nil
}

func (s *Storage) appendUserLocked(user persistence.User) {
	s.users = append(s.users, cloneUser(user))
	s.userIndex[user.ID] = len(s.users) - 1
	s.emailIndex[user.Email] = user.ID
}

// --- CatalogRepository implementation ---

// ListProviders returns provider profiles in insertion order.
func (s *Storage) ListProviders(ctx context.Context) ([]persistence.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providers := make([]persistence.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		providers = append(providers, cloneProvider(p))
	}
	return providers, nil
}

// GetProvider retrieves a provider profile by id.
func (s *Storage) GetProvider(ctx context.Context, id int64) (persistence.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.providerIndex[id]
	if !ok {
		return persistence.Provider{}, persistence.ErrNotFound
	}
	return cloneProvider(s.providers[idx]), nil
}

// ListServices returns services in insertion order.
func (s *Storage) ListServices(ctx context.Context) ([]persistence.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	services := make([]persistence.Service, len(s.services))
	copy(services, s.services)
	return services, nil
}

// GetService retrieves a service by id.
func (s *Storage) GetService(ctx context.Context, id int64) (persistence.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.serviceIndex[id]
	if !ok {
		return persistence.Service{}, persistence.ErrNotFound
	}
	return s.services[idx], nil
}

// --- AvailabilityRepository implementation ---

// UpsertAvailability replaces the hours for (provider, date) or appends a new record.
func (s *Storage) UpsertAvailability(ctx context.Context, slot persistence.AvailabilitySlot) (persistence.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot.UpdatedAt = s.now().UTC()
	key := slotKey{providerID: slot.ProviderID, date: slot.Date}
	if idx, ok := s.slotIndex[key]; ok {
		s.slots[idx] = cloneSlot(slot)
		return cloneSlot(slot), nil
	}
	s.appendSlotLocked(slot)
	return cloneSlot(slot), nil
}

// UpsertAvailabilityBatch applies every upsert under one write lock.
func (s *Storage) UpsertAvailabilityBatch(ctx context.Context, slots []persistence.AvailabilitySlot) ([]persistence.AvailabilitySlot, error) {
	seen := make(map[slotKey]struct{}, len(slots))
	for _, slot := range slots {
		key := slotKey{providerID: slot.ProviderID, date: slot.Date}
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("availability %d/%s repeated in batch: %w", slot.ProviderID, slot.Date, persistence.ErrDuplicate)
		}
		seen[key] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedAt := s.now().UTC()
	out := make([]persistence.AvailabilitySlot, 0, len(slots))
	for _, slot := range slots {
		slot.UpdatedAt = updatedAt
		if idx, ok := s.slotIndex[slotKey{providerID: slot.ProviderID, date: slot.Date}]; ok {
			s.slots[idx] = cloneSlot(slot)
		} else {
			s.appendSlotLocked(slot)
		}
		out = append(out, cloneSlot(slot))
	}
	return out, nil
}

// GetAvailability retrieves the record for (provider, date).
func (s *Storage) GetAvailability(ctx context.Context, providerID int64, date string) (persistence.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.slotIndex[slotKey{providerID: providerID, date: date}]
	if !ok {
		return persistence.AvailabilitySlot{}, persistence.ErrNotFound
	}
	return cloneSlot(s.slots[idx]), nil
}

// ListAvailability returns the provider's records in insertion order.
func (s *Storage) ListAvailability(ctx context.Context, providerID int64) ([]persistence.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slots []persistence.AvailabilitySlot
	for _, slot := range s.slots {
		if slot.ProviderID == providerID {
			slots = append(slots, cloneSlot(slot))
		}
	}
	return slots, nil
}

func (s *Storage) appendSlotLocked(slot persistence.AvailabilitySlot) {
	s.slots = append(s.slots, cloneSlot(slot))
	s.slotIndex[slotKey{providerID: slot.ProviderID, date: slot.Date}] = len(s.slots) - 1
}

// --- AppointmentRepository implementation ---

// AppendAppointment appends an appointment with the next free id.
func (s *Storage) AppendAppointment(ctx context.Context, appointment persistence.Appointment) (persistence.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendAppointmentLocked(appointment), nil
}

// ListAppointments returns matching appointments in insertion order.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Appointment
	for _, a := range s.appointments {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// CommitBooking re-validates the slot and appends every line under the write lock.
func (s *Storage) CommitBooking(ctx context.Context, commit persistence.BookingCommit) ([]persistence.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var declared []string
	if idx, ok := s.slotIndex[slotKey{providerID: commit.ProviderID, date: commit.Date}]; ok {
		declared = s.slots[idx].Hours
	}

	var scheduled []scheduler.Booking
	for _, a := range s.appointments {
		if a.ProviderID == commit.ProviderID && a.Date == commit.Date && a.Status == persistence.StatusScheduled {
			scheduled = append(scheduled, toBooking(a))
		}
	}

	candidate := scheduler.Booking{ProviderID: commit.ProviderID, Date: commit.Date, Time: commit.Time}
	if conflicts := scheduler.DetectConflicts(declared, scheduled, candidate); len(conflicts) > 0 {
		return nil, fmt.Errorf("memory: provider %d %s %s (%s): %w",
			commit.ProviderID, commit.Date, commit.Time, conflicts[0].Type, persistence.ErrSlotUnavailable)
	}

	created := make([]persistence.Appointment, 0, len(commit.Lines))
	for _, line := range commit.Lines {
		created = append(created, s.appendAppointmentLocked(line))
	}
	return created, nil
}

func (s *Storage) appendAppointmentLocked(appointment persistence.Appointment) persistence.Appointment {
	// Ids never repeat, even if an explicit seed id later exceeds the counter.
	appointment.ID = s.maxAppointmentID + 1
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = s.now().UTC()
	}
	s.insertAppointmentLocked(appointment)
	return appointment
}

func (s *Storage) insertAppointmentLocked(appointment persistence.Appointment) {
	s.appointments = append(s.appointments, appointment)
	s.appointmentIndex[appointment.ID] = len(s.appointments) - 1
	s.maxAppointmentID = max(s.maxAppointmentID, appointment.ID)
}

// --- Seeder implementation ---

// InsertUser stores a user under its own id.
func (s *Storage) InsertUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userIndex[user.ID]; ok {
		return fmt.Errorf("memory: user %d: %w", user.ID, persistence.ErrDuplicate)
	}
	if _, ok := s.emailIndex[user.Email]; ok {
		return fmt.Errorf("memory: email %s: %w", user.Email, persistence.ErrDuplicate)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.appendUserLocked(user)
	return nil
}

// InsertProvider stores a provider profile under its own id.
func (s *Storage) InsertProvider(ctx context.Context, provider persistence.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providerIndex[provider.ID]; ok {
		return fmt.Errorf("memory: provider %d: %w", provider.ID, persistence.ErrDuplicate)
	}
	s.providers = append(s.providers, cloneProvider(provider))
	s.providerIndex[provider.ID] = len(s.providers) - 1
	return nil
}

// InsertService stores a service under its own id.
func (s *Storage) InsertService(ctx context.Context, service persistence.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.serviceIndex[service.ID]; ok {
		return fmt.Errorf("memory: service %d: %w", service.ID, persistence.ErrDuplicate)
	}
	s.services = append(s.services, service)
	s.serviceIndex[service.ID] = len(s.services) - 1
	return nil
}

// InsertAvailability stores a new (provider, date) record.
func (s *Storage) InsertAvailability(ctx context.Context, slot persistence.AvailabilitySlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slotIndex[slotKey{providerID: slot.ProviderID, date: slot.Date}]; ok {
		return fmt.Errorf("memory: availability %d/%s: %w", slot.ProviderID, slot.Date, persistence.ErrDuplicate)
	}
	if slot.UpdatedAt.IsZero() {
		slot.UpdatedAt = s.now().UTC()
	}
	s.appendSlotLocked(slot)
	return nil
}

// InsertAppointment stores an appointment under its own id.
func (s *Storage) InsertAppointment(ctx context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointmentIndex[appointment.ID]; ok || appointment.ID <= 0 {
		return fmt.Errorf("memory: appointment %d: %w", appointment.ID, persistence.ErrDuplicate)
	}
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = s.now().UTC()
	}
	s.insertAppointmentLocked(appointment)
	return nil
}

// --- Helpers ---

func toBooking(a persistence.Appointment) scheduler.Booking {
	return scheduler.Booking{
		AppointmentID: a.ID,
		BookingRef:    a.BookingRef,
		ProviderID:    a.ProviderID,
		Date:          a.Date,
		Time:          a.Time,
	}
}

func cloneUser(user persistence.User) persistence.User {
	clone := user
	clone.Phone = cloneString(user.Phone)
	clone.PhotoURL = cloneString(user.PhotoURL)
	return clone
}

func cloneProvider(provider persistence.Provider) persistence.Provider {
	clone := provider
	clone.PhotoURL = cloneString(provider.PhotoURL)
	return clone
}

func cloneSlot(slot persistence.AvailabilitySlot) persistence.AvailabilitySlot {
	clone := slot
	clone.Hours = make([]string, len(slot.Hours))
	copy(clone.Hours, slot.Hours)
	return clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}
