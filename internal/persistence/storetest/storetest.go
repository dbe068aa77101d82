// Package storetest holds the behaviour every persistence.Store must share.
// Each backend runs it from its own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/barbershop-booking/internal/persistence"
)

// Factory returns an empty store that is closed when the test ends.
type Factory func(t *testing.T) persistence.Store

// Run exercises the full Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("catalog", func(t *testing.T) { testCatalog(t, newStore(t)) })
	t.Run("availability", func(t *testing.T) { testAvailability(t, newStore(t)) })
	t.Run("availability batch", func(t *testing.T) { testAvailabilityBatch(t, newStore(t)) })
	t.Run("appointments", func(t *testing.T) { testAppointments(t, newStore(t)) })
	t.Run("commit booking", func(t *testing.T) { testCommitBooking(t, newStore(t)) })
	t.Run("concurrent commits", func(t *testing.T) { testConcurrentCommits(t, newStore(t)) })
	t.Run("seeder duplicates", func(t *testing.T) { testSeederDuplicates(t, newStore(t)) })
}

func strPtr(s string) *string { return &s }

func testUsers(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertUser(ctx, persistence.User{
		ID: 4, Name: "Seeded", Email: "seeded@example.com", PasswordHash: "x", Role: "provider",
	}))

	created, err := store.CreateUser(ctx, persistence.User{
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "secret",
		Role:         "customer",
		Phone:        strPtr("555-0100"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = store.CreateUser(ctx, persistence.User{Name: "Dup", Email: "ana@example.com", Role: "customer"})
	assert.True(t, errors.Is(err, persistence.ErrDuplicate), "duplicate email must be rejected: %v", err)

	fetched, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", fetched.Email)
	require.NotNil(t, fetched.Phone)
	assert.Equal(t, "555-0100", *fetched.Phone)
	assert.Nil(t, fetched.PhotoURL)

	_, err = store.GetUser(ctx, 99)
	assert.True(t, errors.Is(err, persistence.ErrNotFound))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(4), users[0].ID)
	assert.Equal(t, int64(5), users[1].ID)
}

func testCatalog(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertProvider(ctx, persistence.Provider{ID: 3, Name: "Caio", Rating: 4.8}))
	require.NoError(t, store.InsertProvider(ctx, persistence.Provider{ID: 2, Name: "Jardel", Rating: 5, PhotoURL: strPtr("https://img/j")}))
	require.NoError(t, store.InsertService(ctx, persistence.Service{ID: 201, Name: "Cut", PriceCents: 4000, DurationMinutes: 35}))

	providers, err := store.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "Caio", providers[0].Name, "insertion order must be preserved")

	provider, err := store.GetProvider(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, provider.PhotoURL)
	assert.Equal(t, 5.0, provider.Rating)

	_, err = store.GetProvider(ctx, 1)
	assert.True(t, errors.Is(err, persistence.ErrNotFound))

	service, err := store.GetService(ctx, 201)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), service.PriceCents)
	assert.Equal(t, 35, service.DurationMinutes)

	_, err = store.GetService(ctx, 999)
	assert.True(t, errors.Is(err, persistence.ErrNotFound))

	services, err := store.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 1)
}

func testAvailability(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	_, err := store.GetAvailability(ctx, 2, "2025-05-24")
	assert.True(t, errors.Is(err, persistence.ErrNotFound))

	_, err = store.UpsertAvailability(ctx, persistence.AvailabilitySlot{ProviderID: 2, Date: "2025-05-25", Hours: []string{"10:00", "08:00"}})
	require.NoError(t, err)
	_, err = store.UpsertAvailability(ctx, persistence.AvailabilitySlot{ProviderID: 2, Date: "2025-05-24", Hours: []string{"09:00"}})
	require.NoError(t, err)
	_, err = store.UpsertAvailability(ctx, persistence.AvailabilitySlot{ProviderID: 2, Date: "2025-05-25", Hours: []string{"14:00"}})
	require.NoError(t, err)

	slot, err := store.GetAvailability(ctx, 2, "2025-05-25")
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00"}, slot.Hours)

	_, err = store.UpsertAvailability(ctx, persistence.AvailabilitySlot{ProviderID: 2, Date: "2025-05-26", Hours: []string{}})
	require.NoError(t, err)
	empty, err := store.GetAvailability(ctx, 2, "2025-05-26")
	require.NoError(t, err)
	assert.Empty(t, empty.Hours)

	slots, err := store.ListAvailability(ctx, 2)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "2025-05-25", slots[0].Date, "replacing a record keeps its position")
	assert.Equal(t, "2025-05-24", slots[1].Date)

	others, err := store.ListAvailability(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func testAvailabilityBatch(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	_, err := store.UpsertAvailability(ctx, persistence.AvailabilitySlot{ProviderID: 2, Date: "2025-06-07", Hours: []string{"08:00"}})
	require.NoError(t, err)

	written, err := store.UpsertAvailabilityBatch(ctx, []persistence.AvailabilitySlot{
		{ProviderID: 2, Date: "2025-05-31", Hours: []string{"09:00", "10:00"}},
		{ProviderID: 2, Date: "2025-06-07", Hours: []string{"09:00", "10:00"}},
	})
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, "2025-05-31", written[0].Date)
	assert.Equal(t, []string{"09:00", "10:00"}, written[1].Hours)

	slots, err := store.ListAvailability(ctx, 2)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2025-06-07", slots[0].Date, "replacing a record keeps its position")
	assert.Equal(t, []string{"09:00", "10:00"}, slots[0].Hours)

	_, err = store.UpsertAvailabilityBatch(ctx, []persistence.AvailabilitySlot{
		{ProviderID: 2, Date: "2025-06-14", Hours: []string{"11:00"}},
		{ProviderID: 2, Date: "2025-06-07", Hours: []string{}},
		{ProviderID: 2, Date: "2025-06-14", Hours: []string{"12:00"}},
	})
	assert.True(t, errors.Is(err, persistence.ErrDuplicate), "got %v", err)

	after, err := store.ListAvailability(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, slots, after, "a rejected batch writes nothing")
}

func testAppointments(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertAppointment(ctx, persistence.Appointment{
		ID: 301, CustomerID: 1, ProviderID: 2, ServiceID: 201, Date: "2025-05-24", Time: "10:00", Status: persistence.StatusScheduled,
	}))

	appended, err := store.AppendAppointment(ctx, persistence.Appointment{
		CustomerID: 1, ProviderID: 3, ServiceID: 203, Date: "2025-04-15", Time: "14:00", Status: "Completed",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(302), appended.ID)

	customer := int64(1)
	all, err := store.ListAppointments(ctx, persistence.AppointmentFilter{CustomerID: &customer})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(301), all[0].ID)

	status := persistence.StatusScheduled
	provider := int64(2)
	scheduled, err := store.ListAppointments(ctx, persistence.AppointmentFilter{ProviderID: &provider, Status: &status})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "10:00", scheduled[0].Time)

	other := int64(77)
	none, err := store.ListAppointments(ctx, persistence.AppointmentFilter{CustomerID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testCommitBooking(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertAvailability(ctx, persistence.AvailabilitySlot{
		ProviderID: 2, Date: "2025-05-24", Hours: []string{"08:00", "09:00", "10:00"},
	}))
	require.NoError(t, store.InsertAppointment(ctx, persistence.Appointment{
		ID: 301, BookingRef: "seed-301", CustomerID: 1, ProviderID: 2, ServiceID: 201,
		Date: "2025-05-24", Time: "10:00", Status: persistence.StatusScheduled,
	}))

	lines := func(ref string, serviceIDs ...int64) []persistence.Appointment {
		out := make([]persistence.Appointment, 0, len(serviceIDs))
		for _, id := range serviceIDs {
			out = append(out, persistence.Appointment{
				BookingRef: ref, CustomerID: 1, ProviderID: 2, ServiceID: id,
				Date: "2025-05-24", Time: "09:00", Status: persistence.StatusScheduled,
			})
		}
		return out
	}

	created, err := store.CommitBooking(ctx, persistence.BookingCommit{
		ProviderID: 2, Date: "2025-05-24", Time: "09:00", Lines: lines("ref-a", 201, 203),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(302), created[0].ID)
	assert.Equal(t, int64(303), created[1].ID)
	assert.Equal(t, "ref-a", created[1].BookingRef)

	_, err = store.CommitBooking(ctx, persistence.BookingCommit{
		ProviderID: 2, Date: "2025-05-24", Time: "09:00", Lines: lines("ref-b", 202),
	})
	assert.True(t, errors.Is(err, persistence.ErrSlotUnavailable), "taken slot: %v", err)

	closed := lines("ref-c", 202)
	for i := range closed {
		closed[i].Time = "11:00"
	}
	_, err = store.CommitBooking(ctx, persistence.BookingCommit{ProviderID: 2, Date: "2025-05-24", Time: "11:00", Lines: closed})
	assert.True(t, errors.Is(err, persistence.ErrSlotUnavailable), "undeclared slot: %v", err)

	_, err = store.CommitBooking(ctx, persistence.BookingCommit{ProviderID: 3, Date: "2025-05-24", Time: "09:00", Lines: lines("ref-d", 202)})
	assert.True(t, errors.Is(err, persistence.ErrSlotUnavailable), "no availability record: %v", err)

	all, err := store.ListAppointments(ctx, persistence.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "rejected commits must not write")
}

func testConcurrentCommits(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertAvailability(ctx, persistence.AvailabilitySlot{
		ProviderID: 2, Date: "2025-05-24", Hours: []string{"14:00"},
	}))

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.CommitBooking(ctx, persistence.BookingCommit{
				ProviderID: 2, Date: "2025-05-24", Time: "14:00",
				Lines: []persistence.Appointment{{
					BookingRef: string(rune('a' + i)), CustomerID: int64(i + 1), ProviderID: 2, ServiceID: 201,
					Date: "2025-05-24", Time: "14:00", Status: persistence.StatusScheduled,
				}},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, persistence.ErrSlotUnavailable), "unexpected error: %v", err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one concurrent booking may win the slot")
}

func testSeederDuplicates(t *testing.T, store persistence.Store) {
	ctx := context.Background()

	require.NoError(t, store.InsertUser(ctx, persistence.User{ID: 3, Name: "Caio", Email: "caio@barber.com", Role: "provider"}))
	err := store.InsertUser(ctx, persistence.User{ID: 3, Name: "Other", Email: "other@barber.com", Role: "provider"})
	assert.True(t, errors.Is(err, persistence.ErrDuplicate), "duplicate user id: %v", err)
	err = store.InsertUser(ctx, persistence.User{ID: 9, Name: "Other", Email: "caio@barber.com", Role: "provider"})
	assert.True(t, errors.Is(err, persistence.ErrDuplicate), "duplicate email: %v", err)

	require.NoError(t, store.InsertProvider(ctx, persistence.Provider{ID: 3, Name: "Caio"}))
	assert.True(t, errors.Is(store.InsertProvider(ctx, persistence.Provider{ID: 3, Name: "Caio"}), persistence.ErrDuplicate))

	require.NoError(t, store.InsertService(ctx, persistence.Service{ID: 201, Name: "Cut"}))
	assert.True(t, errors.Is(store.InsertService(ctx, persistence.Service{ID: 201, Name: "Cut"}), persistence.ErrDuplicate))

	slot := persistence.AvailabilitySlot{ProviderID: 3, Date: "2025-05-24", Hours: []string{"09:00"}}
	require.NoError(t, store.InsertAvailability(ctx, slot))
	assert.True(t, errors.Is(store.InsertAvailability(ctx, slot), persistence.ErrDuplicate))

	appt := persistence.Appointment{ID: 301, CustomerID: 1, ProviderID: 3, ServiceID: 201, Date: "2025-05-24", Time: "09:00", Status: persistence.StatusScheduled}
	require.NoError(t, store.InsertAppointment(ctx, appt))
	assert.True(t, errors.Is(store.InsertAppointment(ctx, appt), persistence.ErrDuplicate))
}
