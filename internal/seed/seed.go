// Package seed holds the reference dataset the service starts with.
package seed

import (
	"context"
	"fmt"

	"github.com/example/barbershop-booking/internal/persistence"
)

const (
	customerPhoto = "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=200"
	jardelPhoto   = "https://images.pexels.com/photos/1516680/pexels-photo-1516680.jpeg?auto=compress&cs=tinysrgb&w=200"
	caioPhoto     = "https://images.pexels.com/photos/1222271/pexels-photo-1222271.jpeg?auto=compress&cs=tinysrgb&w=200"
)

// DefaultPhotoURL is shown wherever a user or provider has no photo.
const DefaultPhotoURL = customerPhoto

// Dataset is a complete set of records to load into an empty store.
type Dataset struct {
	Users        []persistence.User
	Providers    []persistence.Provider
	Services     []persistence.Service
	Availability []persistence.AvailabilitySlot
	Appointments []persistence.Appointment
}

func ptr(s string) *string { return &s }

// Reference returns the built-in dataset. Seed passwords are stored as given;
// Load re-hashes them when a hashing scheme is in use.
//
// João Roberto is the fourth account: ids are unique, so he cannot share id 3 with Caio.
// He has no catalog profile, so his availability writes fail with not found
// until a profile for id 4 exists.
func Reference() Dataset {
	return Dataset{
		Users: []persistence.User{
			{ID: 1, Name: "João Nogueira", Email: "joao@gmail.com", PasswordHash: "123", Role: "customer", Phone: ptr("(11) 98765-4321"), PhotoURL: ptr(customerPhoto)},
			{ID: 2, Name: "Jardel", Email: "jardel@barber.com", PasswordHash: "123", Role: "provider", PhotoURL: ptr(jardelPhoto)},
			{ID: 3, Name: "Caio", Email: "caio@barber.com", PasswordHash: "123", Role: "provider", PhotoURL: ptr(caioPhoto)},
			{ID: 4, Name: "João Roberto", Email: "marccopollo16@gmail.com", PasswordHash: "123", Role: "provider", PhotoURL: ptr(caioPhoto)},
		},
		Providers: []persistence.Provider{
			{ID: 2, Name: "Jardel", PhotoURL: ptr(jardelPhoto), Rating: 5.0},
			{ID: 3, Name: "Caio", PhotoURL: ptr(caioPhoto), Rating: 4.8},
		},
		Services: []persistence.Service{
			{ID: 201, Name: "Clipper and Scissors Cut", PriceCents: 4000, DurationMinutes: 35},
			{ID: 202, Name: "Scissors Cut", PriceCents: 4500, DurationMinutes: 40},
			{ID: 203, Name: "Beard Trim", PriceCents: 2500, DurationMinutes: 20},
			{ID: 204, Name: "Hair and Beard Combo", PriceCents: 6000, DurationMinutes: 50},
		},
		Availability: []persistence.AvailabilitySlot{
			{ProviderID: 2, Date: "2025-05-24", Hours: []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}},
			{ProviderID: 2, Date: "2025-05-25", Hours: []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00"}},
			{ProviderID: 3, Date: "2025-05-24", Hours: []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}},
			{ProviderID: 3, Date: "2025-05-25", Hours: []string{"08:00", "09:00", "10:00", "14:00", "15:00", "16:00"}},
		},
		Appointments: []persistence.Appointment{
			{ID: 301, BookingRef: "seed-301", CustomerID: 1, ProviderID: 2, ServiceID: 201, Date: "2025-05-24", Time: "10:00", Status: "Scheduled"},
			{ID: 302, BookingRef: "seed-302", CustomerID: 1, ProviderID: 3, ServiceID: 203, Date: "2025-04-15", Time: "14:00", Status: "Completed"},
		},
	}
}

// HashFunc converts a seed password into its stored form.
type HashFunc func(password string) (string, error)

// Load inserts every record of the dataset in order. Duplicate ids, emails or
// (provider, date) pairs abort the load with persistence.ErrDuplicate.
func Load(ctx context.Context, store persistence.Seeder, data Dataset, hash HashFunc) error {
	for _, user := range data.Users {
		if hash != nil {
			stored, err := hash(user.PasswordHash)
			if err != nil {
				return fmt.Errorf("seed: hash password for user %d: %w", user.ID, err)
			}
			user.PasswordHash = stored
		}
		if err := store.InsertUser(ctx, user); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, provider := range data.Providers {
		if err := store.InsertProvider(ctx, provider); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, service := range data.Services {
		if err := store.InsertService(ctx, service); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, slot := range data.Availability {
		if err := store.InsertAvailability(ctx, slot); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, appointment := range data.Appointments {
		if err := store.InsertAppointment(ctx, appointment); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}
