package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/barbershop-booking/internal/persistence"
)

// ListProviders returns provider profiles in insertion order.
func (s *Store) ListProviders(ctx context.Context) ([]persistence.Provider, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT id, name, photo_url, rating FROM providers ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list providers: %w", err)
	}
	defer rows.Close()

	var providers []persistence.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

// GetProvider retrieves a provider profile by id.
func (s *Store) GetProvider(ctx context.Context, id int64) (persistence.Provider, error) {
	row := s.pool.DB().QueryRowContext(ctx, `SELECT id, name, photo_url, rating FROM providers WHERE id = ?`, id)
	provider, err := scanProvider(row)
	if err != nil {
		return persistence.Provider{}, mapError(err)
	}
	return provider, nil
}

// ListServices returns services in insertion order.
func (s *Store) ListServices(ctx context.Context) ([]persistence.Service, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT id, name, price_cents, duration_minutes FROM services ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list services: %w", err)
	}
	defer rows.Close()

	var services []persistence.Service
	for rows.Next() {
		var service persistence.Service
		if err := rows.Scan(&service.ID, &service.Name, &service.PriceCents, &service.DurationMinutes); err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

// GetService retrieves a service by id.
func (s *Store) GetService(ctx context.Context, id int64) (persistence.Service, error) {
	var service persistence.Service
	err := s.pool.DB().QueryRowContext(ctx,
		`SELECT id, name, price_cents, duration_minutes FROM services WHERE id = ?`, id,
	).Scan(&service.ID, &service.Name, &service.PriceCents, &service.DurationMinutes)
	if err != nil {
		return persistence.Service{}, mapError(err)
	}
	return service, nil
}

// InsertProvider stores a provider profile under its own id.
func (s *Store) InsertProvider(ctx context.Context, provider persistence.Provider) error {
	_, err := s.pool.DB().ExecContext(ctx,
		`INSERT INTO providers (id, name, photo_url, rating) VALUES (?, ?, ?, ?)`,
		provider.ID, provider.Name, nullString(provider.PhotoURL), provider.Rating)
	if err != nil {
		return fmt.Errorf("sqlite: insert provider %d: %w", provider.ID, mapError(err))
	}
	return nil
}

// InsertService stores a service under its own id.
func (s *Store) InsertService(ctx context.Context, service persistence.Service) error {
	_, err := s.pool.DB().ExecContext(ctx,
		`INSERT INTO services (id, name, price_cents, duration_minutes) VALUES (?, ?, ?, ?)`,
		service.ID, service.Name, service.PriceCents, service.DurationMinutes)
	if err != nil {
		return fmt.Errorf("sqlite: insert service %d: %w", service.ID, mapError(err))
	}
	return nil
}

func scanProvider(row rowScanner) (persistence.Provider, error) {
	var (
		provider persistence.Provider
		photoURL sql.NullString
	)
	if err := row.Scan(&provider.ID, &provider.Name, &photoURL, &provider.Rating); err != nil {
		return persistence.Provider{}, err
	}
	provider.PhotoURL = stringPtr(photoURL)
	return provider, nil
}
