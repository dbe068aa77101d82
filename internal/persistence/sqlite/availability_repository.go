package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/barbershop-booking/internal/persistence"
)

// UpsertAvailability replaces the hours of (provider, date) in place or appends
// a new record. Updating in place keeps the record's listing position.
func (s *Store) UpsertAvailability(ctx context.Context, slot persistence.AvailabilitySlot) (persistence.AvailabilitySlot, error) {
	slot.UpdatedAt = s.now().UTC()
	if err := upsertAvailability(ctx, s.pool.DB(), slot); err != nil {
		return persistence.AvailabilitySlot{}, err
	}

	out := slot
	out.Hours = append([]string{}, slot.Hours...)
	return out, nil
}

// UpsertAvailabilityBatch applies every upsert in one transaction.
func (s *Store) UpsertAvailabilityBatch(ctx context.Context, slots []persistence.AvailabilitySlot) ([]persistence.AvailabilitySlot, error) {
	updatedAt := s.now().UTC()
	out := make([]persistence.AvailabilitySlot, 0, len(slots))

	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		seen := make(map[string]struct{}, len(slots))
		for _, slot := range slots {
			key := fmt.Sprintf("%d/%s", slot.ProviderID, slot.Date)
			if _, ok := seen[key]; ok {
				return fmt.Errorf("sqlite: availability %s repeated in batch: %w", key, persistence.ErrDuplicate)
			}
			seen[key] = struct{}{}

			slot.UpdatedAt = updatedAt
			if err := upsertAvailability(ctx, tx, slot); err != nil {
				return err
			}
			slot.Hours = append([]string{}, slot.Hours...)
			out = append(out, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func upsertAvailability(ctx context.Context, q queryer, slot persistence.AvailabilitySlot) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO availability (provider_id, date, hours, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (provider_id, date) DO UPDATE SET hours = excluded.hours, updated_at = excluded.updated_at`,
		slot.ProviderID, slot.Date, encodeHours(slot.Hours), formatTime(slot.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: upsert availability %d/%s: %w", slot.ProviderID, slot.Date, err)
	}
	return nil
}

// GetAvailability retrieves the record for (provider, date).
func (s *Store) GetAvailability(ctx context.Context, providerID int64, date string) (persistence.AvailabilitySlot, error) {
	slot, err := getAvailability(ctx, s.pool.DB(), providerID, date)
	if err != nil {
		return persistence.AvailabilitySlot{}, mapError(err)
	}
	return slot, nil
}

// ListAvailability returns the provider's records in insertion order.
func (s *Store) ListAvailability(ctx context.Context, providerID int64) ([]persistence.AvailabilitySlot, error) {
	rows, err := s.pool.DB().QueryContext(ctx,
		`SELECT provider_id, date, hours, updated_at FROM availability WHERE provider_id = ? ORDER BY rowid`, providerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list availability: %w", err)
	}
	defer rows.Close()

	var slots []persistence.AvailabilitySlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// InsertAvailability stores a new (provider, date) record.
func (s *Store) InsertAvailability(ctx context.Context, slot persistence.AvailabilitySlot) error {
	if slot.UpdatedAt.IsZero() {
		slot.UpdatedAt = s.now().UTC()
	}
	_, err := s.pool.DB().ExecContext(ctx,
		`INSERT INTO availability (provider_id, date, hours, updated_at) VALUES (?, ?, ?, ?)`,
		slot.ProviderID, slot.Date, encodeHours(slot.Hours), formatTime(slot.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: insert availability %d/%s: %w", slot.ProviderID, slot.Date, mapError(err))
	}
	return nil
}

func getAvailability(ctx context.Context, q queryer, providerID int64, date string) (persistence.AvailabilitySlot, error) {
	row := q.QueryRowContext(ctx,
		`SELECT provider_id, date, hours, updated_at FROM availability WHERE provider_id = ? AND date = ?`,
		providerID, date)
	return scanSlot(row)
}

func scanSlot(row rowScanner) (persistence.AvailabilitySlot, error) {
	var (
		slot      persistence.AvailabilitySlot
		hours     string
		updatedAt string
	)
	if err := row.Scan(&slot.ProviderID, &slot.Date, &hours, &updatedAt); err != nil {
		return persistence.AvailabilitySlot{}, err
	}
	slot.Hours = decodeHours(hours)
	slot.UpdatedAt = parseTime(updatedAt)
	return slot, nil
}
