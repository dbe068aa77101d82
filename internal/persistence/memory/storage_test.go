package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/persistence/memory"
	"github.com/example/barbershop-booking/internal/persistence/storetest"
)

func TestStorageContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		store := memory.New(nil)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestStorageReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixed := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	store := memory.New(func() time.Time { return fixed })

	if _, err := store.UpsertAvailability(ctx, persistence.AvailabilitySlot{ProviderID: 2, Date: "2025-05-24", Hours: []string{"08:00", "09:00"}}); err != nil {
		t.Fatalf("UpsertAvailability failed: %v", err)
	}

	slot, err := store.GetAvailability(ctx, 2, "2025-05-24")
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if !slot.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected UpdatedAt %v, got %v", fixed, slot.UpdatedAt)
	}
	slot.Hours[0] = "23:00"

	again, err := store.GetAvailability(ctx, 2, "2025-05-24")
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if again.Hours[0] != "08:00" {
		t.Fatalf("caller mutation leaked into storage: %v", again.Hours)
	}
}
