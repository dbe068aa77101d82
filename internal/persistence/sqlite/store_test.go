package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/persistence/sqlite"
	"github.com/example/barbershop-booking/internal/persistence/storetest"
)

func newTestStore(t *testing.T, dsn string) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(dsn))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreContractInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return newTestStore(t, "file::memory:")
	})
}

func TestStoreContractOnDisk(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return newTestStore(t, filepath.Join(t.TempDir(), "booking.db"))
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "booking.db")

	first := newTestStore(t, dsn)
	if err := first.InsertService(ctx, persistence.Service{ID: 201, Name: "Cut", PriceCents: 4000, DurationMinutes: 35}); err != nil {
		t.Fatalf("InsertService failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := newTestStore(t, dsn)
	if err := reopened.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	services, err := reopened.ListServices(ctx)
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(services) != 1 || services[0].Name != "Cut" {
		t.Fatalf("data lost across reopen: %#v", services)
	}
}

func TestStoreUsesClock(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)

	store, err := sqlite.Open(ctx, sqlite.DefaultConfig("file::memory:"), sqlite.WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	user, err := store.CreateUser(ctx, persistence.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: "customer"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected first id 1, got %d", user.ID)
	}

	fetched, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !fetched.CreatedAt.Equal(fixed) {
		t.Fatalf("expected CreatedAt %v, got %v", fixed, fetched.CreatedAt)
	}
}
