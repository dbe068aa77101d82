package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/example/barbershop-booking/internal/application"
	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/persistence/memory"
	"github.com/example/barbershop-booking/internal/persistence/sqlite"
	"github.com/example/barbershop-booking/internal/seed"
)

// Backend selects the storage behind a Harness.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

// Backends lists every storage a service test should run against.
var Backends = []Backend{BackendMemory, BackendSQLite}

// Harness bundles a store with every application service wired to it.
type Harness struct {
	Store        persistence.Store
	Clock        *Clock
	Refs         *RefGenerator
	Identity     *application.IdentityService
	Catalog      *application.CatalogService
	Availability *application.AvailabilityService
	Appointments *application.AppointmentService
	Booking      *application.BookingService
}

// HarnessOption configures a Harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	dataset   *seed.Dataset
	passwords application.PasswordScheme
	metrics   application.Metrics
	logger    *slog.Logger
}

// WithDataset seeds the store with data instead of the reference dataset.
func WithDataset(data seed.Dataset) HarnessOption {
	return func(c *harnessConfig) { c.dataset = &data }
}

// WithoutSeed leaves the store empty.
func WithoutSeed() HarnessOption {
	return func(c *harnessConfig) { c.dataset = &seed.Dataset{} }
}

// WithPasswords overrides the password scheme.
func WithPasswords(scheme application.PasswordScheme) HarnessOption {
	return func(c *harnessConfig) { c.passwords = scheme }
}

// WithMetrics installs a metrics recorder on every service.
func WithMetrics(m application.Metrics) HarnessOption {
	return func(c *harnessConfig) { c.metrics = m }
}

// WithLogger overrides the discard logger.
func WithLogger(logger *slog.Logger) HarnessOption {
	return func(c *harnessConfig) { c.logger = logger }
}

// NewHarness builds a seeded harness on the given backend. The store is closed
// when the test finishes.
func NewHarness(tb testing.TB, backend Backend, opts ...HarnessOption) *Harness {
	tb.Helper()

	cfg := harnessConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.passwords == nil {
		cfg.passwords = application.PlainPasswords{}
	}

	clock := NewClock(ReferenceTime())
	ctx := context.Background()

	var store persistence.Store
	switch backend {
	case BackendSQLite:
		s, err := sqlite.Open(ctx, sqlite.DefaultConfig("file::memory:"), sqlite.WithClock(clock.NowFunc()))
		if err != nil {
			tb.Fatalf("open sqlite store: %v", err)
		}
		store = s
	default:
		store = memory.New(clock.NowFunc())
	}
	tb.Cleanup(func() { _ = store.Close() })

	data := seed.Reference()
	if cfg.dataset != nil {
		data = *cfg.dataset
	}
	if err := seed.Load(ctx, store, data, cfg.passwords.Hash); err != nil {
		tb.Fatalf("seed store: %v", err)
	}

	refs := NewRefGenerator("booking")
	return &Harness{
		Store:        store,
		Clock:        clock,
		Refs:         refs,
		Identity:     application.NewIdentityServiceWithLogger(store, cfg.passwords, cfg.metrics, cfg.logger),
		Catalog:      application.NewCatalogServiceWithLogger(store, cfg.logger),
		Availability: application.NewAvailabilityServiceWithLogger(store, store, store, cfg.metrics, cfg.logger),
		Appointments: application.NewAppointmentServiceWithLogger(store, cfg.logger),
		Booking:      application.NewBookingServiceWithLogger(store, refs.NextFunc(), cfg.metrics, cfg.logger),
	}
}

// ForEachBackend runs fn as a subtest against a fresh harness on every backend.
func ForEachBackend(t *testing.T, fn func(t *testing.T, h *Harness), opts ...HarnessOption) {
	t.Helper()
	for _, backend := range Backends {
		t.Run(string(backend), func(t *testing.T) {
			fn(t, NewHarness(t, backend, opts...))
		})
	}
}
