package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/barbershop-booking/internal/application"
	"github.com/example/barbershop-booking/internal/auth"
	"github.com/example/barbershop-booking/internal/config"
	httptransport "github.com/example/barbershop-booking/internal/http"
	"github.com/example/barbershop-booking/internal/logging"
	"github.com/example/barbershop-booking/internal/metrics"
	"github.com/example/barbershop-booking/internal/persistence"
	"github.com/example/barbershop-booking/internal/persistence/memory"
	"github.com/example/barbershop-booking/internal/persistence/sqlite"
	"github.com/example/barbershop-booking/internal/seed"
	"github.com/example/barbershop-booking/internal/tracing"
)

const serviceName = "barberd"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to read .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close(logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type app struct {
	handler  http.Handler
	store    persistence.Store
	shutdown tracing.ShutdownFunc
}

func (a *app) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}

// buildApp wires storage, services and the HTTP surface from configuration.
func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	fail := func(err error) (*app, error) {
		_ = store.Close()
		_ = shutdown(ctx)
		return nil, err
	}

	passwords, err := application.PasswordSchemeByName(cfg.PasswordScheme)
	if err != nil {
		return fail(err)
	}

	if cfg.Seed {
		seeded, err := seedIfEmpty(ctx, store, passwords)
		if err != nil {
			return fail(fmt.Errorf("seed storage: %w", err))
		}
		if seeded {
			logger.Info("reference dataset loaded", "password_scheme", passwords.Name())
		}
	}

	tokens, err := auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return fail(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewBookingMetrics(registry)

	identity := application.NewIdentityServiceWithLogger(store, passwords, recorder, logger)
	catalog := application.NewCatalogServiceWithLogger(store, logger)
	availability := application.NewAvailabilityServiceWithLogger(store, store, store, recorder, logger)
	appointments := application.NewAppointmentServiceWithLogger(store, logger)
	booking := application.NewBookingServiceWithLogger(store, nil, recorder, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(identity, tokens, logger),
		Catalog:        httptransport.NewCatalogHandler(catalog, logger),
		Availability:   httptransport.NewAvailabilityHandler(availability, booking, logger),
		Appointments:   httptransport.NewAppointmentHandler(appointments, booking, logger),
		Tokens:         tokens,
		RateLimiter:    httptransport.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		MetricsHandler: recorder.Handler(),
		Logger:         logger,
		ServiceName:    serviceName,
	})

	return &app{handler: handler, store: store, shutdown: shutdown}, nil
}

func openStore(ctx context.Context, cfg config.Config) (persistence.Store, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return memory.New(time.Now), nil
	}
}

// seedIfEmpty loads the reference dataset unless the store already holds users,
// so restarting against a persistent database does not trip duplicate ids.
func seedIfEmpty(ctx context.Context, store persistence.Store, passwords application.PasswordScheme) (bool, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		return false, nil
	}
	return true, seed.Load(ctx, store, seed.Reference(), passwords.Hash)
}
