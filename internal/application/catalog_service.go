package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/example/barbershop-booking/internal/persistence"
)

// CatalogService exposes the read-only provider and service reference data.
type CatalogService struct {
	catalog persistence.CatalogRepository
	logger  *slog.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(catalog persistence.CatalogRepository) *CatalogService {
	return NewCatalogServiceWithLogger(catalog, nil)
}

// NewCatalogServiceWithLogger constructs a CatalogService with a specified logger.
func NewCatalogServiceWithLogger(catalog persistence.CatalogRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: defaultLogger(logger)}
}

func (s *CatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// ListProviders returns provider profiles in insertion order.
func (s *CatalogService) ListProviders(ctx context.Context) ([]Provider, error) {
	if s == nil || s.catalog == nil {
		return nil, fmt.Errorf("catalog service not configured")
	}
	records, err := s.catalog.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Provider, 0, len(records))
	for _, r := range records {
		out = append(out, providerFromRecord(r))
	}
	return out, nil
}

// ListServices returns services in insertion order.
func (s *CatalogService) ListServices(ctx context.Context) ([]Service, error) {
	if s == nil || s.catalog == nil {
		return nil, fmt.Errorf("catalog service not configured")
	}
	records, err := s.catalog.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Service, 0, len(records))
	for _, r := range records {
		out = append(out, serviceFromRecord(r))
	}
	return out, nil
}

// GetProvider looks up a provider profile.
func (s *CatalogService) GetProvider(ctx context.Context, id int64) (Provider, error) {
	if s == nil || s.catalog == nil {
		return Provider{}, fmt.Errorf("catalog service not configured")
	}
	record, err := s.catalog.GetProvider(ctx, id)
	if err != nil {
		return Provider{}, s.lookupFailed(ctx, "GetProvider", mapRepoError(err, fmt.Sprintf("provider %d", id)))
	}
	return providerFromRecord(record), nil
}

// GetService looks up a service.
func (s *CatalogService) GetService(ctx context.Context, id int64) (Service, error) {
	if s == nil || s.catalog == nil {
		return Service{}, fmt.Errorf("catalog service not configured")
	}
	record, err := s.catalog.GetService(ctx, id)
	if err != nil {
		return Service{}, s.lookupFailed(ctx, "GetService", mapRepoError(err, fmt.Sprintf("service %d", id)))
	}
	return serviceFromRecord(record), nil
}

// Quote resolves the services in order and totals their price and duration.
func (s *CatalogService) Quote(ctx context.Context, serviceIDs []int64) (Quote, error) {
	if s == nil || s.catalog == nil {
		return Quote{}, fmt.Errorf("catalog service not configured")
	}
	if len(serviceIDs) == 0 {
		return Quote{}, &ValidationError{FieldErrors: map[string]string{"service_ids": "at least one service is required"}}
	}

	services, err := resolveServices(ctx, s.catalog, serviceIDs)
	if err != nil {
		return Quote{}, s.lookupFailed(ctx, "Quote", err)
	}

	quote := Quote{Services: services}
	for _, svc := range services {
		quote.TotalPriceCents += svc.PriceCents
		quote.TotalDurationMinutes += svc.DurationMinutes
	}
	return quote, nil
}

// lookupFailed logs unknown references loudly; they indicate stale caller state.
func (s *CatalogService) lookupFailed(ctx context.Context, operation string, err error) error {
	if errors.Is(err, ErrNotFound) {
		s.loggerWith(ctx, operation).ErrorContext(ctx, "catalog lookup failed", "error", err, "error_kind", ErrorKind(err))
	}
	return err
}

func resolveServices(ctx context.Context, catalog persistence.CatalogRepository, ids []int64) ([]Service, error) {
	out := make([]Service, 0, len(ids))
	for _, id := range ids {
		record, err := catalog.GetService(ctx, id)
		if err != nil {
			return nil, mapRepoError(err, "service "+strconv.FormatInt(id, 10))
		}
		out = append(out, serviceFromRecord(record))
	}
	return out, nil
}
