package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/barbershop-booking/internal/application"
	"github.com/example/barbershop-booking/internal/testfixtures"
)

func TestCatalogService_Listings(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()

		providers, err := h.Catalog.ListProviders(ctx)
		if err != nil {
			t.Fatalf("ListProviders failed: %v", err)
		}
		if len(providers) != 2 || providers[0].Name != "Jardel" || providers[1].Rating != 4.8 {
			t.Fatalf("unexpected providers: %#v", providers)
		}

		services, err := h.Catalog.ListServices(ctx)
		if err != nil {
			t.Fatalf("ListServices failed: %v", err)
		}
		ids := make([]int64, 0, len(services))
		for _, s := range services {
			ids = append(ids, s.ID)
		}
		if len(ids) != 4 || ids[0] != 201 || ids[3] != 204 {
			t.Fatalf("expected services in insertion order, got %v", ids)
		}
	})
}

func TestCatalogService_Lookups(t *testing.T) {
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory)
	ctx := context.Background()

	provider, err := h.Catalog.GetProvider(ctx, 3)
	if err != nil || provider.Name != "Caio" {
		t.Fatalf("GetProvider(3) = %#v, %v", provider, err)
	}
	// User 4 is a provider account without a catalog profile.
	if _, err := h.Catalog.GetProvider(ctx, 4); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for provider 4, got %v", err)
	}

	service, err := h.Catalog.GetService(ctx, 202)
	if err != nil || service.DurationMinutes != 40 {
		t.Fatalf("GetService(202) = %#v, %v", service, err)
	}
	if _, err := h.Catalog.GetService(ctx, 999); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for service 999, got %v", err)
	}
}

func TestCatalogService_Quote(t *testing.T) {
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory)
	ctx := context.Background()

	quote, err := h.Catalog.Quote(ctx, []int64{201, 203})
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.TotalPriceCents != 6500 || quote.TotalDurationMinutes != 55 {
		t.Fatalf("unexpected totals: %#v", quote)
	}
	if len(quote.Services) != 2 || quote.Services[0].ID != 201 {
		t.Fatalf("expected services in request order, got %#v", quote.Services)
	}

	var vErr *application.ValidationError
	if _, err := h.Catalog.Quote(ctx, nil); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for empty list, got %v", err)
	}
	if _, err := h.Catalog.Quote(ctx, []int64{201, 999}); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown service, got %v", err)
	}
}
