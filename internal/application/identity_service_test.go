package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/barbershop-booking/internal/application"
	"github.com/example/barbershop-booking/internal/testfixtures"
)

func TestIdentityService_Authenticate(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()

		user, err := h.Identity.Authenticate(ctx, "joao@gmail.com", "123")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if user.ID != 1 || user.Role != application.RoleCustomer {
			t.Fatalf("unexpected user: %#v", user)
		}
		current, ok := h.Identity.CurrentUser()
		if !ok || current.ID != 1 {
			t.Fatalf("expected session for user 1, got %#v (ok=%v)", current, ok)
		}

		for _, tc := range []struct{ email, password string }{
			{"joao@gmail.com", "1234"},
			{"JOAO@gmail.com", "123"},
			{"nobody@example.com", "123"},
			{"", ""},
		} {
			if _, err := h.Identity.Authenticate(ctx, tc.email, tc.password); !errors.Is(err, application.ErrInvalidCredentials) {
				t.Fatalf("Authenticate(%q, %q) expected ErrInvalidCredentials, got %v", tc.email, tc.password, err)
			}
		}

		current, ok = h.Identity.CurrentUser()
		if !ok || current.ID != 1 {
			t.Fatalf("failed attempts must not replace the session, got %#v", current)
		}

		h.Identity.Logout(ctx)
		if _, ok := h.Identity.CurrentUser(); ok {
			t.Fatalf("expected no session after logout")
		}
	})
}

func TestIdentityService_Register(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()

		before, err := h.Store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}

		ana, err := h.Identity.Register(ctx, application.RegisterParams{Name: "Ana", Email: "ana@x.com", Phone: "000", Password: "pw"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if ana.ID != 5 {
			t.Fatalf("expected id max+1 = 5, got %d", ana.ID)
		}
		if ana.Role != application.RoleCustomer {
			t.Fatalf("expected customer role, got %q", ana.Role)
		}
		if ana.Phone == nil || *ana.Phone != "000" {
			t.Fatalf("expected phone to be stored, got %v", ana.Phone)
		}
		if ana.PhotoURL != nil {
			t.Fatalf("expected no stored photo, got %v", *ana.PhotoURL)
		}
		if current, ok := h.Identity.CurrentUser(); !ok || current.ID != ana.ID {
			t.Fatalf("expected registration to start a session")
		}

		_, err = h.Identity.Register(ctx, application.RegisterParams{Name: "Ana Again", Email: "ana@x.com", Password: "other"})
		if !errors.Is(err, application.ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}

		after, err := h.Store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(after) != len(before)+1 {
			t.Fatalf("expected exactly one new user, got %d -> %d", len(before), len(after))
		}

		if _, err := h.Identity.Authenticate(ctx, "ana@x.com", "pw"); err != nil {
			t.Fatalf("registered user should authenticate: %v", err)
		}
	})
}

func TestIdentityService_RegisterValidation(t *testing.T) {
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory)

	_, err := h.Identity.Register(context.Background(), application.RegisterParams{Email: "not-an-address"})
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s field error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestIdentityService_RegisterRejectsDecoratedEmail(t *testing.T) {
	testfixtures.ForEachBackend(t, func(t *testing.T, h *testfixtures.Harness) {
		ctx := context.Background()

		for _, email := range []string{"Ana <ana@x.com>", "<ana@x.com>", " ana@x.com"} {
			_, err := h.Identity.Register(ctx, application.RegisterParams{Name: "Ana", Email: email, Password: "pw"})
			var vErr *application.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Register(%q): expected ValidationError, got %v", email, err)
			}
			if _, ok := vErr.FieldErrors["email"]; !ok {
				t.Fatalf("Register(%q): expected email field error, got %v", email, vErr.FieldErrors)
			}
		}

		users, err := h.Store.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 4 {
			t.Fatalf("rejected registrations must not be stored, got %d users", len(users))
		}

		user, err := h.Identity.Register(ctx, application.RegisterParams{Name: "Ana", Email: "ana@x.com", Password: "pw"})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.Email != "ana@x.com" {
			t.Fatalf("expected bare address to be stored, got %q", user.Email)
		}
		if _, err := h.Identity.Register(ctx, application.RegisterParams{Name: "Ana", Email: "ana@x.com", Password: "pw"}); !errors.Is(err, application.ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})
}

func TestIdentityService_RegisterFirstUserGetsIDOne(t *testing.T) {
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory, testfixtures.WithoutSeed())

	user, err := h.Identity.Register(context.Background(), application.RegisterParams{Name: "First", Email: "first@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected id 1 on an empty store, got %d", user.ID)
	}
}

func TestIdentityService_Argon2id(t *testing.T) {
	scheme := application.Argon2idPasswords{Params: application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}}
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory, testfixtures.WithPasswords(scheme))
	ctx := context.Background()

	stored, err := h.Store.GetUser(ctx, 2)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if stored.PasswordHash == "123" {
		t.Fatalf("expected seed password to be hashed")
	}

	if _, err := h.Identity.Authenticate(ctx, "jardel@barber.com", "123"); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := h.Identity.Authenticate(ctx, "jardel@barber.com", "wrong"); !errors.Is(err, application.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIdentityService_GetUser(t *testing.T) {
	h := testfixtures.NewHarness(t, testfixtures.BackendMemory)
	ctx := context.Background()

	user, err := h.Identity.GetUser(ctx, 4)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.Name != "João Roberto" || user.Role != application.RoleProvider {
		t.Fatalf("unexpected user: %#v", user)
	}

	if _, err := h.Identity.GetUser(ctx, 42); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
