package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/example/barbershop-booking/internal/persistence"
)

// IdentityService authenticates and registers accounts and tracks the single
// process-wide session.
type IdentityService struct {
	users     persistence.UserRepository
	passwords PasswordScheme
	metrics   Metrics
	logger    *slog.Logger

	mu      sync.RWMutex
	current *User
}

// NewIdentityService constructs an IdentityService with plain password comparison.
func NewIdentityService(users persistence.UserRepository) *IdentityService {
	return NewIdentityServiceWithLogger(users, nil, nil, nil)
}

// NewIdentityServiceWithLogger constructs an IdentityService with explicit collaborators.
func NewIdentityServiceWithLogger(users persistence.UserRepository, passwords PasswordScheme, metrics Metrics, logger *slog.Logger) *IdentityService {
	if passwords == nil {
		passwords = PlainPasswords{}
	}
	return &IdentityService{
		users:     users,
		passwords: passwords,
		metrics:   metricsOrNoop(metrics),
		logger:    defaultLogger(logger),
	}
}

func (s *IdentityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IdentityService", operation, attrs...)
}

// Authenticate returns the first stored user, in insertion order, whose email
// matches exactly and whose password verifies. On success it becomes the current session.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (user User, err error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("identity service not configured")
	}

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		s.metrics.AuthAttempt("authenticate", outcome(err))
		logOutcome(ctx, logger, err, "authentication succeeded", "authentication failed", "user_id", user.ID)
	}()

	records, err := s.users.ListUsers(ctx)
	if err != nil {
		return User{}, err
	}

	for _, record := range records {
		if record.Email != email {
			continue
		}
		if s.passwords.Verify(record.PasswordHash, password) {
			user = userFromRecord(record)
			s.setCurrent(&user)
			return user, nil
		}
	}
	return User{}, ErrInvalidCredentials
}

// Register creates a customer account and makes it the current session.
func (s *IdentityService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("identity service not configured")
	}

	logger := s.loggerWith(ctx, "Register", "email", params.Email)
	defer func() {
		s.metrics.AuthAttempt("register", outcome(err))
		logOutcome(ctx, logger, err, "user registered", "registration failed", "user_id", user.ID)
	}()

	if vErr := validateRegistration(params); vErr.HasErrors() {
		return User{}, vErr
	}

	existing, err := s.users.ListUsers(ctx)
	if err != nil {
		return User{}, err
	}
	for _, record := range existing {
		if record.Email == params.Email {
			return User{}, ErrDuplicateEmail
		}
	}

	stored, err := s.passwords.Hash(params.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	record := persistence.User{
		Name:         strings.TrimSpace(params.Name),
		Email:        params.Email,
		PasswordHash: stored,
		Role:         string(RoleCustomer),
	}
	if phone := strings.TrimSpace(params.Phone); phone != "" {
		record.Phone = &phone
	}

	created, err := s.users.CreateUser(ctx, record)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}

	user = userFromRecord(created)
	s.setCurrent(&user)
	return user, nil
}

// Logout clears the current session.
func (s *IdentityService) Logout(ctx context.Context) {
	if s == nil {
		return
	}
	previous, ok := s.CurrentUser()
	s.setCurrent(nil)
	if ok {
		s.loggerWith(ctx, "Logout", "user_id", previous.ID).InfoContext(ctx, "session cleared")
	}
}

// CurrentUser returns the user of the current session, if any.
func (s *IdentityService) CurrentUser() (User, bool) {
	if s == nil {
		return User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return User{}, false
	}
	return *s.current, true
}

// GetUser looks up a user by id.
func (s *IdentityService) GetUser(ctx context.Context, id int64) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("identity service not configured")
	}
	record, err := s.users.GetUser(ctx, id)
	if err != nil {
		err = mapRepoError(err, fmt.Sprintf("user %d", id))
		if errors.Is(err, ErrNotFound) {
			s.loggerWith(ctx, "GetUser", "user_id", id).ErrorContext(ctx, "user lookup failed", "error", err, "error_kind", ErrorKind(err))
		}
		return User{}, err
	}
	return userFromRecord(record), nil
}

func (s *IdentityService) setCurrent(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.current = nil
		return
	}
	clone := *user
	s.current = &clone
}

func validateRegistration(params RegisterParams) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.Name) == "" {
		vErr.add("name", "name is required")
	}
	if params.Email == "" {
		vErr.add("email", "email is required")
	} else if addr, err := mail.ParseAddress(params.Email); err != nil || addr.Name != "" || addr.Address != params.Email {
		// Only a bare address is stored, so uniqueness holds per mailbox.
		vErr.add("email", "email must be a bare address")
	}
	if params.Password == "" {
		vErr.add("password", "password is required")
	}
	return vErr
}
