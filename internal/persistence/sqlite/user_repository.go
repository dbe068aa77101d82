package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/barbershop-booking/internal/persistence"
)

const userColumns = `id, name, email, password_hash, role, phone, photo_url, created_at`

// CreateUser assigns the next id and inserts the user in one transaction.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}

	err := s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "users")
		if err != nil {
			return err
		}
		user.ID = id
		return insertUser(ctx, tx, user)
	})
	if err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: create user %s: %w", user.Email, mapError(err))
	}
	return user, nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	row := s.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// ListUsers returns every user in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.pool.DB().QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// InsertUser stores a user under its own id.
func (s *Store) InsertUser(ctx context.Context, user persistence.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	if err := insertUser(ctx, s.pool.DB(), user); err != nil {
		return fmt.Errorf("sqlite: insert user %d: %w", user.ID, mapError(err))
	}
	return nil
}

func insertUser(ctx context.Context, q queryer, user persistence.User) error {
	_, err := q.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		nullString(user.Phone),
		nullString(user.PhotoURL),
		formatTime(user.CreatedAt),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		phone     sql.NullString
		photoURL  sql.NullString
		createdAt string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &phone, &photoURL, &createdAt); err != nil {
		return persistence.User{}, err
	}
	user.Phone = stringPtr(phone)
	user.PhotoURL = stringPtr(photoURL)
	user.CreatedAt = parseTime(createdAt)
	return user, nil
}
