package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/crestline-labs/crestline-go/internal/domain"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	if db == nil {
		return nil
	}
	return &UserStore{db: db}
}

const userColumns = `user_id, email, full_name, password_hash, activated, created_at`

func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("user store not initialized")
	}
	if err := user.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (
			user_id,
			email,
			full_name,
			password_hash,
			activated,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6)`,
		strings.TrimSpace(user.ID),
		strings.ToLower(strings.TrimSpace(user.Email)),
		strings.TrimSpace(user.FullName),
		user.PasswordHash,
		user.Activated,
		normalizeTime(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (domain.User, error) {
	if s == nil || s.db == nil {
		return domain.User{}, fmt.Errorf("user store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, fmt.Errorf("user id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`,
		id,
	)
	return scanUser(row)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	if s == nil || s.db == nil {
		return domain.User{}, fmt.Errorf("user store not initialized")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, fmt.Errorf("email is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

func (s *UserStore) Activate(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("user store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("user id is required")
	}
	return requireRow(s.db.ExecContext(
		ctx,
		`UPDATE users SET activated = TRUE WHERE user_id = $1`,
		id,
	))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Activated, &u.CreatedAt); err != nil {
		return domain.User{}, handleNotFound(err)
	}
	return u, nil
}
