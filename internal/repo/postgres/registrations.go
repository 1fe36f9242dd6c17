package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
)

type RegistrationStore struct {
	db DB
}

func NewRegistrationStore(db DB) *RegistrationStore {
	if db == nil {
		return nil
	}
	return &RegistrationStore{db: db}
}

const registrationColumns = `user_id, status, submitted_at, created_at, updated_at,
	email, password_hash, full_name,
	two_factor_confirmed, two_factor_code_hash, two_factor_code_expires_at,
	terms_and_conditions_accepted, privacy_policy_accepted`

func (s *RegistrationStore) Create(ctx context.Context, registration domain.Registration) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("registration store not initialized")
	}
	userID := strings.TrimSpace(registration.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := domain.ValidateEmail(registration.Email); err != nil {
		return err
	}
	now := normalizeTime(registration.CreatedAt)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO registrations (
			user_id,
			status,
			created_at,
			updated_at,
			email,
			password_hash,
			full_name
		) VALUES ($1,$2,$3,$3,$4,$5,$6)`,
		userID,
		string(domain.StatusDraft),
		now,
		strings.ToLower(strings.TrimSpace(registration.Email)),
		registration.PasswordHash,
		strings.TrimSpace(registration.FullName),
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *RegistrationStore) Get(ctx context.Context, userID string) (domain.Registration, error) {
	if s == nil || s.db == nil {
		return domain.Registration{}, fmt.Errorf("registration store not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Registration{}, fmt.Errorf("user id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE user_id = $1`,
		userID,
	)
	return scanRegistration(row)
}

func (s *RegistrationStore) GetByEmail(ctx context.Context, email string) (domain.Registration, error) {
	if s == nil || s.db == nil {
		return domain.Registration{}, fmt.Errorf("registration store not initialized")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Registration{}, fmt.Errorf("email is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE email = $1`,
		email,
	)
	return scanRegistration(row)
}

func (s *RegistrationStore) Update(ctx context.Context, registration domain.Registration) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("registration store not initialized")
	}
	userID := strings.TrimSpace(registration.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return requireRow(s.db.ExecContext(
		ctx,
		`UPDATE registrations SET
			email = $2,
			password_hash = $3,
			full_name = $4,
			two_factor_confirmed = $5,
			two_factor_code_hash = $6,
			two_factor_code_expires_at = $7,
			terms_and_conditions_accepted = $8,
			privacy_policy_accepted = $9,
			updated_at = $10
		 WHERE user_id = $1`,
		userID,
		strings.ToLower(strings.TrimSpace(registration.Email)),
		registration.PasswordHash,
		strings.TrimSpace(registration.FullName),
		registration.TwoFactorConfirmed,
		registration.TwoFactorCodeHash,
		nullTime(registration.TwoFactorCodeExpiresAt),
		registration.TermsAndConditionsAccepted,
		registration.PrivacyPolicyAccepted,
		time.Now().UTC(),
	))
}

func (s *RegistrationStore) MarkSubmitted(ctx context.Context, userID string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("registration store not initialized")
	}
	return markSubmitted(ctx, s.db, "registrations", userID, at)
}

func scanRegistration(row rowScanner) (domain.Registration, error) {
	var (
		p           domain.Registration
		status      string
		submittedAt sql.NullTime
		codeExpires sql.NullTime
	)
	if err := row.Scan(
		&p.UserID, &status, &submittedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.Email, &p.PasswordHash, &p.FullName,
		&p.TwoFactorConfirmed, &p.TwoFactorCodeHash, &codeExpires,
		&p.TermsAndConditionsAccepted, &p.PrivacyPolicyAccepted,
	); err != nil {
		return domain.Registration{}, handleNotFound(err)
	}
	parsed, err := domain.ParseProfileStatus(status)
	if err != nil {
		return domain.Registration{}, err
	}
	p.Status = parsed
	p.SubmittedAt = timePtr(submittedAt)
	p.TwoFactorCodeExpiresAt = timePtr(codeExpires)
	return p, nil
}
