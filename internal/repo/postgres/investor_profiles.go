package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/repo"
)

type InvestorProfileStore struct {
	db DB
}

func NewInvestorProfileStore(db DB) *InvestorProfileStore {
	if db == nil {
		return nil
	}
	return &InvestorProfileStore{db: db}
}

const investorProfileColumns = `user_id, status, submitted_at, created_at, updated_at,
	full_name, email, phone, country,
	id_type, government_id_key, government_id_filename, government_id_content_type, government_id_size,
	bank_name, account_holder, iban,
	investment_experience, annual_income_band,
	terms_and_conditions_accepted, risk_disclosure_accepted, privacy_policy_accepted, confirmation_of_true_information,
	signature_name`

func (s *InvestorProfileStore) Create(ctx context.Context, profile domain.InvestorProfile) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("investor profile store not initialized")
	}
	userID := strings.TrimSpace(profile.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	now := normalizeTime(profile.CreatedAt)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO investor_profiles (user_id, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$3)`,
		userID,
		string(domain.StatusDraft),
		now,
	)
	if err != nil {
		return fmt.Errorf("insert investor profile: %w", err)
	}
	return nil
}

func (s *InvestorProfileStore) Get(ctx context.Context, userID string) (domain.InvestorProfile, error) {
	if s == nil || s.db == nil {
		return domain.InvestorProfile{}, fmt.Errorf("investor profile store not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.InvestorProfile{}, fmt.Errorf("user id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+investorProfileColumns+` FROM investor_profiles WHERE user_id = $1`,
		userID,
	)
	return scanInvestorProfile(row)
}

func (s *InvestorProfileStore) Update(ctx context.Context, profile domain.InvestorProfile) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("investor profile store not initialized")
	}
	userID := strings.TrimSpace(profile.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := profile.GovernmentID.Validate(); err != nil {
		return err
	}
	return requireRow(s.db.ExecContext(
		ctx,
		`UPDATE investor_profiles SET
			full_name = $2,
			email = $3,
			phone = $4,
			country = $5,
			id_type = $6,
			government_id_key = $7,
			government_id_filename = $8,
			government_id_content_type = $9,
			government_id_size = $10,
			bank_name = $11,
			account_holder = $12,
			iban = $13,
			investment_experience = $14,
			annual_income_band = $15,
			terms_and_conditions_accepted = $16,
			risk_disclosure_accepted = $17,
			privacy_policy_accepted = $18,
			confirmation_of_true_information = $19,
			signature_name = $20,
			updated_at = $21
		 WHERE user_id = $1`,
		userID,
		strings.TrimSpace(profile.FullName),
		strings.TrimSpace(profile.Email),
		strings.TrimSpace(profile.Phone),
		strings.TrimSpace(profile.Country),
		strings.TrimSpace(profile.IDType),
		strings.TrimSpace(profile.GovernmentID.ObjectKey),
		strings.TrimSpace(profile.GovernmentID.Filename),
		strings.TrimSpace(profile.GovernmentID.ContentType),
		profile.GovernmentID.SizeBytes,
		strings.TrimSpace(profile.BankName),
		strings.TrimSpace(profile.AccountHolder),
		strings.TrimSpace(profile.IBAN),
		strings.TrimSpace(profile.InvestmentExperience),
		strings.TrimSpace(profile.AnnualIncomeBand),
		profile.TermsAndConditionsAccepted,
		profile.RiskDisclosureAccepted,
		profile.PrivacyPolicyAccepted,
		profile.ConfirmationOfTrueInformation,
		strings.TrimSpace(profile.SignatureName),
		time.Now().UTC(),
	))
}

func (s *InvestorProfileStore) MarkSubmitted(ctx context.Context, userID string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("investor profile store not initialized")
	}
	return markSubmitted(ctx, s.db, "investor_profiles", userID, at)
}

func (s *InvestorProfileStore) UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("investor profile store not initialized")
	}
	return updateStatus(ctx, s.db, "investor_profiles", userID, status)
}

func (s *InvestorProfileStore) List(ctx context.Context, filter repo.ReviewFilter) ([]domain.InvestorProfile, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("investor profile store not initialized")
	}
	query, args := buildProfileListQuery("investor_profiles", investorProfileColumns, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list investor profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]domain.InvestorProfile, 0)
	for rows.Next() {
		p, err := scanInvestorProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investor profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list investor profiles: %w", err)
	}
	return profiles, nil
}

func scanInvestorProfile(row rowScanner) (domain.InvestorProfile, error) {
	var (
		p           domain.InvestorProfile
		status      string
		submittedAt sql.NullTime
	)
	if err := row.Scan(
		&p.UserID, &status, &submittedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.FullName, &p.Email, &p.Phone, &p.Country,
		&p.IDType, &p.GovernmentID.ObjectKey, &p.GovernmentID.Filename, &p.GovernmentID.ContentType, &p.GovernmentID.SizeBytes,
		&p.BankName, &p.AccountHolder, &p.IBAN,
		&p.InvestmentExperience, &p.AnnualIncomeBand,
		&p.TermsAndConditionsAccepted, &p.RiskDisclosureAccepted, &p.PrivacyPolicyAccepted, &p.ConfirmationOfTrueInformation,
		&p.SignatureName,
	); err != nil {
		return domain.InvestorProfile{}, handleNotFound(err)
	}
	parsed, err := domain.ParseProfileStatus(status)
	if err != nil {
		return domain.InvestorProfile{}, err
	}
	p.Status = parsed
	p.SubmittedAt = timePtr(submittedAt)
	return p, nil
}

// markSubmitted records the one-way draft to submitted transition. A row
// already past draft matches nothing and reports repo.ErrNotFound.
func markSubmitted(ctx context.Context, db DB, table, userID string, at time.Time) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	at = normalizeTime(at)
	return requireRow(db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE %s SET status = $2, submitted_at = $3, updated_at = $3 WHERE user_id = $1 AND status = $4`, table),
		userID,
		string(domain.StatusSubmitted),
		at,
		string(domain.StatusDraft),
	))
}

func updateStatus(ctx context.Context, db DB, table, userID string, status domain.ProfileStatus) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if _, err := domain.ParseProfileStatus(string(status)); err != nil {
		return err
	}
	return requireRow(db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = $3 WHERE user_id = $1`, table),
		userID,
		string(status),
		time.Now().UTC(),
	))
}
