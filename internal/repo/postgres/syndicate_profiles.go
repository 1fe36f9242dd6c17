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

type SyndicateProfileStore struct {
	db DB
}

func NewSyndicateProfileStore(db DB) *SyndicateProfileStore {
	if db == nil {
		return nil
	}
	return &SyndicateProfileStore{db: db}
}

const syndicateProfileColumns = `user_id, status, submitted_at, created_at, updated_at,
	legal_name, entity_type, jurisdiction,
	lead_full_name, lead_email, lead_phone,
	ein, formation_document_key, formation_document_filename, formation_document_content_type, formation_document_size,
	is_accredited_investor, accreditation_proof_key, accreditation_proof_filename, accreditation_proof_content_type, accreditation_proof_size, accreditation_declined,
	terms_and_conditions_accepted, risk_disclosure_accepted, privacy_policy_accepted, confirmation_of_true_information`

func (s *SyndicateProfileStore) Create(ctx context.Context, profile domain.SyndicateProfile) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("syndicate profile store not initialized")
	}
	userID := strings.TrimSpace(profile.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	now := normalizeTime(profile.CreatedAt)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO syndicate_profiles (user_id, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$3)`,
		userID,
		string(domain.StatusDraft),
		now,
	)
	if err != nil {
		return fmt.Errorf("insert syndicate profile: %w", err)
	}
	return nil
}

func (s *SyndicateProfileStore) Get(ctx context.Context, userID string) (domain.SyndicateProfile, error) {
	if s == nil || s.db == nil {
		return domain.SyndicateProfile{}, fmt.Errorf("syndicate profile store not initialized")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.SyndicateProfile{}, fmt.Errorf("user id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+syndicateProfileColumns+` FROM syndicate_profiles WHERE user_id = $1`,
		userID,
	)
	return scanSyndicateProfile(row)
}

func (s *SyndicateProfileStore) Update(ctx context.Context, profile domain.SyndicateProfile) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("syndicate profile store not initialized")
	}
	userID := strings.TrimSpace(profile.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := profile.FormationDocument.Validate(); err != nil {
		return err
	}
	if err := profile.AccreditationProof.Validate(); err != nil {
		return err
	}
	return requireRow(s.db.ExecContext(
		ctx,
		`UPDATE syndicate_profiles SET
			legal_name = $2,
			entity_type = $3,
			jurisdiction = $4,
			lead_full_name = $5,
			lead_email = $6,
			lead_phone = $7,
			ein = $8,
			formation_document_key = $9,
			formation_document_filename = $10,
			formation_document_content_type = $11,
			formation_document_size = $12,
			is_accredited_investor = $13,
			accreditation_proof_key = $14,
			accreditation_proof_filename = $15,
			accreditation_proof_content_type = $16,
			accreditation_proof_size = $17,
			accreditation_declined = $18,
			terms_and_conditions_accepted = $19,
			risk_disclosure_accepted = $20,
			privacy_policy_accepted = $21,
			confirmation_of_true_information = $22,
			updated_at = $23
		 WHERE user_id = $1`,
		userID,
		strings.TrimSpace(profile.LegalName),
		strings.TrimSpace(profile.EntityType),
		strings.TrimSpace(profile.Jurisdiction),
		strings.TrimSpace(profile.LeadFullName),
		strings.TrimSpace(profile.LeadEmail),
		strings.TrimSpace(profile.LeadPhone),
		strings.TrimSpace(profile.EIN),
		strings.TrimSpace(profile.FormationDocument.ObjectKey),
		strings.TrimSpace(profile.FormationDocument.Filename),
		strings.TrimSpace(profile.FormationDocument.ContentType),
		profile.FormationDocument.SizeBytes,
		profile.IsAccreditedInvestor,
		strings.TrimSpace(profile.AccreditationProof.ObjectKey),
		strings.TrimSpace(profile.AccreditationProof.Filename),
		strings.TrimSpace(profile.AccreditationProof.ContentType),
		profile.AccreditationProof.SizeBytes,
		profile.AccreditationDeclined,
		profile.TermsAndConditionsAccepted,
		profile.RiskDisclosureAccepted,
		profile.PrivacyPolicyAccepted,
		profile.ConfirmationOfTrueInformation,
		time.Now().UTC(),
	))
}

func (s *SyndicateProfileStore) MarkSubmitted(ctx context.Context, userID string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("syndicate profile store not initialized")
	}
	return markSubmitted(ctx, s.db, "syndicate_profiles", userID, at)
}

func (s *SyndicateProfileStore) UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("syndicate profile store not initialized")
	}
	return updateStatus(ctx, s.db, "syndicate_profiles", userID, status)
}

func (s *SyndicateProfileStore) List(ctx context.Context, filter repo.ReviewFilter) ([]domain.SyndicateProfile, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("syndicate profile store not initialized")
	}
	query, args := buildProfileListQuery("syndicate_profiles", syndicateProfileColumns, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list syndicate profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]domain.SyndicateProfile, 0)
	for rows.Next() {
		p, err := scanSyndicateProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan syndicate profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list syndicate profiles: %w", err)
	}
	return profiles, nil
}

func scanSyndicateProfile(row rowScanner) (domain.SyndicateProfile, error) {
	var (
		p           domain.SyndicateProfile
		status      string
		submittedAt sql.NullTime
	)
	if err := row.Scan(
		&p.UserID, &status, &submittedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.LegalName, &p.EntityType, &p.Jurisdiction,
		&p.LeadFullName, &p.LeadEmail, &p.LeadPhone,
		&p.EIN, &p.FormationDocument.ObjectKey, &p.FormationDocument.Filename, &p.FormationDocument.ContentType, &p.FormationDocument.SizeBytes,
		&p.IsAccreditedInvestor, &p.AccreditationProof.ObjectKey, &p.AccreditationProof.Filename, &p.AccreditationProof.ContentType, &p.AccreditationProof.SizeBytes, &p.AccreditationDeclined,
		&p.TermsAndConditionsAccepted, &p.RiskDisclosureAccepted, &p.PrivacyPolicyAccepted, &p.ConfirmationOfTrueInformation,
	); err != nil {
		return domain.SyndicateProfile{}, handleNotFound(err)
	}
	parsed, err := domain.ParseProfileStatus(status)
	if err != nil {
		return domain.SyndicateProfile{}, err
	}
	p.Status = parsed
	p.SubmittedAt = timePtr(submittedAt)
	return p, nil
}
