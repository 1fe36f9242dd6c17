package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

// SyndicateStepInput is a partial step write for the KYB flow. The
// accreditation step may be declined instead of filled.
type SyndicateStepInput struct {
	LegalName                     *string `json:"legal_name"`
	EntityType                    *string `json:"entity_type"`
	Jurisdiction                  *string `json:"jurisdiction"`
	LeadFullName                  *string `json:"lead_full_name"`
	LeadEmail                     *string `json:"lead_email"`
	LeadPhone                     *string `json:"lead_phone"`
	EIN                           *string `json:"ein"`
	IsAccreditedInvestor          *bool   `json:"is_accredited_investor"`
	AccreditationDeclined         *bool   `json:"accreditation_declined"`
	TermsAndConditionsAccepted    *bool   `json:"terms_and_conditions_accepted"`
	RiskDisclosureAccepted        *bool   `json:"risk_disclosure_accepted"`
	PrivacyPolicyAccepted         *bool   `json:"privacy_policy_accepted"`
	ConfirmationOfTrueInformation *bool   `json:"confirmation_of_true_information"`
}

func (s *Service) GetSyndicateProfile(ctx context.Context, userID string) (domain.SyndicateProfile, error) {
	return s.syndicates.Get(ctx, userID)
}

func (s *Service) SyndicateProgress(ctx context.Context, userID string) (workflow.Progress, error) {
	def, err := s.definition(workflow.SyndicateOnboarding)
	if err != nil {
		return workflow.Progress{}, err
	}
	profile, err := s.syndicates.Get(ctx, userID)
	if err != nil {
		return workflow.Progress{}, err
	}
	return workflow.Report(def, profile), nil
}

func (s *Service) WriteSyndicateStep(ctx context.Context, userID string, step int, in SyndicateStepInput) (StepResult, error) {
	def, err := s.definition(workflow.SyndicateOnboarding)
	if err != nil {
		return StepResult{}, err
	}
	profile, err := s.loadOrCreateSyndicate(ctx, userID)
	if err != nil {
		return StepResult{}, err
	}
	if profile.Status != domain.StatusDraft {
		return StepResult{}, workflow.ErrAlreadySubmitted
	}
	if err := workflow.AuthorizeWrite(def, profile, step); err != nil {
		return StepResult{}, err
	}
	target, _ := def.Step(step)
	for _, name := range target.Fields {
		if err := applySyndicateField(&profile, name, in); err != nil {
			return StepResult{}, err
		}
	}
	// The decline marker is writable only through its own step.
	if target.Optional && target.DeclineField == "accreditation_declined" && in.AccreditationDeclined != nil {
		profile.AccreditationDeclined = *in.AccreditationDeclined
	}
	if err := s.syndicates.Update(ctx, profile); err != nil {
		return StepResult{}, err
	}
	return stepResult(def, profile, step), nil
}

func (s *Service) AttachSyndicateDocument(ctx context.Context, userID, field, filename, contentType string, size int64, body io.Reader) (domain.FileRef, StepResult, error) {
	def, err := s.definition(workflow.SyndicateOnboarding)
	if err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	step, ok := findFileStep(def, field)
	if !ok {
		return domain.FileRef{}, StepResult{}, &ValidationError{Field: field, Reason: "not a declared document field"}
	}
	profile, err := s.loadOrCreateSyndicate(ctx, userID)
	if err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	if profile.Status != domain.StatusDraft {
		return domain.FileRef{}, StepResult{}, workflow.ErrAlreadySubmitted
	}
	if err := workflow.AuthorizeWrite(def, profile, step.Number); err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	ref, err := s.storeDocument(ctx, workflow.SyndicateOnboarding, userID, field, filename, contentType, size, body)
	if err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	switch field {
	case "formation_document":
		profile.FormationDocument = ref
	case "accreditation_proof":
		profile.AccreditationProof = ref
	default:
		return domain.FileRef{}, StepResult{}, &ValidationError{Field: field, Reason: "not a declared document field"}
	}
	if err := s.syndicates.Update(ctx, profile); err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	return ref, stepResult(def, profile, step.Number), nil
}

func (s *Service) SubmitSyndicate(ctx context.Context, userID string) (domain.SubmissionRecord, domain.SyndicateProfile, error) {
	def, err := s.definition(workflow.SyndicateOnboarding)
	if err != nil {
		return domain.SubmissionRecord{}, domain.SyndicateProfile{}, err
	}
	profile, err := s.syndicates.Get(ctx, userID)
	if err != nil {
		return domain.SubmissionRecord{}, domain.SyndicateProfile{}, err
	}
	if profile.Status != domain.StatusDraft {
		return domain.SubmissionRecord{}, domain.SyndicateProfile{}, workflow.ErrAlreadySubmitted
	}
	if missing := workflow.MissingSteps(def, profile); len(missing) > 0 {
		return domain.SubmissionRecord{}, domain.SyndicateProfile{}, &workflow.IncompleteStepsError{Steps: missing}
	}
	now := time.Now().UTC()
	if err := s.syndicates.MarkSubmitted(ctx, userID, now); err != nil {
		return domain.SubmissionRecord{}, domain.SyndicateProfile{}, err
	}
	profile.Status = domain.StatusSubmitted
	profile.SubmittedAt = &now
	s.logger.Info("syndicate application submitted", "user_id", userID)
	return domain.SubmissionRecord{
		Workflow:    workflow.SyndicateOnboarding,
		UserID:      userID,
		SubmittedAt: now,
	}, profile, nil
}

func (s *Service) loadOrCreateSyndicate(ctx context.Context, userID string) (domain.SyndicateProfile, error) {
	profile, err := s.syndicates.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.SyndicateProfile{}, err
	}
	fresh := domain.SyndicateProfile{UserID: userID, Status: domain.StatusDraft}
	if err := s.syndicates.Create(ctx, fresh); err != nil {
		return domain.SyndicateProfile{}, fmt.Errorf("create syndicate profile: %w", err)
	}
	return fresh, nil
}

func applySyndicateField(p *domain.SyndicateProfile, name string, in SyndicateStepInput) error {
	switch name {
	case "legal_name":
		applyString(&p.LegalName, in.LegalName)
	case "entity_type":
		applyString(&p.EntityType, in.EntityType)
	case "jurisdiction":
		applyString(&p.Jurisdiction, in.Jurisdiction)
	case "lead_full_name":
		applyString(&p.LeadFullName, in.LeadFullName)
	case "lead_email":
		if in.LeadEmail != nil {
			if err := domain.ValidateEmail(*in.LeadEmail); err != nil {
				return &ValidationError{Field: "lead_email", Reason: err.Error()}
			}
			p.LeadEmail = strings.TrimSpace(*in.LeadEmail)
		}
	case "lead_phone":
		applyString(&p.LeadPhone, in.LeadPhone)
	case "ein":
		applyString(&p.EIN, in.EIN)
	case "is_accredited_investor":
		applyBool(&p.IsAccreditedInvestor, in.IsAccreditedInvestor)
	case "terms_and_conditions_accepted":
		applyBool(&p.TermsAndConditionsAccepted, in.TermsAndConditionsAccepted)
	case "risk_disclosure_accepted":
		applyBool(&p.RiskDisclosureAccepted, in.RiskDisclosureAccepted)
	case "privacy_policy_accepted":
		applyBool(&p.PrivacyPolicyAccepted, in.PrivacyPolicyAccepted)
	case "confirmation_of_true_information":
		applyBool(&p.ConfirmationOfTrueInformation, in.ConfirmationOfTrueInformation)
	}
	return nil
}
