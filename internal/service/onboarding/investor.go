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
	"github.com/crestline-labs/crestline-go/internal/storage/objectstore"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

// InvestorStepInput is a partial step write. Nil pointers leave the stored
// value untouched; only the target step's declared fields are applied.
type InvestorStepInput struct {
	FullName                      *string `json:"full_name"`
	Email                         *string `json:"email"`
	Phone                         *string `json:"phone"`
	Country                       *string `json:"country"`
	IDType                        *string `json:"id_type"`
	BankName                      *string `json:"bank_name"`
	AccountHolder                 *string `json:"account_holder"`
	IBAN                          *string `json:"iban"`
	InvestmentExperience          *string `json:"investment_experience"`
	AnnualIncomeBand              *string `json:"annual_income_band"`
	TermsAndConditionsAccepted    *bool   `json:"terms_and_conditions_accepted"`
	RiskDisclosureAccepted        *bool   `json:"risk_disclosure_accepted"`
	PrivacyPolicyAccepted         *bool   `json:"privacy_policy_accepted"`
	ConfirmationOfTrueInformation *bool   `json:"confirmation_of_true_information"`
	SignatureName                 *string `json:"signature_name"`
}

// GetInvestorProfile returns the stored aggregate for the user.
func (s *Service) GetInvestorProfile(ctx context.Context, userID string) (domain.InvestorProfile, error) {
	return s.investors.Get(ctx, userID)
}

// InvestorProgress derives the stepper view for the user's profile.
func (s *Service) InvestorProgress(ctx context.Context, userID string) (workflow.Progress, error) {
	def, err := s.definition(workflow.InvestorOnboarding)
	if err != nil {
		return workflow.Progress{}, err
	}
	profile, err := s.investors.Get(ctx, userID)
	if err != nil {
		return workflow.Progress{}, err
	}
	return workflow.Report(def, profile), nil
}

// WriteInvestorStep applies a partial update to one step after the gate
// check. The profile row is created lazily on the first write.
func (s *Service) WriteInvestorStep(ctx context.Context, userID string, step int, in InvestorStepInput) (StepResult, error) {
	def, err := s.definition(workflow.InvestorOnboarding)
	if err != nil {
		return StepResult{}, err
	}
	profile, err := s.loadOrCreateInvestor(ctx, userID)
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
		if err := applyInvestorField(&profile, name, in); err != nil {
			return StepResult{}, err
		}
	}
	if err := s.investors.Update(ctx, profile); err != nil {
		return StepResult{}, err
	}
	return stepResult(def, profile, step), nil
}

// AttachInvestorDocument streams an uploaded file to object storage and
// persists the reference on the profile. The write is gated like any other
// write to the declaring step.
func (s *Service) AttachInvestorDocument(ctx context.Context, userID, field, filename, contentType string, size int64, body io.Reader) (domain.FileRef, StepResult, error) {
	def, err := s.definition(workflow.InvestorOnboarding)
	if err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	step, ok := findFileStep(def, field)
	if !ok {
		return domain.FileRef{}, StepResult{}, &ValidationError{Field: field, Reason: "not a declared document field"}
	}
	profile, err := s.loadOrCreateInvestor(ctx, userID)
	if err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	if profile.Status != domain.StatusDraft {
		return domain.FileRef{}, StepResult{}, workflow.ErrAlreadySubmitted
	}
	if err := workflow.AuthorizeWrite(def, profile, step.Number); err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	ref, err := s.storeDocument(ctx, workflow.InvestorOnboarding, userID, field, filename, contentType, size, body)
	if err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	switch field {
	case "government_id":
		profile.GovernmentID = ref
	default:
		return domain.FileRef{}, StepResult{}, &ValidationError{Field: field, Reason: "not a declared document field"}
	}
	if err := s.investors.Update(ctx, profile); err != nil {
		return domain.FileRef{}, StepResult{}, err
	}
	return ref, stepResult(def, profile, step.Number), nil
}

// SubmitInvestor finalizes the draft: all mandatory steps must evaluate
// complete, the transition is one-way, and failure leaves the row untouched.
func (s *Service) SubmitInvestor(ctx context.Context, userID string) (domain.SubmissionRecord, domain.InvestorProfile, error) {
	def, err := s.definition(workflow.InvestorOnboarding)
	if err != nil {
		return domain.SubmissionRecord{}, domain.InvestorProfile{}, err
	}
	profile, err := s.investors.Get(ctx, userID)
	if err != nil {
		return domain.SubmissionRecord{}, domain.InvestorProfile{}, err
	}
	if profile.Status != domain.StatusDraft {
		return domain.SubmissionRecord{}, domain.InvestorProfile{}, workflow.ErrAlreadySubmitted
	}
	if missing := workflow.MissingSteps(def, profile); len(missing) > 0 {
		return domain.SubmissionRecord{}, domain.InvestorProfile{}, &workflow.IncompleteStepsError{Steps: missing}
	}
	now := time.Now().UTC()
	if err := s.investors.MarkSubmitted(ctx, userID, now); err != nil {
		return domain.SubmissionRecord{}, domain.InvestorProfile{}, err
	}
	profile.Status = domain.StatusSubmitted
	profile.SubmittedAt = &now
	s.logger.Info("investor application submitted", "user_id", userID)
	return domain.SubmissionRecord{
		Workflow:    workflow.InvestorOnboarding,
		UserID:      userID,
		SubmittedAt: now,
	}, profile, nil
}

func (s *Service) loadOrCreateInvestor(ctx context.Context, userID string) (domain.InvestorProfile, error) {
	profile, err := s.investors.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.InvestorProfile{}, err
	}
	fresh := domain.InvestorProfile{UserID: userID, Status: domain.StatusDraft}
	if err := s.investors.Create(ctx, fresh); err != nil {
		return domain.InvestorProfile{}, fmt.Errorf("create investor profile: %w", err)
	}
	return fresh, nil
}

// storeDocument streams an upload to object storage. A negative size means
// the caller does not know the length up front; the stream is counted and
// capped instead.
func (s *Service) storeDocument(ctx context.Context, workflowName, userID, field, filename, contentType string, size int64, body io.Reader) (domain.FileRef, error) {
	if size == 0 {
		return domain.FileRef{}, &ValidationError{Field: field, Reason: "file is empty"}
	}
	if size > s.maxUpload {
		return domain.FileRef{}, &ValidationError{Field: field, Reason: fmt.Sprintf("file exceeds %d bytes", s.maxUpload)}
	}
	key, err := objectstore.DocumentKey(workflowName, userID, field, filename)
	if err != nil {
		return domain.FileRef{}, &ValidationError{Field: field, Reason: err.Error()}
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	if size > 0 {
		if err := s.store.Put(ctx, s.bucket, key, body, size, contentType); err != nil {
			return domain.FileRef{}, fmt.Errorf("store document: %w", err)
		}
		return domain.FileRef{
			ObjectKey:   key,
			Filename:    strings.TrimSpace(filename),
			ContentType: contentType,
			SizeBytes:   size,
		}, nil
	}

	counter := &countingReader{r: io.LimitReader(body, s.maxUpload+1)}
	if err := s.store.Put(ctx, s.bucket, key, counter, -1, contentType); err != nil {
		return domain.FileRef{}, fmt.Errorf("store document: %w", err)
	}
	if counter.n == 0 || counter.n > s.maxUpload {
		_ = s.store.Delete(ctx, s.bucket, key)
		if counter.n == 0 {
			return domain.FileRef{}, &ValidationError{Field: field, Reason: "file is empty"}
		}
		return domain.FileRef{}, &ValidationError{Field: field, Reason: fmt.Sprintf("file exceeds %d bytes", s.maxUpload)}
	}
	return domain.FileRef{
		ObjectKey:   key,
		Filename:    strings.TrimSpace(filename),
		ContentType: contentType,
		SizeBytes:   counter.n,
	}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func applyInvestorField(p *domain.InvestorProfile, name string, in InvestorStepInput) error {
	switch name {
	case "full_name":
		applyString(&p.FullName, in.FullName)
	case "email":
		if in.Email != nil {
			if err := domain.ValidateEmail(*in.Email); err != nil {
				return &ValidationError{Field: "email", Reason: err.Error()}
			}
			p.Email = strings.TrimSpace(*in.Email)
		}
	case "phone":
		applyString(&p.Phone, in.Phone)
	case "country":
		applyString(&p.Country, in.Country)
	case "id_type":
		applyString(&p.IDType, in.IDType)
	case "bank_name":
		applyString(&p.BankName, in.BankName)
	case "account_holder":
		applyString(&p.AccountHolder, in.AccountHolder)
	case "iban":
		applyString(&p.IBAN, in.IBAN)
	case "investment_experience":
		applyString(&p.InvestmentExperience, in.InvestmentExperience)
	case "annual_income_band":
		applyString(&p.AnnualIncomeBand, in.AnnualIncomeBand)
	case "terms_and_conditions_accepted":
		applyBool(&p.TermsAndConditionsAccepted, in.TermsAndConditionsAccepted)
	case "risk_disclosure_accepted":
		applyBool(&p.RiskDisclosureAccepted, in.RiskDisclosureAccepted)
	case "privacy_policy_accepted":
		applyBool(&p.PrivacyPolicyAccepted, in.PrivacyPolicyAccepted)
	case "confirmation_of_true_information":
		applyBool(&p.ConfirmationOfTrueInformation, in.ConfirmationOfTrueInformation)
	case "signature_name":
		applyString(&p.SignatureName, in.SignatureName)
	}
	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
