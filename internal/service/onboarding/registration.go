package onboarding

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/workflow"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrCodeInvalid covers every two-factor confirmation failure. Wrong and
// expired codes are indistinguishable to the caller.
var ErrCodeInvalid = errors.New("verification code invalid or expired")

const minPasswordLength = 8

// StartRegistrationInput is the account step of lead registration.
type StartRegistrationInput struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	FullName             string `json:"full_name"`
}

// RegistrationStepInput is a partial step write for lead registration. The
// two-factor flag is writable only through ConfirmTwoFactor.
type RegistrationStepInput struct {
	Email                      *string `json:"email"`
	FullName                   *string `json:"full_name"`
	TermsAndConditionsAccepted *bool   `json:"terms_and_conditions_accepted"`
	PrivacyPolicyAccepted      *bool   `json:"privacy_policy_accepted"`
}

// StartRegistration creates the account, persists the draft registration and
// dispatches a two-factor code.
func (s *Service) StartRegistration(ctx context.Context, in StartRegistrationInput) (domain.Registration, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := domain.ValidateEmail(email); err != nil {
		return domain.Registration{}, &ValidationError{Field: "email", Reason: err.Error()}
	}
	if len(in.Password) < minPasswordLength {
		return domain.Registration{}, &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	if in.Password != in.PasswordConfirmation {
		return domain.Registration{}, &ValidationError{Field: "password_confirmation", Reason: "does not match password"}
	}
	if _, err := s.registrations.GetByEmail(ctx, email); err == nil {
		return domain.Registration{}, &ValidationError{Field: "email", Reason: "already registered"}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Registration{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.NewString()
	now := time.Now().UTC()
	user := domain.User{
		ID:           userID,
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.Registration{}, fmt.Errorf("create user: %w", err)
	}

	registration := domain.Registration{
		UserID:       userID,
		Status:       domain.StatusDraft,
		CreatedAt:    now,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     user.FullName,
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return domain.Registration{}, fmt.Errorf("create registration: %w", err)
	}
	if err := s.issueTwoFactorCode(ctx, &registration); err != nil {
		return domain.Registration{}, err
	}
	s.logger.Info("registration started", "user_id", userID)
	return registration, nil
}

// ResendTwoFactorCode replaces any outstanding code with a fresh one.
func (s *Service) ResendTwoFactorCode(ctx context.Context, userID string) error {
	registration, err := s.registrations.Get(ctx, userID)
	if err != nil {
		return err
	}
	if registration.Status != domain.StatusDraft {
		return workflow.ErrAlreadySubmitted
	}
	return s.issueTwoFactorCode(ctx, &registration)
}

// ConfirmTwoFactor verifies the code and marks the verification step done.
func (s *Service) ConfirmTwoFactor(ctx context.Context, userID, code string) (StepResult, error) {
	def, err := s.definition(workflow.LeadRegistration)
	if err != nil {
		return StepResult{}, err
	}
	registration, err := s.registrations.Get(ctx, userID)
	if err != nil {
		return StepResult{}, err
	}
	if registration.Status != domain.StatusDraft {
		return StepResult{}, workflow.ErrAlreadySubmitted
	}
	if registration.TwoFactorCodeHash == "" || registration.TwoFactorCodeExpiresAt == nil {
		return StepResult{}, ErrCodeInvalid
	}
	if time.Now().UTC().After(*registration.TwoFactorCodeExpiresAt) {
		return StepResult{}, ErrCodeInvalid
	}
	if !hmac.Equal([]byte(hashTwoFactorCode(code)), []byte(registration.TwoFactorCodeHash)) {
		return StepResult{}, ErrCodeInvalid
	}
	registration.TwoFactorConfirmed = true
	registration.TwoFactorCodeHash = ""
	registration.TwoFactorCodeExpiresAt = nil
	if err := s.registrations.Update(ctx, registration); err != nil {
		return StepResult{}, err
	}
	return stepResult(def, registration, 2), nil
}

// WriteRegistrationStep applies a partial update to one registration step.
func (s *Service) WriteRegistrationStep(ctx context.Context, userID string, step int, in RegistrationStepInput) (StepResult, error) {
	def, err := s.definition(workflow.LeadRegistration)
	if err != nil {
		return StepResult{}, err
	}
	registration, err := s.registrations.Get(ctx, userID)
	if err != nil {
		return StepResult{}, err
	}
	if registration.Status != domain.StatusDraft {
		return StepResult{}, workflow.ErrAlreadySubmitted
	}
	if err := workflow.AuthorizeWrite(def, registration, step); err != nil {
		return StepResult{}, err
	}
	target, _ := def.Step(step)
	for _, name := range target.Fields {
		switch name {
		case "email":
			if in.Email != nil {
				if err := domain.ValidateEmail(*in.Email); err != nil {
					return StepResult{}, &ValidationError{Field: "email", Reason: err.Error()}
				}
				registration.Email = strings.ToLower(strings.TrimSpace(*in.Email))
			}
		case "full_name":
			applyString(&registration.FullName, in.FullName)
		case "terms_and_conditions_accepted":
			applyBool(&registration.TermsAndConditionsAccepted, in.TermsAndConditionsAccepted)
		case "privacy_policy_accepted":
			applyBool(&registration.PrivacyPolicyAccepted, in.PrivacyPolicyAccepted)
		}
	}
	if err := s.registrations.Update(ctx, registration); err != nil {
		return StepResult{}, err
	}
	return stepResult(def, registration, step), nil
}

// RegistrationProgress derives the stepper view for the registration.
func (s *Service) RegistrationProgress(ctx context.Context, userID string) (workflow.Progress, error) {
	def, err := s.definition(workflow.LeadRegistration)
	if err != nil {
		return workflow.Progress{}, err
	}
	registration, err := s.registrations.Get(ctx, userID)
	if err != nil {
		return workflow.Progress{}, err
	}
	return workflow.Report(def, registration), nil
}

// SubmitRegistration finalizes the registration: the account is activated
// and a session token pair is issued for the new member.
func (s *Service) SubmitRegistration(ctx context.Context, userID string) (domain.Registration, auth.TokenPair, error) {
	def, err := s.definition(workflow.LeadRegistration)
	if err != nil {
		return domain.Registration{}, auth.TokenPair{}, err
	}
	registration, err := s.registrations.Get(ctx, userID)
	if err != nil {
		return domain.Registration{}, auth.TokenPair{}, err
	}
	if registration.Status != domain.StatusDraft {
		return domain.Registration{}, auth.TokenPair{}, workflow.ErrAlreadySubmitted
	}
	if missing := workflow.MissingSteps(def, registration); len(missing) > 0 {
		return domain.Registration{}, auth.TokenPair{}, &workflow.IncompleteStepsError{Steps: missing}
	}
	now := time.Now().UTC()
	if err := s.registrations.MarkSubmitted(ctx, userID, now); err != nil {
		return domain.Registration{}, auth.TokenPair{}, err
	}
	if err := s.users.Activate(ctx, userID); err != nil {
		return domain.Registration{}, auth.TokenPair{}, fmt.Errorf("activate user: %w", err)
	}
	tokens, err := s.issuer.IssueTokens(userID, registration.Email)
	if err != nil {
		return domain.Registration{}, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	registration.Status = domain.StatusSubmitted
	registration.SubmittedAt = &now
	s.logger.Info("registration completed", "user_id", userID)
	return registration, tokens, nil
}

func (s *Service) issueTwoFactorCode(ctx context.Context, registration *domain.Registration) error {
	code, err := newTwoFactorCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	expires := time.Now().UTC().Add(s.codeTTL)
	registration.TwoFactorCodeHash = hashTwoFactorCode(code)
	registration.TwoFactorCodeExpiresAt = &expires
	if err := s.registrations.Update(ctx, *registration); err != nil {
		return err
	}
	if err := s.codes.SendCode(ctx, registration.Email, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

func newTwoFactorCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashTwoFactorCode(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}
