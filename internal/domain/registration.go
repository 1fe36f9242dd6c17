package domain

import (
	"strings"
	"time"
)

// Registration is the lead-registration aggregate. Finalizing it activates
// the user account and mints a session token pair.
type Registration struct {
	UserID      string
	Status      ProfileStatus
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Step 1: account.
	Email        string
	PasswordHash string
	FullName     string

	// Step 2: two-factor verification.
	TwoFactorConfirmed     bool
	TwoFactorCodeHash      string
	TwoFactorCodeExpiresAt *time.Time

	// Step 3: agreements.
	TermsAndConditionsAccepted bool
	PrivacyPolicyAccepted      bool
}

func (p Registration) FieldPresent(name string) bool {
	switch name {
	case "email":
		return strings.TrimSpace(p.Email) != ""
	case "password_hash":
		return strings.TrimSpace(p.PasswordHash) != ""
	case "full_name":
		return strings.TrimSpace(p.FullName) != ""
	case "two_factor_confirmed":
		return p.TwoFactorConfirmed
	case "terms_and_conditions_accepted":
		return p.TermsAndConditionsAccepted
	case "privacy_policy_accepted":
		return p.PrivacyPolicyAccepted
	default:
		return false
	}
}

func (p Registration) Declined(field string) bool {
	return false
}
