package domain

import (
	"strings"
	"time"
)

// InvestorProfile is the one-row-per-user aggregate for limited-partner
// onboarding. Fields are grouped into steps by the workflow registry, not by
// the storage layout.
type InvestorProfile struct {
	UserID      string
	Status      ProfileStatus
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Step 1: personal details.
	FullName string
	Email    string
	Phone    string
	Country  string

	// Step 2: identity verification.
	IDType       string
	GovernmentID FileRef

	// Step 3: banking.
	BankName      string
	AccountHolder string
	IBAN          string

	// Step 4: investment experience.
	InvestmentExperience string
	AnnualIncomeBand     string

	// Step 5: agreements. Complete only when explicitly true.
	TermsAndConditionsAccepted    bool
	RiskDisclosureAccepted        bool
	PrivacyPolicyAccepted         bool
	ConfirmationOfTrueInformation bool

	// Step 6: review and sign-off.
	SignatureName string
}

// FieldPresent reports whether a declared workflow field holds a value that
// counts toward step completion: non-blank text, an explicitly true boolean,
// or a stored file reference. Unknown names are absent.
func (p InvestorProfile) FieldPresent(name string) bool {
	switch name {
	case "full_name":
		return strings.TrimSpace(p.FullName) != ""
	case "email":
		return strings.TrimSpace(p.Email) != ""
	case "phone":
		return strings.TrimSpace(p.Phone) != ""
	case "country":
		return strings.TrimSpace(p.Country) != ""
	case "id_type":
		return strings.TrimSpace(p.IDType) != ""
	case "government_id":
		return p.GovernmentID.Stored()
	case "bank_name":
		return strings.TrimSpace(p.BankName) != ""
	case "account_holder":
		return strings.TrimSpace(p.AccountHolder) != ""
	case "iban":
		return strings.TrimSpace(p.IBAN) != ""
	case "investment_experience":
		return strings.TrimSpace(p.InvestmentExperience) != ""
	case "annual_income_band":
		return strings.TrimSpace(p.AnnualIncomeBand) != ""
	case "terms_and_conditions_accepted":
		return p.TermsAndConditionsAccepted
	case "risk_disclosure_accepted":
		return p.RiskDisclosureAccepted
	case "privacy_policy_accepted":
		return p.PrivacyPolicyAccepted
	case "confirmation_of_true_information":
		return p.ConfirmationOfTrueInformation
	case "signature_name":
		return strings.TrimSpace(p.SignatureName) != ""
	default:
		return false
	}
}

// Declined reports an explicit optional-step opt-out. Investor onboarding has
// no optional steps, so nothing is ever declined.
func (p InvestorProfile) Declined(field string) bool {
	return false
}
