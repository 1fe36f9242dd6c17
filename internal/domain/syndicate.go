package domain

import (
	"strings"
	"time"
)

// SyndicateProfile is the KYB aggregate for syndicate-lead onboarding.
// Step 4 (accreditation) is optional: a lead either uploads proof or
// explicitly declines.
type SyndicateProfile struct {
	UserID      string
	Status      ProfileStatus
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Step 1: entity.
	LegalName    string
	EntityType   string
	Jurisdiction string

	// Step 2: leadership.
	LeadFullName string
	LeadEmail    string
	LeadPhone    string

	// Step 3: formation.
	FormationDocument FileRef
	EIN               string

	// Step 4: accreditation (optional).
	IsAccreditedInvestor  bool
	AccreditationProof    FileRef
	AccreditationDeclined bool

	// Step 5: agreements.
	TermsAndConditionsAccepted    bool
	RiskDisclosureAccepted        bool
	PrivacyPolicyAccepted         bool
	ConfirmationOfTrueInformation bool
}

func (p SyndicateProfile) FieldPresent(name string) bool {
	switch name {
	case "legal_name":
		return strings.TrimSpace(p.LegalName) != ""
	case "entity_type":
		return strings.TrimSpace(p.EntityType) != ""
	case "jurisdiction":
		return strings.TrimSpace(p.Jurisdiction) != ""
	case "lead_full_name":
		return strings.TrimSpace(p.LeadFullName) != ""
	case "lead_email":
		return strings.TrimSpace(p.LeadEmail) != ""
	case "lead_phone":
		return strings.TrimSpace(p.LeadPhone) != ""
	case "formation_document":
		return p.FormationDocument.Stored()
	case "ein":
		return strings.TrimSpace(p.EIN) != ""
	case "is_accredited_investor":
		return p.IsAccreditedInvestor
	case "accreditation_proof":
		return p.AccreditationProof.Stored()
	case "terms_and_conditions_accepted":
		return p.TermsAndConditionsAccepted
	case "risk_disclosure_accepted":
		return p.RiskDisclosureAccepted
	case "privacy_policy_accepted":
		return p.PrivacyPolicyAccepted
	case "confirmation_of_true_information":
		return p.ConfirmationOfTrueInformation
	default:
		return false
	}
}

func (p SyndicateProfile) Declined(field string) bool {
	return field == "accreditation_declined" && p.AccreditationDeclined
}
