package main

import (
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
)

const timeFormat = time.RFC3339

type documentViewModel struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func documentView(ref domain.FileRef) *documentViewModel {
	if !ref.Stored() {
		return nil
	}
	return &documentViewModel{
		Filename:    ref.Filename,
		ContentType: ref.ContentType,
		SizeBytes:   ref.SizeBytes,
	}
}

type investorProfileViewModel struct {
	UserID      string  `json:"user_id"`
	Status      string  `json:"status"`
	SubmittedAt *string `json:"submitted_at"`

	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`

	IDType       string             `json:"id_type"`
	GovernmentID *documentViewModel `json:"government_id"`

	BankName      string `json:"bank_name"`
	AccountHolder string `json:"account_holder"`
	IBAN          string `json:"iban"`

	InvestmentExperience string `json:"investment_experience"`
	AnnualIncomeBand     string `json:"annual_income_band"`

	TermsAndConditionsAccepted    bool `json:"terms_and_conditions_accepted"`
	RiskDisclosureAccepted        bool `json:"risk_disclosure_accepted"`
	PrivacyPolicyAccepted         bool `json:"privacy_policy_accepted"`
	ConfirmationOfTrueInformation bool `json:"confirmation_of_true_information"`

	SignatureName string `json:"signature_name"`
}

func investorProfileView(p domain.InvestorProfile) investorProfileViewModel {
	return investorProfileViewModel{
		UserID:                        p.UserID,
		Status:                        string(p.Status),
		SubmittedAt:                   formatTimePtr(p.SubmittedAt),
		FullName:                      p.FullName,
		Email:                         p.Email,
		Phone:                         p.Phone,
		Country:                       p.Country,
		IDType:                        p.IDType,
		GovernmentID:                  documentView(p.GovernmentID),
		BankName:                      p.BankName,
		AccountHolder:                 p.AccountHolder,
		IBAN:                          p.IBAN,
		InvestmentExperience:          p.InvestmentExperience,
		AnnualIncomeBand:              p.AnnualIncomeBand,
		TermsAndConditionsAccepted:    p.TermsAndConditionsAccepted,
		RiskDisclosureAccepted:        p.RiskDisclosureAccepted,
		PrivacyPolicyAccepted:         p.PrivacyPolicyAccepted,
		ConfirmationOfTrueInformation: p.ConfirmationOfTrueInformation,
		SignatureName:                 p.SignatureName,
	}
}

type syndicateProfileViewModel struct {
	UserID      string  `json:"user_id"`
	Status      string  `json:"status"`
	SubmittedAt *string `json:"submitted_at"`

	LegalName    string `json:"legal_name"`
	EntityType   string `json:"entity_type"`
	Jurisdiction string `json:"jurisdiction"`

	LeadFullName string `json:"lead_full_name"`
	LeadEmail    string `json:"lead_email"`
	LeadPhone    string `json:"lead_phone"`

	FormationDocument *documentViewModel `json:"formation_document"`
	EIN               string             `json:"ein"`

	IsAccreditedInvestor  bool               `json:"is_accredited_investor"`
	AccreditationProof    *documentViewModel `json:"accreditation_proof"`
	AccreditationDeclined bool               `json:"accreditation_declined"`

	TermsAndConditionsAccepted    bool `json:"terms_and_conditions_accepted"`
	RiskDisclosureAccepted        bool `json:"risk_disclosure_accepted"`
	PrivacyPolicyAccepted         bool `json:"privacy_policy_accepted"`
	ConfirmationOfTrueInformation bool `json:"confirmation_of_true_information"`
}

func syndicateProfileView(p domain.SyndicateProfile) syndicateProfileViewModel {
	return syndicateProfileViewModel{
		UserID:                        p.UserID,
		Status:                        string(p.Status),
		SubmittedAt:                   formatTimePtr(p.SubmittedAt),
		LegalName:                     p.LegalName,
		EntityType:                    p.EntityType,
		Jurisdiction:                  p.Jurisdiction,
		LeadFullName:                  p.LeadFullName,
		LeadEmail:                     p.LeadEmail,
		LeadPhone:                     p.LeadPhone,
		FormationDocument:             documentView(p.FormationDocument),
		EIN:                           p.EIN,
		IsAccreditedInvestor:          p.IsAccreditedInvestor,
		AccreditationProof:            documentView(p.AccreditationProof),
		AccreditationDeclined:         p.AccreditationDeclined,
		TermsAndConditionsAccepted:    p.TermsAndConditionsAccepted,
		RiskDisclosureAccepted:        p.RiskDisclosureAccepted,
		PrivacyPolicyAccepted:         p.PrivacyPolicyAccepted,
		ConfirmationOfTrueInformation: p.ConfirmationOfTrueInformation,
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timeFormat)
	return &s
}
