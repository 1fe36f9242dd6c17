package onboarding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

func newTestService(t *testing.T) (*Service, *fakeInvestorRepo, *fakeSyndicateRepo, *fakeRegistrationRepo, *fakeUserRepo, *fakeIssuer, *fakeCodeSender) {
	t.Helper()
	investors := newFakeInvestorRepo()
	syndicates := newFakeSyndicateRepo()
	registrations := newFakeRegistrationRepo()
	users := newFakeUserRepo()
	issuer := &fakeIssuer{}
	codes := &fakeCodeSender{}

	svc := New(Deps{
		Registry:      workflow.NewRegistry(),
		Users:         users,
		Investors:     investors,
		Syndicates:    syndicates,
		Registrations: registrations,
		Store:         newFakeObjectStore(),
		Bucket:        "documents",
		Issuer:        issuer,
		Codes:         codes,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if svc == nil {
		t.Fatalf("expected service")
	}
	return svc, investors, syndicates, registrations, users, issuer, codes
}

func str(s string) *string { return &s }
func boolean(b bool) *bool { return &b }

func writeInvestorPersonal(t *testing.T, svc *Service, userID string) {
	t.Helper()
	_, err := svc.WriteInvestorStep(context.Background(), userID, 1, InvestorStepInput{
		FullName: str("Ada Lovelace"),
		Email:    str("ada@example.com"),
		Phone:    str("+44 20 1234 5678"),
		Country:  str("GB"),
	})
	if err != nil {
		t.Fatalf("write step 1: %v", err)
	}
}

func TestInvestorStepGating(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	userID := "user-1"

	writeInvestorPersonal(t, svc, userID)

	progress, err := svc.InvestorProgress(ctx, userID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.CurrentStep != 2 {
		t.Fatalf("expected current step 2, got %d", progress.CurrentStep)
	}
	if !progress.Completion[1] || progress.Completion[2] {
		t.Fatalf("unexpected completion map: %v", progress.Completion)
	}

	_, err = svc.WriteInvestorStep(ctx, userID, 3, InvestorStepInput{
		BankName:      str("First National"),
		AccountHolder: str("Ada Lovelace"),
		IBAN:          str("GB29NWBK60161331926819"),
	})
	var incomplete *workflow.StepIncompleteError
	if !errors.As(err, &incomplete) || incomplete.Step != 2 {
		t.Fatalf("expected gate rejection naming step 2, got %v", err)
	}

	if _, err := svc.WriteInvestorStep(ctx, userID, 2, InvestorStepInput{IDType: str("passport")}); err != nil {
		t.Fatalf("write step 2: %v", err)
	}
	_, _, err = svc.AttachInvestorDocument(ctx, userID, "government_id", "passport.pdf", "application/pdf", 4, strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("attach document: %v", err)
	}

	result, err := svc.WriteInvestorStep(ctx, userID, 3, InvestorStepInput{
		BankName:      str("First National"),
		AccountHolder: str("Ada Lovelace"),
		IBAN:          str("GB29NWBK60161331926819"),
	})
	if err != nil {
		t.Fatalf("expected step 3 write to pass after step 2 complete, got %v", err)
	}
	if !result.Completed {
		t.Fatalf("expected step 3 complete")
	}
	if result.NextStep == nil || *result.NextStep != 4 {
		t.Fatalf("expected next step 4, got %v", result.NextStep)
	}
}

func completeInvestor(t *testing.T, svc *Service, userID string) {
	t.Helper()
	ctx := context.Background()
	writeInvestorPersonal(t, svc, userID)
	if _, err := svc.WriteInvestorStep(ctx, userID, 2, InvestorStepInput{IDType: str("passport")}); err != nil {
		t.Fatalf("write step 2: %v", err)
	}
	if _, _, err := svc.AttachInvestorDocument(ctx, userID, "government_id", "passport.pdf", "application/pdf", 4, strings.NewReader("%PDF")); err != nil {
		t.Fatalf("attach document: %v", err)
	}
	if _, err := svc.WriteInvestorStep(ctx, userID, 3, InvestorStepInput{
		BankName:      str("First National"),
		AccountHolder: str("Ada Lovelace"),
		IBAN:          str("GB29NWBK60161331926819"),
	}); err != nil {
		t.Fatalf("write step 3: %v", err)
	}
	if _, err := svc.WriteInvestorStep(ctx, userID, 4, InvestorStepInput{
		InvestmentExperience: str("experienced"),
		AnnualIncomeBand:     str("100k_250k"),
	}); err != nil {
		t.Fatalf("write step 4: %v", err)
	}
	if _, err := svc.WriteInvestorStep(ctx, userID, 5, InvestorStepInput{
		TermsAndConditionsAccepted:    boolean(true),
		RiskDisclosureAccepted:        boolean(true),
		PrivacyPolicyAccepted:         boolean(true),
		ConfirmationOfTrueInformation: boolean(true),
	}); err != nil {
		t.Fatalf("write step 5: %v", err)
	}
	if _, err := svc.WriteInvestorStep(ctx, userID, 6, InvestorStepInput{SignatureName: str("Ada Lovelace")}); err != nil {
		t.Fatalf("write step 6: %v", err)
	}
}

func TestSubmitInvestorIncompleteLeavesRowUntouched(t *testing.T) {
	svc, investors, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	userID := "user-1"
	writeInvestorPersonal(t, svc, userID)

	_, _, err := svc.SubmitInvestor(ctx, userID)
	var missing *workflow.IncompleteStepsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected IncompleteStepsError, got %v", err)
	}
	if len(missing.Steps) == 0 || missing.Steps[0] != 2 {
		t.Fatalf("expected missing steps starting at 2, got %v", missing.Steps)
	}

	stored := investors.profiles[userID]
	if stored.Status != domain.StatusDraft || stored.SubmittedAt != nil {
		t.Fatalf("failed submit mutated the row: %+v", stored)
	}
}

func TestSubmitInvestorOneWay(t *testing.T) {
	svc, investors, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	userID := "user-1"
	completeInvestor(t, svc, userID)

	record, profile, err := svc.SubmitInvestor(ctx, userID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Workflow != workflow.InvestorOnboarding || record.UserID != userID {
		t.Fatalf("unexpected submission record: %+v", record)
	}
	if profile.Status != domain.StatusSubmitted || profile.SubmittedAt == nil {
		t.Fatalf("submit did not finalize profile: %+v", profile)
	}
	firstSubmittedAt := *investors.profiles[userID].SubmittedAt

	if _, _, err := svc.SubmitInvestor(ctx, userID); !errors.Is(err, workflow.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if !investors.profiles[userID].SubmittedAt.Equal(firstSubmittedAt) {
		t.Fatalf("second submit mutated submitted_at")
	}

	if _, err := svc.WriteInvestorStep(ctx, userID, 1, InvestorStepInput{Phone: str("changed")}); !errors.Is(err, workflow.ErrAlreadySubmitted) {
		t.Fatalf("expected step write rejection after submit, got %v", err)
	}
}

func TestSubmitSyndicateWithOptionalStepUntouched(t *testing.T) {
	svc, syndicates, _, _, _, _, _ := newTestService(t)
	_ = syndicates
	ctx := context.Background()
	userID := "lead-1"

	if _, err := svc.WriteSyndicateStep(ctx, userID, 1, SyndicateStepInput{
		LegalName:    str("Crestline Partners LLC"),
		EntityType:   str("llc"),
		Jurisdiction: str("DE"),
	}); err != nil {
		t.Fatalf("write step 1: %v", err)
	}
	if _, err := svc.WriteSyndicateStep(ctx, userID, 2, SyndicateStepInput{
		LeadFullName: str("Grace Hopper"),
		LeadEmail:    str("grace@example.com"),
		LeadPhone:    str("+1 555 0100"),
	}); err != nil {
		t.Fatalf("write step 2: %v", err)
	}
	if _, err := svc.WriteSyndicateStep(ctx, userID, 3, SyndicateStepInput{EIN: str("12-3456789")}); err != nil {
		t.Fatalf("write step 3: %v", err)
	}
	if _, _, err := svc.AttachSyndicateDocument(ctx, userID, "formation_document", "articles.pdf", "application/pdf", 4, strings.NewReader("%PDF")); err != nil {
		t.Fatalf("attach formation document: %v", err)
	}
	// Step 4 (accreditation) left untouched; step 5 written past it.
	if _, err := svc.WriteSyndicateStep(ctx, userID, 5, SyndicateStepInput{
		TermsAndConditionsAccepted:    boolean(true),
		RiskDisclosureAccepted:        boolean(true),
		PrivacyPolicyAccepted:         boolean(true),
		ConfirmationOfTrueInformation: boolean(true),
	}); err != nil {
		t.Fatalf("write step 5 past optional step: %v", err)
	}

	before := time.Now().UTC()
	record, profile, err := svc.SubmitSyndicate(ctx, userID)
	if err != nil {
		t.Fatalf("submit with optional step untouched: %v", err)
	}
	if profile.Status != domain.StatusSubmitted {
		t.Fatalf("expected submitted status, got %s", profile.Status)
	}
	if record.SubmittedAt.Before(before.Add(-time.Second)) || record.SubmittedAt.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("submitted_at outside call window: %v", record.SubmittedAt)
	}
}

func TestFalseAgreementBlocksSubmit(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	userID := "user-1"
	completeInvestor(t, svc, userID)

	result, err := svc.WriteInvestorStep(ctx, userID, 5, InvestorStepInput{
		TermsAndConditionsAccepted:    boolean(true),
		RiskDisclosureAccepted:        boolean(false),
		PrivacyPolicyAccepted:         boolean(true),
		ConfirmationOfTrueInformation: boolean(true),
	})
	if err != nil {
		t.Fatalf("write step 5: %v", err)
	}
	if result.Completed {
		t.Fatalf("step 5 complete with explicit false agreement")
	}

	_, _, err = svc.SubmitInvestor(ctx, userID)
	var missing *workflow.IncompleteStepsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected IncompleteStepsError, got %v", err)
	}
	if len(missing.Steps) != 1 || missing.Steps[0] != 5 {
		t.Fatalf("expected missing steps [5], got %v", missing.Steps)
	}
}

func TestRegistrationFlow(t *testing.T) {
	svc, _, _, _, users, issuer, codes := newTestService(t)
	ctx := context.Background()

	registration, err := svc.StartRegistration(ctx, StartRegistrationInput{
		Email:                "lead@example.com",
		Password:             "correct horse",
		PasswordConfirmation: "correct horse",
		FullName:             "Lead Example",
	})
	if err != nil {
		t.Fatalf("start registration: %v", err)
	}
	if codes.email != "lead@example.com" || codes.lastCode() == "" {
		t.Fatalf("expected two-factor code dispatched, got %+v", codes)
	}
	userID := registration.UserID

	if _, err := svc.ConfirmTwoFactor(ctx, userID, "000000"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid for wrong code, got %v", err)
	}
	result, err := svc.ConfirmTwoFactor(ctx, userID, codes.lastCode())
	if err != nil {
		t.Fatalf("confirm code: %v", err)
	}
	if !result.Completed || result.Step != 2 {
		t.Fatalf("expected step 2 complete, got %+v", result)
	}

	if _, err := svc.WriteRegistrationStep(ctx, userID, 3, RegistrationStepInput{
		TermsAndConditionsAccepted: boolean(true),
		PrivacyPolicyAccepted:      boolean(true),
	}); err != nil {
		t.Fatalf("write agreements: %v", err)
	}

	finalized, tokens, err := svc.SubmitRegistration(ctx, userID)
	if err != nil {
		t.Fatalf("submit registration: %v", err)
	}
	if finalized.Status != domain.StatusSubmitted {
		t.Fatalf("expected submitted registration, got %s", finalized.Status)
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		t.Fatalf("expected issued token pair, got %+v", tokens)
	}
	if len(issuer.issued) != 1 || issuer.issued[0] != userID {
		t.Fatalf("expected tokens issued for %s, got %v", userID, issuer.issued)
	}
	if !users.users[userID].Activated {
		t.Fatalf("expected activated account")
	}

	rotated, err := svc.Refresh(tokens.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.Access == "" {
		t.Fatalf("expected rotated access token")
	}
}

func TestStartRegistrationValidation(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.StartRegistration(ctx, StartRegistrationInput{
		Email:                "lead@example.com",
		Password:             "correct horse",
		PasswordConfirmation: "wrong horse",
	})
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Field != "password_confirmation" {
		t.Fatalf("expected password_confirmation validation error, got %v", err)
	}

	_, err = svc.StartRegistration(ctx, StartRegistrationInput{
		Email:                "not-an-email",
		Password:             "correct horse",
		PasswordConfirmation: "correct horse",
	})
	if !errors.As(err, &validation) || validation.Field != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}

	if _, err := svc.StartRegistration(ctx, StartRegistrationInput{
		Email:                "dupe@example.com",
		Password:             "correct horse",
		PasswordConfirmation: "correct horse",
	}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	_, err = svc.StartRegistration(ctx, StartRegistrationInput{
		Email:                "dupe@example.com",
		Password:             "correct horse",
		PasswordConfirmation: "correct horse",
	})
	if !errors.As(err, &validation) || validation.Field != "email" {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}
}

func TestAttachDocumentRejectsOversizeAndUnknownField(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()
	userID := "user-1"
	writeInvestorPersonal(t, svc, userID)

	var validation *ValidationError
	_, _, err := svc.AttachInvestorDocument(ctx, userID, "government_id", "huge.pdf", "application/pdf", svc.MaxUploadBytes()+1, strings.NewReader("x"))
	if !errors.As(err, &validation) {
		t.Fatalf("expected size validation error, got %v", err)
	}

	_, _, err = svc.AttachInvestorDocument(ctx, userID, "selfie", "a.png", "image/png", 1, strings.NewReader("x"))
	if !errors.As(err, &validation) || validation.Field != "selfie" {
		t.Fatalf("expected unknown field rejection, got %v", err)
	}
}
