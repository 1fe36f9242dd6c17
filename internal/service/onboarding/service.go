package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/storage/objectstore"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

// TokenIssuer is the credential-issuance collaborator invoked when a
// registration is finalized.
type TokenIssuer interface {
	IssueTokens(userID, email string) (auth.TokenPair, error)
	Rotate(refreshToken string) (auth.TokenPair, error)
}

// CodeSender delivers two-factor codes. Transport (SMS, email) is outside
// this service.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// ValidationError reports a field value that fails format constraints. It is
// never coerced away; the caller maps it to a 4xx response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// StepResult is the step-write response: whether the written step now
// evaluates complete and which step needs attention next. NextStep is nil
// once every mandatory step is complete.
type StepResult struct {
	Step      int  `json:"step"`
	Completed bool `json:"completed"`
	NextStep  *int `json:"next_step"`
}

type Service struct {
	registry      *workflow.Registry
	users         repo.UserRepository
	investors     repo.InvestorProfileRepository
	syndicates    repo.SyndicateProfileRepository
	registrations repo.RegistrationRepository
	store         objectstore.Store
	bucket        string
	issuer        TokenIssuer
	codes         CodeSender
	maxUpload     int64
	codeTTL       time.Duration
	logger        *slog.Logger
}

type Deps struct {
	Registry       *workflow.Registry
	Users          repo.UserRepository
	Investors      repo.InvestorProfileRepository
	Syndicates     repo.SyndicateProfileRepository
	Registrations  repo.RegistrationRepository
	Store          objectstore.Store
	Bucket         string
	Issuer         TokenIssuer
	Codes          CodeSender
	MaxUploadBytes int64
	CodeTTL        time.Duration
	Logger         *slog.Logger
}

func New(deps Deps) *Service {
	if deps.Registry == nil || deps.Users == nil || deps.Investors == nil ||
		deps.Syndicates == nil || deps.Registrations == nil || deps.Store == nil ||
		deps.Issuer == nil || deps.Codes == nil {
		return nil
	}
	if deps.Bucket == "" {
		return nil
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 20 << 20
	}
	if deps.CodeTTL <= 0 {
		deps.CodeTTL = 10 * time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		registry:      deps.Registry,
		users:         deps.Users,
		investors:     deps.Investors,
		syndicates:    deps.Syndicates,
		registrations: deps.Registrations,
		store:         deps.Store,
		bucket:        deps.Bucket,
		issuer:        deps.Issuer,
		codes:         deps.Codes,
		maxUpload:     deps.MaxUploadBytes,
		codeTTL:       deps.CodeTTL,
		logger:        deps.Logger,
	}
}

// MaxUploadBytes is the per-document size ceiling enforced on uploads.
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUpload
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(refreshToken string) (auth.TokenPair, error) {
	return s.issuer.Rotate(refreshToken)
}

func (s *Service) definition(name string) (workflow.Definition, error) {
	def, ok := s.registry.Lookup(name)
	if !ok {
		return workflow.Definition{}, fmt.Errorf("workflow %q not registered", name)
	}
	return def, nil
}

// stepResult evaluates the written step against the record's current state.
func stepResult(def workflow.Definition, rec workflow.Record, step int) StepResult {
	result := StepResult{
		Step:      step,
		Completed: workflow.IsStepComplete(def, rec, step),
	}
	progress := workflow.Report(def, rec)
	if progress.CurrentStep <= def.TotalSteps() {
		next := progress.CurrentStep
		result.NextStep = &next
	}
	return result
}

// findFileStep locates the step declaring a file field.
func findFileStep(def workflow.Definition, field string) (workflow.Step, bool) {
	for _, step := range def.Steps {
		for _, name := range step.Files {
			if name == field {
				return step, true
			}
		}
	}
	return workflow.Step{}, false
}
