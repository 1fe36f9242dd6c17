package repo

import (
	"context"
	"errors"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ReviewFilter narrows back-office profile listings.
type ReviewFilter struct {
	Status domain.ProfileStatus
	Limit  int
}

// UserRepository manages platform accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Activate(ctx context.Context, id string) error
}

// InvestorProfileRepository manages one onboarding row per user. Update
// persists the whole aggregate; step semantics live above the store.
type InvestorProfileRepository interface {
	Create(ctx context.Context, profile domain.InvestorProfile) error
	Get(ctx context.Context, userID string) (domain.InvestorProfile, error)
	Update(ctx context.Context, profile domain.InvestorProfile) error
	MarkSubmitted(ctx context.Context, userID string, at time.Time) error
	UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error
	List(ctx context.Context, filter ReviewFilter) ([]domain.InvestorProfile, error)
}

// SyndicateProfileRepository manages syndicate-lead KYB rows.
type SyndicateProfileRepository interface {
	Create(ctx context.Context, profile domain.SyndicateProfile) error
	Get(ctx context.Context, userID string) (domain.SyndicateProfile, error)
	Update(ctx context.Context, profile domain.SyndicateProfile) error
	MarkSubmitted(ctx context.Context, userID string, at time.Time) error
	UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error
	List(ctx context.Context, filter ReviewFilter) ([]domain.SyndicateProfile, error)
}

// RegistrationRepository manages lead-registration rows keyed by user id.
type RegistrationRepository interface {
	Create(ctx context.Context, registration domain.Registration) error
	Get(ctx context.Context, userID string) (domain.Registration, error)
	GetByEmail(ctx context.Context, email string) (domain.Registration, error)
	Update(ctx context.Context, registration domain.Registration) error
	MarkSubmitted(ctx context.Context, userID string, at time.Time) error
}
