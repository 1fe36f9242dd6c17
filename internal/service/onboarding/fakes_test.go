package onboarding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/storage/objectstore"
)

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(ctx context.Context, id string) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repo.ErrNotFound
}

func (r *fakeUserRepo) Activate(ctx context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Activated = true
	r.users[id] = u
	return nil
}

type fakeInvestorRepo struct {
	profiles map[string]domain.InvestorProfile
}

func newFakeInvestorRepo() *fakeInvestorRepo {
	return &fakeInvestorRepo{profiles: map[string]domain.InvestorProfile{}}
}

func (r *fakeInvestorRepo) Create(ctx context.Context, profile domain.InvestorProfile) error {
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeInvestorRepo) Get(ctx context.Context, userID string) (domain.InvestorProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return domain.InvestorProfile{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *fakeInvestorRepo) Update(ctx context.Context, profile domain.InvestorProfile) error {
	if _, ok := r.profiles[profile.UserID]; !ok {
		return repo.ErrNotFound
	}
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeInvestorRepo) MarkSubmitted(ctx context.Context, userID string, at time.Time) error {
	p, ok := r.profiles[userID]
	if !ok || p.Status != domain.StatusDraft {
		return repo.ErrNotFound
	}
	p.Status = domain.StatusSubmitted
	at = at.UTC()
	p.SubmittedAt = &at
	r.profiles[userID] = p
	return nil
}

func (r *fakeInvestorRepo) UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error {
	p, ok := r.profiles[userID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Status = status
	r.profiles[userID] = p
	return nil
}

func (r *fakeInvestorRepo) List(ctx context.Context, filter repo.ReviewFilter) ([]domain.InvestorProfile, error) {
	out := make([]domain.InvestorProfile, 0)
	for _, p := range r.profiles {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type fakeSyndicateRepo struct {
	profiles map[string]domain.SyndicateProfile
}

func newFakeSyndicateRepo() *fakeSyndicateRepo {
	return &fakeSyndicateRepo{profiles: map[string]domain.SyndicateProfile{}}
}

func (r *fakeSyndicateRepo) Create(ctx context.Context, profile domain.SyndicateProfile) error {
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeSyndicateRepo) Get(ctx context.Context, userID string) (domain.SyndicateProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return domain.SyndicateProfile{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *fakeSyndicateRepo) Update(ctx context.Context, profile domain.SyndicateProfile) error {
	if _, ok := r.profiles[profile.UserID]; !ok {
		return repo.ErrNotFound
	}
	r.profiles[profile.UserID] = profile
	return nil
}

func (r *fakeSyndicateRepo) MarkSubmitted(ctx context.Context, userID string, at time.Time) error {
	p, ok := r.profiles[userID]
	if !ok || p.Status != domain.StatusDraft {
		return repo.ErrNotFound
	}
	p.Status = domain.StatusSubmitted
	at = at.UTC()
	p.SubmittedAt = &at
	r.profiles[userID] = p
	return nil
}

func (r *fakeSyndicateRepo) UpdateStatus(ctx context.Context, userID string, status domain.ProfileStatus) error {
	p, ok := r.profiles[userID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Status = status
	r.profiles[userID] = p
	return nil
}

func (r *fakeSyndicateRepo) List(ctx context.Context, filter repo.ReviewFilter) ([]domain.SyndicateProfile, error) {
	out := make([]domain.SyndicateProfile, 0)
	for _, p := range r.profiles {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type fakeRegistrationRepo struct {
	registrations map[string]domain.Registration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{registrations: map[string]domain.Registration{}}
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, registration domain.Registration) error {
	r.registrations[registration.UserID] = registration
	return nil
}

func (r *fakeRegistrationRepo) Get(ctx context.Context, userID string) (domain.Registration, error) {
	p, ok := r.registrations[userID]
	if !ok {
		return domain.Registration{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *fakeRegistrationRepo) GetByEmail(ctx context.Context, email string) (domain.Registration, error) {
	for _, p := range r.registrations {
		if p.Email == email {
			return p, nil
		}
	}
	return domain.Registration{}, repo.ErrNotFound
}

func (r *fakeRegistrationRepo) Update(ctx context.Context, registration domain.Registration) error {
	if _, ok := r.registrations[registration.UserID]; !ok {
		return repo.ErrNotFound
	}
	r.registrations[registration.UserID] = registration
	return nil
}

func (r *fakeRegistrationRepo) MarkSubmitted(ctx context.Context, userID string, at time.Time) error {
	p, ok := r.registrations[userID]
	if !ok || p.Status != domain.StatusDraft {
		return repo.ErrNotFound
	}
	p.Status = domain.StatusSubmitted
	at = at.UTC()
	p.SubmittedAt = &at
	r.registrations[userID] = p
	return nil
}

type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[bucket+"/"+key] = data
	return nil
}

func (s *fakeObjectStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, objectstore.ObjectInfo, error) {
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, objectstore.ObjectInfo{}, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), objectstore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *fakeObjectStore) Stat(ctx context.Context, bucket, key string) (objectstore.ObjectInfo, error) {
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return objectstore.ObjectInfo{}, fmt.Errorf("object %s not found", key)
	}
	return objectstore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, bucket, key string) error {
	delete(s.objects, bucket+"/"+key)
	return nil
}

func (s *fakeObjectStore) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "https://example.test/" + bucket + "/" + key, nil
}

type fakeIssuer struct {
	issued []string
}

func (i *fakeIssuer) IssueTokens(userID, email string) (auth.TokenPair, error) {
	i.issued = append(i.issued, userID)
	return auth.TokenPair{Access: "access-" + userID, Refresh: "refresh-" + userID}, nil
}

func (i *fakeIssuer) Rotate(refreshToken string) (auth.TokenPair, error) {
	userID, ok := strings.CutPrefix(refreshToken, "refresh-")
	if !ok {
		return auth.TokenPair{}, auth.ErrSessionTokenInvalid
	}
	return i.IssueTokens(userID, "")
}

type fakeCodeSender struct {
	email string
	codes []string
}

func (s *fakeCodeSender) SendCode(ctx context.Context, email, code string) error {
	s.email = email
	s.codes = append(s.codes, code)
	return nil
}

func (s *fakeCodeSender) lastCode() string {
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}
