package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/platform/auditlog"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

// ErrInvalidTransition rejects a status change the review lifecycle does not
// allow. Transitions are forward-only.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrUnknownWorkflow rejects a review request addressed to a workflow the
// back office does not handle.
var ErrUnknownWorkflow = errors.New("unknown review workflow")

// Item is the back-office listing row: applicant summary plus derived
// progress.
type Item struct {
	Workflow    string               `json:"workflow"`
	UserID      string               `json:"user_id"`
	Applicant   string               `json:"applicant"`
	Status      domain.ProfileStatus `json:"status"`
	SubmittedAt *time.Time           `json:"submitted_at"`
	Progress    workflow.Progress    `json:"progress"`
}

// Documents attached to a profile, listed for reviewer download.
type Document struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	ObjectKey   string `json:"object_key"`
}

// AuditInfo identifies the admin actor for the audit trail.
type AuditInfo struct {
	Actor     string
	RequestID string
	UserAgent string
	IP        net.IP
}

// Auditor records review decisions append-only.
type Auditor interface {
	Append(ctx context.Context, event auditlog.Event) (int64, error)
}

type Service struct {
	registry   *workflow.Registry
	investors  repo.InvestorProfileRepository
	syndicates repo.SyndicateProfileRepository
	audit      Auditor
	logger     *slog.Logger
}

func New(registry *workflow.Registry, investors repo.InvestorProfileRepository, syndicates repo.SyndicateProfileRepository, audit Auditor, logger *slog.Logger) *Service {
	if registry == nil || investors == nil || syndicates == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:   registry,
		investors:  investors,
		syndicates: syndicates,
		audit:      audit,
		logger:     logger,
	}
}

// List returns review items for one workflow, optionally narrowed by status.
func (s *Service) List(ctx context.Context, workflowName string, filter repo.ReviewFilter) ([]Item, error) {
	def, ok := s.registry.Lookup(workflowName)
	if !ok {
		return nil, ErrUnknownWorkflow
	}
	switch workflowName {
	case workflow.InvestorOnboarding:
		profiles, err := s.investors.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(profiles))
		for _, p := range profiles {
			items = append(items, investorItem(def, p))
		}
		return items, nil
	case workflow.SyndicateOnboarding:
		profiles, err := s.syndicates.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(profiles))
		for _, p := range profiles {
			items = append(items, syndicateItem(def, p))
		}
		return items, nil
	default:
		return nil, ErrUnknownWorkflow
	}
}

// Get returns one profile's review item and its attached documents.
func (s *Service) Get(ctx context.Context, workflowName, userID string) (Item, []Document, error) {
	def, ok := s.registry.Lookup(workflowName)
	if !ok {
		return Item{}, nil, ErrUnknownWorkflow
	}
	switch workflowName {
	case workflow.InvestorOnboarding:
		p, err := s.investors.Get(ctx, userID)
		if err != nil {
			return Item{}, nil, err
		}
		return investorItem(def, p), investorDocuments(p), nil
	case workflow.SyndicateOnboarding:
		p, err := s.syndicates.Get(ctx, userID)
		if err != nil {
			return Item{}, nil, err
		}
		return syndicateItem(def, p), syndicateDocuments(p), nil
	default:
		return Item{}, nil, ErrUnknownWorkflow
	}
}

// Transition moves a submitted application through review and records the
// decision in the audit trail.
func (s *Service) Transition(ctx context.Context, info AuditInfo, workflowName, userID string, to domain.ProfileStatus, note string) error {
	if strings.TrimSpace(info.Actor) == "" {
		return errors.New("audit actor is required")
	}
	from, err := s.currentStatus(ctx, workflowName, userID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}

	switch workflowName {
	case workflow.InvestorOnboarding:
		err = s.investors.UpdateStatus(ctx, userID, to)
	case workflow.SyndicateOnboarding:
		err = s.syndicates.UpdateStatus(ctx, userID, to)
	}
	if err != nil {
		return err
	}

	if s.audit != nil {
		if _, auditErr := s.audit.Append(ctx, auditlog.Event{
			Actor:        info.Actor,
			Action:       "review.status_changed",
			ResourceType: "profile",
			ResourceID:   userID,
			RequestID:    info.RequestID,
			IP:           info.IP,
			UserAgent:    info.UserAgent,
			Payload: map[string]any{
				"workflow": workflowName,
				"user_id":  userID,
				"from":     string(from),
				"to":       string(to),
				"note":     strings.TrimSpace(note),
			},
		}); auditErr != nil {
			return fmt.Errorf("audit review transition: %w", auditErr)
		}
	}

	s.logger.Info("review status changed",
		"workflow", workflowName,
		"user_id", userID,
		"from", string(from),
		"to", string(to),
		"actor", info.Actor,
	)
	return nil
}

func (s *Service) currentStatus(ctx context.Context, workflowName, userID string) (domain.ProfileStatus, error) {
	switch workflowName {
	case workflow.InvestorOnboarding:
		p, err := s.investors.Get(ctx, userID)
		if err != nil {
			return "", err
		}
		return p.Status, nil
	case workflow.SyndicateOnboarding:
		p, err := s.syndicates.Get(ctx, userID)
		if err != nil {
			return "", err
		}
		return p.Status, nil
	default:
		return "", ErrUnknownWorkflow
	}
}

func investorItem(def workflow.Definition, p domain.InvestorProfile) Item {
	return Item{
		Workflow:    def.Name,
		UserID:      p.UserID,
		Applicant:   p.FullName,
		Status:      p.Status,
		SubmittedAt: p.SubmittedAt,
		Progress:    workflow.Report(def, p),
	}
}

func syndicateItem(def workflow.Definition, p domain.SyndicateProfile) Item {
	return Item{
		Workflow:    def.Name,
		UserID:      p.UserID,
		Applicant:   p.LegalName,
		Status:      p.Status,
		SubmittedAt: p.SubmittedAt,
		Progress:    workflow.Report(def, p),
	}
}

func investorDocuments(p domain.InvestorProfile) []Document {
	return collectDocuments(map[string]domain.FileRef{
		"government_id": p.GovernmentID,
	})
}

func syndicateDocuments(p domain.SyndicateProfile) []Document {
	return collectDocuments(map[string]domain.FileRef{
		"formation_document":  p.FormationDocument,
		"accreditation_proof": p.AccreditationProof,
	})
}

func collectDocuments(refs map[string]domain.FileRef) []Document {
	docs := make([]Document, 0, len(refs))
	for field, ref := range refs {
		if !ref.Stored() {
			continue
		}
		docs = append(docs, Document{
			Field:       field,
			Filename:    ref.Filename,
			ContentType: ref.ContentType,
			SizeBytes:   ref.SizeBytes,
			ObjectKey:   ref.ObjectKey,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Field < docs[j].Field })
	return docs
}
