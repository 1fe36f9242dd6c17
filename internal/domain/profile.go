package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProfileStatus tracks the review lifecycle of an onboarding profile.
// Transitions are forward-only; draft profiles are the only editable ones.
type ProfileStatus string

const (
	StatusDraft       ProfileStatus = "draft"
	StatusSubmitted   ProfileStatus = "submitted"
	StatusUnderReview ProfileStatus = "under_review"
	StatusApproved    ProfileStatus = "approved"
	StatusRejected    ProfileStatus = "rejected"
)

func ParseProfileStatus(raw string) (ProfileStatus, error) {
	switch ProfileStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusSubmitted:
		return StatusSubmitted, nil
	case StatusUnderReview:
		return StatusUnderReview, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("unknown profile status: %q", raw)
	}
}

// CanTransition reports whether a status change is allowed. Submission
// (draft to submitted) belongs to the finalizer; everything after submitted
// is a back-office review action.
func CanTransition(from, to ProfileStatus) bool {
	switch from {
	case StatusDraft:
		return to == StatusSubmitted
	case StatusSubmitted:
		return to == StatusUnderReview || to == StatusApproved || to == StatusRejected
	case StatusUnderReview:
		return to == StatusApproved || to == StatusRejected
	default:
		return false
	}
}

// FileRef is a stored-document reference. The blob lives in object storage;
// the profile row carries only the key and derived metadata.
type FileRef struct {
	ObjectKey   string
	Filename    string
	ContentType string
	SizeBytes   int64
}

func (f FileRef) Stored() bool {
	return strings.TrimSpace(f.ObjectKey) != ""
}

func (f FileRef) Validate() error {
	if !f.Stored() {
		return nil
	}
	if strings.TrimSpace(f.Filename) == "" {
		return fmt.Errorf("filename is required for stored object %q", f.ObjectKey)
	}
	if f.SizeBytes < 0 {
		return fmt.Errorf("size must be >= 0 for stored object %q", f.ObjectKey)
	}
	return nil
}

// SubmissionRecord is the finalizer's receipt: the moment a draft became a
// submitted application.
type SubmissionRecord struct {
	Workflow    string
	UserID      string
	SubmittedAt time.Time
}
