package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/repo"
)

func TestBuildProfileListQueryNoFilter(t *testing.T) {
	query, args := buildProfileListQuery("investor_profiles", investorProfileColumns, repo.ReviewFilter{})
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
	if strings.Contains(query, "WHERE") {
		t.Fatalf("unexpected WHERE clause in %s", query)
	}
	if !strings.Contains(query, "ORDER BY updated_at DESC") {
		t.Fatalf("expected ordering in query, got %s", query)
	}
}

func TestBuildProfileListQueryWithStatusAndLimit(t *testing.T) {
	query, args := buildProfileListQuery("syndicate_profiles", syndicateProfileColumns, repo.ReviewFilter{
		Status: domain.StatusSubmitted,
		Limit:  25,
	})
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", args)
	}
	if args[0] != "submitted" || args[1] != 25 {
		t.Fatalf("unexpected args: %v", args)
	}
	if !strings.Contains(query, "status = $1") {
		t.Fatalf("expected status predicate in query, got %s", query)
	}
	if !strings.Contains(query, "LIMIT $2") {
		t.Fatalf("expected limit in query, got %s", query)
	}
}

type fakeResult struct {
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

func TestRequireRow(t *testing.T) {
	if err := requireRow(fakeResult{affected: 1}, nil); err != nil {
		t.Fatalf("unexpected error for matched row: %v", err)
	}
	if err := requireRow(fakeResult{}, nil); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for zero rows, got %v", err)
	}
	boom := errors.New("boom")
	if err := requireRow(nil, boom); !errors.Is(err, boom) {
		t.Fatalf("expected exec error passthrough, got %v", err)
	}
}

func TestHandleNotFound(t *testing.T) {
	if err := handleNotFound(sql.ErrNoRows); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	boom := errors.New("boom")
	if err := handleNotFound(boom); !errors.Is(err, boom) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestNullTimeRoundTrip(t *testing.T) {
	if got := timePtr(nullTime(nil)); got != nil {
		t.Fatalf("expected nil round trip, got %v", got)
	}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := timePtr(nullTime(&at))
	if got == nil || !got.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got)
	}
}
