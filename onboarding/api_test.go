package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	svc "github.com/crestline-labs/crestline-go/internal/service/onboarding"

	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

func newTestAPI() *onboardingAPI {
	return newOnboardingAPI(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestDecodeJSON_RejectsExtraValue(t *testing.T) {
	req := httptest.NewRequest("POST", "http://example.test/", strings.NewReader("{\"user_id\":\"a\"} {\"user_id\":\"b\"}"))
	var dst confirmRegistrationRequest
	if err := decodeJSON(req, &dst); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeJSON_DisallowUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "http://example.test/", strings.NewReader("{\"user_id\":\"a\",\"extra\":1}"))
	var dst confirmRegistrationRequest
	if err := decodeJSON(req, &dst); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPathStep_RejectsNonNumeric(t *testing.T) {
	api := newTestAPI()
	req := httptest.NewRequest("PATCH", "http://example.test/investor/profile/steps/abc", nil)
	req.SetPathValue("step", "abc")
	rec := httptest.NewRecorder()
	if _, ok := api.pathStep(rec, req); ok {
		t.Fatalf("expected rejection")
	}
	if rec.Code != 400 {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestIdentityUserID_RequiresIdentity(t *testing.T) {
	api := newTestAPI()
	req := httptest.NewRequest("GET", "http://example.test/investor/profile", nil)
	rec := httptest.NewRecorder()
	if _, ok := api.identityUserID(rec, req); ok {
		t.Fatalf("expected rejection without identity")
	}
	if rec.Code != 401 {
		t.Fatalf("status=%d, want 401", rec.Code)
	}

	ctx := auth.ContextWithIdentity(req.Context(), auth.Identity{Subject: "user-1"})
	rec = httptest.NewRecorder()
	userID, ok := api.identityUserID(rec, req.WithContext(ctx))
	if !ok || userID != "user-1" {
		t.Fatalf("identityUserID=%q ok=%v", userID, ok)
	}
}

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &svc.ValidationError{Field: "email", Reason: "email is malformed"}, 400, "validation_failed"},
		{"step_not_found", &workflow.StepNotFoundError{Workflow: "investor_onboarding", Step: 9}, 404, "step_not_found"},
		{"step_incomplete", &workflow.StepIncompleteError{Step: 2, Label: "Identity"}, 409, "step_incomplete"},
		{"incomplete_steps", &workflow.IncompleteStepsError{Steps: []int{5}}, 409, "incomplete_steps"},
		{"already_submitted", workflow.ErrAlreadySubmitted, 409, "already_submitted"},
		{"code_invalid", svc.ErrCodeInvalid, 400, "code_invalid"},
		{"not_found", repo.ErrNotFound, 404, "not_found"},
		{"internal", errors.New("boom"), 500, "internal_error"},
	}
	api := newTestAPI()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "http://example.test/investor/profile/submit", nil)
			req.Header.Set("X-Request-Id", "req-42")
			rec := httptest.NewRecorder()
			api.writeServiceError(rec, req, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status=%d, want %d", rec.Code, tc.status)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["error"] != tc.code {
				t.Fatalf("error=%v, want %s", body["error"], tc.code)
			}
			if body["request_id"] != "req-42" {
				t.Fatalf("request_id=%v, want req-42", body["request_id"])
			}
		})
	}
}
