package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	svc "github.com/crestline-labs/crestline-go/internal/service/onboarding"

	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

type onboardingAPI struct {
	logger  *slog.Logger
	service *svc.Service
}

func newOnboardingAPI(logger *slog.Logger, service *svc.Service) *onboardingAPI {
	return &onboardingAPI{logger: logger, service: service}
}

func (api *onboardingAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /registration", api.handleStartRegistration)
	mux.HandleFunc("POST /registration/confirm", api.handleConfirmRegistration)
	mux.HandleFunc("POST /registration/resend", api.handleResendCode)
	mux.HandleFunc("POST /registration/steps/{step}", api.handleRegistrationStep)
	mux.HandleFunc("GET /registration/progress", api.handleRegistrationProgress)
	mux.HandleFunc("POST /registration/submit", api.handleSubmitRegistration)
	mux.HandleFunc("POST /auth/refresh", api.handleRefresh)

	mux.HandleFunc("GET /investor/profile", api.handleGetInvestorProfile)
	mux.HandleFunc("GET /investor/profile/progress", api.handleInvestorProgress)
	mux.HandleFunc("PATCH /investor/profile/steps/{step}", api.handleInvestorStep)
	mux.HandleFunc("POST /investor/profile/documents/{field}", api.handleInvestorDocument)
	mux.HandleFunc("POST /investor/profile/submit", api.handleSubmitInvestor)

	mux.HandleFunc("GET /syndicate/profile", api.handleGetSyndicateProfile)
	mux.HandleFunc("GET /syndicate/profile/progress", api.handleSyndicateProgress)
	mux.HandleFunc("PATCH /syndicate/profile/steps/{step}", api.handleSyndicateStep)
	mux.HandleFunc("POST /syndicate/profile/documents/{field}", api.handleSyndicateDocument)
	mux.HandleFunc("POST /syndicate/profile/submit", api.handleSubmitSyndicate)
}

type startRegistrationResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func (api *onboardingAPI) handleStartRegistration(w http.ResponseWriter, r *http.Request) {
	var req svc.StartRegistrationInput
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	registration, err := api.service.StartRegistration(r.Context(), req)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, startRegistrationResponse{
		UserID: registration.UserID,
		Status: string(registration.Status),
	})
}

type confirmRegistrationRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

func (api *onboardingAPI) handleConfirmRegistration(w http.ResponseWriter, r *http.Request) {
	var req confirmRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	result, err := api.service.ConfirmTwoFactor(r.Context(), strings.TrimSpace(req.UserID), req.Code)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, result)
}

type resendCodeRequest struct {
	UserID string `json:"user_id"`
}

func (api *onboardingAPI) handleResendCode(w http.ResponseWriter, r *http.Request) {
	var req resendCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := api.service.ResendTwoFactorCode(r.Context(), strings.TrimSpace(req.UserID)); err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type registrationStepRequest struct {
	UserID string `json:"user_id"`
	svc.RegistrationStepInput
}

func (api *onboardingAPI) handleRegistrationStep(w http.ResponseWriter, r *http.Request) {
	step, ok := api.pathStep(w, r)
	if !ok {
		return
	}
	var req registrationStepRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	result, err := api.service.WriteRegistrationStep(r.Context(), strings.TrimSpace(req.UserID), step, req.RegistrationStepInput)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, result)
}

func (api *onboardingAPI) handleRegistrationProgress(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		api.writeError(w, r, http.StatusBadRequest, "user_id_required")
		return
	}
	progress, err := api.service.RegistrationProgress(r.Context(), userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, progress)
}

type submitRegistrationRequest struct {
	UserID string `json:"user_id"`
}

type submitRegistrationResponse struct {
	UserID      string         `json:"user_id"`
	Status      string         `json:"status"`
	SubmittedAt string         `json:"submitted_at"`
	Tokens      auth.TokenPair `json:"tokens"`
}

func (api *onboardingAPI) handleSubmitRegistration(w http.ResponseWriter, r *http.Request) {
	var req submitRegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	registration, tokens, err := api.service.SubmitRegistration(r.Context(), strings.TrimSpace(req.UserID))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, submitRegistrationResponse{
		UserID:      registration.UserID,
		Status:      string(registration.Status),
		SubmittedAt: registration.SubmittedAt.Format(timeFormat),
		Tokens:      tokens,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (api *onboardingAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	tokens, err := api.service.Refresh(req.RefreshToken)
	if err != nil {
		api.writeError(w, r, http.StatusUnauthorized, "invalid_token")
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]auth.TokenPair{"tokens": tokens})
}

func (api *onboardingAPI) handleGetInvestorProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	profile, err := api.service.GetInvestorProfile(r.Context(), userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, investorProfileView(profile))
}

func (api *onboardingAPI) handleInvestorProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	progress, err := api.service.InvestorProgress(r.Context(), userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, progress)
}

func (api *onboardingAPI) handleInvestorStep(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	step, ok := api.pathStep(w, r)
	if !ok {
		return
	}
	var req svc.InvestorStepInput
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	result, err := api.service.WriteInvestorStep(r.Context(), userID, step, req)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, result)
}

func (api *onboardingAPI) handleInvestorDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	field := strings.TrimSpace(r.PathValue("field"))
	part, size, cleanup, ok := api.filePart(w, r)
	if !ok {
		return
	}
	defer cleanup()
	ref, result, err := api.service.AttachInvestorDocument(r.Context(), userID, field, part.FileName(), part.Header.Get("Content-Type"), size, part)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, map[string]any{
		"document": documentView(ref),
		"result":   result,
	})
}

func (api *onboardingAPI) handleSubmitInvestor(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	record, profile, err := api.service.SubmitInvestor(r.Context(), userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{
		"workflow":     record.Workflow,
		"user_id":      record.UserID,
		"status":       string(profile.Status),
		"submitted_at": record.SubmittedAt.Format(timeFormat),
	})
}

func (api *onboardingAPI) handleGetSyndicateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	profile, err := api.service.GetSyndicateProfile(r.Context(), userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, syndicateProfileView(profile))
}

func (api *onboardingAPI) handleSyndicateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	progress, err := api.service.SyndicateProgress(r.Context(), userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, progress)
}

func (api *onboardingAPI) handleSyndicateStep(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	step, ok := api.pathStep(w, r)
	if !ok {
		return
	}
	var req svc.SyndicateStepInput
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	result, err := api.service.WriteSyndicateStep(r.Context(), userID, step, req)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, result)
}

func (api *onboardingAPI) handleSyndicateDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	field := strings.TrimSpace(r.PathValue("field"))
	part, size, cleanup, ok := api.filePart(w, r)
	if !ok {
		return
	}
	defer cleanup()
	ref, result, err := api.service.AttachSyndicateDocument(r.Context(), userID, field, part.FileName(), part.Header.Get("Content-Type"), size, part)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusCreated, map[string]any{
		"document": documentView(ref),
		"result":   result,
	})
}

func (api *onboardingAPI) handleSubmitSyndicate(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.identityUserID(w, r)
	if !ok {
		return
	}
	record, profile, err := api.service.SubmitSyndicate(r.Context(), userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{
		"workflow":     record.Workflow,
		"user_id":      record.UserID,
		"status":       string(profile.Status),
		"submitted_at": record.SubmittedAt.Format(timeFormat),
	})
}

// identityUserID reads the authenticated member from the request context.
func (api *onboardingAPI) identityUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		api.writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return identity.Subject, true
}

func (api *onboardingAPI) pathStep(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.PathValue("step"))
	step, err := strconv.Atoi(raw)
	if err != nil || step < 1 {
		api.writeError(w, r, http.StatusBadRequest, "invalid_step")
		return 0, false
	}
	return step, true
}

// filePart extracts the single "file" part of a multipart upload. The body
// is capped before parsing; the service re-checks the declared size.
func (api *onboardingAPI) filePart(w http.ResponseWriter, r *http.Request) (*multipart.Part, int64, func(), bool) {
	r.Body = http.MaxBytesReader(w, r.Body, api.service.MaxUploadBytes()+(1<<20))
	mr, err := r.MultipartReader()
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_multipart")
		return nil, 0, nil, false
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			api.writeError(w, r, http.StatusBadRequest, "invalid_multipart")
			return nil, 0, nil, false
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		// Part length is unknown until the stream is drained.
		return part, -1, func() { _ = part.Close() }, true
	}
	api.writeError(w, r, http.StatusBadRequest, "file_required")
	return nil, 0, nil, false
}

// writeServiceError maps the business-error taxonomy onto transport codes.
func (api *onboardingAPI) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *svc.ValidationError
	if errors.As(err, &validation) {
		api.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation_failed",
			"field":      validation.Field,
			"reason":     validation.Reason,
			"request_id": r.Header.Get("X-Request-Id"),
		})
		return
	}
	var notFound *workflow.StepNotFoundError
	if errors.As(err, &notFound) {
		api.writeJSON(w, http.StatusNotFound, map[string]any{
			"error":      "step_not_found",
			"step":       notFound.Step,
			"request_id": r.Header.Get("X-Request-Id"),
		})
		return
	}
	var incomplete *workflow.StepIncompleteError
	if errors.As(err, &incomplete) {
		api.writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "step_incomplete",
			"step":       incomplete.Step,
			"label":      incomplete.Label,
			"request_id": r.Header.Get("X-Request-Id"),
		})
		return
	}
	var missing *workflow.IncompleteStepsError
	if errors.As(err, &missing) {
		api.writeJSON(w, http.StatusConflict, map[string]any{
			"error":         "incomplete_steps",
			"missing_steps": missing.Steps,
			"request_id":    r.Header.Get("X-Request-Id"),
		})
		return
	}
	switch {
	case errors.Is(err, workflow.ErrAlreadySubmitted):
		api.writeError(w, r, http.StatusConflict, "already_submitted")
	case errors.Is(err, svc.ErrCodeInvalid):
		api.writeError(w, r, http.StatusBadRequest, "code_invalid")
	case errors.Is(err, repo.ErrNotFound):
		api.writeError(w, r, http.StatusNotFound, "not_found")
	default:
		api.logger.Error("onboarding request failed",
			"request_id", r.Header.Get("X-Request-Id"),
			"path", r.URL.Path,
			"error", err,
		)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func (api *onboardingAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *onboardingAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}
