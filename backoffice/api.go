package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crestline-labs/crestline-go/internal/domain"
	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/repo"
	"github.com/crestline-labs/crestline-go/internal/service/review"
	"github.com/crestline-labs/crestline-go/internal/storage/objectstore"
)

const defaultPresignTTL = 10 * time.Minute

type backofficeAPI struct {
	logger  *slog.Logger
	service *review.Service
	store   objectstore.Store
	bucket  string
}

func newBackofficeAPI(logger *slog.Logger, service *review.Service, store objectstore.Store, bucket string) *backofficeAPI {
	return &backofficeAPI{logger: logger, service: service, store: store, bucket: bucket}
}

func (api *backofficeAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /reviews/{workflow}", api.handleListReviews)
	mux.HandleFunc("GET /reviews/{workflow}/{user_id}", api.handleGetReview)
	mux.HandleFunc("POST /reviews/{workflow}/{user_id}/status", api.handleTransition)
}

func (api *backofficeAPI) handleListReviews(w http.ResponseWriter, r *http.Request) {
	workflowName := strings.TrimSpace(r.PathValue("workflow"))

	filter := repo.ReviewFilter{}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := domain.ParseProfileStatus(raw)
		if err != nil {
			api.writeError(w, r, http.StatusBadRequest, "invalid_status")
			return
		}
		filter.Status = status
	}
	limit, err := parseIntQuery(r, "limit", 50)
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_limit")
		return
	}
	filter.Limit = clampInt(limit, 1, 200)

	items, err := api.service.List(r.Context(), workflowName, filter)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type reviewDocumentResponse struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	DownloadURL string `json:"download_url,omitempty"`
}

func (api *backofficeAPI) handleGetReview(w http.ResponseWriter, r *http.Request) {
	workflowName := strings.TrimSpace(r.PathValue("workflow"))
	userID := strings.TrimSpace(r.PathValue("user_id"))

	item, docs, err := api.service.Get(r.Context(), workflowName, userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}

	out := make([]reviewDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp := reviewDocumentResponse{
			Field:       doc.Field,
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
			SizeBytes:   doc.SizeBytes,
		}
		if api.store != nil {
			url, presignErr := api.store.PresignGet(r.Context(), api.bucket, doc.ObjectKey, defaultPresignTTL)
			if presignErr != nil {
				api.logger.Error("presign failed",
					"request_id", r.Header.Get("X-Request-Id"),
					"object_key", doc.ObjectKey,
					"error", presignErr,
				)
			} else {
				resp.DownloadURL = url
			}
		}
		out = append(out, resp)
	}

	api.writeJSON(w, http.StatusOK, map[string]any{
		"item":      item,
		"documents": out,
	})
}

type transitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (api *backofficeAPI) handleTransition(w http.ResponseWriter, r *http.Request) {
	workflowName := strings.TrimSpace(r.PathValue("workflow"))
	userID := strings.TrimSpace(r.PathValue("user_id"))

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	status, err := domain.ParseProfileStatus(strings.TrimSpace(req.Status))
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_status")
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	actor := identity.Email
	if strings.TrimSpace(actor) == "" {
		actor = identity.Subject
	}
	info := review.AuditInfo{
		Actor:     actor,
		RequestID: r.Header.Get("X-Request-Id"),
		UserAgent: r.UserAgent(),
		IP:        requestIP(r),
	}

	if err := api.service.Transition(r.Context(), info, workflowName, userID, status, req.Note); err != nil {
		api.writeServiceError(w, r, err)
		return
	}

	item, _, err := api.service.Get(r.Context(), workflowName, userID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, item)
}

func (api *backofficeAPI) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, review.ErrUnknownWorkflow):
		api.writeError(w, r, http.StatusNotFound, "unknown_workflow")
	case errors.Is(err, review.ErrInvalidTransition):
		api.writeError(w, r, http.StatusConflict, "invalid_transition")
	case errors.Is(err, repo.ErrNotFound):
		api.writeError(w, r, http.StatusNotFound, "not_found")
	default:
		api.logger.Error("backoffice request failed",
			"request_id", r.Header.Get("X-Request-Id"),
			"path", r.URL.Path,
			"error", err,
		)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func (api *backofficeAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *backofficeAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
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

func parseIntQuery(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func requestIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
