package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	storage "github.com/crestline-labs/crestline-go/internal/storage/objectstore"

	"github.com/crestline-labs/crestline-go/internal/platform/auditlog"
	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/platform/env"
	"github.com/crestline-labs/crestline-go/internal/platform/httpserver"
	"github.com/crestline-labs/crestline-go/internal/platform/objectstore"
	"github.com/crestline-labs/crestline-go/internal/platform/postgres"
	repopg "github.com/crestline-labs/crestline-go/internal/repo/postgres"
	"github.com/crestline-labs/crestline-go/internal/service/review"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("BACKOFFICE_HTTP_ADDR", ":8082")
	shutdownTimeout, err := env.Duration("BACKOFFICE_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	minioClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store init failed", "error", err)
		os.Exit(1)
	}
	documentStore, err := storage.NewMinioStoreWithClient(minioClient)
	if err != nil {
		logger.Error("document store init failed", "error", err)
		os.Exit(1)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}

	var authenticator auth.Authenticator
	var oidcService *auth.OIDCService
	switch authCfg.Mode {
	case auth.ModeDev:
		authenticator = auth.NewDevAuthenticator(authCfg)
	case auth.ModeOIDC:
		svc, err := auth.NewOIDCService(ctx, authCfg)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(1)
		}
		oidcService = svc
		authenticator = svc
	case auth.ModeDisabled:
		authenticator = nil
	default:
		logger.Error("unsupported auth mode", "mode", authCfg.Mode)
		os.Exit(2)
	}

	auditFn := func(ctx context.Context, event auth.DenyEvent) error {
		auditCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
		defer cancel()
		_, err := auditlog.Insert(auditCtx, db, auditlog.Event{
			Actor:        event.Subject,
			Action:       "auth.denied",
			ResourceType: "route",
			ResourceID:   event.Path,
			RequestID:    event.RequestID,
			UserAgent:    event.UserAgent,
			Payload: map[string]any{
				"service": "backoffice",
				"method":  event.Method,
				"status":  event.Status,
				"reason":  event.Reason,
				"roles":   event.Roles,
			},
		})
		return err
	}
	protected := func(handler http.Handler) http.Handler {
		if authenticator == nil {
			return handler
		}
		return auth.Middleware{
			Logger:        logger,
			Authenticator: authenticator,
			Authorize:     auth.RequireAnyRole("compliance", "admin"),
			Audit:         auditFn,
		}.Wrap(handler)
	}

	registry := workflow.NewRegistry()
	if dir := env.String("CRESTLINE_WORKFLOW_DIR", ""); dir != "" {
		if err := registry.LoadDir(dir); err != nil {
			logger.Error("workflow definitions failed to load", "dir", dir, "error", err)
			os.Exit(2)
		}
	}

	service := review.New(
		registry,
		repopg.NewInvestorProfileStore(db),
		repopg.NewSyndicateProfileStore(db),
		repopg.NewAuditAppender(db),
		logger,
	)
	if service == nil {
		logger.Error("review service init failed")
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("backoffice"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"backoffice",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "minio",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
					defer cancel()
					return objectstore.CheckBuckets(checkCtx, minioClient, storeCfg)
				},
			},
		),
	)

	if oidcService != nil {
		mux.HandleFunc("/auth/logout", oidcService.LogoutHandler())
		mux.Handle("/auth/session", sessionHandler(authenticator, logger))

		if err := authCfg.ValidateForLogin(); err == nil {
			login, err := oidcService.LoginHandler()
			if err != nil {
				logger.Error("oidc login handler init failed", "error", err)
				os.Exit(2)
			}
			callback, err := oidcService.CallbackHandler()
			if err != nil {
				logger.Error("oidc callback handler init failed", "error", err)
				os.Exit(2)
			}
			mux.HandleFunc("/auth/login", login)
			mux.HandleFunc("/auth/callback", callback)
		}
	}

	api := newBackofficeAPI(logger, service, documentStore, storeCfg.BucketDocuments)
	apiMux := http.NewServeMux()
	api.register(apiMux)
	mux.Handle("/reviews/", protected(apiMux))

	cfg := httpserver.Config{
		Service:         "backoffice",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "backoffice", mux)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func sessionHandler(authenticator auth.Authenticator, logger *slog.Logger) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"subject": identity.Subject,
			"email":   identity.Email,
			"roles":   identity.Roles,
		})
	})
	if authenticator == nil {
		return inner
	}
	return auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
	}.Wrap(inner)
}
