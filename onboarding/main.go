package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	svc "github.com/crestline-labs/crestline-go/internal/service/onboarding"
	storage "github.com/crestline-labs/crestline-go/internal/storage/objectstore"

	"github.com/crestline-labs/crestline-go/internal/platform/auth"
	"github.com/crestline-labs/crestline-go/internal/platform/env"
	"github.com/crestline-labs/crestline-go/internal/platform/httpserver"
	"github.com/crestline-labs/crestline-go/internal/platform/objectstore"
	"github.com/crestline-labs/crestline-go/internal/platform/postgres"
	repopg "github.com/crestline-labs/crestline-go/internal/repo/postgres"
	"github.com/crestline-labs/crestline-go/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("ONBOARDING_HTTP_ADDR", ":8081")
	shutdownTimeout, err := env.Duration("ONBOARDING_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	maxUploadBytes, err := env.Int64("ONBOARDING_MAX_UPLOAD_BYTES", 20<<20)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	codeTTL, err := env.Duration("ONBOARDING_TWO_FACTOR_TTL", 10*time.Minute)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	accessTTL, err := env.Duration("CRESTLINE_SESSION_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	refreshTTL, err := env.Duration("CRESTLINE_SESSION_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}
	sessionSecret := env.String("CRESTLINE_SESSION_SECRET", "")
	if strings.TrimSpace(sessionSecret) == "" {
		logger.Error("missing session secret", "env", "CRESTLINE_SESSION_SECRET")
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
	if err := objectstore.EnsureBuckets(ctx, minioClient, storeCfg); err != nil {
		logger.Error("object store buckets unavailable", "error", err)
		os.Exit(1)
	}
	documentStore, err := storage.NewMinioStoreWithClient(minioClient)
	if err != nil {
		logger.Error("document store init failed", "error", err)
		os.Exit(1)
	}

	registry := workflow.NewRegistry()
	if dir := env.String("CRESTLINE_WORKFLOW_DIR", ""); strings.TrimSpace(dir) != "" {
		if err := registry.LoadDir(dir); err != nil {
			logger.Error("workflow definitions failed to load", "dir", dir, "error", err)
			os.Exit(2)
		}
	}

	issuer, err := auth.NewSessionIssuer(sessionSecret, accessTTL, refreshTTL)
	if err != nil {
		logger.Error("session issuer init failed", "error", err)
		os.Exit(2)
	}
	sessionAuth, err := auth.NewSessionAuthenticator(sessionSecret)
	if err != nil {
		logger.Error("session authenticator init failed", "error", err)
		os.Exit(2)
	}

	service := svc.New(svc.Deps{
		Registry:       registry,
		Users:          repopg.NewUserStore(db),
		Investors:      repopg.NewInvestorProfileStore(db),
		Syndicates:     repopg.NewSyndicateProfileStore(db),
		Registrations:  repopg.NewRegistrationStore(db),
		Store:          documentStore,
		Bucket:         storeCfg.BucketDocuments,
		Issuer:         issuer,
		Codes:          logCodeSender{logger: logger},
		MaxUploadBytes: maxUploadBytes,
		CodeTTL:        codeTTL,
		Logger:         logger,
	})
	if service == nil {
		logger.Error("onboarding service init failed")
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("onboarding"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"onboarding",
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

	api := newOnboardingAPI(logger, service)
	api.register(mux)

	// Registration and token refresh happen before a session exists.
	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: sessionAuth,
		SkipPrefixes:  []string{"/healthz", "/readyz", "/registration", "/auth/"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "onboarding",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "onboarding", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// logCodeSender writes verification codes to the service log. It stands in
// until an email or SMS provider is configured.
type logCodeSender struct {
	logger *slog.Logger
}

func (s logCodeSender) SendCode(ctx context.Context, email, code string) error {
	s.logger.Info("two-factor code issued", "email", email, "code", code)
	return nil
}
