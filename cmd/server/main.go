package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	specpkg "github.com/studyhub/portal/api"
	"github.com/studyhub/portal/internal/api"
	"github.com/studyhub/portal/internal/api/handler"
	"github.com/studyhub/portal/internal/asset"
	"github.com/studyhub/portal/internal/auth"
	"github.com/studyhub/portal/internal/book"
	"github.com/studyhub/portal/internal/config"
	"github.com/studyhub/portal/internal/database"
	"github.com/studyhub/portal/internal/gate"
	"github.com/studyhub/portal/internal/identity"
	"github.com/studyhub/portal/internal/listing"
	"github.com/studyhub/portal/internal/pastpaper"
	"github.com/studyhub/portal/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewClient(storage.Options{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		UseSSL:    cfg.StorageUseSSL,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		slog.Error("failed to create storage client", "error", err)
		os.Exit(1)
	}
	booksBucket, err := store.Bucket(ctx, cfg.BooksBucket)
	if err != nil {
		slog.Error("failed to open books bucket", "error", err)
		os.Exit(1)
	}
	papersBucket, err := store.Bucket(ctx, cfg.PastPapersBucket)
	if err != nil {
		slog.Error("failed to open past papers bucket", "error", err)
		os.Exit(1)
	}

	sessions, err := identity.NewClient(identity.Config{
		BaseURL:       cfg.AuthURL,
		PublicKey:     cfg.AuthPublicKey,
		AccessCookie:  cfg.AccessCookie,
		RefreshCookie: cfg.RefreshCookie,
		SecureCookies: cfg.CookieSecure,
	})
	if err != nil {
		slog.Error("failed to create identity client", "error", err)
		os.Exit(1)
	}

	strategy, err := asset.ParseStrategy(cfg.ReplaceStrategy)
	if err != nil {
		slog.Error("invalid replace strategy", "error", err)
		os.Exit(1)
	}

	userRepo := auth.NewRepository(db.Pool())
	bookRepo := book.NewRepository(db.Pool())
	paperRepo := pastpaper.NewRepository(db.Pool())

	bookWorkflow := asset.NewWorkflow[*book.Book]("book", booksBucket, bookRepo, asset.WithStrategy(strategy))
	paperWorkflow := asset.NewWorkflow[*pastpaper.PastPaper]("past_paper", papersBucket, paperRepo, asset.WithStrategy(strategy))

	if cfg.AuditInterval > 0 {
		auditor := asset.NewAuditor(time.Duration(cfg.AuditInterval)*time.Second, bookWorkflow, paperWorkflow)
		go auditor.Start(ctx)
	}

	policy := gate.DefaultPolicy()
	policy.LoginPath = cfg.LoginPath
	policy.FallbackPath = cfg.FallbackPath

	router := api.NewRouter(api.RouterDeps{
		Version: cfg.Version,
		HealthChecks: map[string]handler.Pinger{
			"database":           db,
			"books_bucket":       booksBucket,
			"past_papers_bucket": papersBucket,
		},
		OpenAPISpec:       specpkg.OpenAPISpec,
		Sessions:          sessions,
		Roles:             userRepo,
		Policy:            policy,
		AuthService:       auth.NewService(userRepo),
		Books:             bookRepo,
		BookWorkflow:      bookWorkflow,
		PastPapers:        paperRepo,
		PastPaperWorkflow: paperWorkflow,
		Listings:          listing.NewRepository(db.Pool()),
		MaxUploadBytes:    cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting portal server", "port", cfg.Port, "version", cfg.Version, "replaceStrategy", cfg.ReplaceStrategy)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var h slog.Handler
	if format == "text" {
		h = tint.NewHandler(os.Stdout, &tint.Options{Level: logLevel, TimeFormat: time.Kitchen})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	slog.SetDefault(slog.New(h))
}
