// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/thepilgrim/pilgrim-go/internal/cache"
	"github.com/thepilgrim/pilgrim-go/internal/config"
	"github.com/thepilgrim/pilgrim-go/internal/geoip"
	"github.com/thepilgrim/pilgrim-go/internal/handler"
	"github.com/thepilgrim/pilgrim-go/internal/handler/api"
	"github.com/thepilgrim/pilgrim-go/internal/logging"
	"github.com/thepilgrim/pilgrim-go/internal/mailer"
	"github.com/thepilgrim/pilgrim-go/internal/middleware"
	"github.com/thepilgrim/pilgrim-go/internal/scheduler"
	"github.com/thepilgrim/pilgrim-go/internal/service"
	"github.com/thepilgrim/pilgrim-go/internal/session"
	"github.com/thepilgrim/pilgrim-go/internal/storage"
	"github.com/thepilgrim/pilgrim-go/internal/store"
	"github.com/thepilgrim/pilgrim-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "The Pilgrim - relocation platform backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PILGRIM_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PILGRIM_DB_PATH          SQLite database path (default: ./data/pilgrim.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PILGRIM_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PILGRIM_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PILGRIM_FRONTEND_URL     Allowed CORS origin (default: http://localhost:5173)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PILGRIM_STRIPE_SECRET_KEY  Stripe API key (checkout disabled when empty)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PILGRIM_REDIS_URL        Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("pilgrim %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Warnings and errors mirror into the audit log once the schema exists.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("starting pilgrim", "version", versionInfo.Version, "env", cfg.Env)

	if cfg.DoSeed {
		if err := store.Seed(context.Background(), db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		slog.Info("database seeded")
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	cacheManager := cache.NewManager(cache.Options{
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.CachePrefix,
		TTL:      time.Duration(cfg.CacheTTL) * time.Second,
	})
	defer func() { _ = cacheManager.Close() }()

	var objectStorage storage.ObjectStorage
	if cfg.S3Enabled() {
		objectStorage, err = storage.NewMinioStorage(context.Background(), storage.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return fmt.Errorf("connecting to object storage: %w", err)
		}
		slog.Info("using s3 object storage", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		objectStorage, err = storage.NewLocalStorage(cfg.UploadsDir, cfg.BaseURL+"/uploads")
		if err != nil {
			return fmt.Errorf("preparing local storage: %w", err)
		}
		slog.Info("using local object storage", "dir", cfg.UploadsDir)
	}

	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip unavailable", "category", "system", "error", err)
		}
	}
	defer func() { _ = geo.Close() }()

	mail := mailer.New(mailer.Config{
		Host:    cfg.SMTPHost,
		Port:    cfg.SMTPPort,
		User:    cfg.SMTPUser,
		Pass:    cfg.SMTPPass,
		From:    cfg.SMTPFrom,
		AdminTo: cfg.AdminTo,
	}, logger)
	mailCtx, mailCancel := context.WithCancel(context.Background())
	defer mailCancel()
	mail.Start(mailCtx)
	defer mail.Stop()

	events := service.NewEventService(db)
	likes := service.NewLikeService(db, events)
	checkout := service.NewCheckoutService(db, events, service.CheckoutConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		SuccessURL:    cfg.FrontendURL + "/services/success",
		CancelURL:     cfg.FrontendURL + "/services",
	})
	if mail.Enabled() {
		checkout.SetReceiptSender(mail)
	}

	sched := scheduler.New(checkout, events, geo, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	apiHandler := api.NewHandler(db, cacheManager, likes, checkout, geo, mail, sessionManager)
	authHandler := handler.NewAuthHandler(db, sessionManager, loginProtection)
	adminHandler := handler.NewAdminHandler(db, sessionManager, cacheManager, objectStorage)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(sessionManager.LoadAndSave)

	rateLimiter := middleware.NewGlobalRateLimiter(10, 30)

	// Stripe webhook: raw body, no CORS or CSRF, signature is the auth.
	r.Post("/api/webhook/stripe", apiHandler.StripeWebhook)

	// Public API for the frontend SPA.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CORS(cfg.FrontendURL))
		r.Use(rateLimiter.Middleware())

		r.Get("/api/status", apiHandler.Status)
		r.Get("/api/countries", apiHandler.ListCountries)
		r.Get("/api/countries/{code}", apiHandler.GetCountry)
		r.Get("/api/blog", apiHandler.ListPosts)
		r.Get("/api/blog/{slug}", apiHandler.GetPost)
		r.Get("/api/blog/{slug}/comments", apiHandler.ListComments)
		r.Post("/api/comments", apiHandler.CreateComment)
		r.Post("/api/likes", apiHandler.ToggleLike)
		r.Get("/api/likes", apiHandler.ListLiked)
		r.Get("/api/services", apiHandler.ListServices)
		r.Post("/api/checkout", apiHandler.CreateCheckout)
		r.Post("/api/contact", apiHandler.SubmitContact)
	})

	csrfProtect := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.FrontendURL, cfg.IsDevelopment()))

	// Login page and form.
	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.HTMLMiddleware())
		r.Use(csrfProtect)

		r.Get("/admin/login", authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post("/admin/login", authHandler.Login)
	})

	// Back-office JSON API. One auth gate for the whole group; role checks
	// tighten per resource.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.FrontendURL))
		r.Use(csrfProtect)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))

		r.Get("/verify", adminHandler.Verify)
		r.Post("/verify", adminHandler.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireModerator(events))
			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/comments", adminHandler.ListComments)
			r.Post("/comments/approve", adminHandler.ApproveComments)
			r.Post("/comments/reject", adminHandler.RejectComments)
			r.Post("/comments/delete", adminHandler.DeleteComments)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireEditor(events))
			r.Get("/countries", adminHandler.ListCountries)
			r.Post("/countries", adminHandler.CreateCountry)
			r.Get("/countries/{id}", adminHandler.GetCountry)
			r.Put("/countries/{id}", adminHandler.UpdateCountry)
			r.Post("/countries/{id}/active", adminHandler.SetCountryActive)
			r.Post("/countries/{id}/image", adminHandler.UploadCountryImage)
			r.Get("/posts", adminHandler.ListPosts)
			r.Post("/posts", adminHandler.CreatePost)
			r.Get("/posts/{id}", adminHandler.GetPost)
			r.Put("/posts/{id}", adminHandler.UpdatePost)
			r.Post("/posts/{id}/publish", adminHandler.PublishPost)
			r.Post("/posts/{id}/unpublish", adminHandler.UnpublishPost)
			r.Delete("/posts/{id}", adminHandler.DeletePost)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(events))
			r.Get("/reservations", adminHandler.ListReservations)
			r.Get("/reservations/{id}", adminHandler.GetReservation)
			r.Put("/reservations/{id}/status", adminHandler.UpdateReservationStatus)
			r.Get("/contact-messages", adminHandler.ListContactMessages)
			r.Delete("/contact-messages/{id}", adminHandler.DeleteContactMessage)
			r.Get("/events", adminHandler.ListEvents)
			r.Get("/cache/stats", adminHandler.CacheStats)
			r.Post("/cache/clear", adminHandler.CacheClear)
		})
	})

	// Session-gated HTML shell.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))

		r.Post("/admin/logout", authHandler.Logout)
		r.Get("/admin", func(w http.ResponseWriter, req *http.Request) {
			// The back office is a SPA served separately; this endpoint
			// only confirms the session survived the redirect.
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = fmt.Fprintln(w, "Signed in. The admin app talks to /api/admin.")
		})
	})

	// Serve local uploads when no external object store is configured.
	if !cfg.S3Enabled() {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
