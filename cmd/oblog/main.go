// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
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

	"github.com/olegiv/oblog-go/internal/config"
	"github.com/olegiv/oblog-go/internal/handler"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/session"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/web"
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
		_, _ = fmt.Fprintf(os.Stderr, "oBlog - a small self-hosted blog\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_DB_PATH          SQLite database path (default: ./data/oblog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SITE_NAME        Site name shown in templates (default: oBlog)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_DO_SEED          Create the bootstrap admin account (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("oblog %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
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

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	if err := store.Seed(context.Background(), db, cfg); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		SiteName:       cfg.SiteName,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	contentFS, err := fs.Sub(web.Content, "content")
	if err != nil {
		return fmt.Errorf("getting content fs: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	registerLimiter := middleware.NewGlobalRateLimiter(1, 5)

	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection)
	postsHandler := handler.NewPostsHandler(db, renderer)
	healthHandler := handler.NewHealthHandler(db)
	frontendHandler, err := handler.NewFrontendHandler(db, renderer, sessionManager, contentFS)
	if err != nil {
		return fmt.Errorf("creating frontend handler: %w", err)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())))
	r.Use(middleware.OptionalLoadUser(sessionManager, db))

	// Public routes
	r.Get(handler.RouteRoot, frontendHandler.Home)
	r.Get(handler.RoutePost, frontendHandler.ShowPost)
	r.Post(handler.RoutePost, frontendHandler.AddComment)
	r.Get(handler.RouteAbout, frontendHandler.About)
	r.Get(handler.RouteContact, frontendHandler.Contact)
	r.Get(handler.RouteHealth, healthHandler.Health)

	// Registration, throttled per client IP
	r.Group(func(r chi.Router) {
		r.Use(registerLimiter.HTMLMiddleware())
		r.Get(handler.RouteRegister, authHandler.RegisterForm)
		r.Post(handler.RouteRegister, authHandler.Register)
	})

	// Login, with brute-force protection on submissions
	r.Group(func(r chi.Router) {
		r.Use(loginProtection.Middleware())
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.Post(handler.RouteLogin, authHandler.Login)
	})

	r.Get(handler.RouteLogout, authHandler.Logout)
	r.Post(handler.RouteLogout, authHandler.Logout)

	// Post authoring, administrator only. The user comes from
	// OptionalLoadUser above; anyone else, signed in or not, gets 403.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())

		r.Get(handler.RouteNewPost, postsHandler.NewForm)
		r.Post(handler.RouteNewPost, postsHandler.Create)
		r.Get(handler.RouteEditPost, postsHandler.EditForm)
		r.Post(handler.RouteEditPost, postsHandler.Update)
		r.Get(handler.RouteDeletePost, postsHandler.Delete)
		r.Post(handler.RouteDeletePost, postsHandler.Delete)
	})

	// Embedded static assets
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.NotFound(frontendHandler.NotFound)

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
