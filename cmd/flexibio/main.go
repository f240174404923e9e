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

	"github.com/flexibio/flexibio-go/internal/cache"
	"github.com/flexibio/flexibio-go/internal/config"
	"github.com/flexibio/flexibio-go/internal/geoip"
	"github.com/flexibio/flexibio-go/internal/guard"
	"github.com/flexibio/flexibio-go/internal/handler"
	"github.com/flexibio/flexibio-go/internal/imaging"
	"github.com/flexibio/flexibio-go/internal/logging"
	"github.com/flexibio/flexibio-go/internal/mailer"
	"github.com/flexibio/flexibio-go/internal/middleware"
	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/scheduler"
	"github.com/flexibio/flexibio-go/internal/seo"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/session"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/web"
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
		_, _ = fmt.Fprintf(os.Stderr, "FlexiBio - personal link-in-bio page\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_DB_PATH           SQLite database path (default: ./data/flexibio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_APP_URL           Canonical public URL for emailed links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_REDIS_URL         Redis URL for the public page cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_SMTP_HOST         SMTP host; mail is logged when unset\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_GEOIP_DB_PATH     GeoLite2-Country.mmdb path (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FLEXIBIO_OPENAI_API_KEY    Enables the SEO description suggester (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("flexibio %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
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

	// Setup logger
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

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Seed default data
	ctx := context.Background()
	if cfg.SeedAdminEmail != "" {
		if err := store.SeedInitialAdmin(ctx, db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("seeding initial admin: %w", err)
		}
	}
	if err := store.SeedDefaultProfile(ctx, db); err != nil {
		return fmt.Errorf("seeding default profile: %w", err)
	}

	// Session manager backed by the database
	sessionManager := session.New(db, cfg.IsDevelopment())

	// Templates
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	// GeoIP country lookup for click analytics (optional)
	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip unavailable, clicks will be recorded without country", "error", err)
		}
	}
	defer func() {
		if err := geo.Close(); err != nil {
			slog.Error("error closing geoip database", "error", err)
		}
	}()

	// Public page cache: Redis when configured, in-memory otherwise
	pageCache := cache.New(cfg.RedisURL)
	defer func() {
		if err := pageCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	// Outgoing mail for magic links and password resets
	var mail mailer.Mailer
	if cfg.SMTPEnabled() {
		mail = mailer.NewSMTP(mailer.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
		slog.Info("smtp mailer configured", "host", cfg.SMTPHost)
	} else {
		mail = mailer.NewLog()
		slog.Info("no smtp configured, outgoing mail is logged")
	}

	// Services
	eventService := service.NewEventService(db)
	clickRecorder := service.NewClickRecorder(db, geo)
	suggester := service.NewSuggester(cfg.OpenAIAPIKey)
	accessGuard := guard.New(db, eventService, mail, cfg.AppBaseURL)
	imageProcessor := imaging.NewProcessor(cfg.UploadsDir)
	site := &seo.SiteConfig{BaseURL: cfg.AppBaseURL}

	// Background jobs: nightly click rollup, token purge, geoip reload
	sched := scheduler.New(db, geo, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Login protection: per-IP rate limit plus per-account lockout
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	// Handlers
	authHandler := handler.NewAuthHandler(db, accessGuard, renderer, sessionManager, loginProtection)
	publicHandler := handler.NewPublicHandler(db, renderer, pageCache, clickRecorder, site)
	adminHandler := handler.NewAdminHandler(db, renderer, sessionManager)
	linksHandler := handler.NewLinksHandler(db, renderer, sessionManager, pageCache)
	profileHandler := handler.NewProfileHandler(db, renderer, sessionManager, pageCache, imageProcessor, suggester)
	usersHandler := handler.NewUsersHandler(db, accessGuard, renderer, sessionManager)
	healthHandler := handler.NewHealthHandler(db, sessionManager, cfg.UploadsDir)

	// Router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.NewGlobalRateLimiter(100, 200).Middleware())
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	// Public surface: no session, aggressively cacheable
	r.Get(handler.RouteRoot, publicHandler.ProfilePage)
	r.Get(handler.RouteClick, publicHandler.Click)
	r.Get(handler.RouteManifest, publicHandler.Manifest)

	// Health endpoints (session loaded so admins get check details)
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Get("/health", healthHandler.Health)
		r.Get("/health/live", healthHandler.Liveness)
		r.Get("/health/ready", healthHandler.Readiness)
	})

	// Auth and admin surface
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(csrfMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(loginProtection.Middleware())
			r.Get(handler.RouteLogin, authHandler.LoginForm)
			r.Post(handler.RouteLogin, authHandler.Login)
			r.Post(handler.RouteMagicLink, authHandler.MagicLinkRequest)
			r.Get(handler.RouteMagicRedeem, authHandler.MagicLinkRedeem)
			r.Get(handler.RouteForgotPassword, authHandler.ForgotPasswordForm)
			r.Post(handler.RouteForgotPassword, authHandler.ForgotPassword)
			r.Get(handler.RouteResetPassword, authHandler.ResetPasswordForm)
			r.Post(handler.RouteResetPassword, authHandler.ResetPassword)
		})
		r.Post(handler.RouteLogout, authHandler.Logout)

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager))
			r.Use(middleware.LoadAdmin(sessionManager, db))

			r.Get("/", adminHandler.Dashboard)
			r.Get(handler.RouteEvents, adminHandler.Events)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManageContent(eventService))

				r.Get(handler.RouteLinks, linksHandler.List)
				r.Get(handler.RouteLinks+handler.RouteSuffixNew, linksHandler.NewForm)
				r.Post(handler.RouteLinks, linksHandler.Create)
				r.Post(handler.RouteLinks+handler.RouteSuffixReorder, linksHandler.Reorder)
				r.Get(handler.RouteLinks+handler.RouteParamID, linksHandler.EditForm)
				r.Post(handler.RouteLinks+handler.RouteParamID, linksHandler.Update)
				r.Post(handler.RouteLinks+handler.RouteParamID+handler.RouteSuffixDelete, linksHandler.Delete)

				r.Get(handler.RouteAnalytics+handler.RouteParamID, adminHandler.LinkAnalytics)

				r.Get(handler.RouteProfile, profileHandler.Form)
				r.Post(handler.RouteProfile, profileHandler.Update)
				r.Post(handler.RouteProfile+handler.RouteSuffixUpload, profileHandler.UploadImage)
				r.Post(handler.RouteProfile+handler.RouteSuffixSuggest, profileHandler.Suggest)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManageUsers(eventService))

				r.Get(handler.RouteUsers, usersHandler.List)
				r.Post(handler.RouteUsers, usersHandler.Create)
				r.Post(handler.RouteUsers+handler.RouteParamID, usersHandler.Update)
			})
		})
	})

	// Static assets from the embedded filesystem
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("loading static files: %w", err)
	}
	staticHandler := middleware.StaticCache(31536000)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/*", staticHandler)

	// Uploaded profile images
	uploadsHandler := middleware.StaticCache(604800)(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/uploads/*", uploadsHandler)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
