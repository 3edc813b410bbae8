package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"erpcore/config"
	_ "erpcore/docs"
	"erpcore/internal/adapters/auth"
	"erpcore/internal/adapters/email"
	"erpcore/internal/adapters/identity"
	httpdelivery "erpcore/internal/delivery/http"
	"erpcore/internal/delivery/http/controllers"
	"erpcore/internal/delivery/http/middleware"
	"erpcore/internal/repository/postgres"
	"erpcore/internal/services"

	"golang.org/x/crypto/bcrypt"
)

// @title ERP Staff Identity API
// @version 1.0
// @description Staff invitations, onboarding, and password reset for the ERP back office.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("database unreachable", "err", err)
		os.Exit(1)
	}
	if err := postgres.RunMigrations(ctx, db, logger); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// Repositories
	tokenRepo := postgres.NewTokenRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	profileRepo := postgres.NewStaffProfileRepository(db)
	userRepo := postgres.NewUserRepository(db)
	resetRepo := postgres.NewResetRequestRepository(db)

	// Adapters
	codec := auth.NewTokenCodec(cfg.TokenSecret)
	issuer, verifier := auth.NewJWTSessions(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	provider := identity.NewProvider(identity.Config{
		Provider: cfg.IdentityProvider,
		BaseURL:  cfg.IdentityBaseURL,
		APIKey:   cfg.IdentityAPIKey,
	}, db, hasher, nil)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretKey,
			InsecureSkipVerify: cfg.SESInsecureTLS,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	// Services
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	invitationService := services.NewInvitationService(invitationRepo, tokenRepo, codec, emailService, cfg.InviteTTL, cfg.BaseURL)
	onboardingService := services.NewOnboardingService(tokenRepo, codec, profileRepo, invitationRepo, userRepo, provider, cfg.WelcomeTTL)
	resetService := services.NewPasswordResetService(userRepo, tokenRepo, codec, resetRepo, provider, emailService, cfg.ResetTTL, cfg.BaseURL, logger)
	authService := services.NewAuthService(userRepo, provider, issuer, cfg.SessionExpiry)

	// Controllers and router
	staffController := controllers.NewStaffController(logger, invitationService, onboardingService)
	passwordController := controllers.NewPasswordController(logger, resetService)
	authController := controllers.NewAuthController(logger, authService)
	mux := httpdelivery.NewRouter(staffController, passwordController, authController, verifier, logger)

	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
