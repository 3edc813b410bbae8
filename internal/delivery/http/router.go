package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"erpcore/internal/delivery/http/controllers"
	"erpcore/internal/delivery/http/middleware"
	"erpcore/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Invitation management requires an admin session; the onboarding and
// password-reset endpoints authenticate by single-use token instead.
func NewRouter(
	staff *controllers.StaffController,
	password *controllers.PasswordController,
	auth *controllers.AuthController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(verifier, logger)
	requireAdmin := func(next http.HandlerFunc) http.HandlerFunc {
		return requireAuth(middleware.RequireRole("admin")(next))
	}

	// Invitation management (admin)
	mux.HandleFunc("POST /staff/invitations", requireAdmin(staff.Invite))
	mux.HandleFunc("GET /staff/invitations", requireAdmin(staff.List))
	mux.HandleFunc("DELETE /staff/invitations/{invitationID}", requireAdmin(staff.Revoke))
	mux.HandleFunc("POST /staff/invitations/expire", requireAdmin(staff.ExpireInvitations))

	// Onboarding (token in body)
	mux.HandleFunc("POST /staff/welcome/redeem", staff.Redeem)
	mux.HandleFunc("POST /staff/profile", staff.SubmitProfile)
	mux.HandleFunc("POST /staff/credentials", staff.SetCredentials)

	// Password reset
	mux.HandleFunc("POST /password-reset/request", password.RequestReset)
	mux.HandleFunc("POST /password-reset/confirm", password.ConfirmReset)

	// Auth
	mux.HandleFunc("POST /auth/login", auth.Login)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
