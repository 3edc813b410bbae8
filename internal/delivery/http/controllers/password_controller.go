package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"erpcore/internal/delivery/http/helpers"
	"erpcore/internal/domain"
)

// RequestResetRequest is the request body for POST /password-reset/request
type RequestResetRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (r RequestResetRequest) Validate() []string {
	if strings.TrimSpace(r.Email) == "" {
		return []string{"email is required"}
	}
	return nil
}

// ConfirmResetRequest is the request body for POST /password-reset/confirm
type ConfirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (c ConfirmResetRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, "token is required")
	}
	if c.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// PasswordController handles the forgot-password flow.
type PasswordController struct {
	Logger *slog.Logger
	Resets domain.PasswordResetService
}

// NewPasswordController creates a PasswordController with the given logger and service.
func NewPasswordController(logger *slog.Logger, resets domain.PasswordResetService) *PasswordController {
	return &PasswordController{
		Logger: logger,
		Resets: resets,
	}
}

// RequestReset godoc
// @Summary Request a password reset
// @Description Send a reset link to the given email if an account exists. Always responds 202 so callers cannot probe which emails have accounts. A new request supersedes any earlier live reset link.
// @Tags password
// @Accept json
// @Produce json
// @Param body body RequestResetRequest true "Account email"
// @Success 202 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /password-reset/request [post]
func (c *PasswordController) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req RequestResetRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Resets.RequestReset(r.Context(), req.Email); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, map[string]string{"message": "if the email exists, a reset link has been sent"})
}

// ConfirmReset godoc
// @Summary Confirm a password reset
// @Description Set a new password using a reset token. The token is single use; the password policy is checked before the token is spent, so a weak password leaves the link usable.
// @Tags password
// @Accept json
// @Produce json
// @Param body body ConfirmResetRequest true "Reset token and new password"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 410 {object} helpers.APIResponse "error.code: gone"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /password-reset/confirm [post]
func (c *PasswordController) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req ConfirmResetRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Resets.ResetPassword(r.Context(), strings.TrimSpace(req.Token), req.Password); err != nil {
		if writeTokenError(w, err) {
			return
		}
		if errors.Is(err, domain.ErrWeakCredential) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrIdentityProviderUnavailable) {
			helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeBadGateway, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "password updated"})
}
