package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"erpcore/internal/delivery/http/helpers"
	"erpcore/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// InviteRequest is the request body for POST /staff/invitations
type InviteRequest struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
}

// Validate implements Validator.
func (i InviteRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(i.CompanyID) == "" {
		errs = append(errs, "company_id is required")
	}
	email := strings.TrimSpace(strings.ToLower(i.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// RedeemRequest is the request body for POST /staff/welcome/redeem
type RedeemRequest struct {
	Token string `json:"token"`
}

// Validate implements Validator.
func (r RedeemRequest) Validate() []string {
	if strings.TrimSpace(r.Token) == "" {
		return []string{"token is required"}
	}
	return nil
}

// RedeemResponse is the response body for POST /staff/welcome/redeem
type RedeemResponse struct {
	Profile      *domain.StaffProfile `json:"profile"`
	WelcomeToken string               `json:"welcome_token"`
}

// SubmitProfileRequest is the request body for POST /staff/profile
type SubmitProfileRequest struct {
	WelcomeToken string `json:"welcome_token"`
	Name         string `json:"name"`
	LastName     string `json:"last_name"`
	JobTitle     string `json:"job_title"`
	Phone        string `json:"phone"`
}

// Validate implements Validator.
func (s SubmitProfileRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.WelcomeToken) == "" {
		errs = append(errs, "welcome_token is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(s.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	return errs
}

// SetCredentialsRequest is the request body for POST /staff/credentials
type SetCredentialsRequest struct {
	WelcomeToken string `json:"welcome_token"`
	Password     string `json:"password"`
}

// Validate implements Validator.
func (s SetCredentialsRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.WelcomeToken) == "" {
		errs = append(errs, "welcome_token is required")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// InviteSuccessResponse is the success response envelope for POST /staff/invitations (201).
type InviteSuccessResponse struct {
	Data  *domain.Invitation `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListInvitationsSuccessResponse is the success response envelope for GET /staff/invitations (200).
type ListInvitationsSuccessResponse struct {
	Data  []*domain.Invitation `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// RedeemSuccessResponse is the success response envelope for POST /staff/welcome/redeem (200).
type RedeemSuccessResponse struct {
	Data  RedeemResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ProfileSuccessResponse is the success response envelope for profile and credential endpoints (200).
type ProfileSuccessResponse struct {
	Data  *domain.StaffProfile `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// StaffController handles invitation management and the onboarding flow.
type StaffController struct {
	Logger      *slog.Logger
	Invitations domain.InvitationService
	Onboarding  domain.OnboardingService
}

// NewStaffController creates a StaffController with the given logger and services.
func NewStaffController(logger *slog.Logger, invitations domain.InvitationService, onboarding domain.OnboardingService) *StaffController {
	return &StaffController{
		Logger:      logger,
		Invitations: invitations,
		Onboarding:  onboarding,
	}
}

// writeTokenError maps the single-use token sentinel errors to HTTP statuses.
// Returns false when err is not a token error and the caller should keep mapping.
func writeTokenError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		helpers.WriteJSONError(w, http.StatusGone, helpers.ErrCodeGone, "link has expired, request a new one")
	case errors.Is(err, domain.ErrTokenAlreadyUsed):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "link has already been used")
	case errors.Is(err, domain.ErrTokenInvalid):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid link")
	default:
		return false
	}
	return true
}

// Invite godoc
// @Summary Invite a staff member
// @Description Create a pending invitation for the given company and email, and send the welcome link by email. One active invitation per (company, email). Requires an admin Bearer token.
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InviteRequest true "Invitation data"
// @Success 201 {object} controllers.InviteSuccessResponse "data contains the created invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /staff/invitations [post]
func (c *StaffController) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	inv, err := c.Invitations.Invite(r.Context(), strings.TrimSpace(req.CompanyID), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateActiveInvite) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "an active invitation already exists for this email")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// Revoke godoc
// @Summary Revoke a pending invitation
// @Description Revoke a pending invitation and kill its welcome link. Only pending invitations can be revoked. Requires an admin Bearer token.
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} helpers.APIResponse "data contains a confirmation message"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /staff/invitations/{invitationID} [delete]
func (c *StaffController) Revoke(w http.ResponseWriter, r *http.Request) {
	invitationID := r.PathValue("invitationID")
	if invitationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invitationID is required")
		return
	}
	if err := c.Invitations.Revoke(r.Context(), invitationID); err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invitation not found")
			return
		}
		if errors.Is(err, domain.ErrInvitationNotPending) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "invitation is no longer pending")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"message": "invitation revoked"})
}

// List godoc
// @Summary List invitations for a company
// @Description List all invitations for the given company, newest first. Requires an admin Bearer token.
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param company_id query string true "Company ID"
// @Success 200 {object} controllers.ListInvitationsSuccessResponse "data contains the invitations"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /staff/invitations [get]
func (c *StaffController) List(w http.ResponseWriter, r *http.Request) {
	companyID := strings.TrimSpace(r.URL.Query().Get("company_id"))
	if companyID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "company_id query parameter is required")
		return
	}
	invs, err := c.Invitations.ListByCompany(r.Context(), companyID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// ExpireInvitations godoc
// @Summary Expire stale invitations
// @Description Flip pending invitations whose welcome link has passed its expiry to expired. Invoked on demand; returns the number of invitations updated. Requires an admin Bearer token.
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the number of invitations expired"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /staff/invitations/expire [post]
func (c *StaffController) ExpireInvitations(w http.ResponseWriter, r *http.Request) {
	n, err := c.Invitations.ExpireStale(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]int64{"expired": n})
}

// Redeem godoc
// @Summary Redeem a welcome link
// @Description Exchange an invite token for a staff profile draft and a welcome token. The invite token is single use; the welcome token scopes the remaining onboarding steps.
// @Tags staff
// @Accept json
// @Produce json
// @Param body body RedeemRequest true "Invite token from the welcome link"
// @Success 200 {object} controllers.RedeemSuccessResponse "data contains the profile draft and welcome token"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 410 {object} helpers.APIResponse "error.code: gone"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /staff/welcome/redeem [post]
func (c *StaffController) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	profile, welcomeToken, err := c.Onboarding.RedeemInvite(r.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		if writeTokenError(w, err) {
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RedeemResponse{Profile: profile, WelcomeToken: welcomeToken})
}

// SubmitProfile godoc
// @Summary Submit onboarding profile details
// @Description Fill in the staff profile under a live welcome token. Does not consume the token, so the form can be resubmitted and the flow resumed in another session.
// @Tags staff
// @Accept json
// @Produce json
// @Param body body SubmitProfileRequest true "Welcome token and profile fields"
// @Success 200 {object} controllers.ProfileSuccessResponse "data contains the updated profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 410 {object} helpers.APIResponse "error.code: gone"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /staff/profile [post]
func (c *StaffController) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	var req SubmitProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	fields := domain.ProfileFields{
		Name:     req.Name,
		LastName: req.LastName,
		JobTitle: req.JobTitle,
		Phone:    req.Phone,
	}
	profile, err := c.Onboarding.SubmitProfile(r.Context(), strings.TrimSpace(req.WelcomeToken), fields)
	if err != nil {
		if writeTokenError(w, err) {
			return
		}
		if errors.Is(err, domain.ErrStaffProfileNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "staff profile not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// SetCredentials godoc
// @Summary Set onboarding credentials
// @Description Set the initial password for an onboarding staff member. Consumes the welcome token exactly once. If the identity provider is unavailable after the token is consumed, a new invitation link must be requested.
// @Tags staff
// @Accept json
// @Produce json
// @Param body body SetCredentialsRequest true "Welcome token and new password"
// @Success 200 {object} controllers.ProfileSuccessResponse "data contains the updated profile"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 410 {object} helpers.APIResponse "error.code: gone"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /staff/credentials [post]
func (c *StaffController) SetCredentials(w http.ResponseWriter, r *http.Request) {
	var req SetCredentialsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	profile, err := c.Onboarding.SetCredentials(r.Context(), strings.TrimSpace(req.WelcomeToken), req.Password)
	if err != nil {
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
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}
