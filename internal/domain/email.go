package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// StaffInviteEmailData holds data for the staff invitation email.
type StaffInviteEmailData struct {
	Email         string
	WelcomeURL    string
	ExpiresInDays int
}

// PasswordResetEmailData holds data for the password reset email.
type PasswordResetEmailData struct {
	Email          string
	ResetURL       string
	ExpiresInHours int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendStaffInvite(ctx context.Context, data *StaffInviteEmailData) error
	SendPasswordReset(ctx context.Context, data *PasswordResetEmailData) error
}
