package services

import (
	"context"
	"fmt"
	"log/slog"

	"erpcore/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendStaffInvite sends the invitation email using the "staff_invite" template.
func (s *emailService) SendStaffInvite(ctx context.Context, data *domain.StaffInviteEmailData) error {
	if data == nil {
		return fmt.Errorf("staff invite data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("staff_invite", data)
	if err != nil {
		return fmt.Errorf("failed to render staff_invite template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	slog.InfoContext(ctx, "staff invite sent", "to", data.Email)
	return nil
}

// SendPasswordReset sends the reset email using the "password_reset" template.
func (s *emailService) SendPasswordReset(ctx context.Context, data *domain.PasswordResetEmailData) error {
	if data == nil {
		return fmt.Errorf("password reset data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("password_reset", data)
	if err != nil {
		return fmt.Errorf("failed to render password_reset template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	slog.InfoContext(ctx, "password reset sent", "to", data.Email)
	return nil
}
