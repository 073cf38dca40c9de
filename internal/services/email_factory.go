package services

import (
	"context"

	"ideascentral/internal/config"
	"ideascentral/internal/observability"
	"ideascentral/internal/services/mailer"
)

// CreateEmailService creates an appropriate email service based on configuration.
// Test mode and a disabled or unconfigured SMTP section both get the log-only TestEmailService.
func CreateEmailService(cfg *config.Config, logger *observability.Logger) mailer.Mailer {
	if cfg.IsTest || !cfg.Email.Enabled || cfg.Email.SMTP.Host == "" {
		logger.Info(context.Background(), "Using log-only email service", map[string]interface{}{
			"test_mode":     cfg.IsTest,
			"email_enabled": cfg.Email.Enabled,
		})
		return NewTestEmailService(cfg, logger)
	}

	return NewEmailService(cfg, logger)
}
