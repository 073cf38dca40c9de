// Package mailer defines the outbound email interface used by decision notifications.
package mailer

import (
	"context"
)

// Template names understood by every Mailer
const (
	TemplateIdeaDecision = "idea_decision"
	TemplateTestEmail    = "test_email"
)

// Mailer defines the interface for email sending functionality
type Mailer interface {
	// SendEmail renders templateName with data and sends it to a single recipient
	SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error

	// IsEnabled returns whether email functionality is enabled
	IsEnabled() bool
}
