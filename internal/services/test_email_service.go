package services

import (
	"context"
	"sort"
	"sync"

	"ideascentral/internal/config"
	"ideascentral/internal/observability"
	"ideascentral/internal/services/mailer"

	"go.opentelemetry.io/otel/attribute"
)

// SentEmail is one message captured by TestEmailService
type SentEmail struct {
	To       string
	Subject  string
	Template string
	Body     string
}

// TestEmailService implements the Mailer interface for test mode.
// It renders and logs each message instead of sending it.
type TestEmailService struct {
	cfg    *config.Config
	logger *observability.Logger

	mu   sync.Mutex
	sent []SentEmail
}

var _ mailer.Mailer = (*TestEmailService)(nil)

// NewTestEmailService creates a new TestEmailService instance
func NewTestEmailService(cfg *config.Config, logger *observability.Logger) *TestEmailService {
	return &TestEmailService{
		cfg:    cfg,
		logger: logger,
	}
}

// SendEmail renders the message and logs it (test mode)
func (e *TestEmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) (err error) {
	ctx, span := observability.TraceNotifyFunction(ctx, "SendEmail",
		attribute.String("email.subject", subject),
		attribute.String("email.template", templateName),
		attribute.Bool("test_mode", true),
	)
	defer observability.FinishSpan(span, &err)

	body, err := renderEmailTemplate(templateName, data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.sent = append(e.sent, SentEmail{To: to, Subject: subject, Template: templateName, Body: body})
	e.mu.Unlock()

	e.logger.Info(ctx, "TEST MODE: Would send email", map[string]interface{}{
		"to":        to,
		"subject":   subject,
		"template":  templateName,
		"test_mode": true,
		"data_keys": getMapKeys(data),
	})
	return nil
}

// Sent returns a copy of every captured message
func (e *TestEmailService) Sent() []SentEmail {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]SentEmail(nil), e.sent...)
}

// IsEnabled always reports true so callers exercise the full send path
func (e *TestEmailService) IsEnabled() bool {
	return true
}

func getMapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
