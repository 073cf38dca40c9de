// Package services holds the evaluation engine, the record facade and their collaborators.
package services

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"ideascentral/internal/config"
	"ideascentral/internal/observability"
	"ideascentral/internal/services/mailer"
	contextutils "ideascentral/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/mail.v2"
)

// EmailService implements mailer.Mailer over SMTP using gomail
type EmailService struct {
	cfg    *config.Config
	logger *observability.Logger
	dialer *mail.Dialer
}

var _ mailer.Mailer = (*EmailService)(nil)

// NewEmailService creates a new EmailService instance
func NewEmailService(cfg *config.Config, logger *observability.Logger) *EmailService {
	var dialer *mail.Dialer
	if cfg.Email.Enabled && cfg.Email.SMTP.Host != "" {
		dialer = mail.NewDialer(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
		)
	}

	return &EmailService{
		cfg:    cfg,
		logger: logger,
		dialer: dialer,
	}
}

// SendEmail sends a generic email with the given parameters
func (e *EmailService) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) (err error) {
	ctx, span := observability.TraceNotifyFunction(ctx, "SendEmail",
		attribute.String("email.subject", subject),
		attribute.String("email.template", templateName),
	)
	defer observability.FinishSpan(span, &err)

	if !e.IsEnabled() {
		e.logger.Info(ctx, "Email disabled, skipping email send", map[string]interface{}{
			"to":       to,
			"template": templateName,
		})
		return nil
	}

	if e.dialer == nil {
		return contextutils.ErrorWithContextf("email service not properly configured")
	}

	content, err := renderEmailTemplate(templateName, data)
	if err != nil {
		return contextutils.WrapError(err, "failed to generate email content")
	}

	m := mail.NewMessage()
	m.SetHeader("From", m.FormatAddress(e.cfg.Email.SMTP.FromAddress, e.cfg.Email.SMTP.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", content)

	if err = e.dialer.DialAndSend(m); err != nil {
		e.logger.Error(ctx, "Failed to send email", err, map[string]interface{}{
			"to":       to,
			"template": templateName,
			"subject":  subject,
		})
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeNotificationFailed, contextutils.SeverityWarn,
			"failed to send email", err.Error(), err)
	}

	e.logger.Info(ctx, "Email sent successfully", map[string]interface{}{
		"to":       to,
		"template": templateName,
		"subject":  subject,
	})
	return nil
}

// IsEnabled returns whether email functionality is enabled
func (e *EmailService) IsEnabled() bool {
	return e.cfg.Email.Enabled && e.cfg.Email.SMTP.Host != ""
}

var emailTemplates = map[string]*template.Template{
	mailer.TemplateIdeaDecision: template.Must(template.New(mailer.TemplateIdeaDecision).Parse(ideaDecisionTemplate)),
	mailer.TemplateTestEmail:    template.Must(template.New(mailer.TemplateTestEmail).Parse(testEmailTemplate)),
}

// renderEmailTemplate executes one of the built-in templates
func renderEmailTemplate(templateName string, data map[string]interface{}) (string, error) {
	tmpl, ok := emailTemplates[templateName]
	if !ok {
		return "", contextutils.ErrorWithContextf("unknown template: %s", templateName)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", contextutils.WrapError(err, "failed to execute template")
	}
	return buf.String(), nil
}

// DecisionSubject is the subject line sent to a submitter when their idea is decided
func DecisionSubject(title, status string) string {
	return fmt.Sprintf("Your Idea %q has been %s!", title, status)
}

const ideaDecisionTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Idea Review Result</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .footer { padding: 15px; text-align: center; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <p>Dear {{.SubmitterName}},</p>
        <p>Your idea "{{.IdeaTitle}}" for problem "{{.ProblemTitle}}" has been reviewed and its status is now: <strong>{{.StatusUpper}}</strong>.</p>
        <p>Overall Score: {{.Score}}</p>
        {{- if .Approved}}
        <p>Congratulations! Your idea has been approved. You can now approach a mentor for guidance on the next steps.
        Please contact our mentorship program at <a href="mailto:{{.MentorContactEmail}}">{{.MentorContactEmail}}</a>.</p>
        {{- end}}
        {{- if .AppURL}}
        <p>You can view more details on the <a href="{{.AppURL}}">platform</a>.</p>
        {{- end}}
        <p>Thank you for your contribution!</p>
    </div>
    <div class="footer">
        <p>This email was sent by Ideas Central.</p>
    </div>
</body>
</html>`

const testEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Test Email</title>
</head>
<body>
    <h2>Hello {{.Name}}!</h2>
    <p>This is a test email to verify that your email settings are working correctly.</p>
    <p><strong>Message:</strong> {{.Message}}</p>
</body>
</html>`
