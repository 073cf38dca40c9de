package services

import (
	"context"
	"fmt"
	"strings"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services/mailer"
	"ideascentral/internal/store"
	contextutils "ideascentral/internal/utils"
)

// DecisionNotifier emails the idea's submitter when their idea is approved or rejected
type DecisionNotifier struct {
	mailer mailer.Mailer
	users  store.Store
	cfg    *config.Config
	logger *observability.Logger
}

var _ DecisionHook = (*DecisionNotifier)(nil)

// NewDecisionNotifier creates the submitter email hook. users resolves a recipient
// address when the idea carries none.
func NewDecisionNotifier(m mailer.Mailer, users store.Store, cfg *config.Config, logger *observability.Logger) *DecisionNotifier {
	return &DecisionNotifier{mailer: m, users: users, cfg: cfg, logger: logger}
}

// Name implements DecisionHook
func (n *DecisionNotifier) Name() string { return "email" }

// OnDecision implements DecisionHook
func (n *DecisionNotifier) OnDecision(ctx context.Context, event DecisionEvent) (err error) {
	idea := event.Idea
	ctx, span := observability.TraceNotifyFunction(ctx, "DecisionNotifier.OnDecision",
		observability.AttributeIdeaID(idea.ID), observability.AttributeStatus(string(idea.Status)))
	defer observability.FinishSpan(span, &err)

	if !n.mailer.IsEnabled() {
		return nil
	}

	to := n.recipient(ctx, idea)
	if to == "" {
		n.logger.Warn(ctx, "No email address for idea submitter, skipping notification", map[string]interface{}{
			"idea_id":      idea.ID,
			"submitted_by": idea.SubmittedBy,
		})
		return nil
	}

	subject := DecisionSubject(idea.Title, string(idea.Status))
	if err := n.mailer.SendEmail(ctx, to, subject, mailer.TemplateIdeaDecision, n.templateData(idea)); err != nil {
		if contextutils.IsError(err, contextutils.ErrNotificationFailed) {
			return err
		}
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeNotificationFailed, contextutils.SeverityWarn,
			"failed to notify idea submitter", err.Error(), err)
	}
	return nil
}

func (n *DecisionNotifier) recipient(ctx context.Context, idea *models.Idea) string {
	if idea.SubmittedByEmail != "" {
		return idea.SubmittedByEmail
	}
	if n.users == nil || idea.SubmittedBy == "" {
		return ""
	}
	user, err := n.users.GetUserByID(ctx, idea.SubmittedBy)
	if err != nil {
		if !contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			n.logger.Warn(ctx, "Failed to look up idea submitter", map[string]interface{}{
				"idea_id": idea.ID,
				"error":   err.Error(),
			})
		}
		return ""
	}
	return user.Email
}

func (n *DecisionNotifier) templateData(idea *models.Idea) map[string]interface{} {
	score := "N/A"
	if idea.Score != nil {
		score = fmt.Sprintf("%.1f", *idea.Score)
	}
	problemTitle := idea.ProblemTitle
	if problemTitle == "" {
		problemTitle = idea.ProblemID
	}
	mentor := n.cfg.Notifications.MentorContactEmail
	if mentor == "" {
		mentor = config.DefaultMentorContactEmail
	}
	return map[string]interface{}{
		"SubmitterName":      idea.SubmittedByName,
		"IdeaTitle":          idea.Title,
		"ProblemTitle":       problemTitle,
		"StatusUpper":        strings.ToUpper(string(idea.Status)),
		"Score":              score,
		"Approved":           idea.Status == models.IdeaStatusApproved,
		"MentorContactEmail": mentor,
		"AppURL":             n.cfg.Server.AppBaseURL,
	}
}
