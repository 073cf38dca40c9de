package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"ideascentral/internal/observability"
	contextutils "ideascentral/internal/utils"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

// ChannelNotifier broadcasts a one-line summary of each decision to staff channels
// (Slack, Discord, Teams, ...) described by shoutrrr service URLs
type ChannelNotifier struct {
	urls   []string
	sender *router.ServiceRouter
	logger *observability.Logger
}

var _ DecisionHook = (*ChannelNotifier)(nil)

// NewChannelNotifier builds a single sender for every URL. Invalid URLs fail here
// rather than on the first decision.
func NewChannelNotifier(urls []string, timeout time.Duration, logger *observability.Logger) (*ChannelNotifier, error) {
	if len(urls) == 0 {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityError,
			"at least one channel URL is required", "")
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// shoutrrr errors can echo the URL, which may hold tokens
		masked := make([]string, len(urls))
		for i, u := range urls {
			masked[i] = contextutils.MaskServiceURL(u)
		}
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityError,
			"invalid notification channel URL", fmt.Sprint(masked))
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ChannelNotifier{urls: slices.Clone(urls), sender: sender, logger: logger}, nil
}

// Name implements DecisionHook
func (c *ChannelNotifier) Name() string { return "channel" }

// OnDecision implements DecisionHook
func (c *ChannelNotifier) OnDecision(ctx context.Context, event DecisionEvent) (err error) {
	ctx, span := observability.TraceNotifyFunction(ctx, "ChannelNotifier.OnDecision",
		observability.AttributeIdeaID(event.Idea.ID),
		attribute.Int("channel.count", len(c.urls)),
	)
	defer observability.FinishSpan(span, &err)

	params := stypes.Params{}
	params.SetTitle("Idea " + string(event.Idea.Status))

	var failed []string
	for i, sendErr := range c.sender.Send(ChannelMessage(event), &params) {
		if sendErr == nil {
			continue
		}
		target := "[UNKNOWN]"
		if i < len(c.urls) {
			target = contextutils.MaskServiceURL(c.urls[i])
		}
		failed = append(failed, target)
		c.logger.Warn(ctx, "Channel notification failed", map[string]interface{}{
			"channel": target,
			"idea_id": event.Idea.ID,
		})
	}
	if len(failed) > 0 {
		return contextutils.NewAppError(contextutils.ErrorCodeNotificationFailed, contextutils.SeverityWarn,
			"channel notification failed", fmt.Sprint(failed))
	}
	return nil
}

// ChannelMessage renders the staff-facing summary of a decision
func ChannelMessage(event DecisionEvent) string {
	idea := event.Idea
	score := "n/a"
	if idea.Score != nil {
		score = fmt.Sprintf("%.1f", *idea.Score)
	}
	msg := fmt.Sprintf("Idea %q by %s is now %s (score %s)", idea.Title, idea.SubmittedByName, idea.Status, score)
	if event.Evaluation != nil && event.Evaluation.EvaluatorName != "" {
		msg += " - reviewed by " + event.Evaluation.EvaluatorName
	}
	return msg
}
