package services

import (
	"context"

	"ideascentral/internal/models"
)

// DecisionEvent describes an idea whose status was just written
type DecisionEvent struct {
	Idea *models.Idea
	// Evaluation is nil when the status was set directly rather than through an evaluation
	Evaluation     *models.Evaluation
	PreviousStatus models.IdeaStatus
}

// DecisionHook runs after a decision has been committed. A failing hook is logged and
// counted; it never undoes the decision.
type DecisionHook interface {
	Name() string
	OnDecision(ctx context.Context, event DecisionEvent) error
}
