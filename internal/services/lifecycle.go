package services

import (
	"fmt"

	"ideascentral/internal/models"
	contextutils "ideascentral/internal/utils"
)

// ideaTransitions lists the moves an idea can always make. Moves between the two
// decided states are governed separately by the re-evaluation setting.
var ideaTransitions = map[models.IdeaStatus]map[models.IdeaStatus]bool{
	models.IdeaStatusPending: {
		models.IdeaStatusUnderReview: true,
		models.IdeaStatusApproved:    true,
		models.IdeaStatusRejected:    true,
	},
	models.IdeaStatusUnderReview: {
		models.IdeaStatusApproved: true,
		models.IdeaStatusRejected: true,
	},
}

// Lifecycle decides whether an idea may move between statuses
type Lifecycle struct {
	allowReevaluation bool
}

// NewLifecycle returns the idea lifecycle. With allowReevaluation a decided idea
// may be decided again; otherwise any further decision is a conflict.
func NewLifecycle(allowReevaluation bool) *Lifecycle {
	return &Lifecycle{allowReevaluation: allowReevaluation}
}

// CanTransition returns nil when from → to is legal, ErrorCodeConflict when the idea is
// already decided, and ErrorCodeInvalidTransition for any other illegal move.
func (l *Lifecycle) CanTransition(from, to models.IdeaStatus) error {
	if !to.IsValid() {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"unknown idea status", string(to))
	}
	if ideaTransitions[from][to] {
		return nil
	}
	if from.IsDecided() {
		if to.IsDecided() && l.allowReevaluation {
			return nil
		}
		return contextutils.NewAppError(contextutils.ErrorCodeConflict, contextutils.SeverityInfo,
			"idea has already been evaluated", fmt.Sprintf("idea is %s", from))
	}
	return contextutils.NewAppError(contextutils.ErrorCodeInvalidTransition, contextutils.SeverityWarn,
		"invalid idea status transition", fmt.Sprintf("%s -> %s", from, to))
}
