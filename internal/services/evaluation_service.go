package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/store"
	contextutils "ideascentral/internal/utils"
)

// EvaluateRequest is a reviewer's verdict on one idea
type EvaluateRequest struct {
	IdeaID        string `json:"idea_id"`
	EvaluatorID   string `json:"evaluator_id"`
	EvaluatorName string `json:"evaluator_name"`
	Innovation    int    `json:"innovation_score"`
	Feasibility   int    `json:"feasibility_score"`
	Impact        int    `json:"impact_score"`
	Comments      string `json:"comments,omitempty"`
	Approve       bool   `json:"approve"`
}

// EvaluationResult is the stored evaluation and the idea it decided
type EvaluationResult struct {
	Evaluation *models.Evaluation `json:"evaluation"`
	Idea       *models.Idea       `json:"idea"`
	Replayed   bool               `json:"replayed"`
}

// EvaluationServiceInterface is the evaluation engine
type EvaluationServiceInterface interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluationResult, error)
	StartReview(ctx context.Context, ideaID, reviewerID string) (*models.Idea, error)
}

// EvaluationService applies the scoring rule and the idea lifecycle, then hands the
// decision to the record facade as one atomic unit
type EvaluationService struct {
	records   RecordServiceInterface
	lifecycle *Lifecycle
	window    time.Duration
	logger    *observability.Logger
	now       func() time.Time
}

var _ EvaluationServiceInterface = (*EvaluationService)(nil)

// NewEvaluationService creates the engine from the evaluation config section
func NewEvaluationService(records RecordServiceInterface, cfg config.EvaluationConfig, logger *observability.Logger) *EvaluationService {
	window := cfg.IdempotencyWindow
	if window <= 0 {
		window = config.DefaultIdempotencyWindow
	}
	return &EvaluationService{
		records:   records,
		lifecycle: NewLifecycle(cfg.AllowReevaluation),
		window:    window,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate scores an idea and records the decision
func (s *EvaluationService) Evaluate(ctx context.Context, req EvaluateRequest) (result0 *EvaluationResult, err error) {
	ctx, span := observability.TraceEvaluationFunction(ctx, "Evaluate",
		observability.AttributeIdeaID(req.IdeaID), observability.AttributeEvaluatorID(req.EvaluatorID))
	defer observability.FinishSpan(span, &err)

	if err := validateEvaluateRequest(req); err != nil {
		return nil, err
	}

	idea, err := s.records.GetIdea(ctx, req.IdeaID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := IdempotencyKey(req.IdeaID, req.EvaluatorID, now, s.window)

	// A retry of an already recorded verdict is answered before the lifecycle check
	replay, err := s.records.FindDecision(ctx, key)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return &EvaluationResult{Evaluation: replay.Evaluation, Idea: replay.Idea, Replayed: true}, nil
	}

	status := models.IdeaStatusRejected
	if req.Approve {
		status = models.IdeaStatusApproved
	}
	if err := s.lifecycle.CanTransition(idea.Status, status); err != nil {
		return nil, err
	}

	evaluation := &models.Evaluation{
		ID:               store.NewID(),
		IdeaID:           req.IdeaID,
		EvaluatorID:      req.EvaluatorID,
		EvaluatorName:    strings.TrimSpace(req.EvaluatorName),
		InnovationScore:  req.Innovation,
		FeasibilityScore: req.Feasibility,
		ImpactScore:      req.Impact,
		OverallScore:     OverallScore(req.Innovation, req.Feasibility, req.Impact),
		Comments:         req.Comments,
		Status:           status,
		IdempotencyKey:   key,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	decision, err := s.records.RecordDecision(ctx, evaluation, idea.Version)
	if err != nil {
		return nil, err
	}
	return &EvaluationResult{Evaluation: decision.Evaluation, Idea: decision.Idea, Replayed: decision.Replayed}, nil
}

// StartReview moves a pending idea to under-review. The score stays unset.
func (s *EvaluationService) StartReview(ctx context.Context, ideaID, reviewerID string) (result0 *models.Idea, err error) {
	ctx, span := observability.TraceEvaluationFunction(ctx, "StartReview",
		observability.AttributeIdeaID(ideaID), observability.AttributeEvaluatorID(reviewerID))
	defer observability.FinishSpan(span, &err)

	if ideaID == "" {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeMissingRequired, contextutils.SeverityWarn, "idea id is required", "")
	}

	idea, err := s.records.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.CanTransition(idea.Status, models.IdeaStatusUnderReview); err != nil {
		return nil, err
	}

	// the transition was checked against idea.Version; a decision landing since then must win
	updated, err := s.records.UpdateIdeaStatusAtVersion(ctx, ideaID, models.IdeaStatusUnderReview, nil, idea.Version)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Idea review started", map[string]interface{}{
		"idea_id":     ideaID,
		"reviewer_id": reviewerID,
	})
	return updated, nil
}

// IdempotencyKey identifies one evaluator's verdict on one idea within a time bucket
func IdempotencyKey(ideaID, evaluatorID string, at time.Time, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%d", ideaID, evaluatorID, at.Truncate(window).Unix())
}

func validateEvaluateRequest(req EvaluateRequest) error {
	var missing []string
	if strings.TrimSpace(req.IdeaID) == "" {
		missing = append(missing, "idea_id")
	}
	if strings.TrimSpace(req.EvaluatorID) == "" {
		missing = append(missing, "evaluator_id")
	}
	if len(missing) > 0 {
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn,
			"missing required fields", strings.Join(missing, ", "))
	}
	return ValidateCriteria(req.Innovation, req.Feasibility, req.Impact)
}
