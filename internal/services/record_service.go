package services

import (
	"context"
	"strings"
	"time"

	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/store"
	contextutils "ideascentral/internal/utils"
)

// RecordServiceInterface is the facade over problems, ideas, evaluations and comments
type RecordServiceInterface interface {
	ListProblems(ctx context.Context, filter models.ProblemFilter) ([]*models.Problem, error)
	GetProblem(ctx context.Context, id string) (*models.Problem, error)
	CreateProblem(ctx context.Context, req models.NewProblem) (*models.Problem, error)
	UpdateProblemStatus(ctx context.Context, id string, status models.ProblemStatus) (*models.Problem, error)
	RecordProblemView(ctx context.Context, id string) error
	GetProblemStats(ctx context.Context) (*models.ProblemStats, error)

	ListIdeas(ctx context.Context, filter models.IdeaFilter) ([]*models.Idea, error)
	GetIdea(ctx context.Context, id string) (*models.Idea, error)
	CreateIdea(ctx context.Context, req models.NewIdea) (*models.Idea, error)
	UpdateIdeaStatusAndScore(ctx context.Context, id string, status models.IdeaStatus, score *float64) (*models.Idea, error)
	UpdateIdeaStatusAtVersion(ctx context.Context, id string, status models.IdeaStatus, score *float64, expectedVersion int) (*models.Idea, error)

	ListEvaluations(ctx context.Context, filter models.EvaluationFilter) ([]*models.EvaluationView, error)
	CreateEvaluation(ctx context.Context, req models.NewEvaluation) (*models.Evaluation, error)
	RecordDecision(ctx context.Context, evaluation *models.Evaluation, expectedVersion int) (*DecisionResult, error)
	FindDecision(ctx context.Context, idempotencyKey string) (*DecisionResult, error)

	ListComments(ctx context.Context, problemID string) ([]*models.Comment, error)
	CreateComment(ctx context.Context, req models.NewComment) (*models.Comment, error)
}

// DecisionResult is the outcome of RecordDecision
type DecisionResult struct {
	Evaluation *models.Evaluation
	Idea       *models.Idea
	// Replayed is set when the idempotency key matched an earlier evaluation
	Replayed bool
}

// RecordService implements RecordServiceInterface on top of a store.Store
type RecordService struct {
	store   store.Store
	logger  *observability.Logger
	metrics *observability.DomainMetrics
	hooks   []DecisionHook
	now     func() time.Time
}

var _ RecordServiceInterface = (*RecordService)(nil)

// NewRecordService creates a facade over st. metrics may be nil.
func NewRecordService(st store.Store, logger *observability.Logger, metrics *observability.DomainMetrics, hooks ...DecisionHook) *RecordService {
	return &RecordService{
		store:   st,
		logger:  logger,
		metrics: metrics,
		hooks:   hooks,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddHook registers a post-commit decision hook
func (s *RecordService) AddHook(hook DecisionHook) {
	s.hooks = append(s.hooks, hook)
}

// ListProblems returns problems newest first
func (s *RecordService) ListProblems(ctx context.Context, filter models.ProblemFilter) (result0 []*models.Problem, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "ListProblems", observability.AttributeSearch(filter.Search))
	defer observability.FinishSpan(span, &err)

	problems, err := s.store.ListProblems(ctx, filter)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list problems")
	}
	return problems, nil
}

// GetProblem returns a single problem
func (s *RecordService) GetProblem(ctx context.Context, id string) (result0 *models.Problem, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "GetProblem", observability.AttributeProblemID(id))
	defer observability.FinishSpan(span, &err)

	return s.store.GetProblem(ctx, id)
}

// CreateProblem validates req and stores a new open problem
func (s *RecordService) CreateProblem(ctx context.Context, req models.NewProblem) (result0 *models.Problem, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "CreateProblem")
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(req); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	now := s.now()
	problem := &models.Problem{
		ID:              store.NewID(),
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		FullDescription: req.FullDescription,
		Category:        strings.TrimSpace(req.Category),
		Priority:        priority,
		Status:          models.ProblemStatusOpen,
		Tags:            normalizeTags(req.Tags),
		SubmittedBy:     req.SubmittedBy,
		SubmittedByName: req.SubmittedByName,
		Department:      req.Department,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.InsertProblem(ctx, problem); err != nil {
		return nil, contextutils.WrapError(err, "failed to create problem")
	}

	s.logger.Info(ctx, "Problem created", map[string]interface{}{
		"problem_id": problem.ID,
		"category":   problem.Category,
		"priority":   string(problem.Priority),
	})
	return problem, nil
}

// UpdateProblemStatus moves a problem to status. Closed problems cannot change.
func (s *RecordService) UpdateProblemStatus(ctx context.Context, id string, status models.ProblemStatus) (result0 *models.Problem, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "UpdateProblemStatus",
		observability.AttributeProblemID(id), observability.AttributeStatus(string(status)))
	defer observability.FinishSpan(span, &err)

	if !status.IsValid() {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "unknown problem status", string(status))
	}

	var updated *models.Problem
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		problem, err := tx.GetProblem(ctx, id)
		if err != nil {
			return err
		}
		if problem.IsClosed() {
			return contextutils.NewAppError(contextutils.ErrorCodeConflict, contextutils.SeverityInfo, "problem is closed", id)
		}
		if err := tx.UpdateProblemStatus(ctx, id, status, s.now()); err != nil {
			return err
		}
		updated, err = tx.GetProblem(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordProblemView increments the view counter
func (s *RecordService) RecordProblemView(ctx context.Context, id string) (err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "RecordProblemView", observability.AttributeProblemID(id))
	defer observability.FinishSpan(span, &err)

	return s.store.IncrementProblemCounter(ctx, id, store.CounterViews)
}

// GetProblemStats returns the dashboard counts
func (s *RecordService) GetProblemStats(ctx context.Context) (result0 *models.ProblemStats, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "GetProblemStats")
	defer observability.FinishSpan(span, &err)

	return s.store.ProblemStats(ctx)
}

// ListIdeas returns ideas newest first
func (s *RecordService) ListIdeas(ctx context.Context, filter models.IdeaFilter) (result0 []*models.Idea, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "ListIdeas",
		observability.AttributeProblemID(filter.ProblemID), observability.AttributeStatus(string(filter.Status)))
	defer observability.FinishSpan(span, &err)

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "unknown idea status", string(filter.Status))
	}
	ideas, err := s.store.ListIdeas(ctx, filter)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list ideas")
	}
	return ideas, nil
}

// GetIdea returns a single idea
func (s *RecordService) GetIdea(ctx context.Context, id string) (result0 *models.Idea, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "GetIdea", observability.AttributeIdeaID(id))
	defer observability.FinishSpan(span, &err)

	return s.store.GetIdea(ctx, id)
}

// CreateIdea stores a pending idea against an open problem and bumps its ideas count
func (s *RecordService) CreateIdea(ctx context.Context, req models.NewIdea) (result0 *models.Idea, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "CreateIdea", observability.AttributeProblemID(req.ProblemID))
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	idea := &models.Idea{
		ID:               store.NewID(),
		ProblemID:        req.ProblemID,
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		Solution:         req.Solution,
		Implementation:   req.Implementation,
		Resources:        req.Resources,
		Timeline:         req.Timeline,
		SubmittedBy:      req.SubmittedBy,
		SubmittedByName:  req.SubmittedByName,
		SubmittedByEmail: strings.TrimSpace(req.SubmittedByEmail),
		Status:           models.IdeaStatusPending,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var created *models.Idea
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		problem, err := tx.GetProblem(ctx, req.ProblemID)
		if err != nil {
			return err
		}
		if problem.IsClosed() {
			return contextutils.NewAppError(contextutils.ErrorCodeConflict, contextutils.SeverityInfo,
				"problem is closed to new ideas", req.ProblemID)
		}
		if err := tx.InsertIdea(ctx, idea); err != nil {
			return err
		}
		if err := tx.IncrementProblemCounter(ctx, req.ProblemID, store.CounterIdeas); err != nil {
			return err
		}
		created, err = tx.GetIdea(ctx, idea.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Idea submitted", map[string]interface{}{
		"idea_id":    created.ID,
		"problem_id": created.ProblemID,
	})
	return created, nil
}

// UpdateIdeaStatusAndScore writes status and score as one update against whatever version
// is current. Decided statuses require a score and trigger the decision hooks after the write.
func (s *RecordService) UpdateIdeaStatusAndScore(ctx context.Context, id string, status models.IdeaStatus, score *float64) (result0 *models.Idea, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "UpdateIdeaStatusAndScore",
		observability.AttributeIdeaID(id), observability.AttributeStatus(string(status)))
	defer observability.FinishSpan(span, &err)

	return s.updateIdeaStatus(ctx, id, status, score, store.AnyVersion)
}

// UpdateIdeaStatusAtVersion is UpdateIdeaStatusAndScore guarded by the version the caller
// checked its transition against. Any write in between yields CONFLICT.
func (s *RecordService) UpdateIdeaStatusAtVersion(ctx context.Context, id string, status models.IdeaStatus, score *float64, expectedVersion int) (result0 *models.Idea, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "UpdateIdeaStatusAtVersion",
		observability.AttributeIdeaID(id), observability.AttributeStatus(string(status)))
	defer observability.FinishSpan(span, &err)

	if expectedVersion == store.AnyVersion {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"expected version is required", id)
	}
	return s.updateIdeaStatus(ctx, id, status, score, expectedVersion)
}

func (s *RecordService) updateIdeaStatus(ctx context.Context, id string, status models.IdeaStatus, score *float64, expectedVersion int) (*models.Idea, error) {
	if err := validateStatusScore(status, score); err != nil {
		return nil, err
	}

	var previous models.IdeaStatus
	var updated *models.Idea
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		current, err := tx.GetIdea(ctx, id)
		if err != nil {
			return err
		}
		previous = current.Status
		version := expectedVersion
		if version == store.AnyVersion {
			version = current.Version
		}
		updated, err = tx.UpdateIdeaDecision(ctx, id, store.IdeaDecision{
			Status:          status,
			Score:           score,
			ExpectedVersion: version,
			UpdatedAt:       s.now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if status.IsDecided() {
		s.runHooks(ctx, DecisionEvent{Idea: updated.Clone(), PreviousStatus: previous})
	}
	return updated, nil
}

// ListEvaluations returns enriched evaluations newest first
func (s *RecordService) ListEvaluations(ctx context.Context, filter models.EvaluationFilter) (result0 []*models.EvaluationView, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "ListEvaluations",
		observability.AttributeIdeaID(filter.IdeaID), observability.AttributeEvaluatorID(filter.EvaluatorID))
	defer observability.FinishSpan(span, &err)

	views, err := s.store.ListEvaluations(ctx, filter)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list evaluations")
	}
	return views, nil
}

// CreateEvaluation stores an evaluation without touching the idea. The overall
// score is always derived from the three criteria.
func (s *RecordService) CreateEvaluation(ctx context.Context, req models.NewEvaluation) (result0 *models.Evaluation, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "CreateEvaluation",
		observability.AttributeIdeaID(req.IdeaID), observability.AttributeEvaluatorID(req.EvaluatorID))
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(req); err != nil {
		return nil, err
	}

	evaluation := s.newEvaluation(req)
	if err := s.store.InsertEvaluation(ctx, evaluation); err != nil {
		return nil, contextutils.WrapError(err, "failed to create evaluation")
	}
	return evaluation, nil
}

func (s *RecordService) newEvaluation(req models.NewEvaluation) *models.Evaluation {
	now := s.now()
	e := &models.Evaluation{
		ID:               store.NewID(),
		IdeaID:           req.IdeaID,
		EvaluatorID:      req.EvaluatorID,
		EvaluatorName:    req.EvaluatorName,
		InnovationScore:  req.InnovationScore,
		FeasibilityScore: req.FeasibilityScore,
		ImpactScore:      req.ImpactScore,
		OverallScore:     OverallScore(req.InnovationScore, req.FeasibilityScore, req.ImpactScore),
		Comments:         req.Comments,
		Status:           req.Status,
		IdempotencyKey:   req.IdempotencyKey,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if e.IdempotencyKey == "" {
		e.IdempotencyKey = e.ID
	}
	return e
}

// RecordDecision persists evaluation and moves its idea to the evaluation's status in one
// transaction, guarded by expectedVersion. A replayed idempotency key returns the stored
// evaluation and current idea without writing anything or running hooks.
func (s *RecordService) RecordDecision(ctx context.Context, evaluation *models.Evaluation, expectedVersion int) (result0 *DecisionResult, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "RecordDecision",
		observability.AttributeIdeaID(evaluation.IdeaID),
		observability.AttributeEvaluatorID(evaluation.EvaluatorID),
		observability.AttributeStatus(string(evaluation.Status)))
	defer observability.FinishSpan(span, &err)

	if !evaluation.Status.IsDecided() {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
			"evaluation status must be approved or rejected", string(evaluation.Status))
	}

	var result *DecisionResult
	var previous models.IdeaStatus
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if evaluation.IdempotencyKey != "" {
			replay, err := replayDecision(ctx, tx, evaluation.IdempotencyKey)
			if err != nil || replay != nil {
				result = replay
				return err
			}
		}

		current, err := tx.GetIdea(ctx, evaluation.IdeaID)
		if err != nil {
			return err
		}
		previous = current.Status

		if err := tx.InsertEvaluation(ctx, evaluation); err != nil {
			return err
		}
		score := evaluation.OverallScore
		idea, err := tx.UpdateIdeaDecision(ctx, evaluation.IdeaID, store.IdeaDecision{
			Status:          evaluation.Status,
			Score:           &score,
			ExpectedVersion: expectedVersion,
			UpdatedAt:       evaluation.UpdatedAt,
		})
		if err != nil {
			return err
		}
		result = &DecisionResult{Evaluation: evaluation, Idea: idea}
		return nil
	})

	// A concurrent request with the same key committed first
	if contextutils.IsError(err, contextutils.ErrRecordExists) && evaluation.IdempotencyKey != "" {
		if replay, replayErr := replayDecision(ctx, s.store, evaluation.IdempotencyKey); replayErr == nil && replay != nil {
			return replay, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		s.logger.Info(ctx, "Replayed evaluation", map[string]interface{}{
			"evaluation_id": result.Evaluation.ID,
			"idea_id":       result.Idea.ID,
		})
		return result, nil
	}

	s.metrics.RecordEvaluation(ctx, string(evaluation.Status))
	s.logger.Info(ctx, "Evaluation recorded", map[string]interface{}{
		"evaluation_id": evaluation.ID,
		"idea_id":       evaluation.IdeaID,
		"status":        string(evaluation.Status),
		"overall_score": evaluation.OverallScore,
		"idea_version":  result.Idea.Version,
	})

	s.runHooks(ctx, DecisionEvent{Idea: result.Idea.Clone(), Evaluation: evaluation, PreviousStatus: previous})
	return result, nil
}

// FindDecision returns the decision recorded under idempotencyKey, or nil when there is none
func (s *RecordService) FindDecision(ctx context.Context, idempotencyKey string) (result0 *DecisionResult, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "FindDecision")
	defer observability.FinishSpan(span, &err)

	return replayDecision(ctx, s.store, idempotencyKey)
}

// replayDecision returns (nil, nil) when no evaluation carries key
func replayDecision(ctx context.Context, st store.Store, key string) (*DecisionResult, error) {
	existing, err := st.GetEvaluationByKey(ctx, key)
	if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idea, err := st.GetIdea(ctx, existing.IdeaID)
	if err != nil {
		return nil, err
	}
	return &DecisionResult{Evaluation: existing, Idea: idea, Replayed: true}, nil
}

// ListComments returns a problem's comments newest first
func (s *RecordService) ListComments(ctx context.Context, problemID string) (result0 []*models.Comment, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "ListComments", observability.AttributeProblemID(problemID))
	defer observability.FinishSpan(span, &err)

	if _, err := s.store.GetProblem(ctx, problemID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, problemID)
}

// CreateComment adds a comment to an open problem and bumps its comments count
func (s *RecordService) CreateComment(ctx context.Context, req models.NewComment) (result0 *models.Comment, err error) {
	ctx, span := observability.TraceRecordFunction(ctx, "CreateComment", observability.AttributeProblemID(req.ProblemID))
	defer observability.FinishSpan(span, &err)

	if err := contextutils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		ID:        store.NewID(),
		ProblemID: req.ProblemID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		problem, err := tx.GetProblem(ctx, req.ProblemID)
		if err != nil {
			return err
		}
		if problem.IsClosed() {
			return contextutils.NewAppError(contextutils.ErrorCodeConflict, contextutils.SeverityInfo,
				"problem is closed to comments", req.ProblemID)
		}
		if err := tx.InsertComment(ctx, comment); err != nil {
			return err
		}
		return tx.IncrementProblemCounter(ctx, req.ProblemID, store.CounterComments)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// runHooks calls every hook in registration order. Failures are logged and counted only.
func (s *RecordService) runHooks(ctx context.Context, event DecisionEvent) {
	for _, hook := range s.hooks {
		if err := hook.OnDecision(ctx, event); err != nil {
			s.metrics.RecordHookFailure(ctx, hook.Name())
			s.logger.Error(ctx, "Decision hook failed", err, map[string]interface{}{
				"hook":    hook.Name(),
				"idea_id": event.Idea.ID,
				"status":  string(event.Idea.Status),
			})
		}
	}
}

func validateStatusScore(status models.IdeaStatus, score *float64) error {
	if !status.IsValid() {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn, "unknown idea status", string(status))
	}
	switch {
	case status.IsDecided() && score == nil:
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn,
			"a decided idea requires a score", string(status))
	case !status.IsDecided() && score != nil:
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn,
			"an undecided idea cannot carry a score", string(status))
	case score != nil && (*score < MinCriterionScore || *score > MaxCriterionScore):
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn,
			"score must be between 1 and 10", "")
	}
	return nil
}

// normalizeTags trims, drops empties and removes case-insensitive duplicates, keeping order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}
