package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/store"
	contextutils "ideascentral/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newDecision(ideaID, evaluatorID, key string, approve bool) *models.Evaluation {
	status := models.IdeaStatusRejected
	if approve {
		status = models.IdeaStatusApproved
	}
	return &models.Evaluation{
		ID:               store.NewID(),
		IdeaID:           ideaID,
		EvaluatorID:      evaluatorID,
		EvaluatorName:    "Prof Quinn",
		InnovationScore:  8,
		FeasibilityScore: 7,
		ImpactScore:      7,
		OverallScore:     OverallScore(8, 7, 7),
		Status:           status,
		IdempotencyKey:   key,
		CreatedAt:        fixedNow,
		UpdatedAt:        fixedNow,
	}
}

func TestRecordService_CreateProblem(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	p, err := svc.CreateProblem(ctx, models.NewProblem{
		Title:           "  Broken heaters  ",
		Description:     "Dorm B heaters fail nightly",
		Category:        "infrastructure",
		Tags:            []string{"dorm", " Dorm ", "", "heating"},
		SubmittedBy:     "student-1",
		SubmittedByName: "Sam Student",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Broken heaters", p.Title)
	assert.Equal(t, models.PriorityMedium, p.Priority)
	assert.Equal(t, models.ProblemStatusOpen, p.Status)
	assert.Equal(t, []string{"dorm", "heating"}, p.Tags)
	assert.Zero(t, p.IdeasCount)
	assert.Equal(t, fixedNow, p.CreatedAt)

	_, err = svc.CreateProblem(ctx, models.NewProblem{Description: "no title"})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestRecordService_ProblemStatusAndStats(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()

	p := createProblem(t, svc)
	urgent, err := svc.CreateProblem(ctx, models.NewProblem{
		Title: "Flooded stairwell", Description: "Water everywhere", Category: "infrastructure",
		Priority: models.PriorityUrgent, SubmittedBy: "s", SubmittedByName: "S",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProblemStatus(ctx, p.ID, models.ProblemStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemStatusInProgress, updated.Status)

	stats, err := svc.GetProblemStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.ProblemStats{Total: 2, Open: 1, Urgent: 1, InProgress: 1}, stats)

	_, err = svc.UpdateProblemStatus(ctx, urgent.ID, models.ProblemStatusClosed)
	require.NoError(t, err)
	_, err = svc.UpdateProblemStatus(ctx, urgent.ID, models.ProblemStatusOpen)
	assert.Equal(t, contextutils.ErrorCodeConflict, contextutils.GetErrorCode(err))

	_, err = svc.UpdateProblemStatus(ctx, p.ID, models.ProblemStatus("paused"))
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))

	require.NoError(t, svc.RecordProblemView(ctx, p.ID))
	got, err := svc.GetProblem(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewsCount)
}

func TestRecordService_CreateIdea(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	p := createProblem(t, svc)

	idea := createIdea(t, svc, p.ID)
	assert.Equal(t, models.IdeaStatusPending, idea.Status)
	assert.Nil(t, idea.Score)
	assert.Equal(t, 1, idea.Version)
	assert.Equal(t, p.Title, idea.ProblemTitle)

	got, err := svc.GetProblem(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IdeasCount)

	_, err = svc.CreateIdea(ctx, models.NewIdea{
		ProblemID: "missing", Title: "t", Description: "d", Solution: "s", SubmittedBy: "u", SubmittedByName: "U",
	})
	assert.Equal(t, contextutils.ErrorCodeRecordNotFound, contextutils.GetErrorCode(err))

	_, err = svc.UpdateProblemStatus(ctx, p.ID, models.ProblemStatusClosed)
	require.NoError(t, err)
	_, err = svc.CreateIdea(ctx, models.NewIdea{
		ProblemID: p.ID, Title: "t", Description: "d", Solution: "s", SubmittedBy: "u", SubmittedByName: "U",
	})
	assert.Equal(t, contextutils.ErrorCodeConflict, contextutils.GetErrorCode(err))

	got, err = svc.GetProblem(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IdeasCount)
}

func TestRecordService_ListingsAreIdempotent(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	p := createProblem(t, svc)
	createIdea(t, svc, p.ID)
	createIdea(t, svc, p.ID)

	first, err := svc.ListIdeas(ctx, models.IdeaFilter{ProblemID: p.ID})
	require.NoError(t, err)
	second, err := svc.ListIdeas(ctx, models.IdeaFilter{ProblemID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)

	_, err = svc.ListIdeas(ctx, models.IdeaFilter{Status: models.IdeaStatus("lost")})
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
}

func TestRecordService_UpdateIdeaStatusAndScore(t *testing.T) {
	hook := &recordingHook{name: "recorder"}
	svc, _ := newTestRecordService(t, hook)
	ctx := context.Background()
	idea := createIdea(t, svc, createProblem(t, svc).ID)

	_, err := svc.UpdateIdeaStatusAndScore(ctx, idea.ID, models.IdeaStatusApproved, nil)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))

	score := 4.0
	_, err = svc.UpdateIdeaStatusAndScore(ctx, idea.ID, models.IdeaStatusUnderReview, &score)
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))

	reviewing, err := svc.UpdateIdeaStatusAndScore(ctx, idea.ID, models.IdeaStatusUnderReview, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reviewing.Version)
	assert.Empty(t, hook.Events())

	score = 8.7
	approved, err := svc.UpdateIdeaStatusAndScore(ctx, idea.ID, models.IdeaStatusApproved, &score)
	require.NoError(t, err)
	require.NotNil(t, approved.Score)
	assert.Equal(t, 8.7, *approved.Score)

	events := hook.Events()
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Evaluation)
	assert.Equal(t, models.IdeaStatusUnderReview, events[0].PreviousStatus)
	assert.Equal(t, models.IdeaStatusApproved, events[0].Idea.Status)
}

func TestRecordService_RecordDecision(t *testing.T) {
	hook := &recordingHook{name: "recorder"}
	svc, _ := newTestRecordService(t, hook)
	ctx := context.Background()
	idea := createIdea(t, svc, createProblem(t, svc).ID)

	result, err := svc.RecordDecision(ctx, newDecision(idea.ID, "fac-1", "k-1", true), idea.Version)
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, models.IdeaStatusApproved, result.Idea.Status)
	require.NotNil(t, result.Idea.Score)
	assert.Equal(t, result.Evaluation.OverallScore, *result.Idea.Score)
	assert.Equal(t, 2, result.Idea.Version)

	events := hook.Events()
	require.Len(t, events, 1)
	assert.Equal(t, result.Evaluation.ID, events[0].Evaluation.ID)

	views, err := svc.ListEvaluations(ctx, models.EvaluationFilter{IdeaID: idea.ID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Seat booking app", views[0].IdeaTitle)
	assert.Equal(t, "Riley Reyes", views[0].SubmittedByName)
}

func TestRecordService_RecordDecision_ReplayCreatesNothing(t *testing.T) {
	hook := &recordingHook{name: "recorder"}
	svc, _ := newTestRecordService(t, hook)
	ctx := context.Background()
	idea := createIdea(t, svc, createProblem(t, svc).ID)

	first, err := svc.RecordDecision(ctx, newDecision(idea.ID, "fac-1", "same-key", true), idea.Version)
	require.NoError(t, err)

	// Different payload, same key: the original wins
	replay, err := svc.RecordDecision(ctx, newDecision(idea.ID, "fac-1", "same-key", false), idea.Version)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.Evaluation.ID, replay.Evaluation.ID)
	assert.Equal(t, models.IdeaStatusApproved, replay.Idea.Status)
	assert.Equal(t, first.Idea.Version, replay.Idea.Version)

	views, err := svc.ListEvaluations(ctx, models.EvaluationFilter{IdeaID: idea.ID})
	require.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Len(t, hook.Events(), 1)
}

func TestRecordService_UpdateIdeaStatusAtVersion(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	idea := createIdea(t, svc, createProblem(t, svc).ID)

	_, err := svc.UpdateIdeaStatusAtVersion(ctx, idea.ID, models.IdeaStatusUnderReview, nil, store.AnyVersion)
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))

	reviewing, err := svc.UpdateIdeaStatusAtVersion(ctx, idea.ID, models.IdeaStatusUnderReview, nil, idea.Version)
	require.NoError(t, err)
	assert.Equal(t, idea.Version+1, reviewing.Version)

	// idea.Version is now stale
	_, err = svc.UpdateIdeaStatusAtVersion(ctx, idea.ID, models.IdeaStatusUnderReview, nil, idea.Version)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contextutils.ErrConflict))

	current, err := svc.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, reviewing.Version, current.Version)
}

func TestRecordService_RecordDecision_StaleVersionLeavesNoTrace(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	idea := createIdea(t, svc, createProblem(t, svc).ID)

	_, err := svc.UpdateIdeaStatusAndScore(ctx, idea.ID, models.IdeaStatusUnderReview, nil)
	require.NoError(t, err)

	_, err = svc.RecordDecision(ctx, newDecision(idea.ID, "fac-1", "k-stale", true), idea.Version)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contextutils.ErrConflict))

	views, err := svc.ListEvaluations(ctx, models.EvaluationFilter{IdeaID: idea.ID})
	require.NoError(t, err)
	assert.Empty(t, views)

	current, err := svc.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusUnderReview, current.Status)
	assert.Nil(t, current.Score)
}

func TestRecordService_RecordDecision_RejectsUndecidedStatus(t *testing.T) {
	svc, _ := newTestRecordService(t)
	e := newDecision("i", "e", "k", true)
	e.Status = models.IdeaStatusPending

	_, err := svc.RecordDecision(context.Background(), e, store.AnyVersion)
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
}

func TestRecordService_HookFailureIsCountedNotRolledBack(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewDomainMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	failing := &recordingHook{name: "email", err: errors.New("smtp down")}
	after := &recordingHook{name: "after"}
	st := store.NewMemoryStore()
	svc := NewRecordService(st, createTestLogger(), metrics, failing)
	svc.AddHook(after)
	svc.now = func() time.Time { return fixedNow }

	ctx := context.Background()
	idea := createIdea(t, svc, createProblem(t, svc).ID)

	result, err := svc.RecordDecision(ctx, newDecision(idea.ID, "fac-1", "k", false), idea.Version)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusRejected, result.Idea.Status)
	assert.Len(t, after.Events(), 1)

	stored, err := st.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusRejected, stored.Status)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), totals["ideas_evaluated_total"])
	assert.Equal(t, int64(1), totals["decision_hook_failures_total"])
}

func TestRecordService_CreateEvaluationDerivesScore(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	idea := createIdea(t, svc, createProblem(t, svc).ID)

	e, err := svc.CreateEvaluation(ctx, models.NewEvaluation{
		IdeaID: idea.ID, EvaluatorID: "fac-1", EvaluatorName: "Prof",
		InnovationScore: 8, FeasibilityScore: 8, ImpactScore: 7, Status: models.IdeaStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, 7.7, e.OverallScore)
	assert.Equal(t, e.ID, e.IdempotencyKey)

	// The idea itself is untouched
	current, err := svc.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusPending, current.Status)

	_, err = svc.CreateEvaluation(ctx, models.NewEvaluation{
		IdeaID: idea.ID, EvaluatorID: "fac-1", InnovationScore: 11, FeasibilityScore: 8, ImpactScore: 7, Status: models.IdeaStatusApproved,
	})
	assert.Equal(t, contextutils.ErrorCodeValidationFailed, contextutils.GetErrorCode(err))
}

func TestRecordService_Comments(t *testing.T) {
	svc, _ := newTestRecordService(t)
	ctx := context.Background()
	p := createProblem(t, svc)

	c, err := svc.CreateComment(ctx, models.NewComment{ProblemID: p.ID, UserID: "u1", UserName: "Una", Content: " Me too "})
	require.NoError(t, err)
	assert.Equal(t, "Me too", c.Content)

	comments, err := svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	got, err := svc.GetProblem(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentsCount)

	_, err = svc.ListComments(ctx, "missing")
	assert.Equal(t, contextutils.ErrorCodeRecordNotFound, contextutils.GetErrorCode(err))

	_, err = svc.UpdateProblemStatus(ctx, p.ID, models.ProblemStatusClosed)
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, models.NewComment{ProblemID: p.ID, UserID: "u1", UserName: "Una", Content: "late"})
	assert.Equal(t, contextutils.ErrorCodeConflict, contextutils.GetErrorCode(err))
}
