package handlers

import (
	"net/http"

	"ideascentral/internal/middleware"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	contextutils "ideascentral/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// IdeaHandler serves ideas and the staff review workflow
type IdeaHandler struct {
	records     services.RecordServiceInterface
	evaluations services.EvaluationServiceInterface
	logger      *observability.Logger
}

// NewIdeaHandler creates a new IdeaHandler
func NewIdeaHandler(records services.RecordServiceInterface, evaluations services.EvaluationServiceInterface, logger *observability.Logger) *IdeaHandler {
	return &IdeaHandler{records: records, evaluations: evaluations, logger: logger}
}

// CreateIdeaRequest is the body of POST /v1/ideas. The submitter comes from the session.
type CreateIdeaRequest struct {
	ProblemID      string `json:"problem_id" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description" binding:"required"`
	Solution       string `json:"solution" binding:"required"`
	Implementation string `json:"implementation,omitempty"`
	Resources      string `json:"resources,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
}

// EvaluateIdeaRequest is the body of POST /v1/ideas/:id/evaluations
type EvaluateIdeaRequest struct {
	InnovationScore  int    `json:"innovation_score"`
	FeasibilityScore int    `json:"feasibility_score"`
	ImpactScore      int    `json:"impact_score"`
	Comments         string `json:"comments,omitempty"`
	// Approve has no safe default, so the field must be present even when false.
	Approve          *bool  `json:"approve" binding:"required"`
}

// ListIdeas handles GET /v1/ideas. All list endpoints accept page and page_size.
func (h *IdeaHandler) ListIdeas(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_ideas")
	defer observability.FinishSpan(span, nil)

	var filter models.IdeaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		HandleBindError(c, err)
		return
	}

	ideas, err := h.records.ListIdeas(ctx, filter)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	writePage(c, "ideas", ideas)
}

// GetIdea handles GET /v1/ideas/:id
func (h *IdeaHandler) GetIdea(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_idea",
		observability.AttributeIdeaID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	idea, err := h.records.GetIdea(ctx, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

// CreateIdea handles POST /v1/ideas
func (h *IdeaHandler) CreateIdea(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_idea")
	defer observability.FinishSpan(span, nil)

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req CreateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(observability.AttributeProblemID(req.ProblemID))

	idea, err := h.records.CreateIdea(ctx, models.NewIdea{
		ProblemID:        req.ProblemID,
		Title:            req.Title,
		Description:      req.Description,
		Solution:         req.Solution,
		Implementation:   req.Implementation,
		Resources:        req.Resources,
		Timeline:         req.Timeline,
		SubmittedBy:      identity.ID,
		SubmittedByName:  identity.Name,
		SubmittedByEmail: identity.Email,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, idea)
}

// StartReview handles POST /v1/ideas/:id/review
func (h *IdeaHandler) StartReview(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "start_review",
		observability.AttributeIdeaID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	idea, err := h.evaluations.StartReview(ctx, c.Param("id"), identity.ID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

// Evaluate handles POST /v1/ideas/:id/evaluations. A retry inside the idempotency
// window answers 200 with the original evaluation instead of 201.
func (h *IdeaHandler) Evaluate(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "evaluate_idea",
		observability.AttributeIdeaID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req EvaluateIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	result, err := h.evaluations.Evaluate(ctx, services.EvaluateRequest{
		IdeaID:        c.Param("id"),
		EvaluatorID:   identity.ID,
		EvaluatorName: identity.Name,
		Innovation:    req.InnovationScore,
		Feasibility:   req.FeasibilityScore,
		Impact:        req.ImpactScore,
		Comments:      req.Comments,
		Approve:       *req.Approve,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Bool("evaluation.replayed", result.Replayed))
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// ListIdeaEvaluations handles GET /v1/ideas/:id/evaluations
func (h *IdeaHandler) ListIdeaEvaluations(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_idea_evaluations",
		observability.AttributeIdeaID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	evaluations, err := h.records.ListEvaluations(ctx, models.EvaluationFilter{IdeaID: c.Param("id")})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	writePage(c, "evaluations", evaluations)
}

// ListEvaluations handles GET /v1/evaluations
func (h *IdeaHandler) ListEvaluations(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_evaluations")
	defer observability.FinishSpan(span, nil)

	var filter models.EvaluationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		HandleBindError(c, err)
		return
	}

	evaluations, err := h.records.ListEvaluations(ctx, filter)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	writePage(c, "evaluations", evaluations)
}
