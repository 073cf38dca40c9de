package handlers

import (
	"net/http"

	"ideascentral/internal/middleware"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	contextutils "ideascentral/internal/utils"

	"github.com/gin-gonic/gin"
)

// ProblemHandler serves problems, their stats and their comment threads
type ProblemHandler struct {
	records services.RecordServiceInterface
	logger  *observability.Logger
}

// NewProblemHandler creates a new ProblemHandler
func NewProblemHandler(records services.RecordServiceInterface, logger *observability.Logger) *ProblemHandler {
	return &ProblemHandler{records: records, logger: logger}
}

// CreateProblemRequest is the body of POST /v1/problems. The submitter comes from the session.
type CreateProblemRequest struct {
	Title           string                 `json:"title" binding:"required"`
	Description     string                 `json:"description" binding:"required"`
	FullDescription string                 `json:"full_description,omitempty"`
	Category        string                 `json:"category" binding:"required"`
	Priority        models.ProblemPriority `json:"priority,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
	Department      string                 `json:"department,omitempty"`
}

// UpdateProblemStatusRequest is the body of PUT /v1/problems/:id/status
type UpdateProblemStatusRequest struct {
	Status models.ProblemStatus `json:"status" binding:"required"`
}

// CreateCommentRequest is the body of POST /v1/problems/:id/comments
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ListProblems handles GET /v1/problems
func (h *ProblemHandler) ListProblems(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_problems")
	defer observability.FinishSpan(span, nil)

	var filter models.ProblemFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		HandleBindError(c, err)
		return
	}
	if filter.Search != "" {
		span.SetAttributes(observability.AttributeSearch(filter.Search))
	}

	problems, err := h.records.ListProblems(ctx, filter)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	writePage(c, "problems", problems)
}

// GetProblem handles GET /v1/problems/:id
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_problem",
		observability.AttributeProblemID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	problem, err := h.records.GetProblem(ctx, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, problem)
}

// CreateProblem handles POST /v1/problems
func (h *ProblemHandler) CreateProblem(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_problem")
	defer observability.FinishSpan(span, nil)

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req CreateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	problem, err := h.records.CreateProblem(ctx, models.NewProblem{
		Title:           req.Title,
		Description:     req.Description,
		FullDescription: req.FullDescription,
		Category:        req.Category,
		Priority:        req.Priority,
		Tags:            req.Tags,
		SubmittedBy:     identity.ID,
		SubmittedByName: identity.Name,
		Department:      req.Department,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	h.logger.Info(ctx, "Problem created", map[string]interface{}{
		"problem_id": problem.ID,
		"user_id":    identity.ID,
	})
	c.JSON(http.StatusCreated, problem)
}

// UpdateProblemStatus handles PUT /v1/problems/:id/status. Staff may move any problem,
// students only their own.
func (h *ProblemHandler) UpdateProblemStatus(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_problem_status",
		observability.AttributeProblemID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req UpdateProblemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	if identity.Role == models.RoleStudent {
		problem, err := h.records.GetProblem(ctx, c.Param("id"))
		if err != nil {
			HandleAppError(c, err)
			return
		}
		if problem.SubmittedBy != identity.ID {
			HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityInfo,
				"only the submitter or staff can change a problem's status", ""))
			return
		}
	}

	problem, err := h.records.UpdateProblemStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, problem)
}

// RecordView handles POST /v1/problems/:id/view
func (h *ProblemHandler) RecordView(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "record_problem_view",
		observability.AttributeProblemID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	if err := h.records.RecordProblemView(ctx, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStats handles GET /v1/problems/stats
func (h *ProblemHandler) GetStats(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_problem_stats")
	defer observability.FinishSpan(span, nil)

	stats, err := h.records.GetProblemStats(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListComments handles GET /v1/problems/:id/comments
func (h *ProblemHandler) ListComments(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_comments",
		observability.AttributeProblemID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	comments, err := h.records.ListComments(ctx, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment handles POST /v1/problems/:id/comments
func (h *ProblemHandler) CreateComment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_comment",
		observability.AttributeProblemID(c.Param("id")))
	defer observability.FinishSpan(span, nil)

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	comment, err := h.records.CreateComment(ctx, models.NewComment{
		ProblemID: c.Param("id"),
		UserID:    identity.ID,
		UserName:  identity.Name,
		Content:   req.Content,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
