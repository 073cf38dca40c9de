package handlers

import (
	"net/http"

	"ideascentral/internal/observability"
	"ideascentral/internal/services"

	"github.com/gin-gonic/gin"
)

// ClassifyHandler suggests a category and tags for draft problem text
type ClassifyHandler struct {
	classifier services.Classifier
}

// NewClassifyHandler creates a new ClassifyHandler
func NewClassifyHandler(classifier services.Classifier) *ClassifyHandler {
	return &ClassifyHandler{classifier: classifier}
}

// ClassifyRequest is the body of POST /v1/classify
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// Classify handles POST /v1/classify
func (h *ClassifyHandler) Classify(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "classify")
	defer observability.FinishSpan(span, nil)

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	result, err := h.classifier.Classify(ctx, req.Text)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
