package handlers

import (
	"net/http"

	"ideascentral/internal/middleware"
	contextutils "ideascentral/internal/utils"

	"github.com/gin-gonic/gin"
)

// HandleAppError handles any AppError and sends appropriate HTTP response
func HandleAppError(c *gin.Context, err error) {
	middleware.HandleAppError(c, err)
}

// HandleBindError reports a request body or query string that could not be decoded
func HandleBindError(c *gin.Context, err error) {
	HandleAppError(c, contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		"Invalid request body",
		err.Error(),
		err,
	))
}

// StandardizeHTTPError creates consistent HTTP error responses for failures that have no
// AppError behind them, such as unknown routes
func StandardizeHTTPError(c *gin.Context, statusCode int, message, details string) {
	var errorCode contextutils.ErrorCode
	severity := contextutils.SeverityWarn

	switch statusCode {
	case http.StatusBadRequest:
		errorCode = contextutils.ErrorCodeInvalidInput
	case http.StatusUnauthorized:
		errorCode = contextutils.ErrorCodeUnauthorized
	case http.StatusForbidden:
		errorCode = contextutils.ErrorCodeForbidden
	case http.StatusNotFound:
		errorCode = contextutils.ErrorCodeRecordNotFound
		severity = contextutils.SeverityInfo
	case http.StatusMethodNotAllowed:
		errorCode = contextutils.ErrorCodeInvalidInput
	default:
		errorCode = contextutils.ErrorCodeInternalError
		severity = contextutils.SeverityError
	}

	appErr := contextutils.NewAppError(errorCode, severity, message, details)
	c.JSON(statusCode, appErr.ToJSON())
}
