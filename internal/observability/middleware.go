package observability

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "ideascentral/internal/utils"
)

// SessionUserIDKey is the session key holding the signed-in user's ID
const SessionUserIDKey = "user_id"

// GinMiddleware creates OpenTelemetry middleware for Gin HTTP requests
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// GinMiddlewareWithErrorHandling returns the otelgin middleware followed by a handler that
// annotates the request span when the response is a 4xx or 5xx.
func GinMiddlewareWithErrorHandling(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), SpanErrorAnnotator()}
}

// SpanErrorAnnotator records failed responses on the active span. It must run inside the
// otelgin middleware so the span is still open when the handler chain returns.
func SpanErrorAnnotator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		statusCode := c.Writer.Status()
		if !span.SpanContext().IsValid() || statusCode < 400 {
			return
		}

		var appErr *contextutils.AppError
		for _, ginErr := range c.Errors {
			if errors.As(ginErr.Err, &appErr) {
				break
			}
		}

		severity := determineErrorSeverity(statusCode, appErr)
		errorMsg := "client error"
		if statusCode >= 500 {
			errorMsg = "server error"
		}
		if appErr != nil {
			errorMsg = appErr.Message
		} else if len(c.Errors) > 0 {
			errorMsg = c.Errors.Last().Error()
		}

		span.RecordError(errors.New(errorMsg), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, errorMsg)
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.path", c.Request.URL.Path),
			attribute.String("error.handler", c.HandlerName()),
			attribute.String("error.severity", severity),
		)

		if userID, ok := sessionUserID(c); ok {
			span.SetAttributes(attribute.String("error.user_id", userID))
		}

		if appErr != nil {
			span.SetAttributes(
				attribute.String("error.code", string(appErr.Code)),
				attribute.Bool("error.retryable", contextutils.IsRetryable(appErr)),
			)
		}

		if statusCode >= 500 {
			span.SetAttributes(attribute.Bool("error.server_error", true))
		}
	}
}

// sessionUserID reads the user ID when a session middleware is installed
func sessionUserID(c *gin.Context) (string, bool) {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return "", false
	}
	userID, ok := sessions.Default(c).Get(SessionUserIDKey).(string)
	return userID, ok && userID != ""
}

// determineErrorSeverity determines the severity level based on status code and error types
func determineErrorSeverity(statusCode int, appErr *contextutils.AppError) string {
	if appErr != nil {
		return string(appErr.Severity)
	}

	switch {
	case statusCode >= 500:
		return string(contextutils.SeverityError)
	case statusCode >= 400:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
