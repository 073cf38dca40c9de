package handlers

import (
	"net/http"

	"ideascentral/internal/config"
	"ideascentral/internal/middleware"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	contextutils "ideascentral/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	auth   services.AuthServiceInterface
	config *config.Config
	logger *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(auth services.AuthServiceInterface, cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, config: cfg, logger: logger}
}

// LoginRequest is the body of POST /v1/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login requests
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(attribute.Bool("auth.password_provided", req.Password != ""))

	identity, err := h.auth.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.Warn(ctx, "Authentication failed", map[string]interface{}{"error": err.Error()})
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(attribute.String("user.id", identity.ID), attribute.String("user.role", string(identity.Role)))

	if err := startSession(c, identity.ID); err != nil {
		h.logger.Error(ctx, "Failed to save session", err, map[string]interface{}{"user_id": identity.ID})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": identity})
}

// Logout handles user logout requests
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	if userID, ok := GetUserIDFromSession(c); ok {
		span.SetAttributes(attribute.String("user.id", userID))
	}
	if err := endSession(c); err != nil {
		h.logger.Error(ctx, "Failed to clear session", err)
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Register handles self-service signup and signs the new user in
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "register")
	defer observability.FinishSpan(span, nil)

	var req models.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	identity, err := h.auth.Register(ctx, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if err := startSession(c, identity.ID); err != nil {
		h.logger.Error(ctx, "Failed to save session", err, map[string]interface{}{"user_id": identity.ID})
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": identity})
}

// Me returns the signed-in identity
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// ChangePasswordRequest is the body of PUT /v1/auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword replaces the signed-in user's password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "change_password")
	defer observability.FinishSpan(span, nil)

	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(attribute.String("user.id", identity.ID))

	if err := h.auth.ChangePassword(ctx, identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.logger.Warn(ctx, "Password change rejected", map[string]interface{}{"user_id": identity.ID, "error": err.Error()})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SignupStatus tells the frontend whether the signup form should be shown
func (h *AuthHandler) SignupStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signups_disabled": h.config.IsSignupDisabled()})
}
