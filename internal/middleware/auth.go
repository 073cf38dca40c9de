// Package middleware provides authentication, authorization, rate limiting and error
// rendering middleware for the Gin web framework.
package middleware

import (
	"context"
	"net/http"
	"slices"

	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	contextutils "ideascentral/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Keys for values stored in the session and on the gin context
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = observability.SessionUserIDKey
	// IdentityKey holds the resolved *models.Identity on the gin context
	IdentityKey = "identity"
)

// IdentityResolver turns a session user ID into an identity
type IdentityResolver interface {
	GetIdentity(ctx context.Context, userID string) (*models.Identity, error)
}

// RequireAuth returns a middleware that requires a signed-in user. The identity is
// re-read on every request so deleted users lose access immediately.
func RequireAuth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(UserIDKey).(string)
		if !ok || userID == "" {
			abortUnauthorized(c)
			return
		}

		identity, err := resolver.GetIdentity(c.Request.Context(), userID)
		if err != nil {
			if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
				session.Clear()
				_ = session.Save()
				abortUnauthorized(c)
				return
			}
			HandleAppError(c, err)
			c.Abort()
			return
		}

		ctx := contextutils.WithUserID(c.Request.Context(), identity.ID)
		ctx = contextutils.WithUserRole(ctx, string(identity.Role))
		c.Request = c.Request.WithContext(ctx)

		c.Set(UserIDKey, identity.ID)
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RequireRole returns a middleware that admits only the listed roles. It must run
// after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		if !slices.Contains(roles, identity.Role) {
			HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityInfo,
				"Insufficient role", string(identity.Role)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity placed on the context by RequireAuth
func CurrentIdentity(c *gin.Context) (*models.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok && identity != nil
}

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  string(contextutils.ErrorCodeUnauthorized),
	})
	c.Abort()
}
