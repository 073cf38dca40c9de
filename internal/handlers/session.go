package handlers

import (
	"ideascentral/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetUserIDFromSession retrieves the current user ID from the session.
// Returns ("", false) if not authenticated or if the stored value is invalid.
func GetUserIDFromSession(c *gin.Context) (string, bool) {
	session := sessions.Default(c)
	id, ok := session.Get(middleware.UserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func startSession(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.UserIDKey, userID)
	return session.Save()
}

func endSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
