package handler

import (
	"taxmanager/internal/model"

	"github.com/gin-gonic/gin"
)

func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("userRole")
	return role == model.RoleAdmin
}

// scopeUserID returns "" for admins (unscoped queries) and the caller's
// own ID for everyone else.
func scopeUserID(c *gin.Context) string {
	if isAdmin(c) {
		return ""
	}
	return currentUserID(c)
}
