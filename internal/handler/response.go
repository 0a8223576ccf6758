package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/middleware"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"statusCode": status,
		"message":    message,
		"data":       data,
	})
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	middleware.WriteError(c, apiErr)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
		return false
	}
	return true
}

// currentUser returns the authenticated user ID, writing a 401 when the
// route was mounted without the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, apperrors.Unauthorized(""))
		return "", false
	}
	return userID, true
}

func ok(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data)
}
