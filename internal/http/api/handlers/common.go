package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	slackcore "github.com/notifyhub/slackbridge/internal/slack"
)

func getUserID(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	switch v := val.(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case uint:
		return uint64(v)
	case int:
		return uint64(v)
	default:
		return 0
	}
}

// statusForSlackError maps domain errors onto HTTP status codes.
func statusForSlackError(err error) int {
	switch {
	case errors.Is(err, slackcore.ErrInvalidRequest),
		errors.Is(err, slackcore.ErrBotNotInChannel),
		errors.Is(err, slackcore.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, slackcore.ErrNotFound),
		errors.Is(err, slackcore.ErrNoActiveInstallation),
		errors.Is(err, slackcore.ErrChannelNotFound),
		errors.Is(err, slackcore.ErrThreadNotFound),
		errors.Is(err, slackcore.ErrParentMessageNotFound),
		errors.Is(err, slackcore.ErrIdentityNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondSlackError(c *gin.Context, err error) {
	c.JSON(statusForSlackError(err), gin.H{"success": false, "message": err.Error()})
}
