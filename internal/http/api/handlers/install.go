package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	slackcore "github.com/notifyhub/slackbridge/internal/slack"
)

// InstallHandler handles the OAuth workspace-linking endpoints.
type InstallHandler struct {
	linker *slackcore.Linker
}

// NewInstallHandler constructs an InstallHandler.
func NewInstallHandler(linker *slackcore.Linker) *InstallHandler {
	return &InstallHandler{linker: linker}
}

// Install redirects the browser to the Slack authorize page.
func (h *InstallHandler) Install(c *gin.Context) {
	c.Redirect(http.StatusFound, h.linker.AuthorizeURL())
}

// OAuthRedirect completes the OAuth handshake from the callback code.
func (h *InstallHandler) OAuthRedirect(c *gin.Context) {
	code := c.Query("code")
	installation, errLink := h.linker.CompleteHandshake(c.Request.Context(), code)
	if errLink != nil {
		log.WithError(errLink).Warn("slack oauth handshake failed")
		c.JSON(statusForSlackError(errLink), gin.H{"error": errLink.Error()})
		return
	}

	log.WithFields(log.Fields{
		"team_id": installation.SlackTeamID,
		"user_id": installation.UserID,
	}).Info("slack workspace linked")
	c.Redirect(http.StatusFound, h.linker.FrontendURL())
}
