package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	slackcore "github.com/notifyhub/slackbridge/internal/slack"
)

// MessageHandler handles outbound message dispatch endpoints.
type MessageHandler struct {
	dispatcher *slackcore.Dispatcher
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(dispatcher *slackcore.Dispatcher) *MessageHandler {
	return &MessageHandler{dispatcher: dispatcher}
}

// notifyRequest defines the request body for channel notifications.
type notifyRequest struct {
	ChannelID string `json:"channelId"`
	Message   string `json:"message"`
}

// Notify posts a message to a channel through the caller's active workspace.
func (h *MessageHandler) Notify(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body notifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}

	result, errPost := h.dispatcher.PostToChannel(c.Request.Context(), userID, body.ChannelID, body.Message)
	if errPost != nil {
		log.WithError(errPost).WithField("channel", body.ChannelID).Warn("notify dispatch failed")
		respondSlackError(c, errPost)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message sent successfully",
		"data":    result,
	})
}

// notifyThreadRequest defines the request body for thread replies.
type notifyThreadRequest struct {
	ChannelID string `json:"channelId"`
	Message   string `json:"message"`
	ThreadTS  string `json:"threadTs"`
}

// NotifyThread posts a reply into an existing thread.
func (h *MessageHandler) NotifyThread(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body notifyThreadRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid json"})
		return
	}

	result, errPost := h.dispatcher.PostThreadReply(c.Request.Context(), userID, body.ChannelID, body.ThreadTS, body.Message)
	if errPost != nil {
		log.WithError(errPost).WithField("channel", body.ChannelID).Warn("thread reply dispatch failed")
		respondSlackError(c, errPost)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Thread reply sent successfully",
		"data":    result,
	})
}
