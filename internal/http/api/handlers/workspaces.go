package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	slackcore "github.com/notifyhub/slackbridge/internal/slack"
)

// WorkspaceHandler handles linked-workspace administration endpoints.
type WorkspaceHandler struct {
	store *slackcore.InstallationStore
}

// NewWorkspaceHandler constructs a WorkspaceHandler.
func NewWorkspaceHandler(store *slackcore.InstallationStore) *WorkspaceHandler {
	return &WorkspaceHandler{store: store}
}

// List returns the caller's linked workspaces without token material.
func (h *WorkspaceHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	workspaces, errList := h.store.ListByOwner(c.Request.Context(), userID)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, workspaces)
}

// updateWorkspaceRequest defines the request body for workspace updates.
type updateWorkspaceRequest struct {
	IsActive *bool `json:"isActive"`
}

// Update toggles the active flag on a workspace owned by the caller.
func (h *WorkspaceHandler) Update(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body updateWorkspaceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing isActive"})
		return
	}

	id := c.Param("id")
	updatedAt, errUpdate := h.store.SetActiveOwned(c.Request.Context(), id, userID, *body.IsActive)
	if errUpdate != nil {
		respondSlackError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        id,
		"isActive":  *body.IsActive,
		"updatedAt": updatedAt,
	})
}

// Delete removes a workspace owned by the caller.
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if errDelete := h.store.DeleteOwned(c.Request.Context(), c.Param("id"), userID); errDelete != nil {
		respondSlackError(c, errDelete)
		return
	}
	c.Status(http.StatusNoContent)
}
