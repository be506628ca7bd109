// Package api wires the HTTP surface: public Slack callbacks, the OAuth
// linking flow, and JWT-protected host endpoints.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/notifyhub/slackbridge/internal/config"
	"github.com/notifyhub/slackbridge/internal/http/api/handlers"
	"github.com/notifyhub/slackbridge/internal/ingest"
	"github.com/notifyhub/slackbridge/internal/models"
	"github.com/notifyhub/slackbridge/internal/security"
	slackcore "github.com/notifyhub/slackbridge/internal/slack"
	"github.com/notifyhub/slackbridge/internal/slackapi"
)

// RegisterRoutes registers all application routes on the engine.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, client slackapi.Client, queue *ingest.Queue, dedup *ingest.Deduper) {
	if r == nil || db == nil {
		return
	}

	store := slackcore.NewInstallationStore(db)
	identity := slackcore.NewIdentityResolver(slackcore.NewGormUserDirectory(db), client)
	linker := slackcore.NewLinker(cfg.Slack, store, identity, client)
	dispatcher := slackcore.NewDispatcher(store, client)

	authHandler := handlers.NewAuthHandler(db, cfg.JWT)
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	installHandler := handlers.NewInstallHandler(linker)
	r.GET("/slack/install", installHandler.Install)
	r.GET("/slack/oauth_redirect", installHandler.OAuthRedirect)

	webhookHandler := handlers.NewWebhookHandler(dispatcher, queue, dedup, cfg.Slack.SigningSecret)
	r.POST("/slack/messages", webhookHandler.Events)
	r.POST("/slack/register-notification", webhookHandler.RegisterNotification)

	authed := r.Group("/slack")
	authed.Use(userAuthMiddleware(db, cfg.JWT))

	workspaceHandler := handlers.NewWorkspaceHandler(store)
	authed.GET("/workspaces", workspaceHandler.List)
	authed.PATCH("/workspaces/:id", workspaceHandler.Update)
	authed.DELETE("/workspaces/:id", workspaceHandler.Delete)

	messageHandler := handlers.NewMessageHandler(dispatcher)
	authed.POST("/notify", messageHandler.Notify)
	authed.POST("/notify-thread", messageHandler.NotifyThread)
}

// userAuthMiddleware validates user JWTs and loads the user into context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if user.Disabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user disabled"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
