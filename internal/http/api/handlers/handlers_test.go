package handlers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/notifyhub/slackbridge/internal/models"
	slackcore "github.com/notifyhub/slackbridge/internal/slack"
	"github.com/notifyhub/slackbridge/internal/slackapi"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.User{}, &models.SlackInstallation{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, email string) uint64 {
	t.Helper()
	user := models.User{Username: username, Email: email, Password: "x", Active: true}
	if errCreate := db.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user.ID
}

func seedInstallation(t *testing.T, db *gorm.DB, ownerID uint64, teamID, slackUserID, botToken string) *models.SlackInstallation {
	t.Helper()
	store := slackcore.NewInstallationStore(db)
	installation, errUpsert := store.Upsert(context.Background(), slackcore.InstallationParams{
		UserID:        ownerID,
		SlackTeamID:   teamID,
		SlackTeamName: "Acme",
		SlackUserID:   slackUserID,
		BotToken:      botToken,
		UserToken:     "xoxp-test",
	})
	if errUpsert != nil {
		t.Fatalf("seed installation: %v", errUpsert)
	}
	return installation
}

// asUser injects an authenticated user the way the JWT middleware does.
func asUser(userID uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

// fakeSlackClient is an in-memory slackapi.Client for handler tests.
type fakeSlackClient struct {
	mu sync.Mutex

	grant       *slackapi.OAuthGrant
	exchangeErr error

	profile     *slackapi.UserProfile
	identityErr error

	postTS  string
	postErr error

	postCalls     int
	lastBotToken  string
	lastChannelID string
	lastText      string
	lastThreadTS  string
}

func (c *fakeSlackClient) ExchangeOAuthCode(_ context.Context, _, _, _, _ string) (*slackapi.OAuthGrant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exchangeErr != nil {
		return nil, c.exchangeErr
	}
	return c.grant, nil
}

func (c *fakeSlackClient) UserIdentity(_ context.Context, _, _ string) (*slackapi.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identityErr != nil {
		return nil, c.identityErr
	}
	return c.profile, nil
}

func (c *fakeSlackClient) PostMessage(_ context.Context, botToken, channelID, text, threadTS string) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postCalls++
	c.lastBotToken = botToken
	c.lastChannelID = channelID
	c.lastText = text
	c.lastThreadTS = threadTS
	if c.postErr != nil {
		return "", "", c.postErr
	}
	ts := c.postTS
	if ts == "" {
		ts = "1700000000.000100"
	}
	return channelID, ts, nil
}

func (c *fakeSlackClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.postCalls
}
