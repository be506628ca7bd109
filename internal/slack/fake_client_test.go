package slack

import (
	"context"
	"sync"

	"github.com/notifyhub/slackbridge/internal/slackapi"
)

// fakeClient is an in-memory slackapi.Client for service tests.
type fakeClient struct {
	mu sync.Mutex

	grant       *slackapi.OAuthGrant
	exchangeErr error

	profile     *slackapi.UserProfile
	identityErr error

	postChannel string
	postTS      string
	postErr     error

	exchangeCalls int
	identityCalls int
	postCalls     int

	lastBotToken  string
	lastChannelID string
	lastText      string
	lastThreadTS  string
}

func (c *fakeClient) ExchangeOAuthCode(_ context.Context, _, _, _, _ string) (*slackapi.OAuthGrant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchangeCalls++
	if c.exchangeErr != nil {
		return nil, c.exchangeErr
	}
	return c.grant, nil
}

func (c *fakeClient) UserIdentity(_ context.Context, _, _ string) (*slackapi.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identityCalls++
	if c.identityErr != nil {
		return nil, c.identityErr
	}
	return c.profile, nil
}

func (c *fakeClient) PostMessage(_ context.Context, botToken, channelID, text, threadTS string) (string, string, error) {
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
	channel := c.postChannel
	if channel == "" {
		channel = channelID
	}
	return channel, c.postTS, nil
}
