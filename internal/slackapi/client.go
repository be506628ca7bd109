// Package slackapi wraps the Slack Web API behind a narrow client interface
// so domain services and tests are decoupled from the SDK transport.
package slackapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/slack-go/slack"
)

// OAuthGrant carries the subset of the oauth.v2.access response the linker
// needs.
type OAuthGrant struct {
	TeamID       string
	TeamName     string
	BotToken     string
	AuthedUserID string
	UserToken    string
}

// UserProfile carries the subset of users.info the identity resolver needs.
type UserProfile struct {
	Name     string
	RealName string
	Email    string
}

// Client is the outbound Slack surface used by the linker, identity resolver
// and dispatcher.
type Client interface {
	// ExchangeOAuthCode trades an authorization code for workspace tokens.
	ExchangeOAuthCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*OAuthGrant, error)
	// UserIdentity fetches the profile of a Slack user with a user-scoped token.
	UserIdentity(ctx context.Context, userToken, slackUserID string) (*UserProfile, error)
	// PostMessage posts text to a channel; threadTS, when non-empty, makes the
	// post a thread reply. Returns the channel and message timestamp.
	PostMessage(ctx context.Context, botToken, channelID, text, threadTS string) (channel string, ts string, err error)
}

// WebClient implements Client on the slack-go SDK.
type WebClient struct {
	httpClient *http.Client
}

// NewWebClient constructs a WebClient. A nil httpClient falls back to
// http.DefaultClient.
func NewWebClient(httpClient *http.Client) *WebClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WebClient{httpClient: httpClient}
}

// ExchangeOAuthCode implements Client.
func (c *WebClient) ExchangeOAuthCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*OAuthGrant, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, c.httpClient, clientID, clientSecret, code, redirectURI)
	if err != nil {
		return nil, err
	}
	return &OAuthGrant{
		TeamID:       resp.Team.ID,
		TeamName:     resp.Team.Name,
		BotToken:     resp.AccessToken,
		AuthedUserID: resp.AuthedUser.ID,
		UserToken:    resp.AuthedUser.AccessToken,
	}, nil
}

// UserIdentity implements Client.
func (c *WebClient) UserIdentity(ctx context.Context, userToken, slackUserID string) (*UserProfile, error) {
	api := slack.New(userToken, slack.OptionHTTPClient(c.httpClient))
	user, err := api.GetUserInfoContext(ctx, slackUserID)
	if err != nil {
		return nil, err
	}
	return &UserProfile{
		Name:     user.Name,
		RealName: user.RealName,
		Email:    user.Profile.Email,
	}, nil
}

// PostMessage implements Client.
func (c *WebClient) PostMessage(ctx context.Context, botToken, channelID, text, threadTS string) (string, string, error) {
	api := slack.New(botToken, slack.OptionHTTPClient(c.httpClient))
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	return api.PostMessageContext(ctx, channelID, opts...)
}

// ErrorCode extracts the structured rejection code from a Slack API error.
// The second return is false for transport-level failures, which carry no
// upstream code.
func ErrorCode(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.Err, true
	}
	return "", false
}
