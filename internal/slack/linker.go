package slack

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/notifyhub/slackbridge/internal/config"
	"github.com/notifyhub/slackbridge/internal/models"
	"github.com/notifyhub/slackbridge/internal/slackapi"
	"github.com/notifyhub/slackbridge/internal/util"
	log "github.com/sirupsen/logrus"
)

// authorizeEndpoint is Slack's OAuth v2 authorization URL.
const authorizeEndpoint = "https://slack.com/oauth/v2/authorize"

// Scopes requested at install time. Bot scopes drive message ingest and
// outbound sends; user scopes exist only so the linker can resolve the
// installer's email.
var (
	botScopes = []string{
		"channels:history",
		"channels:read",
		"groups:history",
		"groups:read",
		"im:history",
		"im:read",
		"users:read",
		"app_mentions:read",
		"chat:write",
		"commands",
	}
	userScopes = []string{
		"users:read",
		"users:read.email",
	}
)

// Linker drives the three-step handshake that ties a host account to a Slack
// workspace: authorization URL, code exchange, identity resolution, upsert.
type Linker struct {
	cfg      config.SlackConfig
	store    *InstallationStore
	identity *IdentityResolver
	client   slackapi.Client
}

// NewLinker constructs a Linker. Configuration is captured here once; no
// ambient state is read per call.
func NewLinker(cfg config.SlackConfig, store *InstallationStore, identity *IdentityResolver, client slackapi.Client) *Linker {
	return &Linker{cfg: cfg, store: store, identity: identity, client: client}
}

// AuthorizeURL composes the Slack authorization redirect target. Pure
// function of configuration.
func (l *Linker) AuthorizeURL() string {
	query := url.Values{}
	query.Set("client_id", l.cfg.ClientID)
	query.Set("scope", strings.Join(botScopes, ","))
	query.Set("user_scope", strings.Join(userScopes, ","))
	query.Set("redirect_uri", l.cfg.RedirectURI)
	return authorizeEndpoint + "?" + query.Encode()
}

// CompleteHandshake exchanges the authorization code, resolves the installing
// user's host account and upserts the installation record.
func (l *Linker) CompleteHandshake(ctx context.Context, code string) (*models.SlackInstallation, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: missing oauth code", ErrInvalidRequest)
	}

	grant, errExchange := l.client.ExchangeOAuthCode(ctx, l.cfg.ClientID, l.cfg.ClientSecret, code, l.cfg.RedirectURI)
	if errExchange != nil {
		if errCode, rejected := slackapi.ErrorCode(errExchange); rejected {
			return nil, fmt.Errorf("%w: %s", ErrUpstreamRejected, errCode)
		}
		return nil, fmt.Errorf("%w: oauth.v2.access: %v", ErrUpstream, errExchange)
	}

	// A handshake without a resolvable user token cannot be linked to a host
	// account and must not produce a partial installation.
	if grant.AuthedUserID == "" || grant.UserToken == "" {
		return nil, fmt.Errorf("%w: slack user id and user token are required", ErrInvalidRequest)
	}

	ownerID, errResolve := l.identity.ResolveOwner(ctx, grant.AuthedUserID, grant.UserToken)
	if errResolve != nil {
		return nil, errResolve
	}

	installation, errUpsert := l.store.Upsert(ctx, InstallationParams{
		UserID:        ownerID,
		SlackTeamID:   grant.TeamID,
		SlackTeamName: grant.TeamName,
		SlackUserID:   grant.AuthedUserID,
		BotToken:      grant.BotToken,
		UserToken:     grant.UserToken,
	})
	if errUpsert != nil {
		return nil, errUpsert
	}

	log.Infof("linked slack workspace %s (%s) to user %d bot_token=%s",
		installation.SlackTeamID, installation.SlackTeamName, ownerID, util.HideToken(installation.BotToken))
	return installation, nil
}

// FrontendURL is the host front-end target for the post-link redirect.
func (l *Linker) FrontendURL() string {
	if l.cfg.FrontendURL == "" {
		return "http://localhost:5173/"
	}
	return l.cfg.FrontendURL
}
