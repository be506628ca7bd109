package slack

import (
	"errors"
	"fmt"

	"github.com/notifyhub/slackbridge/internal/slackapi"
)

// Domain failures surfaced by the linking and dispatch flows. Handlers map
// these onto HTTP statuses; nothing below this layer speaks HTTP.
var (
	// ErrInvalidRequest indicates malformed or missing caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream indicates a transport-level failure calling Slack.
	ErrUpstream = errors.New("slack api call failed")
	// ErrUpstreamRejected indicates Slack returned a structured failure.
	ErrUpstreamRejected = errors.New("slack api rejected request")
	// ErrIdentityNotFound indicates no host account matched the Slack profile email.
	ErrIdentityNotFound = errors.New("no matching host account")
	// ErrNoActiveInstallation indicates the caller has no active workspace link.
	ErrNoActiveInstallation = errors.New("no active slack installation")
	// ErrNotFound indicates an ownership-scoped lookup matched no row.
	ErrNotFound = errors.New("workspace not found")

	// ErrChannelNotFound maps Slack's channel_not_found.
	ErrChannelNotFound = errors.New("slack channel not found")
	// ErrBotNotInChannel maps Slack's not_in_channel.
	ErrBotNotInChannel = errors.New("bot is not a member of this channel")
	// ErrInvalidCredentials maps Slack's invalid_auth.
	ErrInvalidCredentials = errors.New("invalid slack authentication token")
	// ErrThreadNotFound maps Slack's thread_not_found.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrParentMessageNotFound maps Slack's message_not_found.
	ErrParentMessageNotFound = errors.New("parent message not found")
	// ErrDispatchFailed is the catch-all for unmapped send failures.
	ErrDispatchFailed = errors.New("failed to send slack message")
)

// dispatchErrorsByCode maps upstream rejection codes onto domain errors.
// Codes absent from the table fall through to ErrDispatchFailed.
var dispatchErrorsByCode = map[string]error{
	"channel_not_found": ErrChannelNotFound,
	"not_in_channel":    ErrBotNotInChannel,
	"invalid_auth":      ErrInvalidCredentials,
	"thread_not_found":  ErrThreadNotFound,
	"message_not_found": ErrParentMessageNotFound,
}

// mapDispatchError normalizes a send failure into the domain taxonomy.
func mapDispatchError(err error) error {
	if err == nil {
		return nil
	}
	code, ok := slackapi.ErrorCode(err)
	if !ok {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	if mapped, known := dispatchErrorsByCode[code]; known {
		return mapped
	}
	return fmt.Errorf("%w: %s", ErrDispatchFailed, code)
}
