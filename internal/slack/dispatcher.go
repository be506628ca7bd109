package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/notifyhub/slackbridge/internal/slackapi"
	log "github.com/sirupsen/logrus"
)

// notificationAnchorText is the fixed text of the message that anchors a
// notification thread.
const notificationAnchorText = "Notification Thread"

// PostResult is the normalized outcome of an outbound send. TS doubles as
// the message's unique id and, for channel posts, as the thread anchor for
// future replies.
type PostResult struct {
	Channel   string `json:"channel"`
	TS        string `json:"ts"`
	MessageID string `json:"messageId"`
	ThreadTS  string `json:"threadTs,omitempty"`
}

// RegisterNotificationCommand carries the slash-command fields needed to
// seed a notification thread.
type RegisterNotificationCommand struct {
	ChannelID string
	TeamID    string
	UserID    string
	UserName  string
	Text      string
}

// NotificationThread is the registration tuple returned to the invoking
// user. It is not persisted; subscription storage is a future concern.
type NotificationThread struct {
	ChannelID string `json:"channelId"`
	ThreadTS  string `json:"threadTs"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	TeamID    string `json:"teamId"`
}

// Dispatcher resolves the active installation for a caller and posts
// messages with its bot token, normalizing upstream failures into the
// domain taxonomy.
type Dispatcher struct {
	store  *InstallationStore
	client slackapi.Client
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(store *InstallationStore, client slackapi.Client) *Dispatcher {
	return &Dispatcher{store: store, client: client}
}

// PostToChannel posts text to a channel on behalf of a host user.
func (d *Dispatcher) PostToChannel(ctx context.Context, ownerID uint64, channelID, text string) (*PostResult, error) {
	if strings.TrimSpace(channelID) == "" || strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: channel id and message are required", ErrInvalidRequest)
	}

	installation, errFind := d.store.ActiveByOwner(ctx, ownerID)
	if errFind != nil {
		return nil, errFind
	}

	channel, ts, errPost := d.client.PostMessage(ctx, installation.BotToken, channelID, text, "")
	if errPost != nil {
		return nil, mapDispatchError(errPost)
	}
	return &PostResult{Channel: channel, TS: ts, MessageID: ts}, nil
}

// PostThreadReply posts text as a reply inside an existing thread.
func (d *Dispatcher) PostThreadReply(ctx context.Context, ownerID uint64, channelID, threadTS, text string) (*PostResult, error) {
	if strings.TrimSpace(channelID) == "" || strings.TrimSpace(text) == "" || strings.TrimSpace(threadTS) == "" {
		return nil, fmt.Errorf("%w: channel id, thread ts and message are required", ErrInvalidRequest)
	}

	installation, errFind := d.store.ActiveByOwner(ctx, ownerID)
	if errFind != nil {
		return nil, errFind
	}

	channel, ts, errPost := d.client.PostMessage(ctx, installation.BotToken, channelID, text, threadTS)
	if errPost != nil {
		return nil, mapDispatchError(errPost)
	}
	return &PostResult{Channel: channel, TS: ts, MessageID: ts, ThreadTS: threadTS}, nil
}

// CreateNotificationThread posts the fixed anchor message to a channel and
// returns its timestamp as the thread id. The installation is looked up by
// team because slash commands carry no host-user context.
func (d *Dispatcher) CreateNotificationThread(ctx context.Context, cmd RegisterNotificationCommand) (*NotificationThread, error) {
	installation, errFind := d.store.ActiveByTeam(ctx, cmd.TeamID)
	if errFind != nil {
		return nil, errFind
	}

	_, ts, errPost := d.client.PostMessage(ctx, installation.BotToken, cmd.ChannelID, notificationAnchorText, "")
	if errPost != nil {
		return nil, mapDispatchError(errPost)
	}

	log.Infof("notification thread created channel=%s thread_ts=%s team=%s user=%s",
		cmd.ChannelID, ts, cmd.TeamID, cmd.UserID)
	return &NotificationThread{
		ChannelID: cmd.ChannelID,
		ThreadTS:  ts,
		UserID:    cmd.UserID,
		UserName:  cmd.UserName,
		TeamID:    cmd.TeamID,
	}, nil
}
