package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	goslack "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/notifyhub/slackbridge/internal/ingest"
	slackcore "github.com/notifyhub/slackbridge/internal/slack"
)

// WebhookHandler handles inbound Slack event and slash-command callbacks.
type WebhookHandler struct {
	dispatcher    *slackcore.Dispatcher
	queue         *ingest.Queue
	dedup         *ingest.Deduper
	signingSecret string
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(dispatcher *slackcore.Dispatcher, queue *ingest.Queue, dedup *ingest.Deduper, signingSecret string) *WebhookHandler {
	return &WebhookHandler{
		dispatcher:    dispatcher,
		queue:         queue,
		dedup:         dedup,
		signingSecret: signingSecret,
	}
}

// Events receives Slack Events API callbacks. The callback must always be
// acknowledged quickly, so processing is handed off to the ingest queue and
// every recognized or unrecognized payload gets a 200.
func (h *WebhookHandler) Events(c *gin.Context) {
	body, errRead := io.ReadAll(c.Request.Body)
	if errRead != nil {
		c.Status(http.StatusOK)
		return
	}

	if h.signingSecret != "" {
		if errVerify := h.verifySignature(c.Request.Header, body); errVerify != nil {
			log.WithError(errVerify).Warn("slack webhook signature rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	event, errParse := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if errParse != nil {
		log.WithError(errParse).Debug("unrecognized slack event payload")
		c.Status(http.StatusOK)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if errBind := json.Unmarshal(body, &challenge); errBind != nil {
			c.Status(http.StatusOK)
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenge": challenge.Challenge})
	case slackevents.CallbackEvent:
		h.handleCallback(c, &event)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *WebhookHandler) handleCallback(c *gin.Context, event *slackevents.EventsAPIEvent) {
	msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		c.Status(http.StatusOK)
		return
	}
	if msg.SubType == "bot_message" || msg.BotID != "" {
		c.Status(http.StatusOK)
		return
	}

	if h.dedup.Seen(dedupKey(event, msg)) {
		c.Status(http.StatusOK)
		return
	}

	messageID := msg.ClientMsgID
	if messageID == "" {
		messageID = msg.TimeStamp
	}
	h.queue.Submit(ingest.Message{
		MessageID: messageID,
		UserID:    msg.User,
		ChannelID: msg.Channel,
		TeamID:    event.TeamID,
		Text:      msg.Text,
		Timestamp: slackTimestampMillis(msg.TimeStamp),
		ThreadTS:  msg.ThreadTimeStamp,
	})
	c.Status(http.StatusOK)
}

// RegisterNotification handles the slash command that anchors a notification
// thread. Slash commands always get a 200 so Slack renders the text instead
// of an error banner.
func (h *WebhookHandler) RegisterNotification(c *gin.Context) {
	cmd, errParse := goslack.SlashCommandParse(c.Request)
	if errParse != nil {
		c.JSON(http.StatusOK, ephemeral("Failed to read the command payload. Please try again."))
		return
	}

	thread, errCreate := h.dispatcher.CreateNotificationThread(c.Request.Context(), slackcore.RegisterNotificationCommand{
		ChannelID: cmd.ChannelID,
		TeamID:    cmd.TeamID,
		UserID:    cmd.UserID,
		UserName:  cmd.UserName,
		Text:      cmd.Text,
	})
	if errCreate != nil {
		log.WithError(errCreate).Warn("register-notification command failed")
		c.JSON(http.StatusOK, ephemeral("Failed to create the notification thread. Make sure the bot is a member of this channel."))
		return
	}

	c.JSON(http.StatusOK, ephemeral(fmt.Sprintf(
		"Notification thread created.\nChannel: %s\nThread: %s", thread.ChannelID, thread.ThreadTS)))
}

func (h *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	verifier, errNew := goslack.NewSecretsVerifier(header, h.signingSecret)
	if errNew != nil {
		return errNew
	}
	if _, errWrite := verifier.Write(body); errWrite != nil {
		return errWrite
	}
	return verifier.Ensure()
}

func ephemeral(text string) gin.H {
	return gin.H{"response_type": "ephemeral", "text": text}
}

// dedupKey prefers the Events API envelope event_id, which is stable across
// Slack retry deliveries, and falls back to message identity.
func dedupKey(event *slackevents.EventsAPIEvent, msg *slackevents.MessageEvent) string {
	if cb, ok := event.Data.(*slackevents.EventsAPICallbackEvent); ok && cb.EventID != "" {
		return cb.EventID
	}
	if msg.ClientMsgID != "" {
		return msg.ClientMsgID
	}
	return msg.Channel + ":" + msg.TimeStamp
}

// slackTimestampMillis converts a Slack "seconds.fraction" timestamp into
// unix milliseconds. Malformed values map to zero.
func slackTimestampMillis(ts string) int64 {
	if strings.TrimSpace(ts) == "" {
		return 0
	}
	seconds, errParse := strconv.ParseFloat(ts, 64)
	if errParse != nil {
		return 0
	}
	return int64(seconds * 1000)
}
