// Package ingest decouples the webhook response from downstream processing
// of inbound Slack messages. Events are submitted to a buffered queue and
// the HTTP response returns before the sink runs; sink failures are reported
// through the log, never to Slack.
package ingest

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Message is an inbound Slack message normalized for the persistence
// collaborator.
type Message struct {
	MessageID string
	UserID    string
	ChannelID string
	TeamID    string
	Text      string
	Timestamp int64 // Unix milliseconds derived from the Slack ts.
	ThreadTS  string
}

// Sink consumes ingested messages. Implementations own their storage; the
// queue only guarantees delivery attempts and error reporting.
type Sink interface {
	SaveMessage(ctx context.Context, msg *Message) error
}

// LoggingSink records ingested messages in the log. It stands in for the
// host's message persistence collaborator, which is out of scope here.
type LoggingSink struct{}

// SaveMessage implements Sink.
func (LoggingSink) SaveMessage(_ context.Context, msg *Message) error {
	log.Debugf("ingested slack message id=%s channel=%s team=%s thread_ts=%s",
		msg.MessageID, msg.ChannelID, msg.TeamID, msg.ThreadTS)
	return nil
}

// Queue is a single-consumer fire-and-forget delivery channel.
type Queue struct {
	sink Sink
	jobs chan Message
	done chan struct{}
}

// NewQueue constructs a Queue with the given buffer size.
func NewQueue(sink Sink, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 256
	}
	return &Queue{
		sink: sink,
		jobs: make(chan Message, buffer),
		done: make(chan struct{}),
	}
}

// Start launches the consumer goroutine. It drains remaining jobs after the
// context is cancelled, then exits.
func (q *Queue) Start(ctx context.Context) {
	go func() {
		defer close(q.done)
		for {
			select {
			case msg := <-q.jobs:
				q.deliver(msg)
			case <-ctx.Done():
				for {
					select {
					case msg := <-q.jobs:
						q.deliver(msg)
					default:
						return
					}
				}
			}
		}
	}()
}

// Submit enqueues a message and returns immediately. A full buffer drops the
// message with an error log rather than blocking the webhook response.
func (q *Queue) Submit(msg Message) bool {
	select {
	case q.jobs <- msg:
		return true
	default:
		log.Errorf("ingest queue full, dropping message id=%s channel=%s", msg.MessageID, msg.ChannelID)
		return false
	}
}

// Wait blocks until the consumer goroutine has exited.
func (q *Queue) Wait() {
	<-q.done
}

func (q *Queue) deliver(msg Message) {
	if errSave := q.sink.SaveMessage(context.Background(), &msg); errSave != nil {
		log.Errorf("save slack message %s failed: %v", msg.MessageID, errSave)
	}
}
