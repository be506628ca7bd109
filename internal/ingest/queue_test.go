package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu       sync.Mutex
	messages []Message
	err      error
	saved    chan struct{}
}

func newCaptureSink(err error) *captureSink {
	return &captureSink{err: err, saved: make(chan struct{}, 16)}
}

func (s *captureSink) SaveMessage(_ context.Context, msg *Message) error {
	s.mu.Lock()
	s.messages = append(s.messages, *msg)
	s.mu.Unlock()
	s.saved <- struct{}{}
	return s.err
}

func (s *captureSink) snapshot() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func TestQueueDeliversSubmittedMessages(t *testing.T) {
	sink := newCaptureSink(nil)
	queue := NewQueue(sink, 4)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)

	if !queue.Submit(Message{MessageID: "m1", ChannelID: "C1"}) {
		t.Fatalf("submit rejected")
	}

	select {
	case <-sink.saved:
	case <-time.After(2 * time.Second):
		t.Fatalf("sink not called")
	}
	cancel()
	queue.Wait()

	got := sink.snapshot()
	if len(got) != 1 || got[0].MessageID != "m1" {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestQueueSubmitReturnsBeforeDelivery(t *testing.T) {
	sink := newCaptureSink(nil)
	queue := NewQueue(sink, 4)
	// Consumer not started: Submit must still return immediately.
	done := make(chan bool, 1)
	go func() {
		done <- queue.Submit(Message{MessageID: "m1"})
	}()
	select {
	case ok := <-done:
		if !ok {
			t.Fatalf("submit rejected with free buffer")
		}
	case <-time.After(time.Second):
		t.Fatalf("submit blocked")
	}
}

func TestQueueSinkErrorIsSwallowed(t *testing.T) {
	sink := newCaptureSink(errors.New("persistence down"))
	queue := NewQueue(sink, 4)
	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)

	queue.Submit(Message{MessageID: "m1"})
	select {
	case <-sink.saved:
	case <-time.After(2 * time.Second):
		t.Fatalf("sink not called")
	}
	// A failing sink must not prevent later deliveries.
	queue.Submit(Message{MessageID: "m2"})
	select {
	case <-sink.saved:
	case <-time.After(2 * time.Second):
		t.Fatalf("second message not delivered")
	}
	cancel()
	queue.Wait()
}

func TestQueueFullBufferDrops(t *testing.T) {
	sink := newCaptureSink(nil)
	queue := NewQueue(sink, 1)
	// Consumer not started, so the buffer fills.
	if !queue.Submit(Message{MessageID: "m1"}) {
		t.Fatalf("first submit rejected")
	}
	if queue.Submit(Message{MessageID: "m2"}) {
		t.Fatalf("expected drop on full buffer")
	}
}
