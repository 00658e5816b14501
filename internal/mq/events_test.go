package mq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tasktrack/apiserver/types"
)

type fakeBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
}

func (f *fakeBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.channel = channel
	f.data = data
	f.attrs = attrs
	return "msg-1", nil
}

func (f *fakeBackend) Subscribe(context.Context, string, Handler) error { return nil }

func (f *fakeBackend) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTaskPublisherRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	publisher := NewTaskPublisher(New(backend), "task-events", discardLogger())

	event := types.TaskEvent{
		Type:       types.TaskCompleted,
		TaskID:     "task-1",
		UserID:     "user-1",
		Status:     types.StatusCompleted,
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	publisher.Publish(context.Background(), event)

	if backend.channel != "task-events" {
		t.Fatalf("channel: got %q", backend.channel)
	}
	if backend.attrs[attrEventType] != string(types.TaskCompleted) || backend.attrs[attrUserID] != "user-1" {
		t.Fatalf("attributes: got %v", backend.attrs)
	}

	decoded, err := DecodeTaskEvent(Message{Data: backend.data})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.OccurredAt.Equal(event.OccurredAt) {
		t.Fatalf("occurred at: got %s want %s", decoded.OccurredAt, event.OccurredAt)
	}
	decoded.OccurredAt = event.OccurredAt
	if decoded != event {
		t.Fatalf("decoded event: got %+v want %+v", decoded, event)
	}
}

func TestTaskPublisherSwallowsFailures(t *testing.T) {
	backend := &fakeBackend{err: errors.New("broker down")}
	publisher := NewTaskPublisher(New(backend), "task-events", discardLogger())

	// Must return without panicking; the failure is only logged.
	publisher.Publish(context.Background(), types.TaskEvent{Type: types.TaskCreated})
}

func TestHeadersToAttributes(t *testing.T) {
	if got := headersToAttributes(nil); got != nil {
		t.Fatalf("nil headers: got %v", got)
	}

	got := headersToAttributes(amqp.Table{
		"event_type": "task.created",
		"raw":        []byte("bytes"),
		"count":      int32(3),
	})
	want := map[string]string{"event_type": "task.created", "raw": "bytes", "count": "3"}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("attribute %s: got %q want %q", key, got[key], value)
		}
	}
}
