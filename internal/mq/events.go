package mq

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tasktrack/apiserver/types"
)

const (
	publishTimeout = 5 * time.Second
	attrEventType  = "event_type"
	attrUserID     = "user_id"
)

// TaskPublisher sends task lifecycle events to a channel. Delivery is best
// effort: failures are logged and never retried.
type TaskPublisher struct {
	mq      *MQ
	channel string
	logger  *slog.Logger
}

func NewTaskPublisher(mq *MQ, channel string, logger *slog.Logger) *TaskPublisher {
	return &TaskPublisher{mq: mq, channel: channel, logger: logger}
}

// Publish encodes event as JSON and sends it.
func (p *TaskPublisher) Publish(ctx context.Context, event types.TaskEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode task event", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	attrs := map[string]string{
		attrEventType: string(event.Type),
		attrUserID:    event.UserID,
	}
	id, err := p.mq.Publish(ctx, p.channel, data, attrs)
	if err != nil {
		p.logger.WarnContext(ctx, "publish task event failed",
			slog.String("event", string(event.Type)),
			slog.String("task_id", event.TaskID),
			slog.Any("error", err),
		)
		return
	}
	p.logger.DebugContext(ctx, "task event published",
		slog.String("event", string(event.Type)),
		slog.String("message_id", id),
	)
}

// DecodeTaskEvent parses a message produced by TaskPublisher.
func DecodeTaskEvent(msg Message) (types.TaskEvent, error) {
	var event types.TaskEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.TaskEvent{}, err
	}
	return event, nil
}
