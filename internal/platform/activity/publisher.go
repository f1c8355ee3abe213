// Package activity provides a fire-and-forget NATS publisher for the
// collaboration event stream. Services that mutate comment threads publish
// here; the notification worker consumes the mention subject.
package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subject constants for every collaboration event type.
const (
	SubjectCommentCreated  = "collab.comments.created"
	SubjectCommentUpdated  = "collab.comments.updated"
	SubjectCommentDeleted  = "collab.comments.deleted"
	SubjectReplyCreated    = "collab.replies.created"
	SubjectReplyUpdated    = "collab.replies.updated"
	SubjectReplyDeleted    = "collab.replies.deleted"
	SubjectMentionCreated  = "collab.mentions.created"
	SubjectReactionChanged = "collab.reactions.changed"
)

// Event is the canonical envelope sent to all collab.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	UserID     int64          `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes collaboration events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub (useful in tests and services without NATS).
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	return &Publisher{js: js, log: log}
}

// Publish sends an event asynchronously (fire-and-forget). Failures are
// logged as warnings and never surface to the caller; thread mutations must
// not fail because the event bus is down.
func (p *Publisher) Publish(subject, eventName string, userID int64, props map[string]any) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("activity: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("activity: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
