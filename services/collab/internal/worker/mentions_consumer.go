// Package worker turns mention events into notification rows. It pull
// consumes collab.mentions.created so mentioned users get notified even
// when the HTTP service crashes right after the mention write.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/crm-platform/internal/platform/activity"
	"github.com/example/crm-platform/internal/platform/record"
)

const (
	tableNotifications = "notification_c"

	fieldNotifyUser = "user_id_c"
	fieldMessage    = "message_c"
	fieldNotifyType = "notification_type_c"
	fieldIsRead     = "is_read_c"
)

// MentionsConsumer creates one notification row per mention event.
type MentionsConsumer struct {
	rs  record.Store
	log *zap.Logger

	batchSize int
	maxWait   time.Duration
}

func NewMentionsConsumer(rs record.Store, log *zap.Logger) *MentionsConsumer {
	return &MentionsConsumer{
		rs:        rs,
		log:       log,
		batchSize: envInt("WORKER_BATCH_SIZE", 100),
		maxWait:   time.Duration(envInt("WORKER_BATCH_INTERVAL_MS", 2000)) * time.Millisecond,
	}
}

// Start subscribes and runs the consume loop until ctx is cancelled.
// Returns the subscribe error synchronously so the caller can decide
// whether a missing stream is fatal.
func (c *MentionsConsumer) Start(ctx context.Context, js nats.JetStreamContext) error {
	sub, err := js.PullSubscribe(activity.SubjectMentionCreated, "collab_mentions")
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", activity.SubjectMentionCreated, err)
	}

	go c.loop(ctx, sub)
	return nil
}

func (c *MentionsConsumer) loop(ctx context.Context, sub *nats.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(c.batchSize, nats.MaxWait(c.maxWait))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			c.log.Warn("mentions_consumer: fetch failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, m := range msgs {
			if err := c.handle(ctx, m.Data); err != nil {
				c.log.Warn("mentions_consumer: handle failed", zap.Error(err))
				if err := m.Nak(); err != nil {
					c.log.Warn("mentions_consumer: nak failed", zap.Error(err))
				}
				continue
			}
			if err := m.Ack(); err != nil {
				c.log.Warn("mentions_consumer: ack failed", zap.Error(err))
			}
		}
	}
}

func (c *MentionsConsumer) handle(ctx context.Context, data []byte) error {
	var ev activity.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	mentionedID := propInt(ev.Properties, "mentioned_user_id")
	if mentionedID <= 0 {
		return fmt.Errorf("event %s has no mentioned user", ev.EventID)
	}
	// Self-mentions (including the unknown-username fallback) make no
	// useful notification.
	if mentionedID == ev.UserID {
		return nil
	}

	message := "You were mentioned in a comment"
	if propInt(ev.Properties, "reply_id") > 0 {
		message = "You were mentioned in a reply"
	}

	res, err := c.rs.Create(record.WithActor(ctx, ev.UserID), tableNotifications, []record.Fields{{
		"Name":          message,
		fieldNotifyUser: mentionedID,
		fieldMessage:    message,
		fieldNotifyType: "mention",
		fieldIsRead:     false,
	}})
	if _, err := record.One(res, err, tableNotifications, "create"); err != nil {
		return err
	}
	return nil
}

// propInt reads a numeric event property; JSON decoding yields float64.
func propInt(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
