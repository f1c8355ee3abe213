package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/crm-platform/internal/platform/activity"
	"github.com/example/crm-platform/internal/platform/record"
)

func encodeEvent(t *testing.T, ev activity.Event) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestHandle_CreatesNotification(t *testing.T) {
	mem := record.NewMemory()
	c := NewMentionsConsumer(mem, zap.NewNop())

	data := encodeEvent(t, activity.Event{
		EventID:    "ev-1",
		EventName:  "mention_created",
		UserID:     7,
		OccurredAt: time.Now().UTC(),
		Properties: map[string]any{
			"mention_id":        float64(1),
			"mentioned_user_id": float64(12),
			"comment_id":        float64(3),
		},
	})
	if err := c.handle(context.Background(), data); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows, err := mem.Fetch(context.Background(), tableNotifications, record.Query{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	n := rows[0]
	if n.Int(fieldNotifyUser) != 12 {
		t.Fatalf("expected notification for user 12, got %d", n.Int(fieldNotifyUser))
	}
	if n.String(fieldNotifyType) != "mention" {
		t.Fatalf("expected type mention, got %q", n.String(fieldNotifyType))
	}
	if n.Bool(fieldIsRead) {
		t.Fatal("expected notification to start unread")
	}
}

func TestHandle_ReplyMentionMessage(t *testing.T) {
	mem := record.NewMemory()
	c := NewMentionsConsumer(mem, zap.NewNop())

	data := encodeEvent(t, activity.Event{
		EventID: "ev-2",
		UserID:  7,
		Properties: map[string]any{
			"mentioned_user_id": float64(12),
			"reply_id":          float64(9),
		},
	})
	if err := c.handle(context.Background(), data); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows, err := mem.Fetch(context.Background(), tableNotifications, record.Query{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := rows[0].String(fieldMessage); got != "You were mentioned in a reply" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestHandle_SkipsSelfMention(t *testing.T) {
	mem := record.NewMemory()
	c := NewMentionsConsumer(mem, zap.NewNop())

	data := encodeEvent(t, activity.Event{
		EventID: "ev-3",
		UserID:  7,
		Properties: map[string]any{
			"mentioned_user_id": float64(7),
			"comment_id":        float64(3),
		},
	})
	if err := c.handle(context.Background(), data); err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows, err := mem.Fetch(context.Background(), tableNotifications, record.Query{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no notification for self-mention, got %d", len(rows))
	}
}

func TestHandle_RejectsMalformedEvent(t *testing.T) {
	c := NewMentionsConsumer(record.NewMemory(), zap.NewNop())

	if err := c.handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	missing := encodeEvent(t, activity.Event{EventID: "ev-4", UserID: 7})
	if err := c.handle(context.Background(), missing); err == nil {
		t.Fatal("expected error for event without mentioned user")
	}
}
