package store

import (
	"context"
	"fmt"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedOn time.Time `json:"created_on"`
}

type NotificationStore struct {
	rs record.Store
}

func NewNotificationStore(rs record.Store) *NotificationStore {
	return &NotificationStore{rs: rs}
}

func notificationFromRow(r record.Row) Notification {
	return Notification{
		ID:        r.ID,
		UserID:    r.Int(fieldUserID),
		Message:   r.String(fieldMessage),
		Type:      r.String(fieldNotifyType),
		IsRead:    r.Bool(fieldIsRead),
		CreatedOn: r.CreatedOn,
	}
}

// ListByUser returns a user's notifications, newest first.
func (s *NotificationStore) ListByUser(ctx context.Context, userID int64) ([]Notification, error) {
	rows, err := s.rs.Fetch(ctx, TableNotifications, record.Query{
		Where:   []record.Filter{record.Eq(fieldUserID, userID)},
		OrderBy: []record.Sort{{Field: record.FieldCreatedOn, Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Notification, len(rows))
	for i, r := range rows {
		out[i] = notificationFromRow(r)
	}
	return out, nil
}

// UnreadCount returns how many notifications the user has not read.
func (s *NotificationStore) UnreadCount(ctx context.Context, userID int64) (int, error) {
	rows, err := s.rs.Fetch(ctx, TableNotifications, record.Query{
		Fields: []string{fieldIsRead},
		Where: []record.Filter{
			record.Eq(fieldUserID, userID),
			record.Eq(fieldIsRead, false),
		},
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *NotificationStore) Get(ctx context.Context, id int64) (Notification, error) {
	r, err := s.rs.GetByID(ctx, TableNotifications, id)
	if err != nil {
		return Notification{}, err
	}
	return notificationFromRow(r), nil
}

func (s *NotificationStore) Create(ctx context.Context, n Notification) (Notification, error) {
	res, err := s.rs.Create(ctx, TableNotifications, []record.Fields{{
		fieldName:       n.Message,
		fieldUserID:     n.UserID,
		fieldMessage:    n.Message,
		fieldNotifyType: n.Type,
		fieldIsRead:     false,
	}})
	row, err := record.One(res, err, TableNotifications, "create")
	if err != nil {
		return Notification{}, err
	}
	return notificationFromRow(row), nil
}

func (s *NotificationStore) MarkAsRead(ctx context.Context, id int64) (Notification, error) {
	res, err := s.rs.Update(ctx, TableNotifications, []record.Change{{
		ID:     id,
		Fields: record.Fields{fieldIsRead: true},
	}})
	row, err := record.One(res, err, TableNotifications, "update")
	if err != nil {
		return Notification{}, err
	}
	return notificationFromRow(row), nil
}

// MarkAllAsRead flips every unread notification for the user and returns
// how many rows changed.
func (s *NotificationStore) MarkAllAsRead(ctx context.Context, userID int64) (int, error) {
	rows, err := s.rs.Fetch(ctx, TableNotifications, record.Query{
		Where: []record.Filter{
			record.Eq(fieldUserID, userID),
			record.Eq(fieldIsRead, false),
		},
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	changes := make([]record.Change, len(rows))
	for i, r := range rows {
		changes[i] = record.Change{ID: r.ID, Fields: record.Fields{fieldIsRead: true}}
	}
	res, err := s.rs.Update(ctx, TableNotifications, changes)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", TableNotifications, err)
	}
	return len(res.Committed()), nil
}

func (s *NotificationStore) Delete(ctx context.Context, id int64) error {
	res, err := s.rs.Delete(ctx, TableNotifications, []int64{id})
	_, err = record.One(res, err, TableNotifications, "delete")
	return err
}
