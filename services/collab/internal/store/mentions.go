package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

// Mention links a mentioned user to the comment or reply containing the
// @token. Exactly one of CommentID/ReplyID is set, never both, never
// neither; use the constructors, which enforce the invariant.
type Mention struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	CommentID int64     `json:"comment_id,omitempty"`
	ReplyID   int64     `json:"reply_id,omitempty"`
	CreatedOn time.Time `json:"created_on"`
}

var errMentionParent = errors.New("mention must reference exactly one of comment or reply")

// NewCommentMention builds a mention owned by a comment.
func NewCommentMention(userID, commentID int64, username string) (Mention, error) {
	if commentID <= 0 {
		return Mention{}, errMentionParent
	}
	return Mention{UserID: userID, Username: username, CommentID: commentID}, nil
}

// NewReplyMention builds a mention owned by a reply.
func NewReplyMention(userID, replyID int64, username string) (Mention, error) {
	if replyID <= 0 {
		return Mention{}, errMentionParent
	}
	return Mention{UserID: userID, Username: username, ReplyID: replyID}, nil
}

type MentionStore struct {
	rs record.Store
}

func NewMentionStore(rs record.Store) *MentionStore {
	return &MentionStore{rs: rs}
}

func mentionFromRow(r record.Row) Mention {
	return Mention{
		ID:        r.ID,
		UserID:    r.Int(fieldUserID),
		CommentID: r.Int(fieldCommentID),
		ReplyID:   r.Int(fieldReplyID),
		CreatedOn: r.CreatedOn,
	}
}

func (m Mention) fields() (record.Fields, error) {
	if (m.CommentID > 0) == (m.ReplyID > 0) {
		return nil, errMentionParent
	}
	f := record.Fields{
		fieldName:   fmt.Sprintf("Mention %s", m.Username),
		fieldUserID: m.UserID,
	}
	if m.CommentID > 0 {
		f[fieldCommentID] = m.CommentID
	} else {
		f[fieldReplyID] = m.ReplyID
	}
	return f, nil
}

func (s *MentionStore) ListByComment(ctx context.Context, commentID int64) ([]Mention, error) {
	return s.list(ctx, record.Eq(fieldCommentID, commentID))
}

func (s *MentionStore) ListByReply(ctx context.Context, replyID int64) ([]Mention, error) {
	return s.list(ctx, record.Eq(fieldReplyID, replyID))
}

func (s *MentionStore) list(ctx context.Context, where record.Filter) ([]Mention, error) {
	rows, err := s.rs.Fetch(ctx, TableMentions, record.Query{
		Where:   []record.Filter{where},
		OrderBy: []record.Sort{{Field: record.FieldCreatedOn}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Mention, len(rows))
	for i, r := range rows {
		out[i] = mentionFromRow(r)
	}
	return out, nil
}

// CreateBulk persists the given mentions. A bulk create succeeds when at
// least one row commits; the caller can detect partial failure by comparing
// the returned count against the input.
func (s *MentionStore) CreateBulk(ctx context.Context, mentions []Mention) ([]Mention, error) {
	if len(mentions) == 0 {
		return nil, nil
	}
	fields := make([]record.Fields, len(mentions))
	for i, m := range mentions {
		f, err := m.fields()
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	res, err := s.rs.Create(ctx, TableMentions, fields)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", TableMentions, err)
	}
	committed := res.Committed()
	if len(committed) == 0 {
		we := &record.WriteError{Table: TableMentions, Op: "create"}
		for _, f := range res.Failed() {
			we.Messages = append(we.Messages, f.Message)
		}
		if len(we.Messages) == 0 {
			we.Messages = []string{"rejected by store"}
		}
		return nil, we
	}
	out := make([]Mention, len(committed))
	for i, r := range committed {
		out[i] = mentionFromRow(r)
	}
	return out, nil
}

// DeleteByComment removes every mention owned directly by the comment.
// Any per-row failure is returned as an error so cascade callers can abort
// before touching the parent.
func (s *MentionStore) DeleteByComment(ctx context.Context, commentID int64) error {
	mentions, err := s.ListByComment(ctx, commentID)
	if err != nil {
		return err
	}
	return s.deleteAll(ctx, mentions)
}

// DeleteByReply removes every mention owned by the reply.
func (s *MentionStore) DeleteByReply(ctx context.Context, replyID int64) error {
	mentions, err := s.ListByReply(ctx, replyID)
	if err != nil {
		return err
	}
	return s.deleteAll(ctx, mentions)
}

func (s *MentionStore) deleteAll(ctx context.Context, mentions []Mention) error {
	if len(mentions) == 0 {
		return nil
	}
	ids := make([]int64, len(mentions))
	for i, m := range mentions {
		ids[i] = m.ID
	}
	res, err := s.rs.Delete(ctx, TableMentions, ids)
	if err != nil {
		return fmt.Errorf("delete %s: %w", TableMentions, err)
	}
	if failed := res.Failed(); len(failed) > 0 || !res.OK {
		we := &record.WriteError{Table: TableMentions, Op: "delete"}
		for _, f := range failed {
			we.Messages = append(we.Messages, f.Message)
		}
		if len(we.Messages) == 0 {
			we.Messages = []string{"rejected by store"}
		}
		return we
	}
	return nil
}
