package store

import (
	"context"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

// Reply is a single reply row under a comment.
type Reply struct {
	ID         int64     `json:"id"`
	CommentID  int64     `json:"comment_id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name,omitempty"`
	Text       string    `json:"text"`
	CreatedOn  time.Time `json:"created_on"`
	ModifiedOn time.Time `json:"modified_on"`
}

type ReplyStore struct {
	rs record.Store
}

func NewReplyStore(rs record.Store) *ReplyStore {
	return &ReplyStore{rs: rs}
}

func replyFromRow(r record.Row) Reply {
	return Reply{
		ID:         r.ID,
		CommentID:  r.Int(fieldCommentID),
		UserID:     r.Int(fieldUserID),
		Name:       r.String(fieldName),
		Text:       r.String(fieldReplyText),
		CreatedOn:  r.CreatedOn,
		ModifiedOn: r.ModifiedOn,
	}
}

// ListByComment returns a comment's replies, oldest first.
func (s *ReplyStore) ListByComment(ctx context.Context, commentID int64) ([]Reply, error) {
	rows, err := s.rs.Fetch(ctx, TableReplies, record.Query{
		Where:   []record.Filter{record.Eq(fieldCommentID, commentID)},
		OrderBy: []record.Sort{{Field: record.FieldCreatedOn}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Reply, len(rows))
	for i, r := range rows {
		out[i] = replyFromRow(r)
	}
	return out, nil
}

func (s *ReplyStore) Get(ctx context.Context, id int64) (Reply, error) {
	r, err := s.rs.GetByID(ctx, TableReplies, id)
	if err != nil {
		return Reply{}, err
	}
	return replyFromRow(r), nil
}

func (s *ReplyStore) Create(ctx context.Context, rp Reply) (Reply, error) {
	res, err := s.rs.Create(ctx, TableReplies, []record.Fields{{
		fieldName:      rp.Name,
		fieldCommentID: rp.CommentID,
		fieldUserID:    rp.UserID,
		fieldReplyText: rp.Text,
	}})
	row, err := record.One(res, err, TableReplies, "create")
	if err != nil {
		return Reply{}, err
	}
	return replyFromRow(row), nil
}

func (s *ReplyStore) UpdateText(ctx context.Context, id int64, text string) (Reply, error) {
	res, err := s.rs.Update(ctx, TableReplies, []record.Change{{
		ID:     id,
		Fields: record.Fields{fieldReplyText: text},
	}})
	row, err := record.One(res, err, TableReplies, "update")
	if err != nil {
		return Reply{}, err
	}
	return replyFromRow(row), nil
}

func (s *ReplyStore) Delete(ctx context.Context, id int64) error {
	res, err := s.rs.Delete(ctx, TableReplies, []int64{id})
	_, err = record.One(res, err, TableReplies, "delete")
	return err
}
