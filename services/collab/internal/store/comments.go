package store

import (
	"context"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

// Comment is a single comment row on a deal.
type Comment struct {
	ID         int64     `json:"id"`
	DealID     int64     `json:"deal_id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name,omitempty"`
	Text       string    `json:"text"`
	CreatedOn  time.Time `json:"created_on"`
	ModifiedOn time.Time `json:"modified_on"`
}

type CommentStore struct {
	rs record.Store
}

func NewCommentStore(rs record.Store) *CommentStore {
	return &CommentStore{rs: rs}
}

func commentFromRow(r record.Row) Comment {
	return Comment{
		ID:         r.ID,
		DealID:     r.Int(fieldDealID),
		UserID:     r.Int(fieldUserID),
		Name:       r.String(fieldName),
		Text:       r.String(fieldCommentText),
		CreatedOn:  r.CreatedOn,
		ModifiedOn: r.ModifiedOn,
	}
}

// ListByDeal returns a deal's comments, newest first.
func (s *CommentStore) ListByDeal(ctx context.Context, dealID int64) ([]Comment, error) {
	rows, err := s.rs.Fetch(ctx, TableComments, record.Query{
		Where:   []record.Filter{record.Eq(fieldDealID, dealID)},
		OrderBy: []record.Sort{{Field: record.FieldCreatedOn, Desc: true}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Comment, len(rows))
	for i, r := range rows {
		out[i] = commentFromRow(r)
	}
	return out, nil
}

func (s *CommentStore) Get(ctx context.Context, id int64) (Comment, error) {
	r, err := s.rs.GetByID(ctx, TableComments, id)
	if err != nil {
		return Comment{}, err
	}
	return commentFromRow(r), nil
}

func (s *CommentStore) Create(ctx context.Context, c Comment) (Comment, error) {
	res, err := s.rs.Create(ctx, TableComments, []record.Fields{{
		fieldName:        c.Name,
		fieldDealID:      c.DealID,
		fieldUserID:      c.UserID,
		fieldCommentText: c.Text,
	}})
	row, err := record.One(res, err, TableComments, "create")
	if err != nil {
		return Comment{}, err
	}
	return commentFromRow(row), nil
}

func (s *CommentStore) UpdateText(ctx context.Context, id int64, text string) (Comment, error) {
	res, err := s.rs.Update(ctx, TableComments, []record.Change{{
		ID:     id,
		Fields: record.Fields{fieldCommentText: text},
	}})
	row, err := record.One(res, err, TableComments, "update")
	if err != nil {
		return Comment{}, err
	}
	return commentFromRow(row), nil
}

func (s *CommentStore) Delete(ctx context.Context, id int64) error {
	res, err := s.rs.Delete(ctx, TableComments, []int64{id})
	_, err = record.One(res, err, TableComments, "delete")
	return err
}
