package store

import (
	"context"
	"fmt"
	"time"

	"github.com/example/crm-platform/internal/platform/record"
)

// ReactionType is the kind of reaction a user left on a comment.
type ReactionType string

const (
	ReactionLike    ReactionType = "Like"
	ReactionDislike ReactionType = "Dislike"
)

// ParseReactionType validates a wire value.
func ParseReactionType(s string) (ReactionType, error) {
	switch ReactionType(s) {
	case ReactionLike, ReactionDislike:
		return ReactionType(s), nil
	default:
		return "", fmt.Errorf("unknown reaction type %q", s)
	}
}

// Reaction is one user's reaction on one comment. The thread service keeps
// at most one row per (comment, user) pair; the store itself does not.
type Reaction struct {
	ID        int64        `json:"id"`
	CommentID int64        `json:"comment_id"`
	UserID    int64        `json:"user_id"`
	Type      ReactionType `json:"type"`
	CreatedOn time.Time    `json:"created_on"`
}

type ReactionStore struct {
	rs record.Store
}

func NewReactionStore(rs record.Store) *ReactionStore {
	return &ReactionStore{rs: rs}
}

func reactionFromRow(r record.Row) Reaction {
	return Reaction{
		ID:        r.ID,
		CommentID: r.Int(fieldCommentID),
		UserID:    r.Int(fieldUserID),
		Type:      ReactionType(r.String(fieldReactionType)),
		CreatedOn: r.CreatedOn,
	}
}

// ListByComment returns a comment's reactions, oldest first.
func (s *ReactionStore) ListByComment(ctx context.Context, commentID int64) ([]Reaction, error) {
	rows, err := s.rs.Fetch(ctx, TableReactions, record.Query{
		Where:   []record.Filter{record.Eq(fieldCommentID, commentID)},
		OrderBy: []record.Sort{{Field: record.FieldCreatedOn}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Reaction, len(rows))
	for i, r := range rows {
		out[i] = reactionFromRow(r)
	}
	return out, nil
}

// FindByCommentAndUser returns the user's existing reaction on the comment,
// or ok=false when none exists. The caller must consult this before every
// write; the store has no unique constraint to fall back on.
func (s *ReactionStore) FindByCommentAndUser(ctx context.Context, commentID, userID int64) (Reaction, bool, error) {
	rows, err := s.rs.Fetch(ctx, TableReactions, record.Query{
		Where: []record.Filter{
			record.Eq(fieldCommentID, commentID),
			record.Eq(fieldUserID, userID),
		},
		Limit: 1,
	})
	if err != nil {
		return Reaction{}, false, err
	}
	if len(rows) == 0 {
		return Reaction{}, false, nil
	}
	return reactionFromRow(rows[0]), true, nil
}

func (s *ReactionStore) Create(ctx context.Context, rc Reaction) (Reaction, error) {
	res, err := s.rs.Create(ctx, TableReactions, []record.Fields{{
		fieldName:         fmt.Sprintf("%s reaction", rc.Type),
		fieldCommentID:    rc.CommentID,
		fieldUserID:       rc.UserID,
		fieldReactionType: string(rc.Type),
	}})
	row, err := record.One(res, err, TableReactions, "create")
	if err != nil {
		return Reaction{}, err
	}
	return reactionFromRow(row), nil
}

// UpdateType flips an existing reaction in place (Like <-> Dislike).
func (s *ReactionStore) UpdateType(ctx context.Context, id int64, t ReactionType) (Reaction, error) {
	res, err := s.rs.Update(ctx, TableReactions, []record.Change{{
		ID: id,
		Fields: record.Fields{
			fieldName:         fmt.Sprintf("%s reaction", t),
			fieldReactionType: string(t),
		},
	}})
	row, err := record.One(res, err, TableReactions, "update")
	if err != nil {
		return Reaction{}, err
	}
	return reactionFromRow(row), nil
}

func (s *ReactionStore) Delete(ctx context.Context, id int64) error {
	res, err := s.rs.Delete(ctx, TableReactions, []int64{id})
	_, err = record.One(res, err, TableReactions, "delete")
	return err
}
