// Package thread implements the comment-thread aggregate for deals:
// comments with nested replies, @mentions, and like/dislike reactions.
// All persistence goes through the record store; the service itself is
// stateless and performs no retries.
package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/example/crm-platform/internal/platform/activity"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/collab/internal/mention"
	"github.com/example/crm-platform/services/collab/internal/store"
)

// Thread is a deal's full comment tree: comments newest first, each
// comment's replies oldest first.
type Thread struct {
	Comments []store.Comment         `json:"comments"`
	Replies  map[int64][]store.Reply `json:"replies"`
}

// ReactionSummary is the state of a comment's reactions after a toggle.
type ReactionSummary struct {
	Likes    int                `json:"likes"`
	Dislikes int                `json:"dislikes"`
	Mine     store.ReactionType `json:"mine,omitempty"`
	All      []store.Reaction   `json:"reactions"`
}

// Service orchestrates the thread aggregate over the typed stores.
type Service struct {
	comments  *store.CommentStore
	replies   *store.ReplyStore
	reactions *store.ReactionStore
	mentions  *store.MentionStore
	users     *store.UserStore
	events    *activity.Publisher
	log       *zap.Logger
}

func NewService(rs record.Store, events *activity.Publisher, log *zap.Logger) *Service {
	return &Service{
		comments:  store.NewCommentStore(rs),
		replies:   store.NewReplyStore(rs),
		reactions: store.NewReactionStore(rs),
		mentions:  store.NewMentionStore(rs),
		users:     store.NewUserStore(rs),
		events:    events,
		log:       log,
	}
}

// LoadThread fetches a deal's comments and fans out one reply query per
// comment. A failed reply fetch degrades that comment to an empty reply
// list instead of failing the whole thread.
func (s *Service) LoadThread(ctx context.Context, dealID int64) (Thread, error) {
	comments, err := s.comments.ListByDeal(ctx, dealID)
	if err != nil {
		return Thread{}, fmt.Errorf("load comments for deal %d: %w", dealID, err)
	}

	th := Thread{Comments: comments, Replies: make(map[int64][]store.Reply, len(comments))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range comments {
		wg.Add(1)
		go func(commentID int64) {
			defer wg.Done()
			replies, err := s.replies.ListByComment(ctx, commentID)
			if err != nil {
				s.log.Warn("thread: reply fetch failed",
					zap.Int64("comment_id", commentID), zap.Error(err))
				replies = nil
			}
			mu.Lock()
			th.Replies[commentID] = replies
			mu.Unlock()
		}(c.ID)
	}
	wg.Wait()
	return th, nil
}

// CreateComment validates input, persists the comment, records its
// mentions, and returns the deal's refreshed thread.
func (s *Service) CreateComment(ctx context.Context, dealID, authorID int64, text string) (Thread, error) {
	if authorID <= 0 {
		return Thread{}, ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return Thread{}, ErrEmptyText
	}

	c, err := s.comments.Create(ctx, store.Comment{
		DealID: dealID,
		UserID: authorID,
		Name:   commentName(text),
		Text:   text,
	})
	if err != nil {
		return Thread{}, fmt.Errorf("create comment: %w", err)
	}

	s.recordMentions(ctx, text, authorID, c.ID, 0)
	s.events.Publish(activity.SubjectCommentCreated, "comment_created", authorID, map[string]any{
		"comment_id": c.ID,
		"deal_id":    dealID,
	})
	return s.LoadThread(ctx, dealID)
}

// CreateReply persists a reply under a comment and returns that comment's
// refreshed reply list.
func (s *Service) CreateReply(ctx context.Context, commentID, authorID int64, text string) ([]store.Reply, error) {
	if authorID <= 0 {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if _, err := s.comments.Get(ctx, commentID); err != nil {
		return nil, fmt.Errorf("load parent comment %d: %w", commentID, err)
	}

	r, err := s.replies.Create(ctx, store.Reply{
		CommentID: commentID,
		UserID:    authorID,
		Name:      commentName(text),
		Text:      text,
	})
	if err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}

	s.recordMentions(ctx, text, authorID, 0, r.ID)
	s.events.Publish(activity.SubjectReplyCreated, "reply_created", authorID, map[string]any{
		"reply_id":   r.ID,
		"comment_id": commentID,
	})
	return s.replies.ListByComment(ctx, commentID)
}

// UpdateComment rewrites a comment's text and replaces its mention set:
// old mentions are deleted before the new set is created, so a reader
// never sees the union of both.
func (s *Service) UpdateComment(ctx context.Context, commentID, actorID int64, text string) (store.Comment, error) {
	if actorID <= 0 {
		return store.Comment{}, ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return store.Comment{}, ErrEmptyText
	}

	c, err := s.comments.UpdateText(ctx, commentID, text)
	if err != nil {
		return store.Comment{}, fmt.Errorf("update comment %d: %w", commentID, err)
	}
	if err := s.mentions.DeleteByComment(ctx, commentID); err != nil {
		return store.Comment{}, fmt.Errorf("clear mentions for comment %d: %w", commentID, err)
	}
	s.recordMentions(ctx, text, actorID, commentID, 0)

	s.events.Publish(activity.SubjectCommentUpdated, "comment_updated", actorID, map[string]any{
		"comment_id": commentID,
	})
	return c, nil
}

// UpdateReply rewrites a reply's text with the same mention-replace rule
// as UpdateComment.
func (s *Service) UpdateReply(ctx context.Context, replyID, actorID int64, text string) (store.Reply, error) {
	if actorID <= 0 {
		return store.Reply{}, ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return store.Reply{}, ErrEmptyText
	}

	r, err := s.replies.UpdateText(ctx, replyID, text)
	if err != nil {
		return store.Reply{}, fmt.Errorf("update reply %d: %w", replyID, err)
	}
	if err := s.mentions.DeleteByReply(ctx, replyID); err != nil {
		return store.Reply{}, fmt.Errorf("clear mentions for reply %d: %w", replyID, err)
	}
	s.recordMentions(ctx, text, actorID, 0, replyID)

	s.events.Publish(activity.SubjectReplyUpdated, "reply_updated", actorID, map[string]any{
		"reply_id": replyID,
	})
	return r, nil
}

// DeleteComment runs the ordered cascade: the comment's own mentions,
// then each reply's mentions followed by the reply, then the comment row
// itself. Children always go before parents; the first failure aborts the
// cascade with a CascadeError so no orphan is created, at the cost of a
// possibly half-deleted tree. Returns the deal's refreshed thread.
func (s *Service) DeleteComment(ctx context.Context, commentID, actorID int64) (Thread, error) {
	if actorID <= 0 {
		return Thread{}, ErrUnauthenticated
	}
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return Thread{}, fmt.Errorf("load comment %d: %w", commentID, err)
	}

	if err := s.mentions.DeleteByComment(ctx, commentID); err != nil {
		return Thread{}, &CascadeError{Step: "comment mentions", Err: err}
	}

	replies, err := s.replies.ListByComment(ctx, commentID)
	if err != nil {
		return Thread{}, &CascadeError{Step: "list replies", Err: err}
	}
	for _, r := range replies {
		if err := s.mentions.DeleteByReply(ctx, r.ID); err != nil {
			return Thread{}, &CascadeError{Step: fmt.Sprintf("mentions of reply %d", r.ID), Err: err}
		}
		if err := s.replies.Delete(ctx, r.ID); err != nil {
			return Thread{}, &CascadeError{Step: fmt.Sprintf("reply %d", r.ID), Err: err}
		}
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return Thread{}, &CascadeError{Step: "comment row", Err: err}
	}

	s.events.Publish(activity.SubjectCommentDeleted, "comment_deleted", actorID, map[string]any{
		"comment_id": commentID,
		"deal_id":    c.DealID,
	})
	return s.LoadThread(ctx, c.DealID)
}

// DeleteReply removes a reply's mentions and then the reply, returning
// the parent comment's refreshed reply list.
func (s *Service) DeleteReply(ctx context.Context, replyID, actorID int64) ([]store.Reply, error) {
	if actorID <= 0 {
		return nil, ErrUnauthenticated
	}
	r, err := s.replies.Get(ctx, replyID)
	if err != nil {
		return nil, fmt.Errorf("load reply %d: %w", replyID, err)
	}

	if err := s.mentions.DeleteByReply(ctx, replyID); err != nil {
		return nil, &CascadeError{Step: "reply mentions", Err: err}
	}
	if err := s.replies.Delete(ctx, replyID); err != nil {
		return nil, &CascadeError{Step: "reply row", Err: err}
	}

	s.events.Publish(activity.SubjectReplyDeleted, "reply_deleted", actorID, map[string]any{
		"reply_id":   replyID,
		"comment_id": r.CommentID,
	})
	return s.replies.ListByComment(ctx, r.CommentID)
}

// React toggles the user's reaction on a comment: the same kind again
// removes it, a different kind flips the existing row in place, and no
// existing row creates one. Returns the comment's refreshed counts.
func (s *Service) React(ctx context.Context, commentID, userID int64, kind store.ReactionType) (ReactionSummary, error) {
	if userID <= 0 {
		return ReactionSummary{}, ErrUnauthenticated
	}
	if _, err := s.comments.Get(ctx, commentID); err != nil {
		return ReactionSummary{}, fmt.Errorf("load comment %d: %w", commentID, err)
	}

	existing, found, err := s.reactions.FindByCommentAndUser(ctx, commentID, userID)
	if err != nil {
		return ReactionSummary{}, fmt.Errorf("lookup reaction: %w", err)
	}
	switch {
	case found && existing.Type == kind:
		if err := s.reactions.Delete(ctx, existing.ID); err != nil {
			return ReactionSummary{}, fmt.Errorf("remove reaction: %w", err)
		}
	case found:
		if _, err := s.reactions.UpdateType(ctx, existing.ID, kind); err != nil {
			return ReactionSummary{}, fmt.Errorf("flip reaction: %w", err)
		}
	default:
		if _, err := s.reactions.Create(ctx, store.Reaction{
			CommentID: commentID,
			UserID:    userID,
			Type:      kind,
		}); err != nil {
			return ReactionSummary{}, fmt.Errorf("create reaction: %w", err)
		}
	}

	s.events.Publish(activity.SubjectReactionChanged, "reaction_changed", userID, map[string]any{
		"comment_id": commentID,
		"type":       string(kind),
	})
	return s.Reactions(ctx, commentID, userID)
}

// Reactions returns the current reaction counts on a comment, including
// which reaction, if any, the given user holds.
func (s *Service) Reactions(ctx context.Context, commentID, userID int64) (ReactionSummary, error) {
	all, err := s.reactions.ListByComment(ctx, commentID)
	if err != nil {
		return ReactionSummary{}, fmt.Errorf("list reactions: %w", err)
	}
	sum := ReactionSummary{All: all}
	for _, r := range all {
		switch r.Type {
		case store.ReactionLike:
			sum.Likes++
		case store.ReactionDislike:
			sum.Dislikes++
		}
		if r.UserID == userID {
			sum.Mine = r.Type
		}
	}
	return sum, nil
}

// recordMentions extracts @tokens from text and persists one mention row
// per distinct username. An unknown username falls back to the acting
// user's own id, matching the historical behavior of the upstream CRM.
// Mention failures are logged, never surfaced: the comment or reply write
// has already committed.
func (s *Service) recordMentions(ctx context.Context, text string, actorID, commentID, replyID int64) {
	usernames := mention.Extract(text)
	if len(usernames) == 0 {
		return
	}

	mentions := make([]store.Mention, 0, len(usernames))
	for _, username := range usernames {
		userID := actorID
		u, err := s.users.ByUsername(ctx, username)
		switch {
		case err == nil:
			userID = u.ID
		case errors.Is(err, record.ErrNotFound):
			s.log.Debug("thread: unknown mention username",
				zap.String("username", username), zap.Int64("fallback_user", actorID))
		default:
			s.log.Warn("thread: mention lookup failed",
				zap.String("username", username), zap.Error(err))
		}

		var (
			m    store.Mention
			err2 error
		)
		if commentID > 0 {
			m, err2 = store.NewCommentMention(userID, commentID, username)
		} else {
			m, err2 = store.NewReplyMention(userID, replyID, username)
		}
		if err2 != nil {
			s.log.Warn("thread: invalid mention", zap.Error(err2))
			continue
		}
		mentions = append(mentions, m)
	}

	created, err := s.mentions.CreateBulk(ctx, mentions)
	if err != nil {
		s.log.Warn("thread: mention create failed", zap.Error(err))
		return
	}
	for _, m := range created {
		s.events.Publish(activity.SubjectMentionCreated, "mention_created", actorID, map[string]any{
			"mention_id":        m.ID,
			"mentioned_user_id": m.UserID,
			"comment_id":        m.CommentID,
			"reply_id":          m.ReplyID,
		})
	}
}

// commentName derives the record Name field from the body, the way list
// views label rows.
func commentName(text string) string {
	const max = 40
	text = strings.TrimSpace(text)
	if len(text) > max {
		return text[:max]
	}
	return text
}
