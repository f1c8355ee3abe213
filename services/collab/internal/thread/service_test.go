package thread

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/example/crm-platform/internal/platform/activity"
	"github.com/example/crm-platform/internal/platform/record"
	"github.com/example/crm-platform/services/collab/internal/store"
)

// flakyStore wraps a record.Store and fails chosen (op, table) pairs, to
// exercise degraded-read and cascade-abort paths.
type flakyStore struct {
	record.Store
	failFetch  map[string]bool
	failDelete map[string]bool
}

func (f *flakyStore) Fetch(ctx context.Context, table string, q record.Query) ([]record.Row, error) {
	if f.failFetch[table] {
		return nil, fmt.Errorf("fetch %s: store unavailable", table)
	}
	return f.Store.Fetch(ctx, table, q)
}

func (f *flakyStore) Delete(ctx context.Context, table string, ids []int64) (record.WriteResult, error) {
	if f.failDelete[table] {
		return record.WriteResult{}, fmt.Errorf("delete %s: store unavailable", table)
	}
	return f.Store.Delete(ctx, table, ids)
}

func newTestService(t *testing.T, rs record.Store) (*Service, context.Context) {
	t.Helper()
	svc := NewService(rs, activity.New(nil, nil), zap.NewNop())
	return svc, record.WithActor(context.Background(), 7)
}

func seedUsers(t *testing.T, mem *record.Memory) map[string]int64 {
	t.Helper()
	ctx := record.WithActor(context.Background(), 1)
	res, err := mem.Create(ctx, store.TableUsers, []record.Fields{
		{"username_c": "alice"},
		{"username_c": "bob"},
		{"username_c": "carol"},
	})
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
	out := make(map[string]int64)
	for _, r := range res.Committed() {
		out[r.String("username_c")] = r.ID
	}
	return out
}

func TestLoadThread_Empty(t *testing.T) {
	svc, ctx := newTestService(t, record.NewMemory())

	th, err := svc.LoadThread(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(th.Comments) != 0 {
		t.Fatalf("expected empty thread, got %d comments", len(th.Comments))
	}
	if th.Replies == nil {
		t.Fatal("expected non-nil replies map")
	}
}

func TestCreateComment_Validation(t *testing.T) {
	svc, ctx := newTestService(t, record.NewMemory())

	if _, err := svc.CreateComment(ctx, 1, 0, "hello"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.CreateComment(ctx, 1, 7, "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestCreateComment_ReturnsRefreshedThread(t *testing.T) {
	svc, ctx := newTestService(t, record.NewMemory())

	th, err := svc.CreateComment(ctx, 1, 7, "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(th.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(th.Comments))
	}
	th, err = svc.CreateComment(ctx, 1, 7, "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(th.Comments) != 2 || th.Comments[0].Text != "second" {
		t.Fatalf("expected newest comment first, got %+v", th.Comments)
	}
}

func TestCreateComment_ResolvesMentions(t *testing.T) {
	mem := record.NewMemory()
	users := seedUsers(t, mem)
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "ping @alice and @bob, also @alice again")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	commentID := th.Comments[0].ID

	mentions, err := store.NewMentionStore(mem).ListByComment(ctx, commentID)
	if err != nil {
		t.Fatalf("list mentions: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("expected 2 deduped mentions, got %d", len(mentions))
	}
	if mentions[0].UserID != users["alice"] || mentions[1].UserID != users["bob"] {
		t.Fatalf("expected alice then bob, got %+v", mentions)
	}
}

func TestCreateComment_UnknownMentionFallsBackToAuthor(t *testing.T) {
	mem := record.NewMemory()
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "hey @nobody")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	mentions, err := store.NewMentionStore(mem).ListByComment(ctx, th.Comments[0].ID)
	if err != nil {
		t.Fatalf("list mentions: %v", err)
	}
	if len(mentions) != 1 || mentions[0].UserID != 7 {
		t.Fatalf("expected fallback to author id 7, got %+v", mentions)
	}
}

func TestCreateReply_RequiresParent(t *testing.T) {
	svc, ctx := newTestService(t, record.NewMemory())

	if _, err := svc.CreateReply(ctx, 99, 7, "orphan"); !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestCreateReply_ReturnsParentReplies(t *testing.T) {
	svc, ctx := newTestService(t, record.NewMemory())

	th, err := svc.CreateComment(ctx, 1, 7, "root")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	commentID := th.Comments[0].ID

	replies, err := svc.CreateReply(ctx, commentID, 7, "one")
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	replies, err = svc.CreateReply(ctx, commentID, 7, "two")
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if len(replies) != 2 || replies[0].Text != "one" {
		t.Fatalf("expected oldest reply first, got %+v", replies)
	}
}

func TestUpdateComment_ReplacesMentionSet(t *testing.T) {
	mem := record.NewMemory()
	users := seedUsers(t, mem)
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "cc @alice @bob")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	commentID := th.Comments[0].ID

	if _, err := svc.UpdateComment(ctx, commentID, 7, "now cc @bob @carol"); err != nil {
		t.Fatalf("update: %v", err)
	}

	mentions, err := store.NewMentionStore(mem).ListByComment(ctx, commentID)
	if err != nil {
		t.Fatalf("list mentions: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("expected exactly the new mention set, got %d rows", len(mentions))
	}
	got := map[int64]bool{mentions[0].UserID: true, mentions[1].UserID: true}
	if !got[users["bob"]] || !got[users["carol"]] || got[users["alice"]] {
		t.Fatalf("expected {bob, carol}, got %+v", mentions)
	}
}

func TestDeleteComment_CascadesChildrenFirst(t *testing.T) {
	mem := record.NewMemory()
	seedUsers(t, mem)
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "root @alice")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	commentID := th.Comments[0].ID
	if _, err := svc.CreateReply(ctx, commentID, 7, "child @bob"); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	th, err = svc.DeleteComment(ctx, commentID, 7)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(th.Comments) != 0 {
		t.Fatalf("expected empty thread after delete, got %d comments", len(th.Comments))
	}

	// Nothing survives in any table.
	for _, table := range []string{store.TableComments, store.TableReplies, store.TableMentions} {
		rows, err := mem.Fetch(ctx, table, record.Query{})
		if err != nil {
			t.Fatalf("fetch %s: %v", table, err)
		}
		if len(rows) != 0 {
			t.Fatalf("expected %s empty after cascade, got %d rows", table, len(rows))
		}
	}
}

func TestDeleteComment_AbortsOnReplyFailure(t *testing.T) {
	mem := record.NewMemory()
	svc, ctx := newTestService(t, &flakyStore{
		Store:      mem,
		failDelete: map[string]bool{store.TableReplies: true},
	})

	th, err := svc.CreateComment(ctx, 1, 7, "root")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	commentID := th.Comments[0].ID
	if _, err := svc.CreateReply(ctx, commentID, 7, "child"); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	_, err = svc.DeleteComment(ctx, commentID, 7)
	var ce *CascadeError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CascadeError, got %v", err)
	}

	// The parent comment must still exist: children go first, and the
	// cascade stopped before touching it.
	if _, err := store.NewCommentStore(mem).Get(ctx, commentID); err != nil {
		t.Fatalf("expected parent comment to survive aborted cascade: %v", err)
	}
}

func TestDeleteReply(t *testing.T) {
	mem := record.NewMemory()
	seedUsers(t, mem)
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "root")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	commentID := th.Comments[0].ID
	replies, err := svc.CreateReply(ctx, commentID, 7, "bye @alice")
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	left, err := svc.DeleteReply(ctx, replies[0].ID, 7)
	if err != nil {
		t.Fatalf("delete reply: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected no replies left, got %d", len(left))
	}
	mentions, err := store.NewMentionStore(mem).ListByReply(ctx, replies[0].ID)
	if err != nil {
		t.Fatalf("list mentions: %v", err)
	}
	if len(mentions) != 0 {
		t.Fatalf("expected reply mentions removed, got %d", len(mentions))
	}
}

func TestLoadThread_ReplyFetchSoftFails(t *testing.T) {
	mem := record.NewMemory()
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "root")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	commentID := th.Comments[0].ID
	if _, err := svc.CreateReply(ctx, commentID, 7, "child"); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	degraded := NewService(&flakyStore{
		Store:     mem,
		failFetch: map[string]bool{store.TableReplies: true},
	}, activity.New(nil, nil), zap.NewNop())

	th, err = degraded.LoadThread(ctx, 1)
	if err != nil {
		t.Fatalf("expected thread load to succeed despite reply failure: %v", err)
	}
	if len(th.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(th.Comments))
	}
	if len(th.Replies[commentID]) != 0 {
		t.Fatalf("expected empty reply list for degraded comment, got %d", len(th.Replies[commentID]))
	}
}

func TestReact_Toggle(t *testing.T) {
	mem := record.NewMemory()
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "root")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	commentID := th.Comments[0].ID

	// First Like creates a row.
	sum, err := svc.React(ctx, commentID, 7, store.ReactionLike)
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if sum.Likes != 1 || sum.Dislikes != 0 || sum.Mine != store.ReactionLike {
		t.Fatalf("expected one Like held by caller, got %+v", sum)
	}

	// Same kind again removes it.
	sum, err = svc.React(ctx, commentID, 7, store.ReactionLike)
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if sum.Likes != 0 || sum.Mine != "" {
		t.Fatalf("expected Like removed, got %+v", sum)
	}
	rows, err := mem.Fetch(ctx, store.TableReactions, record.Query{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no reaction rows after toggle off, got %d", len(rows))
	}
}

func TestReact_FlipKeepsSingleRow(t *testing.T) {
	mem := record.NewMemory()
	svc, ctx := newTestService(t, mem)

	th, err := svc.CreateComment(ctx, 1, 7, "root")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	commentID := th.Comments[0].ID

	if _, err := svc.React(ctx, commentID, 7, store.ReactionLike); err != nil {
		t.Fatalf("react: %v", err)
	}
	sum, err := svc.React(ctx, commentID, 7, store.ReactionDislike)
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if sum.Likes != 0 || sum.Dislikes != 1 || sum.Mine != store.ReactionDislike {
		t.Fatalf("expected single Dislike, got %+v", sum)
	}
	rows, err := mem.Fetch(ctx, store.TableReactions, record.Query{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single reaction row after flip, got %d", len(rows))
	}
}

func TestReact_MissingComment(t *testing.T) {
	svc, ctx := newTestService(t, record.NewMemory())

	if _, err := svc.React(ctx, 404, 7, store.ReactionLike); !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
