package store

import (
	"context"
	"errors"
	"testing"

	"github.com/example/crm-platform/internal/platform/record"
)

func actorCtx(id int64) context.Context {
	return record.WithActor(context.Background(), id)
}

func TestContactStore_CreateAndList(t *testing.T) {
	cs := NewContactStore(record.NewMemory())
	ctx := actorCtx(1)

	c, err := cs.Create(ctx, Contact{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		CompanyID:      3,
		LifecycleStage: StageLead,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 || c.LifecycleStage != StageLead {
		t.Fatalf("unexpected contact %+v", c)
	}
	if _, err := cs.Create(ctx, Contact{FirstName: "Grace", LastName: "Hopper", CompanyID: 4}); err != nil {
		t.Fatalf("create: %v", err)
	}

	byCompany, err := cs.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byCompany) != 1 || byCompany[0].FirstName != "Ada" {
		t.Fatalf("expected only Ada for company 3, got %+v", byCompany)
	}

	all, err := cs.List(ctx, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].FirstName != "Grace" {
		t.Fatalf("expected newest first, got %+v", all)
	}
}

func TestContactStore_DeleteBulkMixedResults(t *testing.T) {
	cs := NewContactStore(record.NewMemory())
	ctx := actorCtx(1)

	a, err := cs.Create(ctx, Contact{FirstName: "A", LastName: "One"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := cs.Create(ctx, Contact{FirstName: "B", LastName: "Two"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, failed, err := cs.DeleteBulk(ctx, []int64{a.ID, 999, b.ID})
	if err != nil {
		t.Fatalf("delete bulk: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deleted, got %v", deleted)
	}
	if len(failed) != 1 || failed[0] != 999 {
		t.Fatalf("expected id 999 to fail, got %v", failed)
	}
}

func TestContactStore_UpdateStageBulk(t *testing.T) {
	cs := NewContactStore(record.NewMemory())
	ctx := actorCtx(1)

	a, _ := cs.Create(ctx, Contact{FirstName: "A", LastName: "One", LifecycleStage: StageLead})
	b, _ := cs.Create(ctx, Contact{FirstName: "B", LastName: "Two", LifecycleStage: StageLead})

	updated, failed, err := cs.UpdateStageBulk(ctx, []int64{a.ID, b.ID, 999}, StageCustomer)
	if err != nil {
		t.Fatalf("update bulk: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated, got %d", len(updated))
	}
	for _, c := range updated {
		if c.LifecycleStage != StageCustomer {
			t.Fatalf("expected Customer stage, got %q", c.LifecycleStage)
		}
		if c.FirstName == "" {
			t.Fatal("expected other fields preserved")
		}
	}
	if len(failed) != 1 || failed[0] != 999 {
		t.Fatalf("expected id 999 to fail, got %v", failed)
	}
}

func TestParseLifecycleStage(t *testing.T) {
	if _, err := ParseLifecycleStage("Customer"); err != nil {
		t.Fatalf("expected Customer to parse: %v", err)
	}
	if _, err := ParseLifecycleStage("customer"); err == nil {
		t.Fatal("expected lowercase value to be rejected")
	}
}

func TestCompanyStore_ListSortedByName(t *testing.T) {
	cs := NewCompanyStore(record.NewMemory())
	ctx := actorCtx(1)

	for _, name := range []string{"Zeta Corp", "Acme Inc", "Midway LLC"} {
		if _, err := cs.Create(ctx, Company{Name: name, Industry: "Software"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	got, err := cs.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].Name != "Acme Inc" || got[2].Name != "Zeta Corp" {
		t.Fatalf("expected alphabetical order, got %+v", got)
	}
}

func TestDealStore_StageDefaultAndFilter(t *testing.T) {
	ds := NewDealStore(record.NewMemory())
	ctx := actorCtx(1)

	d, err := ds.Create(ctx, Deal{Title: "Big deal", Value: 5000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Stage != DealNew {
		t.Fatalf("expected default stage New, got %q", d.Stage)
	}
	if _, err := ds.UpdateStage(ctx, d.ID, DealWon); err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if _, err := ds.Create(ctx, Deal{Title: "Small deal", Value: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}

	won, err := ds.List(ctx, DealWon)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(won) != 1 || won[0].Title != "Big deal" {
		t.Fatalf("expected only the won deal, got %+v", won)
	}
	if won[0].Value != 5000 {
		t.Fatalf("expected value preserved through stage update, got %d", won[0].Value)
	}
}

func TestNotificationStore_UnreadFlow(t *testing.T) {
	ns := NewNotificationStore(record.NewMemory())
	ctx := actorCtx(1)

	n1, err := ns.Create(ctx, Notification{UserID: 12, Message: "You were mentioned in a comment", Type: "mention"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n1.IsRead {
		t.Fatal("expected new notification to start unread")
	}
	if _, err := ns.Create(ctx, Notification{UserID: 12, Message: "Deal moved to Won", Type: "deal"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ns.Create(ctx, Notification{UserID: 99, Message: "Other user", Type: "deal"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := ns.UnreadCount(ctx, 12)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}

	read, err := ns.MarkAsRead(ctx, n1.ID)
	if err != nil {
		t.Fatalf("mark as read: %v", err)
	}
	if !read.IsRead {
		t.Fatal("expected notification marked read")
	}
	count, err = ns.UnreadCount(ctx, 12)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", count)
	}

	changed, err := ns.MarkAllAsRead(ctx, 12)
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected 1 row changed, got %d", changed)
	}
	count, err = ns.UnreadCount(ctx, 12)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
	// The other user's notification is untouched.
	count, err = ns.UnreadCount(ctx, 99)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected other user's unread intact, got %d", count)
	}
}

func TestNotificationStore_MarkAsReadMissing(t *testing.T) {
	ns := NewNotificationStore(record.NewMemory())

	_, err := ns.MarkAsRead(actorCtx(1), 404)
	var we *record.WriteError
	if !errors.As(err, &we) {
		t.Fatalf("expected WriteError, got %v", err)
	}
}
