package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"wya-server/models"
	"wya-server/utils/errors"
)

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if _, err := store.CreateUser(ctx, models.User{ExternalIdentityID: "a", Blocked: []string{}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	u, _ := store.GetUser(ctx, "a")
	u.Blocked = append(u.Blocked, "x")
	u.ShowLocation = true

	again, _ := store.GetUser(ctx, "a")
	if len(again.Blocked) != 0 || again.ShowLocation {
		t.Fatalf("caller mutation leaked into the store: %+v", again)
	}
}

func TestMemoryStoreListInactiveSince(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	cutoff := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"old", "new", "never"} {
		if _, err := store.CreateUser(ctx, models.User{ExternalIdentityID: id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	_ = store.UpdateLocation(ctx, "old", 1, 1, cutoff.Add(-time.Hour))
	_ = store.UpdateLocation(ctx, "new", 1, 1, cutoff.Add(time.Hour))

	users, err := store.ListInactiveSince(ctx, cutoff)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].ExternalIdentityID != "old" {
		t.Fatalf("expected only old, got %+v", users)
	}
}

func TestMemoryStoreUpdateFieldsRejectsWrongTypes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if _, err := store.CreateUser(ctx, models.User{ExternalIdentityID: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := store.UpdateFields(ctx, "a", map[string]any{FieldShowLocation: true, FieldShowCity: "yes"})
	if err == nil {
		t.Fatalf("expected error")
	}
	u, _ := store.GetUser(ctx, "a")
	if u.ShowLocation {
		t.Fatalf("a failed update must not be partially applied")
	}

	if err := store.UpdateFields(ctx, "ghost", map[string]any{FieldShowCity: true}); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreDeleteClearsReferences(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.CreateUser(ctx, models.User{ExternalIdentityID: id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	_ = store.Block(ctx, "a", "b")
	_ = store.Block(ctx, "b", "c")

	if err := store.DeleteUser(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteUser(ctx, "b"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	a, _ := store.GetUser(ctx, "a")
	c, _ := store.GetUser(ctx, "c")
	if len(a.Blocked) != 0 || len(c.BlockedBy) != 0 {
		t.Fatalf("references survived: a=%v c=%v", a.Blocked, c.BlockedBy)
	}
}

func TestMemoryStoreReports(t *testing.T) {
	store := NewMemoryStore()
	id, err := store.CreateReport(context.Background(), models.Report{ReporterID: "a", ReportedID: "b"})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	reports := store.Reports()
	if len(reports) != 1 || reports[0].ID != id {
		t.Fatalf("unexpected reports %+v", reports)
	}
}
