package leads

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryInsertAndList(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	older := &Lead{Name: "First", Email: "first@example.com", Phone: "1234567890", Status: StatusValid, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := &Lead{Name: "Second", Email: "second@example.com", Phone: "9876543210", Status: StatusValid, CreatedAt: time.Now().UTC()}

	if err := repo.InsertBatch(ctx, "client-1", []*Lead{older, newer}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := repo.ListByClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("ListByClient failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(got))
	}
	if got[0].Name != "Second" {
		t.Errorf("expected newest-first ordering, got %s first", got[0].Name)
	}
	if got[0].ID == "" {
		t.Error("expected IDs to be assigned")
	}
}

func TestInMemoryOwnerIsolation(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead := &Lead{Name: "Mine", Email: "mine@example.com", Phone: "1234567890", Status: StatusValid}
	if err := repo.InsertBatch(ctx, "client-1", []*Lead{lead}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	other, err := repo.ListByClient(ctx, "client-2")
	if err != nil {
		t.Fatalf("ListByClient failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("client-2 must not see client-1 records, got %d", len(other))
	}

	// Foreign delete: no error, no effect.
	deleted, err := repo.Delete(ctx, "client-2", lead.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted {
		t.Error("foreign delete must not remove anything")
	}

	mine, _ := repo.ListByClient(ctx, "client-1")
	if len(mine) != 1 {
		t.Errorf("owner collection changed by foreign delete, got %d records", len(mine))
	}
}

func TestInMemoryFindByContact(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead := &Lead{Name: "Alice", Email: "Alice@Example.com", Phone: "(555) 123-4567", Status: StatusValid}
	if err := repo.InsertBatch(ctx, "client-1", []*Lead{lead}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	byEmail, err := repo.FindByContact(ctx, "client-1", "alice@example.com", "")
	if err != nil || len(byEmail) != 1 {
		t.Fatalf("expected normalized email match, got %d err=%v", len(byEmail), err)
	}

	byPhone, err := repo.FindByContact(ctx, "client-1", "", "5551234567")
	if err != nil || len(byPhone) != 1 {
		t.Fatalf("expected normalized phone match, got %d err=%v", len(byPhone), err)
	}

	none, err := repo.FindByContact(ctx, "client-1", "", "")
	if err != nil || len(none) != 0 {
		t.Fatalf("empty values must not match, got %d err=%v", len(none), err)
	}
}

func TestInMemoryDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead := &Lead{Name: "Gone", Email: "gone@example.com", Phone: "1234567890", Status: StatusValid}
	if err := repo.InsertBatch(ctx, "client-1", []*Lead{lead}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	deleted, err := repo.Delete(ctx, "client-1", lead.ID)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got deleted=%v err=%v", deleted, err)
	}

	got, _ := repo.ListByClient(ctx, "client-1")
	if len(got) != 0 {
		t.Errorf("expected empty collection after delete, got %d", len(got))
	}
}
