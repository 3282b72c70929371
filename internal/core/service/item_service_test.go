package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rl1809/inventory-service/internal/port"
)

func TestItemService_CRUD(t *testing.T) {
	items := newMockItemRepo()
	svc := newTestItemService(newMockSequenceRepo(), items)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, sampleFields("widget"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	later := created.CreatedAt.Add(time.Minute)
	svc.now = func() time.Time { return later }

	fields := sampleFields("gadget")
	fields.Quantity = 3
	updated, err := svc.UpdateItem(ctx, created.ID, fields)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("id changed on update: %s -> %s", created.ID, updated.ID)
	}
	if updated.Name != "gadget" || updated.Quantity != 3 {
		t.Errorf("fields not updated: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("expected updatedAt %v, got %v", later, updated.UpdatedAt)
	}

	got, err := svc.GetItem(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "gadget" {
		t.Errorf("expected gadget, got %s", got.Name)
	}

	list, err := svc.ListItems(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 item, got %d", len(list))
	}

	deleted, err := svc.DeleteItem(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.ID != created.ID {
		t.Errorf("expected deleted %s, got %s", created.ID, deleted.ID)
	}

	if _, err := svc.GetItem(ctx, created.ID); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
}

func TestItemService_NotFound(t *testing.T) {
	svc := newTestItemService(newMockSequenceRepo(), newMockItemRepo())
	ctx := context.Background()

	if _, err := svc.UpdateItem(ctx, "ID404", sampleFields("x")); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got: %v", err)
	}
	if _, err := svc.DeleteItem(ctx, "ID404"); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got: %v", err)
	}
}
