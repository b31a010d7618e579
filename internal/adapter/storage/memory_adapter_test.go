package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

func newTestItem(id string, quantity int, price string) domain.Item {
	now := time.Now()
	return domain.Item{
		ID:        id,
		Name:      "item " + id,
		Quantity:  quantity,
		Price:     decimal.RequireFromString(price),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryCreateGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()

	item := newTestItem("item-1", 5, "15.00")
	item.Description = "a thing"
	if err := adapter.Create(ctx, item); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := adapter.Get(ctx, "item-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != item.Name || got.Quantity != 5 || got.Description != "a thing" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Price.Equal(item.Price) {
		t.Errorf("expected price %s, got %s", item.Price, got.Price)
	}
}

func TestMemoryGet_NotFound(t *testing.T) {
	adapter := NewMemoryAdapter()

	_, err := adapter.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestMemoryUpdate_PartialMerge(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 5, "15.00"))

	quantity := 9
	updated, err := adapter.Update(ctx, "item-1", domain.ItemPatch{Quantity: &quantity})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Quantity != 9 {
		t.Errorf("expected quantity 9, got %d", updated.Quantity)
	}
	// Unsupplied fields stay untouched
	if updated.Name != "item item-1" {
		t.Errorf("name changed unexpectedly: %s", updated.Name)
	}
	if !updated.Price.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("price changed unexpectedly: %s", updated.Price)
	}
}

func TestMemoryDelete_NoResurrection(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 5, "15.00"))

	if err := adapter.Delete(ctx, "item-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := adapter.Get(ctx, "item-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
	if err := adapter.Delete(ctx, "item-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got: %v", err)
	}

	items, _ := adapter.List(ctx)
	for _, item := range items {
		if item.ID == "item-1" {
			t.Error("deleted item reappeared in List")
		}
	}
}

func TestMemoryReserve_Success(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 5, "15.00"))

	snapshot, err := adapter.Reserve(ctx, "item-1", 3)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if snapshot.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", snapshot.Quantity)
	}
}

func TestMemoryReserve_Insufficient(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 2, "15.00"))

	_, err := adapter.Reserve(ctx, "item-1", 3)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}

	// No change on failure
	got, _ := adapter.Get(ctx, "item-1")
	if got.Quantity != 2 {
		t.Errorf("expected quantity 2 after failed reserve, got %d", got.Quantity)
	}
}

func TestMemoryReserve_Concurrent(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 5, "15.00"))

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := adapter.Reserve(ctx, "item-1", 1)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				failCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 5 {
		t.Errorf("expected 5 successes, got %d", successCount.Load())
	}
	if failCount.Load() != 5 {
		t.Errorf("expected 5 insufficient-stock failures, got %d", failCount.Load())
	}

	got, _ := adapter.Get(ctx, "item-1")
	if got.Quantity != 0 {
		t.Errorf("expected final quantity 0, got %d", got.Quantity)
	}
}

func TestMemoryRelease_RestoresStock(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 5, "15.00"))

	adapter.Reserve(ctx, "item-1", 4)
	snapshot, err := adapter.Release(ctx, "item-1", 4)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if snapshot.Quantity != 5 {
		t.Errorf("expected quantity 5 after release, got %d", snapshot.Quantity)
	}
}

func TestMemoryRelease_DeletedItem(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 5, "15.00"))
	adapter.Delete(ctx, "item-1")

	_, err := adapter.Release(ctx, "item-1", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

// List must never observe a half-applied update: name and description are
// always written together here, so a torn read would show them mismatched.
func TestMemoryList_ConsistentSnapshot(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	adapter.Create(ctx, newTestItem("item-1", 5, "15.00"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			name := "even"
			desc := "even"
			if i%2 == 1 {
				name = "odd"
				desc = "odd"
			}
			adapter.Update(ctx, "item-1", domain.ItemPatch{Name: &name, Description: &desc})
		}
	}()

	for i := 0; i < 1000; i++ {
		items, err := adapter.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, item := range items {
			if item.Name != "item item-1" && item.Name != item.Description {
				t.Fatalf("torn read: name=%q description=%q", item.Name, item.Description)
			}
		}
	}
	<-done
}
