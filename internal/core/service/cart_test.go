package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestCartAddItem_Accumulates(t *testing.T) {
	cart := NewCart()

	if err := cart.AddItem("item-1", 2); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := cart.AddItem("item-1", 3); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", lines[0].Quantity)
	}
}

func TestCartAddItem_RejectsNonPositive(t *testing.T) {
	cart := NewCart()

	if err := cart.AddItem("item-1", 0); !domain.IsValidation(err) {
		t.Errorf("expected ValidationError for zero, got: %v", err)
	}
	if err := cart.AddItem("item-1", -2); !domain.IsValidation(err) {
		t.Errorf("expected ValidationError for negative, got: %v", err)
	}
	if len(cart.Lines()) != 0 {
		t.Error("rejected add must not create a line")
	}
}

func TestCartRemoveOne(t *testing.T) {
	cart := NewCart()
	cart.AddItem("item-1", 2)

	if err := cart.RemoveOne("item-1"); err != nil {
		t.Fatalf("RemoveOne failed: %v", err)
	}
	if cart.Lines()[0].Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", cart.Lines()[0].Quantity)
	}

	// Reaching zero drops the line entirely
	if err := cart.RemoveOne("item-1"); err != nil {
		t.Fatalf("RemoveOne failed: %v", err)
	}
	if len(cart.Lines()) != 0 {
		t.Error("expected line dropped at zero")
	}

	if err := cart.RemoveOne("item-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent line, got: %v", err)
	}
}

func TestCartRemoveAll(t *testing.T) {
	cart := NewCart()
	cart.AddItem("item-1", 7)

	cart.RemoveAll("item-1")
	if len(cart.Lines()) != 0 {
		t.Error("expected empty cart")
	}

	// Removing an absent line is a no-op
	cart.RemoveAll("item-1")
}

func TestCartTotal_UsesCurrentPrice(t *testing.T) {
	cart := NewCart()
	cart.AddItem("item-1", 2)

	// Price was 15.00 at add time, then changed to 20.00: the total must
	// reflect the current price, never a cached one.
	price := decimal.RequireFromString("20.00")
	total, skipped := cart.Total(func(itemID string) (decimal.Decimal, bool) {
		return price, true
	})

	if !total.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("expected total 40.00, got %s", total)
	}
	if len(skipped) != 0 {
		t.Errorf("expected no skipped lines, got %v", skipped)
	}
}

func TestCartTotal_SkipsVanishedItems(t *testing.T) {
	cart := NewCart()
	cart.AddItem("gone", 3)
	cart.AddItem("here", 1)

	total, skipped := cart.Total(func(itemID string) (decimal.Decimal, bool) {
		if itemID == "gone" {
			return decimal.Zero, false
		}
		return decimal.RequireFromString("10.00"), true
	})

	if !total.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected total 10.00, got %s", total)
	}
	if len(skipped) != 1 || skipped[0] != "gone" {
		t.Errorf("expected [gone] skipped, got %v", skipped)
	}
}

func TestCartDeduct(t *testing.T) {
	cart := NewCart()
	cart.AddItem("a", 3)
	cart.AddItem("b", 2)

	// Partial deduction leaves the remainder
	cart.Deduct("a", 2)
	lines := cart.Lines()
	if len(lines) != 2 || lines[0].Quantity != 1 {
		t.Fatalf("expected a=1 remaining, got %v", lines)
	}

	// Deducting the full quantity drops the line
	cart.Deduct("b", 2)
	lines = cart.Lines()
	if len(lines) != 1 || lines[0].ItemID != "a" {
		t.Errorf("expected only line a to remain, got %v", lines)
	}

	// Deducting an absent line is a no-op
	cart.Deduct("b", 1)
	if len(cart.Lines()) != 1 {
		t.Errorf("expected cart unchanged, got %v", cart.Lines())
	}
}

func TestCartManager_OneCartPerSession(t *testing.T) {
	manager := NewCartManager()

	cart := manager.Cart("session-1")
	cart.AddItem("item-1", 1)

	if got := manager.Cart("session-1"); len(got.Lines()) != 1 {
		t.Error("expected same cart for same session")
	}
	if got := manager.Cart("session-2"); len(got.Lines()) != 0 {
		t.Error("expected fresh cart for new session")
	}

	manager.End("session-1")
	if got := manager.Cart("session-1"); len(got.Lines()) != 0 {
		t.Error("expected cart gone after End")
	}
}
