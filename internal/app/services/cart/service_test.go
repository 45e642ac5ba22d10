package cart

import (
	"errors"
	"sync"
	"testing"

	domain "github.com/squadbid/storefront/internal/app/domain/cart"
	"github.com/squadbid/storefront/internal/app/domain/money"
)

func amount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.FromString(s)
	if err != nil {
		t.Fatalf("parse amount %s: %v", s, err)
	}
	return a
}

func TestServiceAddAndTotal(t *testing.T) {
	svc := New(nil)
	if err := svc.AddItem("p1", "Apple", 2, amount(t, "1.50"), "img"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.AddItem("p2", "Pear", 1, amount(t, "0.75"), "img"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if got := svc.Total().String(); got != "3.75" {
		t.Fatalf("expected total 3.75, got %s", got)
	}
	if svc.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", svc.Len())
	}
}

func TestServiceRejectsInvalidInput(t *testing.T) {
	svc := New(nil)
	if err := svc.AddItem("p1", "Apple", 0, amount(t, "1.50"), ""); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected quantity validation error, got %v", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("rejected add must not change the cart")
	}
}

func TestServiceSerialisesConcurrentMutation(t *testing.T) {
	svc := New(nil)
	if err := svc.AddItem("p1", "Apple", 1, amount(t, "1.00"), ""); err != nil {
		t.Fatalf("add item: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Increment("p1")
		}()
	}
	wg.Wait()

	items := svc.Items()
	if len(items) != 1 || items[0].Quantity != 101 {
		t.Fatalf("expected quantity 101, got %+v", items)
	}
	if items[0].Subtotal.String() != "101.00" {
		t.Fatalf("subtotal inconsistent: %s", items[0].Subtotal)
	}
}

func TestServiceSnapshotIsStable(t *testing.T) {
	svc := New(nil)
	if err := svc.AddItem("p1", "Apple", 2, amount(t, "1.50"), ""); err != nil {
		t.Fatalf("add item: %v", err)
	}

	snap := svc.Snapshot()
	svc.Clear()

	if len(snap.Items) != 1 || snap.Total.String() != "3.00" {
		t.Fatalf("snapshot affected by later mutation: %+v", snap)
	}
	if !svc.Total().IsZero() {
		t.Fatalf("cart should be empty after clear")
	}
}
