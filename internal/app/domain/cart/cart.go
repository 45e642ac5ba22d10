// Package cart holds the client-side cart model: an ordered collection of
// line items keyed by product, with derived subtotals.
package cart

import (
	"errors"

	"github.com/squadbid/storefront/internal/app/domain/money"
)

// Validation failures for cart mutations. Mutations that reference a missing
// product are deliberately silent no-ops, not errors.
var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidUnitPrice = errors.New("unit price must not be negative")
)

// LineItem is one product's presence in the cart. Name, UnitPrice and
// ImageRef are denormalised at add time and never re-fetched.
type LineItem struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`
	Subtotal  money.Amount `json:"subtotal"`
	ImageRef  string       `json:"image_ref,omitempty"`
}

// Cart is an insertion-ordered collection with at most one line item per
// product. It is not safe for concurrent use; callers serialise access.
type Cart struct {
	items []LineItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) find(productID string) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem appends a new line item, or merges the quantity into an existing
// one. The subtotal is recomputed in the same step.
func (c *Cart) AddItem(productID, name string, quantity int, unitPrice money.Amount, imageRef string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}

	if i := c.find(productID); i >= 0 {
		c.items[i].Quantity += quantity
		c.items[i].Subtotal = c.items[i].UnitPrice.MulInt(c.items[i].Quantity)
		return nil
	}

	c.items = append(c.items, LineItem{
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.MulInt(quantity),
		ImageRef:  imageRef,
	})
	return nil
}

// Increment raises the quantity of an existing line item by one. Missing
// products are a no-op.
func (c *Cart) Increment(productID string) {
	i := c.find(productID)
	if i < 0 {
		return
	}
	c.items[i].Quantity++
	c.items[i].Subtotal = c.items[i].UnitPrice.MulInt(c.items[i].Quantity)
}

// Decrement lowers the quantity of an existing line item by one. A line item
// at quantity 1 is removed outright rather than dropping to zero. Missing
// products are a no-op.
func (c *Cart) Decrement(productID string) {
	i := c.find(productID)
	if i < 0 {
		return
	}
	if c.items[i].Quantity > 1 {
		c.items[i].Quantity--
		c.items[i].Subtotal = c.items[i].UnitPrice.MulInt(c.items[i].Quantity)
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// Remove deletes a line item regardless of quantity. Missing products are a
// no-op.
func (c *Cart) Remove(productID string) {
	i := c.find(productID)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	return append([]LineItem(nil), c.items...)
}

// Total sums all subtotals, rounded to two decimal places.
func (c *Cart) Total() money.Amount {
	total := money.Zero
	for i := range c.items {
		total = total.Add(c.items[i].Subtotal)
	}
	return total.Round2()
}

// Snapshot captures the cart contents and total at a point in time. Checkout
// charges and submits exactly one snapshot, so a cart mutated mid-checkout
// can never silently change what the order contains.
type Snapshot struct {
	Items []LineItem
	Total money.Amount
}

// Snapshot returns an immutable copy of the current contents.
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{Items: c.Items(), Total: c.Total()}
}

// Matches reports whether the live cart still has the same products and
// quantities as the snapshot.
func (s Snapshot) Matches(items []LineItem) bool {
	if len(s.Items) != len(items) {
		return false
	}
	for i := range items {
		if items[i].ProductID != s.Items[i].ProductID || items[i].Quantity != s.Items[i].Quantity {
			return false
		}
	}
	return true
}
