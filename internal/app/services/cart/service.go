// Package cart provides the process-wide cart store. All mutation goes
// through this service so the single-writer discipline the cart model
// requires is enforced in one place.
package cart

import (
	"sync"

	domain "github.com/squadbid/storefront/internal/app/domain/cart"
	"github.com/squadbid/storefront/internal/app/domain/money"
	"github.com/squadbid/storefront/internal/app/metrics"
	"github.com/squadbid/storefront/pkg/logger"
)

// Service owns the cart and serialises access to it. Operations are
// synchronous and total: mutations of missing products are silent no-ops.
type Service struct {
	mu   sync.Mutex
	cart *domain.Cart
	log  *logger.Logger
}

// New creates a service holding an empty cart.
func New(log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("cart")
	}
	return &Service{
		cart: domain.New(),
		log:  log,
	}
}

// AddItem inserts or merges a line item. Quantity and unit price are
// validated; a rejected mutation leaves the cart unchanged.
func (s *Service) AddItem(productID, name string, quantity int, unitPrice money.Amount, imageRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.AddItem(productID, name, quantity, unitPrice, imageRef); err != nil {
		return err
	}
	metrics.CartMutation("add")
	s.log.WithField("product_id", productID).
		WithField("quantity", quantity).
		Debugf("item added to cart")
	return nil
}

// Increment raises an existing item's quantity by one.
func (s *Service) Increment(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Increment(productID)
	metrics.CartMutation("increment")
}

// Decrement lowers an existing item's quantity by one, removing the item
// when it is at quantity 1.
func (s *Service) Decrement(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Decrement(productID)
	metrics.CartMutation("decrement")
}

// Remove deletes an item regardless of quantity.
func (s *Service) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID)
	metrics.CartMutation("remove")
}

// Clear empties the cart.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	metrics.CartMutation("clear")
	s.log.Info("cart cleared")
}

// Items returns a copy of the line items in insertion order.
func (s *Service) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// Len returns the number of distinct line items.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Len()
}

// Total returns the cart total rounded to two decimal places.
func (s *Service) Total() money.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// Snapshot captures the current contents and total atomically.
func (s *Service) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}
