package orders

import (
	"context"
	"fmt"

	"github.com/squadbid/storefront/internal/app/domain/order"
	"github.com/squadbid/storefront/pkg/logger"
)

// Backend is the subset of the order API the service depends on.
type Backend interface {
	CreateOrder(ctx context.Context, merchantID int, items []order.Item, notes, idempotencyKey string) (string, error)
	ListMine(ctx context.Context) ([]order.Order, error)
}

// Service exposes the customer's order history and acts as the order
// submitter for checkout.
type Service struct {
	backend    Backend
	merchantID int
	log        *logger.Logger
}

// New creates the orders service.
func New(backend Backend, merchantID int, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("orders")
	}
	return &Service{backend: backend, merchantID: merchantID, log: log}
}

// CreateOrder submits an order for the configured merchant. It satisfies the
// checkout orchestrator's order submission dependency.
func (s *Service) CreateOrder(ctx context.Context, merchantID int, items []order.Item, notes, idempotencyKey string) (string, error) {
	if merchantID == 0 {
		merchantID = s.merchantID
	}
	id, err := s.backend.CreateOrder(ctx, merchantID, items, notes, idempotencyKey)
	if err != nil {
		return "", err
	}
	s.log.WithFields(map[string]interface{}{
		"order_id": id,
		"items":    len(items),
	}).Info("order submitted")
	return id, nil
}

// History returns the customer's orders, newest first as the API sends them.
func (s *Service) History(ctx context.Context) ([]order.Order, error) {
	result, err := s.backend.ListMine(ctx)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	return result, nil
}
