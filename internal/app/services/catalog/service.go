package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/squadbid/storefront/internal/app/domain/product"
	"github.com/squadbid/storefront/pkg/logger"
)

// ErrProductNotFound is returned when a product ID is not in the catalog.
var ErrProductNotFound = errors.New("product not found")

// ErrProductUnavailable is returned when a product exists but the merchant
// has marked it unavailable.
var ErrProductUnavailable = errors.New("product unavailable")

// Backend is the subset of the merchant API the service depends on.
type Backend interface {
	ListProducts(ctx context.Context, merchantID int) ([]product.Product, error)
	SubmitRequest(ctx context.Context, req product.Request) error
}

// Service exposes the merchant catalog.
type Service struct {
	backend    Backend
	merchantID int
	log        *logger.Logger
}

// New creates the catalog service for one merchant.
func New(backend Backend, merchantID int, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{backend: backend, merchantID: merchantID, log: log}
}

// List returns the merchant's catalog.
func (s *Service) List(ctx context.Context) ([]product.Product, error) {
	products, err := s.backend.ListProducts(ctx, s.merchantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get returns a single product by ID. The API has no per-product endpoint, so
// the lookup goes through the list.
func (s *Service) Get(ctx context.Context, productID string) (product.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return product.Product{}, err
	}
	for _, p := range products {
		if p.ID == productID {
			return p, nil
		}
	}
	return product.Product{}, fmt.Errorf("product %q: %w", productID, ErrProductNotFound)
}

// Purchasable returns the product if it exists and is available for sale.
func (s *Service) Purchasable(ctx context.Context, productID string) (product.Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return product.Product{}, err
	}
	if !p.Available {
		return product.Product{}, fmt.Errorf("product %q: %w", productID, ErrProductUnavailable)
	}
	return p, nil
}

// SubmitRequest asks the merchant to stock a product. Blank names are
// rejected before the request leaves the client.
func (s *Service) SubmitRequest(ctx context.Context, req product.Request) error {
	req.ProductName = strings.TrimSpace(req.ProductName)
	if req.ProductName == "" {
		return errors.New("product name is required")
	}
	if err := s.backend.SubmitRequest(ctx, req); err != nil {
		return fmt.Errorf("submit product request: %w", err)
	}
	s.log.WithField("product", req.ProductName).Info("product request submitted")
	return nil
}
