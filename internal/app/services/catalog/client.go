// Package catalog serves the merchant's product list and forwards product
// requests for items the merchant does not stock.
package catalog

import (
	"context"
	"fmt"

	"github.com/squadbid/storefront/internal/app/domain/product"
	"github.com/squadbid/storefront/internal/httputil"
)

// Client talks to the backend merchant/product API.
type Client struct {
	http *httputil.Client
}

// NewClient creates a catalog API client on top of the shared HTTP client.
func NewClient(http *httputil.Client) *Client {
	return &Client{http: http}
}

var _ Backend = (*Client)(nil)

type productListResponse struct {
	Products []product.Product `json:"products"`
}

// ListProducts fetches the full catalog for one merchant.
func (c *Client) ListProducts(ctx context.Context, merchantID int) ([]product.Product, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("/api/merchants/%d/products", merchantID))
	if err != nil {
		return nil, fmt.Errorf("list products request: %w", err)
	}

	var payload productListResponse
	if err := httputil.DecodeResponse(resp, &payload); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return payload.Products, nil
}

// SubmitRequest forwards a product request to the merchant.
func (c *Client) SubmitRequest(ctx context.Context, req product.Request) error {
	resp, err := c.http.Post(ctx, "/api/product-requests", req)
	if err != nil {
		return fmt.Errorf("product request: %w", err)
	}
	if err := httputil.DecodeResponse(resp, nil); err != nil {
		return fmt.Errorf("product request: %w", err)
	}
	return nil
}
