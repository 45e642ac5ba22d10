// Package agents handles collection points and the agent assignment that
// routes a paid order to a pickup location.
package agents

import (
	"context"
	"fmt"

	"github.com/squadbid/storefront/internal/app/domain/agent"
	"github.com/squadbid/storefront/internal/httputil"
)

// Client talks to the backend agent API.
type Client struct {
	http *httputil.Client
}

// NewClient creates an agent API client on top of the shared HTTP client.
func NewClient(http *httputil.Client) *Client {
	return &Client{http: http}
}

var _ Backend = (*Client)(nil)

type collectionPointsResponse struct {
	CollectionPoints []agent.CollectionPoint `json:"collection_points"`
}

// ListCollectionPoints fetches the available pickup locations.
func (c *Client) ListCollectionPoints(ctx context.Context) ([]agent.CollectionPoint, error) {
	resp, err := c.http.Get(ctx, "/api/collection-points")
	if err != nil {
		return nil, fmt.Errorf("list collection points request: %w", err)
	}

	var payload collectionPointsResponse
	if err := httputil.DecodeResponse(resp, &payload); err != nil {
		return nil, fmt.Errorf("list collection points: %w", err)
	}
	return payload.CollectionPoints, nil
}

type assignRequest struct {
	AgentData agent.CollectionPoint `json:"agentData"`
}

// AssignAgent asks the backend to route an order to the selected point.
func (c *Client) AssignAgent(ctx context.Context, orderID string, sel agent.Selection) error {
	path := fmt.Sprintf("/api/agent/orders/%s/assign", orderID)
	resp, err := c.http.Post(ctx, path, assignRequest{AgentData: sel.Point})
	if err != nil {
		return fmt.Errorf("assign agent request: %w", err)
	}
	if err := httputil.DecodeResponse(resp, nil); err != nil {
		return fmt.Errorf("assign agent: %w", err)
	}
	return nil
}
