// Package orders submits new orders and fetches the customer's order history.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/squadbid/storefront/internal/app/domain/order"
	"github.com/squadbid/storefront/internal/app/domain/session"
	"github.com/squadbid/storefront/internal/httputil"
)

// Client talks to the backend order API.
type Client struct {
	http *httputil.Client
}

// NewClient creates an order API client on top of the shared HTTP client.
func NewClient(http *httputil.Client) *Client {
	return &Client{http: http}
}

var _ Backend = (*Client)(nil)

type createOrderRequest struct {
	MerchantID     int          `json:"merchant_id"`
	Items          []order.Item `json:"items"`
	Notes          string       `json:"notes"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
}

// CreateOrder submits an order and returns the new order's ID.
func (c *Client) CreateOrder(ctx context.Context, merchantID int, items []order.Item, notes, idempotencyKey string) (string, error) {
	req := createOrderRequest{
		MerchantID:     merchantID,
		Items:          items,
		Notes:          notes,
		IdempotencyKey: idempotencyKey,
	}
	resp, err := c.http.Post(ctx, "/api/orders", req)
	if err != nil {
		return "", fmt.Errorf("create order request: %w", err)
	}
	defer resp.Body.Close()

	body, _, err := httputil.ReadBody(resp.Body, 1<<20)
	if err != nil {
		return "", fmt.Errorf("read create order response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &httputil.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := sniffSessionMessage(body); err != nil {
		return "", err
	}

	// The API reports the new ID as a top-level order_id; older deployments
	// nest it under order.id or send a bare id.
	for _, path := range []string{"order_id", "order.id", "id"} {
		if parsed := gjson.GetBytes(body, path); parsed.Exists() {
			return parsed.String(), nil
		}
	}
	return "", fmt.Errorf("create order: response carries no order id")
}

// ListMine fetches the authenticated customer's order history.
func (c *Client) ListMine(ctx context.Context) ([]order.Order, error) {
	resp, err := c.http.Get(ctx, "/api/orders/my")
	if err != nil {
		return nil, fmt.Errorf("list orders request: %w", err)
	}
	defer resp.Body.Close()

	body, _, err := httputil.ReadBody(resp.Body, 8<<20)
	if err != nil {
		return nil, fmt.Errorf("read orders response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &httputil.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := sniffSessionMessage(body); err != nil {
		return nil, err
	}

	payload := gjson.GetBytes(body, "orders")
	if !payload.Exists() {
		payload = gjson.ParseBytes(body)
	}

	var result []order.Order
	if err := decodeOrders(payload, &result); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return result, nil
}

func decodeOrders(res gjson.Result, out *[]order.Order) error {
	if !res.Exists() || res.Raw == "" || res.Type == gjson.Null {
		return nil
	}
	return json.Unmarshal([]byte(res.Raw), out)
}

// sniffSessionMessage catches the API's habit of reporting auth failures as a
// message field inside an HTTP 200 body.
func sniffSessionMessage(body []byte) error {
	msg := gjson.GetBytes(body, "message")
	if !msg.Exists() {
		return nil
	}
	text := msg.String()
	if strings.Contains(strings.ToLower(text), "invalid or expired token") {
		return fmt.Errorf("%s: %w", text, session.ErrExpired)
	}
	return nil
}
