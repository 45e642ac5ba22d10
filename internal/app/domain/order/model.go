// Package order defines the order records returned by the merchant order API.
package order

import (
	"time"

	"github.com/squadbid/storefront/internal/app/domain/money"
)

// Status values the order API moves an order through. The client never
// transitions orders itself; it only renders these.
const (
	StatusPending            = "pending"
	StatusAccepted           = "accepted"
	StatusRejected           = "rejected"
	StatusCancelled          = "cancelled"
	StatusPreparing          = "preparing"
	StatusReadyForCollection = "ready for collection"
	StatusCollected          = "collected"
)

// Item is one product line in a submitted order.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// Order is a historical order as returned by the order API.
type Order struct {
	ID           string       `json:"id"`
	CustomerName string       `json:"customer_name"`
	MerchantID   int          `json:"merchant_id"`
	Status       string       `json:"status"`
	Items        []Item       `json:"items"`
	Total        money.Amount `json:"total"`
	Notes        string       `json:"notes"`
	CreatedAt    time.Time    `json:"created_at"`
}
