// Package product defines catalog records served by the merchant product API.
package product

import "github.com/squadbid/storefront/internal/app/domain/money"

// Product is a catalog entry. Price is the per-unit price in major units.
type Product struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	CategoryName string       `json:"category_name"`
	Price        money.Amount `json:"price"`
	ImageURL     string       `json:"image_url"`
	Available    bool         `json:"is_available"`
}

// Request is a customer's ask for a product the merchant does not stock.
type Request struct {
	ProductName string `json:"product_name"`
	Details     string `json:"details"`
}
