// Package catalog provides read access to the store-scoped item catalog.
// Catalog maintenance (create/update/import) lives in the back-office CRUD
// surface and is not part of this service.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Item is a sellable product tracked by a store.
type Item struct {
	ID             uuid.UUID `json:"id"`
	StoreID        uuid.UUID `json:"store_id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	QuantityOnHand float64   `json:"quantity_on_hand"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListFilters narrows a catalog listing.
type ListFilters struct {
	Search   string
	IsActive *bool
	Page     int
	PerPage  int
}
