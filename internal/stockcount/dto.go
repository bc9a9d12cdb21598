package stockcount

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gerai-erp/gerai/internal/shared"
)

type itemRequest struct {
	CatalogItemID  string  `json:"catalog_item_id" validate:"required,uuid"`
	ActualQuantity float64 `json:"actual_quantity" validate:"gte=0"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type submitRequest struct {
	Items      []itemRequest `json:"items" validate:"required,min=1,dive"`
	PublishNow bool          `json:"publish_now"`
}

func (r submitRequest) toInputs() ([]ItemInput, error) {
	inputs := make([]ItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		id, err := uuid.Parse(item.CatalogItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid catalog item id %q", shared.ErrValidation, item.CatalogItemID)
		}
		inputs = append(inputs, ItemInput{
			CatalogItemID:  id,
			ActualQuantity: item.ActualQuantity,
			Notes:          item.Notes,
		})
	}
	return inputs, nil
}

type itemResponse struct {
	ID               uuid.UUID `json:"id"`
	CatalogItemID    uuid.UUID `json:"catalog_item_id"`
	SKU              string    `json:"sku"`
	Name             string    `json:"name"`
	Unit             string    `json:"unit"`
	ExpectedQuantity float64   `json:"expected_quantity"`
	ActualQuantity   float64   `json:"actual_quantity"`
	VarianceQuantity float64   `json:"variance_quantity"`
	Notes            *string   `json:"notes,omitempty"`
}

type recordResponse struct {
	ID          uuid.UUID      `json:"id"`
	Code        string         `json:"code"`
	StoreID     uuid.UUID      `json:"store_id"`
	Status      Status         `json:"status"`
	PerformedBy uuid.UUID      `json:"performed_by"`
	VerifiedAt  *time.Time     `json:"verified_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Items       []itemResponse `json:"items"`
}

type previewItemResponse struct {
	CatalogItemID    uuid.UUID `json:"catalog_item_id"`
	SKU              string    `json:"sku"`
	Name             string    `json:"name"`
	Unit             string    `json:"unit"`
	ExpectedQuantity float64   `json:"expected_quantity"`
	ActualQuantity   float64   `json:"actual_quantity"`
	VarianceQuantity float64   `json:"variance_quantity"`
}

// previewResponse has no id on purpose: the document does not exist yet.
type previewResponse struct {
	Preview     bool                  `json:"preview"`
	Code        string                `json:"code"`
	StoreID     uuid.UUID             `json:"store_id"`
	Status      Status                `json:"status"`
	PerformedBy uuid.UUID             `json:"performed_by"`
	Items       []previewItemResponse `json:"items"`
}

type listResponse struct {
	StockCounts []Summary         `json:"stock_counts"`
	Pagination  shared.Pagination `json:"pagination"`
}

func toRecordResponse(rec *Record) recordResponse {
	items := make([]itemResponse, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, itemResponse{
			ID:               it.ID,
			CatalogItemID:    it.CatalogItemID,
			SKU:              it.SKU,
			Name:             it.Name,
			Unit:             it.Unit,
			ExpectedQuantity: it.ExpectedQuantity,
			ActualQuantity:   it.ActualQuantity,
			VarianceQuantity: it.Variance(),
			Notes:            it.Notes,
		})
	}
	return recordResponse{
		ID:          rec.ID,
		Code:        rec.Code,
		StoreID:     rec.StoreID,
		Status:      rec.Status,
		PerformedBy: rec.PerformedBy,
		VerifiedAt:  rec.VerifiedAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		Items:       items,
	}
}

func toPreviewResponse(p *Preview) previewResponse {
	items := make([]previewItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, previewItemResponse{
			CatalogItemID:    it.CatalogItemID,
			SKU:              it.SKU,
			Name:             it.Name,
			Unit:             it.Unit,
			ExpectedQuantity: it.ExpectedQuantity,
			ActualQuantity:   it.ActualQuantity,
			VarianceQuantity: it.ActualQuantity - it.ExpectedQuantity,
		})
	}
	return previewResponse{
		Preview:     true,
		Code:        p.Code,
		StoreID:     p.StoreID,
		Status:      p.Status,
		PerformedBy: p.PerformedBy,
		Items:       items,
	}
}
