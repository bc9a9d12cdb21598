// Package stockcount implements the stock opname reconciliation engine:
// periodic counts of physical stock against recorded quantities, tracked
// per item as expected/actual/variance and closed through an irreversible
// verification step.
package stockcount

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gerai-erp/gerai/internal/shared"
)

// Status represents the lifecycle of a stock count document.
type Status string

const (
	// StatusDraft is the initial, freely editable state.
	StatusDraft Status = "draft"
	// StatusUnderReview marks a submitted count awaiting verification.
	StatusUnderReview Status = "under_review"
	// StatusVerified is terminal; the document is frozen.
	StatusVerified Status = "verified"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusUnderReview, StatusVerified:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return s == StatusVerified
}

// CanUpdate checks whether item sets may still be replaced.
func (s Status) CanUpdate() bool {
	return !s.IsTerminal()
}

// CanDelete checks whether the document may be removed. Deletion is the
// cancellation mechanism; there is no separate cancelled state.
func (s Status) CanDelete() bool {
	return !s.IsTerminal()
}

// CanVerify checks whether the document may be verified.
func (s Status) CanVerify() bool {
	return !s.IsTerminal()
}

// StatusFor maps the caller's publish flag onto the two non-terminal states.
func StatusFor(publishNow bool) Status {
	if publishNow {
		return StatusUnderReview
	}
	return StatusDraft
}

// Record is the header of one physical stock count event for a store.
type Record struct {
	ID          uuid.UUID
	Code        string
	StoreID     uuid.UUID
	Status      Status
	PerformedBy uuid.UUID
	VerifiedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []Item
}

// Item is one catalog item's expected/actual pair within a Record.
// Display fields are joined from the catalog for presentation only.
type Item struct {
	ID               uuid.UUID
	RecordID         uuid.UUID
	CatalogItemID    uuid.UUID
	SKU              string
	Name             string
	Unit             string
	ExpectedQuantity float64
	ActualQuantity   float64
	Notes            *string
}

// Variance is actual minus expected: negative = shortage, positive = overage.
// It is derived, never stored, so every reader reproduces the same number.
func (i Item) Variance() float64 {
	return i.ActualQuantity - i.ExpectedQuantity
}

// ItemInput is a single counted line as submitted by the caller.
type ItemInput struct {
	CatalogItemID  uuid.UUID
	ActualQuantity float64
	Notes          *string
}

// Preview is the unpersisted scaffold returned for the "new" sentinel. It
// deliberately has no ID so downstream code cannot mistake it for a durable
// record.
type Preview struct {
	Code        string
	StoreID     uuid.UUID
	Status      Status
	PerformedBy uuid.UUID
	Items       []PreviewItem
}

// PreviewItem projects one catalog item into an uncounted line.
type PreviewItem struct {
	CatalogItemID    uuid.UUID
	SKU              string
	Name             string
	Unit             string
	ExpectedQuantity float64
	ActualQuantity   float64
}

// FindOneResult is the tagged lookup result: exactly one of Record or
// Preview is set.
type FindOneResult struct {
	Record  *Record
	Preview *Preview
}

// Common validation errors.
var (
	ErrEmptyItems       = fmt.Errorf("%w: at least one item is required", shared.ErrValidation)
	ErrNegativeQuantity = fmt.Errorf("%w: actual quantity must be >= 0", shared.ErrValidation)
	ErrInvalidID        = fmt.Errorf("%w: invalid record id", shared.ErrValidation)
)

// UnknownItemsError reports submitted catalog item ids that do not resolve
// within the record's store.
type UnknownItemsError struct {
	IDs []uuid.UUID
}

func (e *UnknownItemsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("validation failed: unknown catalog items: %s", strings.Join(ids, ", "))
}

// Unwrap makes the error match shared.ErrValidation.
func (e *UnknownItemsError) Unwrap() error {
	return shared.ErrValidation
}
